// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/domain"
)

// defaultLanguage is assumed when the Telegram client reports nothing usable.
const defaultLanguage = "uz"

// UpsertUser ensures a row exists for the given Telegram identity and keeps
// its mutable fields fresh. On first contact the user is created; on every
// later contact the display name and username are refreshed when changed and
// LastActive is touched. TelegramID itself is never modified.
//
// The second return value reports whether the row was newly created.
func UpsertUser(ctx context.Context, db *gorm.DB, telegramID int64, username, fullName, langCode string) (*domain.User, bool, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now().UTC()
		u = domain.User{
			TelegramID:   telegramID,
			Username:     username,
			FullName:     fullName,
			LanguageCode: normalizeLanguage(langCode),
			CreatedAt:    now,
			LastActive:   now,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, false, err
		}
		return &u, true, nil
	case err != nil:
		return nil, false, err
	}

	updates := map[string]any{"last_active": time.Now().UTC()}
	if fullName != "" && u.FullName != fullName {
		updates["full_name"] = fullName
		u.FullName = fullName
	}
	if username != "" && u.Username != username {
		updates["username"] = username
		u.Username = username
	}
	if err := db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
		return nil, false, err
	}
	return &u, false, nil
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByTelegramID fetches a user by platform identity.
func GetUserByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the number of users matching the optional search term
// (substring match on full name or username, case-insensitive).
func CountUsers(ctx context.Context, db *gorm.DB, search string) (int64, error) {
	var total int64
	err := userSearchQuery(db.WithContext(ctx), search).Count(&total).Error
	return total, err
}

// ListUsersPage returns a page of users, newest first, matching the optional
// search term.
func ListUsersPage(ctx context.Context, db *gorm.DB, search string, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := userSearchQuery(db.WithContext(ctx), search).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountUserMessages returns the live message count for one user (both roles).
func CountUserMessages(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

func userSearchQuery(db *gorm.DB, search string) *gorm.DB {
	q := db.Model(&domain.User{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(username) LIKE ?", like, like)
	}
	return q
}

// normalizeLanguage reduces whatever the client reported ("uz", "uz-UZ",
// "ru-RU", garbage) to a base language subtag, defaulting to "uz".
func normalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return defaultLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return defaultLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return defaultLanguage
	}
	return base.String()
}
