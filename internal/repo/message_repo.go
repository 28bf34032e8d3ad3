// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the conversation store: message inserts
// with the capped-retention policy and the lifetime counter.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/domain"
)

// RetentionCap is the maximum number of live Message rows. The check is
// strict ("> cap"), so the table may legitimately hold exactly RetentionCap
// rows; one more insert collapses it to a single row.
const RetentionCap = 200

// RecordMessage inserts a message row, increments the lifetime counter, and
// enforces the retention cap, all inside one transaction.
//
// Trim semantics: the row count is compared after the insert. When it exceeds
// RetentionCap, every row except the one just inserted is deleted, leaving
// exactly one. Only the counter (and that surviving row) carry history across
// a trim.
//
// Any persistence error aborts the transaction and propagates to the caller;
// no partial state is possible.
func RecordMessage(ctx context.Context, db *gorm.DB, userID uint, role, text string, topicID *uint) (*domain.Message, error) {
	m := &domain.Message{
		UserID:    userID,
		Role:      role,
		Text:      text,
		TopicID:   topicID,
		Timestamp: time.Now().UTC(),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if err := incrementCounter(tx); err != nil {
			return err
		}

		var live int64
		if err := tx.Model(&domain.Message{}).Count(&live).Error; err != nil {
			return err
		}
		if live > RetentionCap {
			return tx.Where("id <> ?", m.ID).Delete(&domain.Message{}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// incrementCounter bumps the single counter row by one, creating it when
// absent. The UPDATE-then-INSERT order keeps the common path to a single
// statement; both run inside the caller's transaction.
func incrementCounter(tx *gorm.DB) error {
	res := tx.Model(&domain.StatsCounter{}).
		Where("id = ?", domain.StatsCounterID).
		UpdateColumn("total_messages", gorm.Expr("total_messages + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return tx.Create(&domain.StatsCounter{ID: domain.StatsCounterID, TotalMessages: 1}).Error
	}
	return nil
}

// GetMessage fetches a message by ID with its user and topic preloaded.
func GetMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).
		Preload("User").
		Preload("Topic").
		First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMessages returns the live row count, optionally scoped to one user.
// A nil userID counts everything. Note this is the retained count, not the
// lifetime total; see TotalMessages in stats.go for that.
func CountMessages(ctx context.Context, db *gorm.DB, userID *uint) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Message{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListMessagesPage returns a page of live messages, newest first, optionally
// scoped to one user. User and topic rows are preloaded for display.
func ListMessagesPage(ctx context.Context, db *gorm.DB, userID *uint, offset, limit int) ([]domain.Message, error) {
	q := db.WithContext(ctx).
		Preload("User").
		Preload("Topic").
		Order("timestamp DESC, id DESC")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var out []domain.Message
	err := q.Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}
