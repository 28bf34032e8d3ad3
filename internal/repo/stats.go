// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the admin
// dashboard. Each function is context-aware and recomputes on every call;
// nothing here is cached.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/domain"
)

// TopTopicRow is one entry of the top-topics aggregate.
type TopTopicRow struct {
	Title string `gorm:"column:title" json:"topic__title"`
	Emoji string `gorm:"column:emoji" json:"topic__emoji"`
	Count int64  `gorm:"column:count" json:"count"`
}

// TotalMessages returns the lifetime message total from the persistent
// counter, creating the row at zero when absent.
//
// Backfill: when the counter reads zero but live message rows exist (a
// database that predates the counter), it is set once to the live count and
// that value is returned. After the backfill the counter is maintained solely
// by RecordMessage increments.
func TotalMessages(ctx context.Context, db *gorm.DB) (int64, error) {
	var c domain.StatsCounter
	err := db.WithContext(ctx).First(&c, domain.StatsCounterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = domain.StatsCounter{ID: domain.StatsCounterID}
		if err := db.WithContext(ctx).Create(&c).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	if c.TotalMessages == 0 {
		var live int64
		if err := db.WithContext(ctx).Model(&domain.Message{}).Count(&live).Error; err != nil {
			return 0, err
		}
		if live > 0 {
			if err := db.WithContext(ctx).
				Model(&domain.StatsCounter{}).
				Where("id = ?", domain.StatsCounterID).
				Update("total_messages", live).Error; err != nil {
				return 0, err
			}
			c.TotalMessages = live
		}
	}

	return c.TotalMessages, nil
}

// CountUsersSince returns how many users registered at or after t.
func CountUsersSince(ctx context.Context, db *gorm.DB, t time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("created_at >= ?", t).
		Count(&total).Error
	return total, err
}

// CountMessagesSince returns how many live message rows arrived at or after t.
func CountMessagesSince(ctx context.Context, db *gorm.DB, t time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("timestamp >= ?", t).
		Count(&total).Error
	return total, err
}

// CountUserMessagesBetween returns how many user-authored messages fall in
// [start, end). Used for the per-day dashboard series.
func CountUserMessagesBetween(ctx context.Context, db *gorm.DB, start, end time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("role = ? AND timestamp >= ? AND timestamp < ?", domain.RoleUser, start, end).
		Count(&total).Error
	return total, err
}

// TopTopics returns the most-discussed topics since t, by live message count,
// considering only messages with a non-null topic. Results carry the topic
// title and emoji for direct dashboard rendering.
func TopTopics(ctx context.Context, db *gorm.DB, t time.Time, limit int) ([]TopTopicRow, error) {
	var rows []TopTopicRow
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("topics.title AS title, topics.emoji AS emoji, COUNT(messages.id) AS count").
		Joins("JOIN topics ON topics.id = messages.topic_id").
		Where("messages.topic_id IS NOT NULL AND messages.timestamp >= ?", t).
		Group("topics.title, topics.emoji").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
