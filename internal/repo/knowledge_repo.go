// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Topic and
// FAQ reference data maintained through the admin API.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/domain"
)

//
// Topics
//

// GetActiveTopicBySlug fetches an active topic by slug. Inactive or missing
// topics both surface as ErrNotFound; the bot shows the "not available yet"
// reply for either.
func GetActiveTopicBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Topic, error) {
	var t domain.Topic
	if err := db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTopic fetches a topic by primary key, active or not.
func GetTopic(ctx context.Context, db *gorm.DB, id uint) (*domain.Topic, error) {
	var t domain.Topic
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTopics returns all topics ordered by display order then id.
func ListTopics(ctx context.Context, db *gorm.DB) ([]domain.Topic, error) {
	var out []domain.Topic
	err := db.WithContext(ctx).
		Order("display_order ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CreateTopic inserts a new topic row.
func CreateTopic(ctx context.Context, db *gorm.DB, t *domain.Topic) error {
	return db.WithContext(ctx).Create(t).Error
}

// UpdateTopic persists the mutable fields of a topic. The slug may change;
// the primary key never does.
func UpdateTopic(ctx context.Context, db *gorm.DB, t *domain.Topic) error {
	return db.WithContext(ctx).Model(t).
		Select("Slug", "Title", "Emoji", "Order", "IsActive").
		Updates(t).Error
}

// DeleteTopic removes a topic, its FAQs, and nulls the topic reference on any
// message that pointed at it. Messages themselves are retained, only the
// association is cleared. Runs in one transaction so a failed delete leaves
// no dangling references.
func DeleteTopic(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Message{}).
			Where("topic_id = ?", id).
			Update("topic_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("topic_id = ?", id).Delete(&domain.FAQ{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Topic{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountTopicFAQs returns the number of FAQ rows (active or not) for a topic.
func CountTopicFAQs(ctx context.Context, db *gorm.DB, topicID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.FAQ{}).
		Where("topic_id = ?", topicID).
		Count(&total).Error
	return total, err
}

//
// FAQs
//

// ActiveFAQsForTopic returns the active FAQs of a topic in insertion order.
// The first entry, when present, is the canonical answer.
func ActiveFAQsForTopic(ctx context.Context, db *gorm.DB, topicID uint) ([]domain.FAQ, error) {
	var out []domain.FAQ
	err := db.WithContext(ctx).
		Where("topic_id = ? AND is_active = ?", topicID, true).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetFAQ fetches an FAQ by primary key.
func GetFAQ(ctx context.Context, db *gorm.DB, id uint) (*domain.FAQ, error) {
	var f domain.FAQ
	if err := db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFAQs returns all FAQs, optionally scoped to one topic, newest last.
func ListFAQs(ctx context.Context, db *gorm.DB, topicID *uint) ([]domain.FAQ, error) {
	q := db.WithContext(ctx).Order("id ASC")
	if topicID != nil {
		q = q.Where("topic_id = ?", *topicID)
	}
	var out []domain.FAQ
	err := q.Find(&out).Error
	return out, err
}

// CreateFAQ inserts a new FAQ row.
func CreateFAQ(ctx context.Context, db *gorm.DB, f *domain.FAQ) error {
	return db.WithContext(ctx).Create(f).Error
}

// UpdateFAQ persists the mutable fields of an FAQ.
func UpdateFAQ(ctx context.Context, db *gorm.DB, f *domain.FAQ) error {
	return db.WithContext(ctx).Model(f).
		Select("TopicID", "Question", "Answer", "IsActive").
		Updates(f).Error
}

// DeleteFAQ removes an FAQ row.
func DeleteFAQ(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.FAQ{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
