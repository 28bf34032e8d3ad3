// Package services – KnowledgeService
//
// This file implements the KnowledgeService, which resolves menu input to
// topics and selects the canonical FAQ answer. Resolution is exact-match only,
// against the fixed catalog table; there is no fuzzy or partial matching.
//
// Known limitation carried over deliberately: when a topic has several active
// FAQs, the first one (by insertion order) is always the canonical answer;
// there is no ranking or disambiguation.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/catalog"
	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// KnowledgeService answers "which topic is this, and what do we say about it".
type KnowledgeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewKnowledgeService constructs a KnowledgeService.
func NewKnowledgeService(db *gorm.DB) *KnowledgeService {
	return &KnowledgeService{DB: db}
}

// Lookup resolves a button label or a bare slug to an active topic.
//
// A label from the fixed table is first mapped to its slug; anything else is
// tried as a slug directly. Unknown and inactive topics both yield
// ErrTopicNotAvailable; the caller shows the "not available yet" reply, it
// never treats this as a failure.
func (s *KnowledgeService) Lookup(ctx context.Context, labelOrSlug string) (*domain.Topic, error) {
	tr := otel.Tracer("services/KnowledgeService")
	ctx, span := tr.Start(ctx, "Lookup",
		trace.WithAttributes(attribute.String("catalog.input", labelOrSlug)),
	)
	defer span.End()

	slug := labelOrSlug
	if mapped, ok := catalog.SlugForLabel(labelOrSlug); ok {
		slug = mapped
	}

	t, err := repo.GetActiveTopicBySlug(ctx, s.DB, slug)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTopicNotAvailable
		}
		return nil, err
	}
	return t, nil
}

// CanonicalFAQ returns the first active FAQ of a topic, or ErrNoActiveFAQ
// when the topic has none. The caller substitutes the "coming soon" reply in
// that case instead of surfacing an error.
func (s *KnowledgeService) CanonicalFAQ(ctx context.Context, topicID uint) (*domain.FAQ, error) {
	tr := otel.Tracer("services/KnowledgeService")
	ctx, span := tr.Start(ctx, "CanonicalFAQ",
		trace.WithAttributes(attribute.Int("topic.id", int(topicID))),
	)
	defer span.End()

	faqs, err := repo.ActiveFAQsForTopic(ctx, s.DB, topicID)
	if err != nil {
		return nil, err
	}
	if len(faqs) == 0 {
		return nil, ErrNoActiveFAQ
	}
	return &faqs[0], nil
}

// ListTopics returns all topics in menu order, active or not.
func (s *KnowledgeService) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	return repo.ListTopics(ctx, s.DB)
}

// GetTopic fetches a single topic by primary key.
func (s *KnowledgeService) GetTopic(ctx context.Context, id uint) (*domain.Topic, error) {
	t, err := repo.GetTopic(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}
	return t, nil
}

// CreateTopic inserts a new topic. A slug collision yields ErrSlugTaken.
func (s *KnowledgeService) CreateTopic(ctx context.Context, t *domain.Topic) error {
	if err := repo.CreateTopic(ctx, s.DB, t); err != nil {
		if IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

// UpdateTopic persists slug, title, emoji, order and active flag.
func (s *KnowledgeService) UpdateTopic(ctx context.Context, t *domain.Topic) error {
	if err := repo.UpdateTopic(ctx, s.DB, t); err != nil {
		if repo.IsNotFound(err) {
			return ErrTopicNotFound
		}
		if IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

// DeleteTopic removes a topic together with its FAQs; messages that pointed
// at it keep existing with a null topic reference.
func (s *KnowledgeService) DeleteTopic(ctx context.Context, id uint) error {
	if err := repo.DeleteTopic(ctx, s.DB, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrTopicNotFound
		}
		return err
	}
	return nil
}

// CountTopicFAQs counts all FAQs attached to a topic.
func (s *KnowledgeService) CountTopicFAQs(ctx context.Context, topicID uint) (int64, error) {
	return repo.CountTopicFAQs(ctx, s.DB, topicID)
}

// ListFAQs returns FAQs, optionally filtered by topic.
func (s *KnowledgeService) ListFAQs(ctx context.Context, topicID *uint) ([]domain.FAQ, error) {
	return repo.ListFAQs(ctx, s.DB, topicID)
}

// GetFAQ fetches a single FAQ by primary key.
func (s *KnowledgeService) GetFAQ(ctx context.Context, id uint) (*domain.FAQ, error) {
	f, err := repo.GetFAQ(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrFAQNotFound
		}
		return nil, err
	}
	return f, nil
}

// CreateFAQ inserts a new FAQ under an existing topic.
func (s *KnowledgeService) CreateFAQ(ctx context.Context, f *domain.FAQ) error {
	if _, err := repo.GetTopic(ctx, s.DB, f.TopicID); err != nil {
		if repo.IsNotFound(err) {
			return ErrTopicNotFound
		}
		return err
	}
	return repo.CreateFAQ(ctx, s.DB, f)
}

// UpdateFAQ persists topic, question, answer and active flag.
func (s *KnowledgeService) UpdateFAQ(ctx context.Context, f *domain.FAQ) error {
	if err := repo.UpdateFAQ(ctx, s.DB, f); err != nil {
		if repo.IsNotFound(err) {
			return ErrFAQNotFound
		}
		return err
	}
	return nil
}

// DeleteFAQ removes an FAQ.
func (s *KnowledgeService) DeleteFAQ(ctx context.Context, id uint) error {
	if err := repo.DeleteFAQ(ctx, s.DB, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrFAQNotFound
		}
		return err
	}
	return nil
}

// IsUniqueViolation reports whether err looks like a unique-constraint
// failure across the drivers we may run against.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite surfaces constraint failures as plain errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
