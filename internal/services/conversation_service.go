// Package services – ConversationService
//
// This file implements the ConversationService, the application-level owner of
// the conversation store. It registers users on contact and records both sides
// of every exchange through the capped, counter-backed message store in repo.
//
// Persistence failures are returned to the caller unchanged: the store makes
// no retry or partial-write recovery attempt, relying on the transaction
// around each record operation.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConversationService provides user registration and message recording.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{DB: db}
}

// EnsureUser creates the user on first contact and refreshes the display
// identity and last-active timestamp on every later one. The Telegram id is
// the immutable identity; everything else may drift.
func (s *ConversationService) EnsureUser(ctx context.Context, telegramID int64, username, fullName, langCode string) (*domain.User, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "EnsureUser",
		trace.WithAttributes(attribute.Int64("telegram.user_id", telegramID)),
	)
	defer span.End()

	u, _, err := repo.UpsertUser(ctx, s.DB, telegramID, username, fullName, langCode)
	return u, err
}

// Record logs one side of an exchange. The insert, the counter increment, and
// the retention trim happen atomically in repo.RecordMessage; any error from
// that transaction propagates unchanged.
func (s *ConversationService) Record(ctx context.Context, userID uint, role, text string, topicID *uint) (*domain.Message, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Record",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.String("message.role", role),
		),
	)
	defer span.End()

	return repo.RecordMessage(ctx, s.DB, userID, role, text, topicID)
}

// GetUser fetches a single user by primary key.
func (s *ConversationService) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListUsers returns one page of users plus the unpaged total. The search term
// matches full name or username, case-insensitively.
func (s *ConversationService) ListUsers(ctx context.Context, search string, offset, limit int) ([]domain.User, int64, error) {
	total, err := repo.CountUsers(ctx, s.DB, search)
	if err != nil {
		return nil, 0, err
	}
	users, err := repo.ListUsersPage(ctx, s.DB, search, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CountUserMessages counts all messages stored for a user, both roles.
func (s *ConversationService) CountUserMessages(ctx context.Context, userID uint) (int64, error) {
	return repo.CountUserMessages(ctx, s.DB, userID)
}

// GetMessage fetches a single message with its user and topic preloaded.
func (s *ConversationService) GetMessage(ctx context.Context, id uint) (*domain.Message, error) {
	m, err := repo.GetMessage(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMessages returns one page of messages, newest first, plus the unpaged
// total. A non-nil userID narrows both to that user.
func (s *ConversationService) ListMessages(ctx context.Context, userID *uint, offset, limit int) ([]domain.Message, int64, error) {
	total, err := repo.CountMessages(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	msgs, err := repo.ListMessagesPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}
