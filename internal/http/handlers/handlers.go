// Admin API handler wiring.
//
// This file defines the service interfaces the handlers depend on, the
// Handlers aggregate, and shared pagination helpers. Handlers stay
// transport-thin: they validate and normalize inputs, delegate to the
// application services, and translate sentinel errors into the standard
// envelope.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
	"github.com/dustlik/civicbot/internal/utils"
)

// ConversationService exposes the user and message read operations the
// admin API needs.
type ConversationService interface {
	GetUser(ctx context.Context, id uint) (*domain.User, error)
	ListUsers(ctx context.Context, search string, offset, limit int) ([]domain.User, int64, error)
	CountUserMessages(ctx context.Context, userID uint) (int64, error)
	GetMessage(ctx context.Context, id uint) (*domain.Message, error)
	ListMessages(ctx context.Context, userID *uint, offset, limit int) ([]domain.Message, int64, error)
}

// KnowledgeService exposes topic and FAQ management.
type KnowledgeService interface {
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	GetTopic(ctx context.Context, id uint) (*domain.Topic, error)
	CreateTopic(ctx context.Context, t *domain.Topic) error
	UpdateTopic(ctx context.Context, t *domain.Topic) error
	DeleteTopic(ctx context.Context, id uint) error
	CountTopicFAQs(ctx context.Context, topicID uint) (int64, error)
	ListFAQs(ctx context.Context, topicID *uint) ([]domain.FAQ, error)
	GetFAQ(ctx context.Context, id uint) (*domain.FAQ, error)
	CreateFAQ(ctx context.Context, f *domain.FAQ) error
	UpdateFAQ(ctx context.Context, f *domain.FAQ) error
	DeleteFAQ(ctx context.Context, id uint) error
}

// StatsService computes the dashboard aggregate.
type StatsService interface {
	Overview(ctx context.Context) (*services.Overview, error)
}

// Handlers bundles all admin API endpoints and their dependencies.
type Handlers struct {
	convSvc  ConversationService
	knowSvc  KnowledgeService
	statsSvc StatsService
	auth     AuthConfig
}

// New constructs a Handlers instance bound to the given services.
func New(convSvc ConversationService, knowSvc KnowledgeService, statsSvc StatsService, auth AuthConfig) *Handlers {
	return &Handlers{convSvc: convSvc, knowSvc: knowSvc, statsSvc: statsSvc, auth: auth}
}

// Pagination is the standard page metadata attached to list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate converts page metadata into the response shape.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// pathID parses the numeric :id path parameter, returning (0, false) and a
// written 400 response on garbage.
func pathID(c *gin.Context) (uint, bool) {
	id := utils.AtoiDefault(c.Param("id"), -1)
	if id < 1 {
		fail(c, 400, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
