// FAQ HTTP handlers.
//
// This file exposes FAQ management:
//   - GET    /faqs        (list, optionally filtered by topic)
//   - POST   /faqs        (create)
//   - GET    /faqs/{id}   (detail)
//   - PATCH  /faqs/{id}   (partial update)
//   - DELETE /faqs/{id}   (delete)
//
// The bot serves the first active FAQ of a topic, so ordering within a topic
// follows insertion order.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
	"github.com/dustlik/civicbot/internal/utils"
)

// FAQPayload is the JSON shape for creating an FAQ.
type FAQPayload struct {
	TopicID  uint   `json:"topic_id" binding:"required"`
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// FAQPatch is the JSON shape for a partial update; nil fields are left
// untouched.
type FAQPatch struct {
	TopicID  *uint   `json:"topic_id"`
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
	IsActive *bool   `json:"is_active"`
}

// FAQView is the API projection of an FAQ.
type FAQView struct {
	ID        uint      `json:"id"`
	TopicID   uint      `json:"topic_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func faqView(f *domain.FAQ) FAQView {
	return FAQView{
		ID:        f.ID,
		TopicID:   f.TopicID,
		Question:  f.Question,
		Answer:    f.Answer,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ListFAQs returns all FAQs, active or not. The optional "topic_id" query
// narrows the list to one topic.
func (h *Handlers) ListFAQs(c *gin.Context) {
	ctx := c.Request.Context()

	var topicID *uint
	if raw := c.Query("topic_id"); raw != "" {
		id := utils.AtoiDefault(raw, -1)
		if id < 1 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topic_id must be a positive integer")
			return
		}
		tid := uint(id)
		topicID = &tid
	}

	faqs, err := h.knowSvc.ListFAQs(ctx, topicID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]FAQView, 0, len(faqs))
	for i := range faqs {
		out = append(out, faqView(&faqs[i]))
	}
	ok(c, http.StatusOK, gin.H{"faqs": out})
}

// GetFAQ returns one FAQ.
func (h *Handlers) GetFAQ(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	f, err := h.knowSvc.GetFAQ(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrFAQNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "faq not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, faqView(f))
}

// CreateFAQ inserts a new FAQ under an existing topic.
func (h *Handlers) CreateFAQ(c *gin.Context) {
	ctx := c.Request.Context()

	var req FAQPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topic_id, question and answer required")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Question == "" || req.Answer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topic_id, question and answer required")
		return
	}

	f := domain.FAQ{
		TopicID:  req.TopicID,
		Question: req.Question,
		Answer:   req.Answer,
		IsActive: true,
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	if err := h.knowSvc.CreateFAQ(ctx, &f); err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topic does not exist")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	ok(c, http.StatusCreated, faqView(&f))
}

// UpdateFAQ applies a partial update to one FAQ.
func (h *Handlers) UpdateFAQ(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	var req FAQPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload")
		return
	}

	f, err := h.knowSvc.GetFAQ(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrFAQNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "faq not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	if req.TopicID != nil {
		f.TopicID = *req.TopicID
	}
	if req.Question != nil {
		f.Question = strings.TrimSpace(*req.Question)
	}
	if req.Answer != nil {
		f.Answer = strings.TrimSpace(*req.Answer)
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	if f.Question == "" || f.Answer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question and answer must be non-empty")
		return
	}

	if err := h.knowSvc.UpdateFAQ(ctx, f); err != nil {
		if errors.Is(err, services.ErrFAQNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "faq not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, faqView(f))
}

// DeleteFAQ removes an FAQ.
func (h *Handlers) DeleteFAQ(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	if err := h.knowSvc.DeleteFAQ(ctx, id); err != nil {
		if errors.Is(err, services.ErrFAQNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "faq not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}
