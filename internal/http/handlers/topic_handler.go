// Topic HTTP handlers.
//
// This file exposes topic management:
//   - GET    /topics        (list with FAQ counts)
//   - POST   /topics        (create)
//   - GET    /topics/{id}   (detail with FAQs)
//   - PATCH  /topics/{id}   (partial update)
//   - DELETE /topics/{id}   (delete; FAQs go with it, message links go null)
//
// Deactivating a topic (is_active=false) hides it from the bot without
// touching history; deletion removes it entirely.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
)

// TopicPayload is the JSON shape for creating a topic.
type TopicPayload struct {
	Slug     string `json:"slug" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Emoji    string `json:"emoji"`
	Order    int    `json:"order"`
	IsActive *bool  `json:"is_active"`
}

// TopicPatch is the JSON shape for a partial update; nil fields are left
// untouched.
type TopicPatch struct {
	Slug     *string `json:"slug"`
	Title    *string `json:"title"`
	Emoji    *string `json:"emoji"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"is_active"`
}

// TopicView is the API projection of a topic.
type TopicView struct {
	ID       uint   `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Emoji    string `json:"emoji"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
	FAQCount int64  `json:"faq_count"`
}

// TopicDetail extends TopicView with the topic's FAQs.
type TopicDetail struct {
	TopicView
	FAQs []FAQView `json:"faqs"`
}

func topicView(t *domain.Topic, faqCount int64) TopicView {
	return TopicView{
		ID:       t.ID,
		Slug:     t.Slug,
		Title:    t.Title,
		Emoji:    t.Emoji,
		Order:    t.Order,
		IsActive: t.IsActive,
		FAQCount: faqCount,
	}
}

// ListTopics returns every topic in menu order, each with its FAQ count.
func (h *Handlers) ListTopics(c *gin.Context) {
	ctx := c.Request.Context()

	topics, err := h.knowSvc.ListTopics(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]TopicView, 0, len(topics))
	for i := range topics {
		count, err := h.knowSvc.CountTopicFAQs(ctx, topics[i].ID)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
			return
		}
		out = append(out, topicView(&topics[i], count))
	}
	ok(c, http.StatusOK, gin.H{"topics": out})
}

// GetTopic returns one topic with all of its FAQs, active or not.
func (h *Handlers) GetTopic(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	t, err := h.knowSvc.GetTopic(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	faqs, err := h.knowSvc.ListFAQs(ctx, &t.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	views := make([]FAQView, 0, len(faqs))
	for i := range faqs {
		views = append(views, faqView(&faqs[i]))
	}
	ok(c, http.StatusOK, TopicDetail{TopicView: topicView(t, int64(len(faqs))), FAQs: views})
}

// CreateTopic inserts a new topic. The slug must be unique.
func (h *Handlers) CreateTopic(c *gin.Context) {
	ctx := c.Request.Context()

	var req TopicPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slug and title required")
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	req.Title = strings.TrimSpace(req.Title)
	if req.Slug == "" || req.Title == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slug and title required")
		return
	}

	t := domain.Topic{
		Slug:     req.Slug,
		Title:    req.Title,
		Emoji:    req.Emoji,
		Order:    req.Order,
		IsActive: true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := h.knowSvc.CreateTopic(ctx, &t); err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			fail(c, http.StatusConflict, ErrCodeSlugTaken, "slug already in use")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	ok(c, http.StatusCreated, topicView(&t, 0))
}

// UpdateTopic applies a partial update to one topic.
func (h *Handlers) UpdateTopic(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	var req TopicPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload")
		return
	}

	t, err := h.knowSvc.GetTopic(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	if req.Slug != nil {
		t.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Emoji != nil {
		t.Emoji = *req.Emoji
	}
	if req.Order != nil {
		t.Order = *req.Order
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if t.Slug == "" || t.Title == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slug and title must be non-empty")
		return
	}

	if err := h.knowSvc.UpdateTopic(ctx, t); err != nil {
		switch {
		case errors.Is(err, services.ErrSlugTaken):
			fail(c, http.StatusConflict, ErrCodeSlugTaken, "slug already in use")
		case errors.Is(err, services.ErrTopicNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}

	count, err := h.knowSvc.CountTopicFAQs(ctx, t.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, topicView(t, count))
}

// DeleteTopic removes a topic and its FAQs. History rows that referenced the
// topic survive with a null topic link.
func (h *Handlers) DeleteTopic(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	if err := h.knowSvc.DeleteTopic(ctx, id); err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}
