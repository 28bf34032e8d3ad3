// Message HTTP handlers.
//
// This file exposes the read-only conversation history:
//   - GET /messages       (paginated list, optionally filtered by user)
//   - GET /messages/{id}  (detail)
//
// Only the retained window of messages is visible here; rows discarded by
// the retention trim are gone, while the lifetime counter on the stats
// endpoint keeps the true total.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
	"github.com/dustlik/civicbot/internal/utils"
)

// MessageView is the API projection of a stored message, with the user name
// and topic title denormalized for direct rendering.
type MessageView struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	UserName   string    `json:"user_name"`
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	TopicID    *uint     `json:"topic_id"`
	TopicTitle string    `json:"topic_title"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListMessagesResponse wraps a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []MessageView `json:"messages"`
	Pagination Pagination    `json:"pagination"`
}

func messageView(m *domain.Message) MessageView {
	v := MessageView{
		ID:        m.ID,
		UserID:    m.UserID,
		UserName:  m.User.FullName,
		Role:      m.Role,
		Text:      m.Text,
		TopicID:   m.TopicID,
		Timestamp: m.Timestamp,
	}
	if v.UserName == "" {
		v.UserName = m.User.Username
	}
	if m.Topic != nil {
		v.TopicTitle = m.Topic.Title
	}
	return v
}

// ListMessages returns a page of stored messages, newest first. The optional
// "user_id" query narrows the list to one user.
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	var userID *uint
	if raw := c.Query("user_id"); raw != "" {
		id := utils.AtoiDefault(raw, -1)
		if id < 1 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id must be a positive integer")
			return
		}
		uid := uint(id)
		userID = &uid
	}

	msgs, total, err := h.convSvc.ListMessages(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageView(&msgs[i]))
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: out, Pagination: paginate(page, pageSize, total)})
}

// GetMessage returns one stored message.
func (h *Handlers) GetMessage(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	m, err := h.convSvc.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, messageView(m))
}
