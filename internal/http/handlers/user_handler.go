// User HTTP handlers.
//
// This file exposes the read-only user directory:
//   - GET /users       (paginated list with optional name/username search)
//   - GET /users/{id}  (detail including message count)
//
// Users are created by the bot, never through this API.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
)

// UserSummary is the list-item projection of a user.
type UserSummary struct {
	ID           uint      `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	LanguageCode string    `json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
}

// UserDetail extends UserSummary with the stored message count.
type UserDetail struct {
	UserSummary
	Phone        *string `json:"phone"`
	MessageCount int64   `json:"message_count"`
}

// ListUsersResponse wraps a page of users and pagination metadata.
type ListUsersResponse struct {
	Users      []UserSummary `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

func userSummary(u *domain.User) UserSummary {
	return UserSummary{
		ID:           u.ID,
		TelegramID:   u.TelegramID,
		Username:     u.Username,
		FullName:     u.FullName,
		LanguageCode: u.LanguageCode,
		CreatedAt:    u.CreatedAt,
		LastActive:   u.LastActive,
	}
}

// ListUsers returns a page of registered users, newest first. The optional
// "search" query matches full name or username, case-insensitively.
func (h *Handlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	search := strings.TrimSpace(c.Query("search"))

	users, total, err := h.convSvc.ListUsers(ctx, search, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, userSummary(&users[i]))
	}
	ok(c, http.StatusOK, ListUsersResponse{Users: out, Pagination: paginate(page, pageSize, total)})
}

// GetUser returns one user with the number of messages currently stored for
// them. The count reflects live rows only, not the lifetime counter.
func (h *Handlers) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathID(c)
	if !okID {
		return
	}

	u, err := h.convSvc.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	count, err := h.convSvc.CountUserMessages(ctx, u.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, UserDetail{
		UserSummary:  userSummary(u),
		Phone:        u.Phone,
		MessageCount: count,
	})
}
