// Stats HTTP handler.
//
// This file exposes GET /stats, the dashboard aggregate. The endpoint is
// deliberately non-failing: when aggregation errors out, it still answers
// HTTP 200 with a zeroed payload and an "error" field, so the dashboard
// renders empty instead of breaking.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dustlik/civicbot/internal/http/middleware"
	"github.com/dustlik/civicbot/internal/repo"
	"github.com/dustlik/civicbot/internal/services"
)

// StatsResponse is the dashboard payload. Error is set only on the degraded
// path, alongside zeroed counters and empty series.
type StatsResponse struct {
	TotalUsers    int64                 `json:"total_users"`
	TotalMessages int64                 `json:"total_messages"`
	NewUsers7d    int64                 `json:"new_users_7d"`
	NewMessages7d int64                 `json:"new_messages_7d"`
	Daily         []services.DailyCount `json:"daily_messages"`
	TopTopics     []repo.TopTopicRow    `json:"top_topics"`
	Error         string                `json:"error,omitempty"`
}

// Stats returns the aggregated dashboard numbers, or the zeroed degraded
// payload when aggregation fails.
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	ov, err := h.statsSvc.Overview(ctx)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("stats aggregation failed")
		ok(c, http.StatusOK, StatsResponse{
			Daily:     []services.DailyCount{},
			TopTopics: []repo.TopTopicRow{},
			Error:     err.Error(),
		})
		return
	}

	ok(c, http.StatusOK, StatsResponse{
		TotalUsers:    ov.TotalUsers,
		TotalMessages: ov.TotalMessages,
		NewUsers7d:    ov.NewUsers7d,
		NewMessages7d: ov.NewMessages7d,
		Daily:         ov.Daily,
		TopTopics:     ov.TopTopics,
	})
}
