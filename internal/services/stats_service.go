// Package services – StatsService
//
// This file implements the dashboard aggregation: lifetime counters, 7-day
// deltas, a 7-day daily series, and the 30-day topic leaderboard. The
// lifetime message total comes from the persistent counter, so it keeps
// growing even as the retention trim discards old rows.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dustlik/civicbot/internal/repo"

	"go.opentelemetry.io/otel"
)

// DailyCount is one point of the daily-message series.
type DailyCount struct {
	// Date is rendered as day-month, e.g. "07-Aug".
	Date string `json:"date"`
	// Messages is the number of user messages received on that day.
	Messages int64 `json:"messages"`
}

// Overview is the aggregated dashboard payload.
type Overview struct {
	TotalUsers    int64              `json:"total_users"`
	TotalMessages int64              `json:"total_messages"`
	NewUsers7d    int64              `json:"new_users_7d"`
	NewMessages7d int64              `json:"new_messages_7d"`
	Daily         []DailyCount       `json:"daily_messages"`
	TopTopics     []repo.TopTopicRow `json:"top_topics"`
}

// StatsService computes the admin dashboard numbers.
type StatsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Now supplies the reference time; tests pin it.
	Now func() time.Time
}

// NewStatsService constructs a StatsService using wall-clock time.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db, Now: time.Now}
}

// Overview assembles the full dashboard payload in one call.
//
// The daily series covers the last seven calendar days including today, in
// chronological order, counting user-role messages only. Days with no traffic
// appear with a zero count. The topic leaderboard covers the last 30 days and
// is capped at five entries.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Overview")
	defer span.End()

	now := s.Now()

	totalUsers, err := repo.CountUsers(ctx, s.DB, "")
	if err != nil {
		return nil, err
	}
	totalMessages, err := repo.TotalMessages(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	newUsers, err := repo.CountUsersSince(ctx, s.DB, weekAgo)
	if err != nil {
		return nil, err
	}
	newMessages, err := repo.CountMessagesSince(ctx, s.DB, weekAgo)
	if err != nil {
		return nil, err
	}

	daily := make([]DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 0, 1)
		n, err := repo.CountUserMessagesBetween(ctx, s.DB, start, end)
		if err != nil {
			return nil, err
		}
		daily = append(daily, DailyCount{Date: start.Format("02-Jan"), Messages: n})
	}

	top, err := repo.TopTopics(ctx, s.DB, now.AddDate(0, 0, -30), 5)
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalUsers:    totalUsers,
		TotalMessages: totalMessages,
		NewUsers7d:    newUsers,
		NewMessages7d: newMessages,
		Daily:         daily,
		TopTopics:     top,
	}, nil
}
