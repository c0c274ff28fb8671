package main

import (
	"context"
	"time"

	"VisionGuard/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// transitionRetentionDays is how long service transition history is kept.
const transitionRetentionDays = 30

// StartRetentionCron starts the daily purge of old transition history rows.
// It runs at 03:00 every day and deletes rows older than the retention window.
func StartRetentionCron(transitions *data.TransitionLoggerImpl, logger log.Logger) *cron.Cron {
	helper := log.NewHelper(logger)

	c := cron.New(cron.WithSeconds())

	// Cron expression: 秒 分 时 日 月 周
	_, err := c.AddFunc("0 0 3 * * *", func() {
		helper.Info("Starting transition history retention task...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		cutoff := time.Now().AddDate(0, 0, -transitionRetentionDays)
		deleted, err := transitions.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			helper.Errorw("transition history retention task failed", "error", err)
		} else {
			helper.Infow("transition history retention task completed", "deleted", deleted)
		}
	})

	if err != nil {
		helper.Errorw("failed to register retention cron job", "error", err)
		return nil
	}

	c.Start()
	helper.Infow("transition history retention cron started",
		"schedule", "daily at 03:00",
		"retention_days", transitionRetentionDays)

	return c
}
