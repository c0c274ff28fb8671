package data

import (
	"context"
	"encoding/json"
	"time"

	"VisionGuard/internal/model"
	pkgerrors "VisionGuard/pkg/errors"
	pkglog "VisionGuard/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// ServiceTransition is the GORM model for the service_transitions table.
type ServiceTransition struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	Capability     string    `gorm:"column:capability;type:varchar(50);not null;index"`
	TransitionType string    `gorm:"column:transition_type;type:varchar(50);not null"`
	Details        string    `gorm:"column:details;type:json"` // JSON string
	OccurredAt     time.Time `gorm:"column:occurred_at;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ServiceTransition) TableName() string {
	return "service_transitions"
}

// TransitionLoggerImpl implements biz.TransitionLogger. Writes go through a
// buffered channel so a slow database can never stall a poll tick.
type TransitionLoggerImpl struct {
	db      *gorm.DB
	logChan chan *ServiceTransition
	logger  *pkglog.LogHelper
}

// NewTransitionLogger creates a new transition logger with async channel.
func NewTransitionLogger(db *gorm.DB, logger log.Logger) *TransitionLoggerImpl {
	tl := &TransitionLoggerImpl{
		db:      db,
		logChan: make(chan *ServiceTransition, 1000), // Buffer size 1000 to prevent blocking
		logger:  pkglog.NewLogHelper(logger),
	}

	// Start background goroutine for async logging
	go tl.start()

	return tl
}

// start processes transition rows from the channel.
func (t *TransitionLoggerImpl) start() {
	for row := range t.logChan {
		ctx := context.Background()
		err := t.db.WithContext(ctx).Create(row).Error
		if err != nil && pkgerrors.IsDeadlockError(err) {
			// Deadlocks on the append-only history table are transient;
			// one retry is enough.
			err = t.db.WithContext(ctx).Create(row).Error
		}
		if err != nil {
			t.logger.Errorw("failed to write transition history",
				"capability", row.Capability,
				"transition_type", row.TransitionType,
				"connection_error", pkgerrors.IsConnectionError(err),
				"error", err)
		} else {
			t.logger.Database("transition history written",
				"capability", row.Capability,
				"transition_type", row.TransitionType)
		}
	}
}

// LogTransition records one capability status transition (non-blocking).
func (t *TransitionLoggerImpl) LogTransition(ctx context.Context, event *model.StatusChangedEvent) {
	details := map[string]interface{}{
		"old_status": string(event.OldStatus),
		"new_status": string(event.NewStatus),
		"level":      string(event.Level),
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		t.logger.Errorw("failed to marshal transition details", "error", err)
		return
	}

	row := &ServiceTransition{
		Capability:     string(event.Capability),
		TransitionType: event.TransitionType(),
		Details:        string(detailsJSON),
		OccurredAt:     event.At,
	}

	// Send to channel (non-blocking)
	select {
	case t.logChan <- row:
		// Successfully queued
	default:
		t.logger.Warnw("transition history channel full, dropping event",
			"capability", row.Capability,
			"transition_type", row.TransitionType)
	}
}

// PurgeOlderThan deletes transition rows older than the cutoff and returns
// the number of rows removed. Called by the retention cron job.
func (t *TransitionLoggerImpl) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := t.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&ServiceTransition{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
