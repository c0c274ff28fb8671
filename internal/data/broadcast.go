package data

import (
	"context"
	"encoding/json"
	"fmt"

	"VisionGuard/internal/model"

	pkglog "VisionGuard/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// StatusChannel is the Redis pub/sub channel carrying status snapshots.
// The websocket layer subscribes to it to push updates to browsers.
const StatusChannel = "visionguard:status"

// StatusBroadcaster publishes degradation status snapshots to Redis.
// Its Publish method has the biz.StatusListener signature and is registered
// with the fanout at the composition root. A nil Redis client turns
// publishing into a logged no-op.
type StatusBroadcaster struct {
	rdb    *redis.Client
	logger *pkglog.LogHelper
}

// NewStatusBroadcaster creates a broadcaster on the shared Redis client.
func NewStatusBroadcaster(d *Data, logger log.Logger) *StatusBroadcaster {
	return &StatusBroadcaster{
		rdb:    d.GetRedisClient(),
		logger: pkglog.NewLogHelper(logger),
	}
}

// Publish serializes the snapshot into the wire format and publishes it on
// StatusChannel.
func (b *StatusBroadcaster) Publish(ctx context.Context, snapshot *model.StatusSnapshot) error {
	if b.rdb == nil {
		b.logger.Warn("status broadcast skipped: redis unavailable")
		return nil
	}

	payload, err := json.Marshal(snapshot.ToPayload())
	if err != nil {
		return fmt.Errorf("broadcast: failed to marshal snapshot: %w", err)
	}

	if err := b.rdb.Publish(ctx, StatusChannel, payload).Err(); err != nil {
		return fmt.Errorf("broadcast: failed to publish snapshot: %w", err)
	}

	b.logger.Redis("status snapshot broadcast",
		"channel", StatusChannel,
		"level", snapshot.Level)
	return nil
}
