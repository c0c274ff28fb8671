package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"VisionGuard/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return rdb, mr
}

func broadcastTestSnapshot() *model.StatusSnapshot {
	success := time.Date(2025, 6, 1, 11, 59, 30, 0, time.UTC)
	check := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.StatusSnapshot{
		Timestamp: check,
		Level:     model.LevelMinimal,
		Services: map[model.Capability]model.ServiceState{
			model.CapabilityDetection: {
				Capability:   model.CapabilityDetection,
				Status:       model.StatusUnavailable,
				CircuitState: model.CircuitOpen,
				FailureCount: 5,
				ErrorMessage: "connection refused",
				LastCheck:    &check,
			},
			model.CapabilityRiskReasoning: {
				Capability:   model.CapabilityRiskReasoning,
				Status:       model.StatusHealthy,
				CircuitState: model.CircuitClosed,
				LastSuccess:  &success,
				LastCheck:    &check,
			},
		},
		AvailableFeatures: []string{"alert_prioritization", "camera_monitoring", "event_history", "risk_scoring"},
	}
}

func TestStatusBroadcaster_Publish(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, StatusChannel)
	defer sub.Close()

	// Wait for the subscription to be established before publishing.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	d := &Data{redisClient: rdb}
	b := NewStatusBroadcaster(d, log.DefaultLogger)

	err = b.Publish(ctx, broadcastTestSnapshot())
	require.NoError(t, err)

	msgCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	require.NoError(t, err)
	assert.Equal(t, StatusChannel, msg.Channel)

	var payload model.StatusPayload
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))

	assert.Equal(t, "2025-06-01T12:00:00Z", payload.Timestamp)
	assert.Equal(t, "minimal", payload.DegradationMode)
	assert.Equal(t, []string{"alert_prioritization", "camera_monitoring", "event_history", "risk_scoring"}, payload.AvailableFeatures)

	require.Contains(t, payload.Services, "detection")
	detection := payload.Services["detection"]
	assert.Equal(t, "unavailable", detection.Status)
	assert.Equal(t, "open", detection.CircuitState)
	assert.Equal(t, 5, detection.FailureCount)
	require.NotNil(t, detection.ErrorMessage)
	assert.Equal(t, "connection refused", *detection.ErrorMessage)
	assert.Nil(t, detection.LastSuccess)

	require.Contains(t, payload.Services, "risk_reasoning")
	reasoning := payload.Services["risk_reasoning"]
	assert.Equal(t, "healthy", reasoning.Status)
	assert.Nil(t, reasoning.ErrorMessage)
	require.NotNil(t, reasoning.LastSuccess)
	assert.Equal(t, "2025-06-01T11:59:30Z", *reasoning.LastSuccess)
}

func TestStatusBroadcaster_NilRedisIsNoOp(t *testing.T) {
	d := &Data{redisClient: nil}
	b := NewStatusBroadcaster(d, log.DefaultLogger)

	err := b.Publish(context.Background(), broadcastTestSnapshot())
	assert.NoError(t, err)
}

func TestStatusBroadcaster_RedisDownReturnsError(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	defer rdb.Close()

	d := &Data{redisClient: rdb}
	b := NewStatusBroadcaster(d, log.DefaultLogger)

	mr.Close()

	err := b.Publish(context.Background(), broadcastTestSnapshot())
	assert.Error(t, err)
}
