package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"VisionGuard/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(level model.DegradationLevel) *model.StatusSnapshot {
	return &model.StatusSnapshot{
		Timestamp:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Level:             level,
		Services:          map[model.Capability]model.ServiceState{},
		AvailableFeatures: []string{"camera_monitoring", "event_history"},
	}
}

func TestStatusFanout_NotifyReachesAllListeners(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	var got []model.DegradationLevel
	f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		got = append(got, s.Level)
		return nil
	})
	f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		got = append(got, s.Level)
		return nil
	})

	f.Notify(context.Background(), testSnapshot(model.LevelMinimal))

	assert.Equal(t, []model.DegradationLevel{model.LevelMinimal, model.LevelMinimal}, got)
}

func TestStatusFanout_DispatchInRegistrationOrder(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
			order = append(order, i)
			return nil
		})
	}

	f.Notify(context.Background(), testSnapshot(model.LevelNormal))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestStatusFanout_UnregisterStopsNotifications(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	calls := 0
	sub := f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		calls++
		return nil
	})

	f.Notify(context.Background(), testSnapshot(model.LevelNormal))
	require.Equal(t, 1, calls)

	f.Unregister(sub)
	f.Notify(context.Background(), testSnapshot(model.LevelNormal))
	assert.Equal(t, 1, calls)

	// Double unregister and nil handles are no-ops.
	f.Unregister(sub)
	f.Unregister(nil)
}

func TestStatusFanout_ListenerErrorDoesNotStopOthers(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		return errors.New("redis publish failed")
	})

	secondCalled := false
	f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		secondCalled = true
		return nil
	})

	f.Notify(context.Background(), testSnapshot(model.LevelDegraded))

	assert.True(t, secondCalled)
}

func TestStatusFanout_ListenerPanicIsIsolated(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		panic("listener bug")
	})

	secondCalled := false
	f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		secondCalled = true
		return nil
	})

	assert.NotPanics(t, func() {
		f.Notify(context.Background(), testSnapshot(model.LevelOffline))
	})
	assert.True(t, secondCalled)
}

func TestStatusFanout_UnregisterFromWithinCallback(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	calls := 0
	var sub *Subscription
	sub = f.Register(func(ctx context.Context, s *model.StatusSnapshot) error {
		calls++
		f.Unregister(sub)
		return nil
	})

	f.Notify(context.Background(), testSnapshot(model.LevelNormal))
	f.Notify(context.Background(), testSnapshot(model.LevelNormal))

	assert.Equal(t, 1, calls)
}

func TestStatusFanout_NotifyWithNoListeners(t *testing.T) {
	f := NewStatusFanout(log.DefaultLogger)

	assert.NotPanics(t, func() {
		f.Notify(context.Background(), testSnapshot(model.LevelNormal))
	})
}
