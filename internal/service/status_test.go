package service

import (
	"context"
	"testing"
	"time"

	"VisionGuard/internal/biz"
	"VisionGuard/internal/conf"
	"VisionGuard/internal/data"
	"VisionGuard/internal/model"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func setupService(t *testing.T) (*StatusService, *biz.DegradationManager) {
	t.Helper()

	c := &conf.Degradation{
		PollInterval: durationpb.New(15 * time.Second),
		CacheTTL:     durationpb.New(300 * time.Second),
		Breaker: &conf.Breaker{
			FailureThreshold: 3,
			RecoveryTimeout:  durationpb.New(30 * time.Second),
			HalfOpenMaxCalls: 3,
			SuccessThreshold: 2,
		},
	}

	logger := log.DefaultLogger
	manager := biz.NewDegradationManager(c, logger)
	cache := data.NewRiskScoreCache(c, logger)
	fallback := biz.NewFallbackUsecase(manager, cache, logger)
	return NewStatusService(manager, fallback, logger), manager
}

func TestGetStatus_AllHealthy(t *testing.T) {
	svc, _ := setupService(t)

	payload, err := svc.GetStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "normal", payload.DegradationMode)
	assert.NotEmpty(t, payload.Timestamp)
	require.Len(t, payload.Services, 4)
	for name, state := range payload.Services {
		assert.Equal(t, "healthy", state.Status, "capability %s", name)
		assert.Equal(t, "closed", state.CircuitState)
		assert.Zero(t, state.FailureCount)
		assert.Nil(t, state.ErrorMessage)
	}
	assert.Contains(t, payload.AvailableFeatures, "object_detection")
	assert.Contains(t, payload.AvailableFeatures, "event_history")
}

func TestGetStatus_ReflectsBreakerStateImmediately(t *testing.T) {
	svc, manager := setupService(t)

	// Trip without a poll tick in between: the endpoint refreshes on read.
	for i := 0; i < 3; i++ {
		manager.RecordFailure(model.CapabilityDetection, "inference timeout")
	}

	payload, err := svc.GetStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "minimal", payload.DegradationMode)
	detection := payload.Services["detection"]
	assert.Equal(t, "unavailable", detection.Status)
	assert.Equal(t, "open", detection.CircuitState)
	assert.Equal(t, 3, detection.FailureCount)
	require.NotNil(t, detection.ErrorMessage)
	assert.Equal(t, "inference timeout", *detection.ErrorMessage)
	assert.NotContains(t, payload.AvailableFeatures, "object_detection")
}

func TestReportOutcome_Failure(t *testing.T) {
	svc, _ := setupService(t)

	var reply *ReportOutcomeReply
	var err error
	for i := 0; i < 3; i++ {
		reply, err = svc.ReportOutcome(context.Background(), &ReportOutcomeRequest{
			Capability:   "captioning",
			Success:      false,
			ErrorMessage: "model overloaded",
		})
		require.NoError(t, err)
	}

	assert.Equal(t, "captioning", reply.Capability)
	assert.False(t, reply.Available, "third consecutive failure trips the breaker")
}

func TestReportOutcome_Success(t *testing.T) {
	svc, _ := setupService(t)

	reply, err := svc.ReportOutcome(context.Background(), &ReportOutcomeRequest{
		Capability: "detection",
		Success:    true,
	})
	require.NoError(t, err)
	assert.True(t, reply.Available)
}

func TestReportOutcome_UnknownCapability(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.ReportOutcome(context.Background(), &ReportOutcomeRequest{
		Capability: "telepathy",
		Success:    true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
	assert.Equal(t, "UNKNOWN_CAPABILITY", errors.FromError(err).Reason)
}

func TestCheckCapability(t *testing.T) {
	svc, manager := setupService(t)

	reply, err := svc.CheckCapability(context.Background(), "risk_reasoning")
	require.NoError(t, err)
	assert.Equal(t, "risk_reasoning", reply.Capability)
	assert.True(t, reply.Allowed)
	assert.False(t, reply.ShouldSkip)
	assert.Equal(t, "healthy", reply.Status)
	assert.Equal(t, "closed", reply.CircuitState)

	for i := 0; i < 3; i++ {
		manager.RecordFailure(model.CapabilityRiskReasoning, "down")
	}
	manager.Refresh()

	reply, err = svc.CheckCapability(context.Background(), "risk_reasoning")
	require.NoError(t, err)
	assert.False(t, reply.Allowed)
	assert.True(t, reply.ShouldSkip)
	assert.Equal(t, "unavailable", reply.Status)
	assert.Equal(t, "open", reply.CircuitState)
}

func TestCheckCapability_UnknownName(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.CheckCapability(context.Background(), "segmentation")
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
}

func TestGetFallback_DefaultScore(t *testing.T) {
	svc, _ := setupService(t)

	reply, err := svc.GetFallback(context.Background(), &FallbackRequest{})
	require.NoError(t, err)

	assert.Equal(t, 50, reply.RiskScore)
	assert.Equal(t, "default", reply.Source)
	assert.Equal(t, "Risk reasoning unavailable, using default score", reply.Reasoning)
	assert.Equal(t, "Activity detected in a monitored area.", reply.Caption)
}

func TestGetFallback_EstimateFromObjects(t *testing.T) {
	svc, _ := setupService(t)

	reply, err := svc.GetFallback(context.Background(), &FallbackRequest{
		CameraName:  "front_door",
		ObjectTypes: []string{"person", "dog"},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, reply.RiskScore)
	assert.Equal(t, "estimate", reply.Source)
	assert.Equal(t, "Activity involving person and dog detected at camera 'front_door'.", reply.Caption)
}

func TestGetFallback_UsesCachedScore(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.CacheRiskScore(context.Background(), &CacheScoreRequest{
		CameraName: "front_door",
		Score:      88,
	})
	require.NoError(t, err)

	reply, err := svc.GetFallback(context.Background(), &FallbackRequest{
		CameraName:  "front_door",
		ObjectTypes: []string{"person"},
	})
	require.NoError(t, err)

	assert.Equal(t, 88, reply.RiskScore)
	assert.Equal(t, "cache", reply.Source)
	assert.Equal(t, "Using last known risk score for camera 'front_door'", reply.Reasoning)
}

func TestCacheRiskScore_RequiresCameraName(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.CacheRiskScore(context.Background(), &CacheScoreRequest{Score: 50})
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
	assert.Equal(t, "CAMERA_NAME_REQUIRED", errors.FromError(err).Reason)
}

func TestCacheRiskScore_ClampsOutOfRange(t *testing.T) {
	svc, _ := setupService(t)

	require.NoError(t, svc.CacheRiskScore(context.Background(), &CacheScoreRequest{
		CameraName: "garage",
		Score:      250,
	}))

	reply, err := svc.GetFallback(context.Background(), &FallbackRequest{CameraName: "garage"})
	require.NoError(t, err)
	assert.Equal(t, 100, reply.RiskScore)
}
