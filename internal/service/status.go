package service

import (
	"context"
	"fmt"

	"VisionGuard/internal/biz"
	"VisionGuard/internal/model"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ReportOutcomeRequest is the body of POST /v1/degradation/report. Request
// wrappers around each AI call post here after the call completes.
type ReportOutcomeRequest struct {
	Capability   string `json:"capability"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message"`
}

// ReportOutcomeReply echoes the capability's availability after the report.
type ReportOutcomeReply struct {
	Capability string `json:"capability"`
	Available  bool   `json:"available"`
}

// CapabilityCheckReply answers "may I call this capability right now".
type CapabilityCheckReply struct {
	Capability   string `json:"capability"`
	Allowed      bool   `json:"allowed"`
	ShouldSkip   bool   `json:"should_skip"`
	Status       string `json:"status"`
	CircuitState string `json:"circuit_state"`
}

// FallbackRequest asks for substitute values for an unavailable capability.
type FallbackRequest struct {
	CameraName  string   `json:"camera_name"`
	ObjectTypes []string `json:"object_types"`
}

// FallbackReply carries the deterministic substitute assessment.
type FallbackReply struct {
	RiskScore int    `json:"risk_score"`
	Reasoning string `json:"reasoning"`
	Source    string `json:"source"`
	Caption   string `json:"caption"`
}

// CacheScoreRequest stores a known-good risk score for a camera.
type CacheScoreRequest struct {
	CameraName string `json:"camera_name"`
	Score      int    `json:"score"`
}

// StatusService implements the degradation status HTTP surface.
type StatusService struct {
	manager  *biz.DegradationManager
	fallback *biz.FallbackUsecase
	logger   *log.Helper
}

// NewStatusService creates a new StatusService instance.
func NewStatusService(manager *biz.DegradationManager, fallback *biz.FallbackUsecase, logger log.Logger) *StatusService {
	return &StatusService{
		manager:  manager,
		fallback: fallback,
		logger:   log.NewHelper(logger),
	}
}

// GetStatus refreshes the service states and returns the aggregate snapshot
// in the wire format.
func (s *StatusService) GetStatus(ctx context.Context) (*model.StatusPayload, error) {
	// Read-through refresh so the endpoint never serves state older than
	// the last breaker transition, even between poll ticks.
	s.manager.Refresh()
	return s.manager.Status().ToPayload(), nil
}

// ReportOutcome records a downstream call outcome for a capability.
func (s *StatusService) ReportOutcome(ctx context.Context, req *ReportOutcomeRequest) (*ReportOutcomeReply, error) {
	capability, err := parseCapability(req.Capability)
	if err != nil {
		return nil, err
	}

	if req.Success {
		s.manager.RecordSuccess(capability)
	} else {
		s.manager.RecordFailure(capability, req.ErrorMessage)
		s.logger.Warnw("capability failure reported",
			"capability", capability,
			"error", req.ErrorMessage)
	}

	s.manager.Refresh()
	return &ReportOutcomeReply{
		Capability: string(capability),
		Available:  s.manager.IsAvailable(capability),
	}, nil
}

// CheckCapability gates a downstream call: it consumes a probe slot when the
// breaker is half-open and reports whether callers should skip to fallbacks.
func (s *StatusService) CheckCapability(ctx context.Context, name string) (*CapabilityCheckReply, error) {
	capability, err := parseCapability(name)
	if err != nil {
		return nil, err
	}

	state, err := s.manager.GetState(capability)
	if err != nil {
		return nil, err
	}

	return &CapabilityCheckReply{
		Capability:   string(capability),
		Allowed:      s.manager.AllowCall(capability),
		ShouldSkip:   s.fallback.ShouldSkip(capability),
		Status:       string(state.Status),
		CircuitState: string(state.CircuitState),
	}, nil
}

// GetFallback returns the deterministic substitute risk assessment and
// caption for the given context.
func (s *StatusService) GetFallback(ctx context.Context, req *FallbackRequest) (*FallbackReply, error) {
	score := s.fallback.FallbackRiskScore(req.CameraName, req.ObjectTypes)

	return &FallbackReply{
		RiskScore: score.Score,
		Reasoning: score.Reasoning,
		Source:    string(score.Source),
		Caption:   s.fallback.FallbackCaption(req.CameraName, req.ObjectTypes),
	}, nil
}

// CacheRiskScore stores a known-good risk score for a camera.
func (s *StatusService) CacheRiskScore(ctx context.Context, req *CacheScoreRequest) error {
	if req.CameraName == "" {
		return errors.BadRequest("CAMERA_NAME_REQUIRED", "camera_name must not be empty")
	}

	s.fallback.CacheRiskScore(req.CameraName, req.Score)
	return nil
}

// parseCapability validates a capability name from the wire.
func parseCapability(name string) (model.Capability, error) {
	capability := model.Capability(name)
	if !capability.IsValid() {
		return "", errors.BadRequest(
			"UNKNOWN_CAPABILITY",
			fmt.Sprintf("unknown capability: %s", name),
		)
	}
	return capability, nil
}
