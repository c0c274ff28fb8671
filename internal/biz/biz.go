// Package biz contains business logic layer implementations.
// This layer holds the degradation state machine: circuit breakers, the
// degradation manager, fallback strategies, the health poller and the
// status notification fanout.
package biz

import (
	"VisionGuard/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewDegradationManager,
	NewFallbackUsecase,
	NewStatusFanout,
	NewHealthPoller,
	// Import data layer providers
	data.NewRiskScoreCache,
	data.NewTransitionLogger,
	data.NewStatusBroadcaster,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(RiskScoreRepo), new(*data.RiskScoreCache)),
	wire.Bind(new(TransitionLogger), new(*data.TransitionLoggerImpl)),
)
