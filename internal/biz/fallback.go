package biz

import (
	"fmt"
	"strings"

	"VisionGuard/internal/model"

	pkglog "VisionGuard/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// EmbeddingDim is the dimensionality of re-identification embeddings.
const EmbeddingDim = 768

// DefaultRiskScore is returned when neither a cached score nor object types
// are available.
const DefaultRiskScore = 50

// FallbackSource tells callers where a fallback risk score came from.
type FallbackSource string

const (
	SourceCache    FallbackSource = "cache"
	SourceEstimate FallbackSource = "estimate"
	SourceDefault  FallbackSource = "default"
)

// FallbackScore is a deterministic substitute risk assessment.
type FallbackScore struct {
	Score     int
	Reasoning string
	Source    FallbackSource
}

// RiskScoreRepo is the TTL store of last-known-good risk scores plus the
// static object-type default table. Implemented in the data layer.
type RiskScoreRepo interface {
	// Get returns the unexpired cached score for a camera, if any.
	Get(cameraName string) (int, bool)

	// Set inserts or overwrites the score for a camera with a fresh TTL.
	Set(cameraName string, score int)

	// ObjectTypeDefault returns the default risk score for an object type;
	// unknown types map to the "unknown" default.
	ObjectTypeDefault(objectType string) int
}

// FallbackUsecase supplies deterministic substitute behavior when a
// capability is unavailable: skip decisions, risk scores, captions and
// embeddings. Every branch is deterministic so responses stay reproducible
// while downstream services misbehave.
type FallbackUsecase struct {
	manager *DegradationManager
	scores  RiskScoreRepo
	logger  *pkglog.LogHelper
}

// NewFallbackUsecase creates the fallback strategy provider.
func NewFallbackUsecase(manager *DegradationManager, scores RiskScoreRepo, logger log.Logger) *FallbackUsecase {
	return &FallbackUsecase{
		manager: manager,
		scores:  scores,
		logger:  pkglog.NewLogHelper(logger),
	}
}

// ShouldSkip reports whether calls to the capability should be skipped in
// favor of fallback values.
func (uc *FallbackUsecase) ShouldSkip(capability model.Capability) bool {
	return !uc.manager.IsAvailable(capability)
}

// FallbackRiskScore computes a substitute risk score. Priority:
//  1. unexpired cached score for the camera (source: cache)
//  2. average of per-object-type defaults, truncated toward zero
//     (source: estimate)
//  3. fixed default of 50 (source: default)
//
// An empty objectTypes slice is treated as absent.
func (uc *FallbackUsecase) FallbackRiskScore(cameraName string, objectTypes []string) FallbackScore {
	if cameraName != "" {
		if score, ok := uc.scores.Get(cameraName); ok {
			uc.logger.Fallback("fallback risk score served from cache",
				"camera", cameraName,
				"score", score)
			return FallbackScore{
				Score:     score,
				Reasoning: fmt.Sprintf("Using last known risk score for camera '%s'", cameraName),
				Source:    SourceCache,
			}
		}
	}

	if len(objectTypes) > 0 {
		sum := 0
		for _, ot := range objectTypes {
			sum += uc.scores.ObjectTypeDefault(ot)
		}
		// Integer division truncates toward zero; the rounding rule is part
		// of the contract.
		score := sum / len(objectTypes)
		return FallbackScore{
			Score:     score,
			Reasoning: fmt.Sprintf("Estimated from detected object types: %s", strings.Join(objectTypes, ", ")),
			Source:    SourceEstimate,
		}
	}

	return FallbackScore{
		Score:     DefaultRiskScore,
		Reasoning: "Risk reasoning unavailable, using default score",
		Source:    SourceDefault,
	}
}

// FallbackCaption composes a deterministic event caption from whatever
// context is available.
func (uc *FallbackUsecase) FallbackCaption(cameraName string, objectTypes []string) string {
	switch {
	case cameraName != "" && len(objectTypes) > 0:
		return fmt.Sprintf("Activity involving %s detected at camera '%s'.", joinTypes(objectTypes), cameraName)
	case len(objectTypes) > 0:
		return fmt.Sprintf("Activity involving %s detected.", joinTypes(objectTypes))
	case cameraName != "":
		return fmt.Sprintf("Activity detected at camera '%s'.", cameraName)
	default:
		return "Activity detected in a monitored area."
	}
}

// FallbackEmbedding returns the all-zero embedding vector. Zero vectors
// never match stored embeddings under cosine or dot-product similarity, so
// fallback events can never be re-identified as someone else.
func (uc *FallbackUsecase) FallbackEmbedding() []float32 {
	return make([]float32, EmbeddingDim)
}

// CacheRiskScore stores a known-good risk score for a camera. Out-of-range
// input is clamped to [0,100] rather than rejected.
func (uc *FallbackUsecase) CacheRiskScore(cameraName string, score int) {
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	uc.scores.Set(cameraName, score)
}

// joinTypes renders ["person","dog","car"] as "person, dog and car".
func joinTypes(types []string) string {
	switch len(types) {
	case 1:
		return types[0]
	default:
		return strings.Join(types[:len(types)-1], ", ") + " and " + types[len(types)-1]
	}
}
