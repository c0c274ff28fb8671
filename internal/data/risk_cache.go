package data

import (
	"VisionGuard/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxCachedCameras bounds the risk score cache. A deployment has at most a
// few hundred cameras; the LRU evicts the coldest entry beyond that.
const maxCachedCameras = 1024

// objectTypeDefaults maps detected object types to their default risk
// scores, used when risk reasoning is unavailable and no cached score
// exists. Unknown types fall back to the "unknown" entry.
var objectTypeDefaults = map[string]int{
	"person":     60,
	"vehicle":    50,
	"car":        50,
	"truck":      55,
	"motorcycle": 45,
	"bicycle":    30,
	"dog":        25,
	"cat":        20,
	"bird":       10,
	"unknown":    50,
}

// RiskScoreCache is the TTL store of last-known-good risk scores keyed by
// camera name. Entries expire after the configured TTL; expired entries are
// never returned. Implements biz.RiskScoreRepo.
type RiskScoreCache struct {
	entries *expirable.LRU[string, int]
	logger  *log.Helper
}

// NewRiskScoreCache creates the cache with the configured TTL (default 300s).
func NewRiskScoreCache(c *conf.Degradation, logger log.Logger) *RiskScoreCache {
	return &RiskScoreCache{
		entries: expirable.NewLRU[string, int](maxCachedCameras, nil, c.CacheTTL.AsDuration()),
		logger:  log.NewHelper(logger),
	}
}

// Get returns the unexpired cached score for a camera, if any.
func (c *RiskScoreCache) Get(cameraName string) (int, bool) {
	return c.entries.Get(cameraName)
}

// Set inserts or overwrites the score for a camera with a fresh TTL.
// Callers clamp the score before it reaches the cache.
func (c *RiskScoreCache) Set(cameraName string, score int) {
	c.entries.Add(cameraName, score)
	c.logger.Debugw("risk score cached", "camera", cameraName, "score", score)
}

// ObjectTypeDefault returns the default risk score for an object type.
// Unknown types map to the "unknown" default.
func (c *RiskScoreCache) ObjectTypeDefault(objectType string) int {
	if score, ok := objectTypeDefaults[objectType]; ok {
		return score
	}
	return objectTypeDefaults["unknown"]
}
