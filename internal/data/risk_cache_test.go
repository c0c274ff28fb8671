package data

import (
	"fmt"
	"testing"
	"time"

	"VisionGuard/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/durationpb"
)

func newTestCache(t *testing.T, ttl time.Duration) *RiskScoreCache {
	t.Helper()
	c := &conf.Degradation{CacheTTL: durationpb.New(ttl)}
	return NewRiskScoreCache(c, log.DefaultLogger)
}

func TestRiskScoreCache_SetGet(t *testing.T) {
	cache := newTestCache(t, 300*time.Second)

	cache.Set("front_door", 72)

	score, ok := cache.Get("front_door")
	assert.True(t, ok)
	assert.Equal(t, 72, score)
}

func TestRiskScoreCache_Miss(t *testing.T) {
	cache := newTestCache(t, 300*time.Second)

	_, ok := cache.Get("never_seen")
	assert.False(t, ok)
}

func TestRiskScoreCache_Overwrite(t *testing.T) {
	cache := newTestCache(t, 300*time.Second)

	cache.Set("garage", 30)
	cache.Set("garage", 85)

	score, ok := cache.Get("garage")
	assert.True(t, ok)
	assert.Equal(t, 85, score)
}

func TestRiskScoreCache_TTLExpiry(t *testing.T) {
	cache := newTestCache(t, 50*time.Millisecond)

	cache.Set("front_door", 72)

	score, ok := cache.Get("front_door")
	assert.True(t, ok)
	assert.Equal(t, 72, score)

	time.Sleep(120 * time.Millisecond)

	_, ok = cache.Get("front_door")
	assert.False(t, ok, "expired entries must never be returned")
}

func TestRiskScoreCache_EvictsBeyondCapacity(t *testing.T) {
	cache := newTestCache(t, 300*time.Second)

	for i := 0; i < maxCachedCameras+1; i++ {
		cache.Set(fmt.Sprintf("camera_%d", i), 50)
	}

	// The oldest entry is evicted once the capacity is exceeded.
	_, ok := cache.Get("camera_0")
	assert.False(t, ok)

	_, ok = cache.Get(fmt.Sprintf("camera_%d", maxCachedCameras))
	assert.True(t, ok)
}

func TestObjectTypeDefault(t *testing.T) {
	cache := newTestCache(t, 300*time.Second)

	tests := []struct {
		objectType string
		want       int
	}{
		{"person", 60},
		{"vehicle", 50},
		{"car", 50},
		{"truck", 55},
		{"motorcycle", 45},
		{"bicycle", 30},
		{"dog", 25},
		{"cat", 20},
		{"bird", 10},
		{"unknown", 50},
		{"skateboard", 50}, // not in the table: falls back to "unknown"
		{"", 50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cache.ObjectTypeDefault(tt.objectType), "object type %q", tt.objectType)
	}
}
