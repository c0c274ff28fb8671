package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// contextKey is the private key type used to store the RequestContext.
type contextKey string

const requestContextKey contextKey = "visionguard_request_context"

// RequestContext carries per-request tracing information through the
// context so log calls across modules share the same request ID.
type RequestContext struct {
	RequestID string    // short random ID, e.g. mgrn0zfqda
	StartTime time.Time // request start time
}

var (
	randSource = rand.NewSource(time.Now().UnixNano())
	randMutex  sync.Mutex
	// base36 charset (lowercase letters + digits)
	base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRequestID generates a 10-character random request ID in base36.
func GenerateRequestID() string {
	randMutex.Lock()
	defer randMutex.Unlock()

	b := make([]byte, 10)
	for i := range b {
		b[i] = base36Chars[randSource.Int63()%36]
	}
	return string(b)
}

// WithRequestContext injects a RequestContext into the context.
// Typically called from the logging middleware once per request.
func WithRequestContext(ctx context.Context, requestID string) context.Context {
	reqCtx := &RequestContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// GetRequestContext extracts the RequestContext from the context.
// Returns a placeholder context when none is present so callers never need
// a nil check.
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return &RequestContext{RequestID: "unknown"}
	}

	if reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return reqCtx
	}

	return &RequestContext{RequestID: "unknown"}
}

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}

// GetElapsedTime returns how long the request has been running, in
// milliseconds. Zero when the context carries no request information.
func GetElapsedTime(ctx context.Context) int64 {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.StartTime.IsZero() {
		return 0
	}
	return time.Since(reqCtx.StartTime).Milliseconds()
}
