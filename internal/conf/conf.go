package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration of the VisionGuard service.
type Bootstrap struct {
	Server      *Server
	Data        *Data
	Degradation *Degradation
	Log         *Log
}

// Server holds transport configuration.
type Server struct {
	Http *HTTP
}

// HTTP holds the HTTP listener configuration.
type HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds data layer configuration.
type Data struct {
	Database *Database
	Redis    *Redis
}

// Database holds the MySQL connection configuration.
type Database struct {
	Driver string
	Source string
}

// Redis holds the Redis connection configuration.
type Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Breaker holds circuit breaker thresholds for one capability.
type Breaker struct {
	FailureThreshold int32
	RecoveryTimeout  *durationpb.Duration
	HalfOpenMaxCalls int32
	SuccessThreshold int32
}

// Degradation holds the degradation manager configuration: poll interval,
// risk score cache TTL, breaker defaults and per-capability overrides.
type Degradation struct {
	PollInterval *durationpb.Duration
	CacheTTL     *durationpb.Duration
	Breaker      *Breaker
	// Overrides is keyed by capability name (e.g. "detection").
	Overrides map[string]*Breaker
}

// Log holds logging configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
