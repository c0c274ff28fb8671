// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"VisionGuard/internal/model"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with VISIONGUARD_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Parameters:
//   - configPath: Path to the configuration file or directory
//
// Returns:
//   - *Bootstrap: Loaded configuration
//   - error: Configuration loading or validation error
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Enable environment variable support with VISIONGUARD_ prefix
	v.SetEnvPrefix("VISIONGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names (without VISIONGUARD_ prefix) for compatibility
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "VISIONGUARD_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "VISIONGUARD_DATA_REDIS_ADDR")

	// Load configuration file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// If config file is specified but not found, return error
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// Parse configuration into Bootstrap structure
	bc := &Bootstrap{
		Server: &Server{
			Http: &HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Degradation: &Degradation{
			PollInterval: durationpb.New(v.GetDuration("degradation.poll_interval")),
			CacheTTL:     durationpb.New(v.GetDuration("degradation.cache_ttl")),
			Breaker: &Breaker{
				FailureThreshold: v.GetInt32("degradation.breaker.failure_threshold"),
				RecoveryTimeout:  durationpb.New(v.GetDuration("degradation.breaker.recovery_timeout")),
				HalfOpenMaxCalls: v.GetInt32("degradation.breaker.half_open_max_calls"),
				SuccessThreshold: v.GetInt32("degradation.breaker.success_threshold"),
			},
			Overrides: parseBreakerOverrides(v),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	// Validate required fields
	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// parseBreakerOverrides reads per-capability breaker overrides from
// degradation.capabilities.<name>.*. Zero fields inherit the defaults when
// the effective config is resolved via BreakerFor.
func parseBreakerOverrides(v *viper.Viper) map[string]*Breaker {
	sub := v.GetStringMap("degradation.capabilities")
	if len(sub) == 0 {
		return nil
	}

	overrides := make(map[string]*Breaker, len(sub))
	for name := range sub {
		prefix := "degradation.capabilities." + name
		overrides[name] = &Breaker{
			FailureThreshold: v.GetInt32(prefix + ".failure_threshold"),
			RecoveryTimeout:  durationpb.New(v.GetDuration(prefix + ".recovery_timeout")),
			HalfOpenMaxCalls: v.GetInt32(prefix + ".half_open_max_calls"),
			SuccessThreshold: v.GetInt32(prefix + ".success_threshold"),
		}
	}
	return overrides
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	// Data defaults
	v.SetDefault("data.database.driver", "mysql")
	// Note: data.database.source (MYSQL_DSN) is required from environment

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Degradation defaults
	v.SetDefault("degradation.poll_interval", 15*time.Second)
	v.SetDefault("degradation.cache_ttl", 300*time.Second)
	v.SetDefault("degradation.breaker.failure_threshold", 5)
	v.SetDefault("degradation.breaker.recovery_timeout", 30*time.Second)
	v.SetDefault("degradation.breaker.half_open_max_calls", 3)
	v.SetDefault("degradation.breaker.success_threshold", 2)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all missing or invalid fields.
func Validate(bc *Bootstrap) error {
	var invalid []string

	// Check required database configuration
	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		invalid = append(invalid, "data.database.source (MYSQL_DSN)")
	}

	if bc.Degradation == nil || bc.Degradation.Breaker == nil {
		invalid = append(invalid, "degradation.breaker")
		return fmt.Errorf("invalid configuration fields: %s", strings.Join(invalid, ", "))
	}

	validateBreaker("degradation.breaker", bc.Degradation.Breaker, &invalid)

	for name, b := range bc.Degradation.Overrides {
		// Override keys must name a known capability; a typoed key would
		// otherwise be accepted and never apply to any breaker.
		if !model.Capability(name).IsValid() {
			invalid = append(invalid, "degradation.capabilities."+name+" (unknown capability)")
			continue
		}
		// Zero override fields inherit defaults; only negatives are invalid.
		if b.FailureThreshold < 0 || b.HalfOpenMaxCalls < 0 || b.SuccessThreshold < 0 {
			invalid = append(invalid, "degradation.capabilities."+name)
		}
	}

	if bc.Degradation.PollInterval.AsDuration() <= 0 {
		invalid = append(invalid, "degradation.poll_interval")
	}
	if bc.Degradation.CacheTTL.AsDuration() <= 0 {
		invalid = append(invalid, "degradation.cache_ttl")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration fields: %s", strings.Join(invalid, ", "))
	}

	return nil
}

// validateBreaker appends the names of non-positive breaker fields to invalid.
func validateBreaker(prefix string, b *Breaker, invalid *[]string) {
	if b.FailureThreshold <= 0 {
		*invalid = append(*invalid, prefix+".failure_threshold")
	}
	if b.RecoveryTimeout.AsDuration() <= 0 {
		*invalid = append(*invalid, prefix+".recovery_timeout")
	}
	if b.HalfOpenMaxCalls <= 0 {
		*invalid = append(*invalid, prefix+".half_open_max_calls")
	}
	if b.SuccessThreshold <= 0 {
		*invalid = append(*invalid, prefix+".success_threshold")
	}
}

// BreakerFor resolves the effective breaker config for a capability,
// applying per-capability overrides on top of the defaults.
func (d *Degradation) BreakerFor(name string) *Breaker {
	base := d.Breaker
	o, ok := d.Overrides[name]
	if !ok {
		return base
	}

	merged := &Breaker{
		FailureThreshold: base.FailureThreshold,
		RecoveryTimeout:  base.RecoveryTimeout,
		HalfOpenMaxCalls: base.HalfOpenMaxCalls,
		SuccessThreshold: base.SuccessThreshold,
	}
	if o.FailureThreshold > 0 {
		merged.FailureThreshold = o.FailureThreshold
	}
	if o.RecoveryTimeout.AsDuration() > 0 {
		merged.RecoveryTimeout = o.RecoveryTimeout
	}
	if o.HalfOpenMaxCalls > 0 {
		merged.HalfOpenMaxCalls = o.HalfOpenMaxCalls
	}
	if o.SuccessThreshold > 0 {
		merged.SuccessThreshold = o.SuccessThreshold
	}
	return merged
}
