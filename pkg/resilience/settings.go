package resilience

import (
	"time"

	"github.com/richxcame/verified-reviews/pkg/config"
)

// SettingsFromConfig turns the BREAKER_* knobs into breaker settings.
// Non-positive values fall back to a 60s interval, a 30s open timeout,
// five consecutive failures to trip and one successful trial call to close.
func SettingsFromConfig(name string, cfg config.BreakerConfig) Settings {
	s := Settings{
		Name:             name,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
	}
	if cfg.IntervalSeconds > 0 {
		s.Interval = time.Duration(cfg.IntervalSeconds) * time.Second
	}
	if cfg.TimeoutSeconds > 0 {
		s.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.FailureThreshold > 0 {
		s.FailureThreshold = uint32(cfg.FailureThreshold)
	}
	if cfg.SuccessThreshold > 0 {
		s.SuccessThreshold = uint32(cfg.SuccessThreshold)
	}
	return s
}
