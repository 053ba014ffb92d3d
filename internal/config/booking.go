package config

import (
	"log"
	"strings"
	"time"
)

// BookingConfig carries the tunables of the booking engine.
type BookingConfig struct {
	GranularityMin int           // slot length in minutes
	TZOffsetMin    int           // business timezone as a fixed UTC offset
	MaxRangeDays   int           // widest free/busy or listing query
	LinkPolicy     string        // "single_use" or "per_slot"
	SweepSpec      string        // cron spec for the link expiry sweep; empty disables
	LockTTL        time.Duration // lifetime of distributed slot locks
	TimeZoneName   string
	EventsEnabled  bool // publish appointment events to RabbitMQ
}

// LoadBookingConfig reads booking settings, falling back to defaults.
// SLOT_GRANULARITY_MIN is required to be positive.
func LoadBookingConfig() BookingConfig {
	cfg := BookingConfig{
		GranularityMin: envInt("SLOT_GRANULARITY_MIN", 30),
		TZOffsetMin:    envInt("TZ_OFFSET_MIN", 0),
		MaxRangeDays:   envInt("MAX_RANGE_DAYS", 62),
		LinkPolicy:     strings.ToLower(envStr("LINK_POLICY", "single_use")),
		SweepSpec:      getenv("LINK_SWEEP_SPEC", ""),
		LockTTL:        envDur("LOCK_TTL", 10*time.Second),
		TimeZoneName:   envStr("TZ_NAME", "business"),
		EventsEnabled:  envBool("EVENTS_ENABLED", true),
	}
	if cfg.GranularityMin <= 0 {
		log.Fatalf("invalid SLOT_GRANULARITY_MIN: %d", cfg.GranularityMin)
	}
	if cfg.LinkPolicy != "single_use" && cfg.LinkPolicy != "per_slot" {
		log.Fatalf("invalid LINK_POLICY: %q", cfg.LinkPolicy)
	}
	if cfg.MaxRangeDays < 1 {
		cfg.MaxRangeDays = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	return cfg
}

// Location returns the fixed-offset zone business hours are expressed in.
func (b BookingConfig) Location() *time.Location {
	if b.TZOffsetMin == 0 {
		return time.UTC
	}
	return time.FixedZone(b.TimeZoneName, b.TZOffsetMin*60)
}
