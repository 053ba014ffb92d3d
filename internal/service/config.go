package service

import (
	"time"

	"github.com/iliyamo/slot-booking/internal/schedule"
)

// LinkPolicy decides how many redemptions a reservation link allows.
type LinkPolicy string

const (
	// LinkSingleUse consumes the whole link on its first redemption.
	LinkSingleUse LinkPolicy = "single_use"
	// LinkPerSlot lets each offered slot be redeemed once; the link is
	// consumed when the last one is taken.
	LinkPerSlot LinkPolicy = "per_slot"
)

// Config holds the engine tunables.
type Config struct {
	Granularity  int            // slot step in minutes
	MaxRangeDays int            // longest free/busy or listing range
	LinkPolicy   LinkPolicy     // redemption policy for new and existing links
	Location     *time.Location // the business's fixed local offset
}

func (c Config) withDefaults() Config {
	if c.Granularity <= 0 {
		c.Granularity = schedule.DefaultGranularity
	}
	if c.MaxRangeDays <= 0 {
		c.MaxRangeDays = 62
	}
	if c.LinkPolicy != LinkPerSlot {
		c.LinkPolicy = LinkSingleUse
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}
