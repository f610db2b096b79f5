package store

import (
	"fmt"
	"time"

	"habit_tracker_bot/internal/domain"
)

// Option customizes a store.
type Option func(*clock)

// clock decides what "today" means for checkins.
type clock struct {
	now func() time.Time
	loc *time.Location
	tz  string
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *clock) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the zone whose calendar day checkins are recorded against.
// It is also the timezone assigned to newly registered users.
func WithLocation(loc *time.Location) Option {
	return func(c *clock) {
		if loc != nil {
			c.loc = loc
			c.tz = loc.String()
		}
	}
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now, loc: time.UTC, tz: domain.DefaultTimezone}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// timestamp returns the current instant in UTC, truncated to storage precision.
func (c clock) timestamp() time.Time {
	return c.now().UTC().Truncate(time.Microsecond)
}

// today returns the current calendar date in the store's location.
func (c clock) today() string {
	return c.now().In(c.loc).Format(domain.DateLayout)
}

// unavailable marks err as a storage failure while keeping the driver error inspectable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
