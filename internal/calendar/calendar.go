package calendar

import (
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

// Calendar answers whether the exchange publishes data for a given date.
// It is an interface because exchange holiday schedules change yearly and
// callers (and tests) need to inject their own.
type Calendar interface {
	// IsTradingDay reports whether the exchange trades on the given date.
	IsTradingDay(date time.Time) bool
	// Today returns the current trading date in the exchange's local time,
	// in canonical (UTC midnight) form.
	Today() time.Time
}

// Taiwan implements Calendar for TAIFEX: Monday through Friday, minus a
// configured holiday list, on the Asia/Taipei clock.
type Taiwan struct {
	holidays map[time.Time]struct{}
	now      func() time.Time
	loc      *time.Location
}

// NewTaiwan builds a Taiwan calendar. holidays are non-trading weekdays
// (typically loaded from config). now may be nil, in which case the system
// clock is used; tests pass a fixed clock.
func NewTaiwan(holidays []time.Time, now func() time.Time) *Taiwan {
	if now == nil {
		now = time.Now
	}

	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		// No tzdata on the host. Taiwan has no DST, so a fixed offset is exact.
		loc = time.FixedZone("Asia/Taipei", 8*60*60)
	}

	set := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		set[model.DateOf(h)] = struct{}{}
	}

	return &Taiwan{holidays: set, now: now, loc: loc}
}

// IsTradingDay reports whether TAIFEX trades on the given date.
func (c *Taiwan) IsTradingDay(date time.Time) bool {
	d := model.DateOf(date)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

// Today returns the current date on the Taipei clock in canonical form.
func (c *Taiwan) Today() time.Time {
	return model.DateOf(c.now().In(c.loc))
}
