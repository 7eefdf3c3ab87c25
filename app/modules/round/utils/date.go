package roundutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateLayout is the normalised round date. Stored and queried values must both use it.
const DateLayout = "2006-01-02"

// ErrUnrecognisedDate is returned when ParseRoundDate cannot read the input.
var ErrUnrecognisedDate = errors.New("unrecognised date")

// DateProvider produces the "today" key used by the active round lookup.
type DateProvider struct {
	clock Clock
	loc   *time.Location
}

// NewDateProvider returns a provider reading clock in loc. A nil loc means the clock's own location.
func NewDateProvider(clock Clock, loc *time.Location) *DateProvider {
	if clock == nil {
		clock = RealClock{}
	}
	return &DateProvider{clock: clock, loc: loc}
}

// TodayDateString is today's date in DateLayout.
func (p *DateProvider) TodayDateString() string {
	return FormatDate(p.clock.Now(), p.loc)
}

// Clock exposes the underlying clock.
func (p *DateProvider) Clock() Clock { return p.clock }

// FormatDate renders t as a round date in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// ParseRoundDate reads an operator supplied date. It accepts the normalised
// layout and natural language such as "yesterday" or "last saturday",
// resolved against the clock in loc.
func ParseRoundDate(input string, clock Clock, loc *time.Location) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", fmt.Errorf("%w: empty input", ErrUnrecognisedDate)
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, input, loc); err == nil {
		return t.Format(DateLayout), nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(input, clock.Now().In(loc))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnrecognisedDate, input, err)
	}
	if r == nil {
		return "", fmt.Errorf("%w: %q", ErrUnrecognisedDate, input)
	}
	return FormatDate(r.Time, loc), nil
}
