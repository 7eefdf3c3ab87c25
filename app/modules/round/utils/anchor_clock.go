package roundutil

import "time"

// AnchorClock pins Now to a fixed instant. It replaces a global "debug date"
// switch: inject one to score a round as if it were played on another day.
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock creates an AnchorClock. A zero t anchors to the current UTC time.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t}
}

func (c AnchorClock) Now() time.Time    { return c.anchor }
func (c AnchorClock) NowUTC() time.Time { return c.anchor.UTC() }

// Timers and sleeping still follow real time.
func (c AnchorClock) After(d time.Duration) <-chan time.Time        { return time.After(d) }
func (c AnchorClock) Sleep(d time.Duration)                         { time.Sleep(d) }
func (c AnchorClock) Parse(layout, value string) (time.Time, error) { return time.Parse(layout, value) }
func (c AnchorClock) LoadLocation(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}
