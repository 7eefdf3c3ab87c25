package roundutil

import "time"

// Clock abstracts time so round timestamps and "today" lookups can be pinned in tests.
type Clock interface {
	Now() time.Time
	NowUTC() time.Time
	After(d time.Duration) <-chan time.Time
	Sleep(d time.Duration)
	Parse(layout, value string) (time.Time, error)
	LoadLocation(name string) (*time.Location, error)
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time                                  { return time.Now() }
func (RealClock) NowUTC() time.Time                               { return time.Now().UTC() }
func (RealClock) After(d time.Duration) <-chan time.Time          { return time.After(d) }
func (RealClock) Sleep(d time.Duration)                           { time.Sleep(d) }
func (RealClock) Parse(layout, value string) (time.Time, error)   { return time.Parse(layout, value) }
func (RealClock) LoadLocation(name string) (*time.Location, error) { return time.LoadLocation(name) }

// NowMillis is the clock's current instant in epoch milliseconds.
func NowMillis(c Clock) int64 {
	return c.Now().UnixMilli()
}
