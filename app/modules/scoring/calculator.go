// Package scoring computes per-hole net par, to-par sign, stroke differential
// and Stableford points.
//
// Two scoring modes exist. ModeCompetitionAccurate is handicap aware and needs
// the number of extra strokes the competition grants on the hole. ModeQuickPreview
// is a par-relative table used for immediate feedback while a score is entered.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// ErrExtraStrokesRequired is returned when a handicap-aware calculation is asked
// for without the hole's extra strokes. The value is never derived or defaulted.
var ErrExtraStrokesRequired = errors.New("extraStrokes is required")

// ErrUnknownMode is returned for an unrecognised Mode.
var ErrUnknownMode = errors.New("unknown scoring mode")

// Mode selects which points table a Calculator applies.
type Mode int

const (
	// ModeCompetitionAccurate scores against net par and needs extraStrokes.
	ModeCompetitionAccurate Mode = iota
	// ModeQuickPreview scores strokes against par alone for instant feedback.
	ModeQuickPreview
)

func (m Mode) String() string {
	switch m {
	case ModeCompetitionAccurate:
		return "competition_accurate"
	case ModeQuickPreview:
		return "quick_preview"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// HoleForCalcs is the subset of a hole score the calculator needs.
type HoleForCalcs struct {
	Par    int
	Index1 int
	Index2 int
	Index3 int
}

// NetPar returns par plus the extra strokes granted on the hole.
// dailyHandicap is accepted for context only; stroke allocation happens upstream.
func NetPar(hole HoleForCalcs, dailyHandicap float64, extraStrokes *int) (float64, error) {
	if extraStrokes == nil {
		return 0, ErrExtraStrokesRequired
	}
	return float64(hole.Par + *extraStrokes), nil
}

func floorNetPar(hole HoleForCalcs, dailyHandicap float64, extraStrokes *int) (int, error) {
	np, err := NetPar(hole, dailyHandicap, extraStrokes)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(np)), nil
}

// ToPar returns +1, 0 or -1 for strokes over, at or under the floored net par.
func ToPar(strokes int, hole HoleForCalcs, dailyHandicap float64, extraStrokes *int) (int, error) {
	np, err := floorNetPar(hole, dailyHandicap, extraStrokes)
	if err != nil {
		return 0, err
	}
	switch {
	case strokes > np:
		return 1, nil
	case strokes < np:
		return -1, nil
	default:
		return 0, nil
	}
}

// StrokeDifferential is strokes minus the floored net par.
func StrokeDifferential(strokes int, hole HoleForCalcs, dailyHandicap float64, extraStrokes *int) (float64, error) {
	np, err := floorNetPar(hole, dailyHandicap, extraStrokes)
	if err != nil {
		return 0, err
	}
	return float64(strokes - np), nil
}

// Stableford returns points on the 0..8 scale:
// net par -6 or better scores 8, each stroke above that costs one point,
// net par scores 2, net par +1 scores 1 and net par +2 or worse scores 0.
func Stableford(hole HoleForCalcs, dailyHandicap float64, strokes int, extraStrokes *int) (float64, error) {
	np, err := floorNetPar(hole, dailyHandicap, extraStrokes)
	if err != nil {
		return 0, err
	}
	return float64(stablefordBand(strokes - np)), nil
}

func stablefordBand(diff int) int {
	points := 2 - diff
	if points > 8 {
		return 8
	}
	if points < 0 {
		return 0
	}
	return points
}

// QuickPreviewPoints is the par-relative feedback table:
// par-2 scores 4, par-1 scores 3, par scores 2, par+1 scores 1, anything else 0.
// Eagles-or-better deliberately fall into the "anything else" bucket.
func QuickPreviewPoints(strokes, par int) float64 {
	switch strokes {
	case par - 2:
		return 4
	case par - 1:
		return 3
	case par:
		return 2
	case par + 1:
		return 1
	default:
		return 0
	}
}

// PickupStrokes is the gross score recorded when a ball is picked up: floor(netPar)+2.
func PickupStrokes(hole HoleForCalcs, dailyHandicap float64, extraStrokes *int) (int, error) {
	np, err := floorNetPar(hole, dailyHandicap, extraStrokes)
	if err != nil {
		return 0, err
	}
	return np + 2, nil
}

// Calculator applies one scoring mode.
type Calculator struct {
	mode Mode
}

// NewCalculator returns a Calculator for mode.
func NewCalculator(mode Mode) Calculator {
	return Calculator{mode: mode}
}

// Mode reports the table the calculator applies.
func (c Calculator) Mode() Mode { return c.mode }

// HolePoints scores strokes on hole. extraStrokes is ignored in quick preview mode
// and mandatory in competition mode.
func (c Calculator) HolePoints(hole HoleForCalcs, dailyHandicap float64, strokes int, extraStrokes *int) (float64, error) {
	switch c.mode {
	case ModeCompetitionAccurate:
		return Stableford(hole, dailyHandicap, strokes, extraStrokes)
	case ModeQuickPreview:
		return QuickPreviewPoints(strokes, hole.Par), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMode, c.mode)
	}
}

// ExtraStrokes is a convenience for building the optional extra strokes argument.
func ExtraStrokes(n int) *int { return &n }
