package roundtypes

import (
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/scorecard/app/modules/scoring"
)

var (
	// ErrHoleNotFound is returned when a hole number does not address a dense 1..N position.
	ErrHoleNotFound = errors.New("hole not found")
	// ErrNoPartner is returned when a partner edit is requested on a round without a playing partner.
	ErrNoPartner = errors.New("round has no playing partner")
)

// Target selects whose card a mutation applies to.
type Target int

const (
	TargetGolfer Target = iota
	TargetPartner
)

func (t Target) String() string {
	if t == TargetPartner {
		return "partner"
	}
	return "golfer"
}

// HoleScore is one player's result on one hole.
type HoleScore struct {
	HoleNumber      int     `json:"holeNumber"`
	Par             int     `json:"par"`
	Strokes         int     `json:"strokes"`
	Score           float64 `json:"score"`
	Index1          int     `json:"index1"`
	Index2          int     `json:"index2"`
	Index3          int     `json:"index3"`
	Meters          int     `json:"meters"`
	IsBallPickedUp  bool    `json:"isBallPickedUp"`
	IsHoleNotPlayed bool    `json:"isHoleNotPlayed"`
}

// ForCalcs projects the hole onto the calculator input.
func (h HoleScore) ForCalcs() scoring.HoleForCalcs {
	return scoring.HoleForCalcs{Par: h.Par, Index1: h.Index1, Index2: h.Index2, Index3: h.Index3}
}

// PlayingPartnerRound is the marked partner's card, stored inside the owning Round.
type PlayingPartnerRound struct {
	GolferID      string      `json:"golferId"`
	GolferName    string      `json:"golferName"`
	GolfLinkNo    string      `json:"golfLinkNo"`
	Gender        string      `json:"gender"`
	DailyHandicap float64     `json:"dailyHandicap"`
	HandicapIndex float64     `json:"handicapIndex"`
	TeeColor      string      `json:"teeColor"`
	ScratchRating float64     `json:"scratchRating"`
	SlopeRating   float64     `json:"slopeRating"`
	HoleScores    []HoleScore `json:"holeScores"`
}

// Round is one golfer's play session. Timestamps are epoch milliseconds and
// RoundDate is a date-only "2006-01-02" string.
type Round struct {
	ID         string `json:"id"`
	RemoteUUID string `json:"uuid,omitempty"`

	GolferID      string  `json:"golferId"`
	GolferName    string  `json:"golferName"`
	GolfLinkNo    string  `json:"golfLinkNo"`
	Gender        string  `json:"gender"`
	DailyHandicap float64 `json:"dailyHandicap"`
	HandicapIndex float64 `json:"handicapIndex"`
	TeeColor      string  `json:"teeColor"`
	ScratchRating float64 `json:"scratchRating"`
	SlopeRating   float64 `json:"slopeRating"`
	ClubID        string  `json:"clubId"`
	ClubName      string  `json:"clubName"`
	ClubState     string  `json:"clubState"`

	CompetitionType string `json:"competitionType"`
	RoundType       string `json:"roundType"`
	CourseID        string `json:"courseId"`

	HoleScores          []HoleScore          `json:"holeScores"`
	PlayingPartnerRound *PlayingPartnerRound `json:"playingPartnerRound,omitempty"`

	IsSubmitted       bool  `json:"isSubmitted"`
	IsAbandoned       bool  `json:"isAbandoned"`
	IsClubSubmitted   bool  `json:"isClubSubmitted"`
	IsMarkedForReview bool  `json:"isMarkedForReview"`
	IsSynced          bool  `json:"isSynced"`
	LastUpdated       int64 `json:"lastUpdated"`

	RoundDate     string `json:"roundDate"`
	StartTime     int64  `json:"startTime"`
	FinishTime    int64  `json:"finishTime"`
	SubmittedTime int64  `json:"submittedTime"`
	CreatedAt     int64  `json:"createdAt"`
}

// Clone returns a deep copy so callers can build the next state without aliasing.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	out := *r
	out.HoleScores = cloneHoles(r.HoleScores)
	if r.PlayingPartnerRound != nil {
		pp := *r.PlayingPartnerRound
		pp.HoleScores = cloneHoles(r.PlayingPartnerRound.HoleScores)
		out.PlayingPartnerRound = &pp
	}
	return &out
}

func cloneHoles(in []HoleScore) []HoleScore {
	if in == nil {
		return nil
	}
	out := make([]HoleScore, len(in))
	copy(out, in)
	return out
}

// RemoteID is the identifier the remote store knows the round by.
func (r *Round) RemoteID() string {
	if r.RemoteUUID != "" {
		return r.RemoteUUID
	}
	return r.ID
}

// IsActiveOn reports whether the round is the unsubmitted, non-abandoned round for date.
func (r *Round) IsActiveOn(date string) bool {
	return r.RoundDate == date && !r.IsSubmitted && !r.IsAbandoned
}

// HasPartner reports whether a playing partner card is embedded.
func (r *Round) HasPartner() bool {
	return r.PlayingPartnerRound != nil
}

// HoleScoresFor returns the hole list for target.
func (r *Round) HoleScoresFor(target Target) ([]HoleScore, error) {
	if target == TargetPartner {
		if r.PlayingPartnerRound == nil {
			return nil, ErrNoPartner
		}
		return r.PlayingPartnerRound.HoleScores, nil
	}
	return r.HoleScores, nil
}

// DailyHandicapFor returns the daily handicap of whoever target names.
func (r *Round) DailyHandicapFor(target Target) float64 {
	if target == TargetPartner && r.PlayingPartnerRound != nil {
		return r.PlayingPartnerRound.DailyHandicap
	}
	return r.DailyHandicap
}

// HoleIndex maps a 1-based hole number onto its slice position. The list must be
// dense and sorted, so position holeNumber-1 has to carry that hole number.
func (r *Round) HoleIndex(target Target, holeNumber int) (int, error) {
	holes, err := r.HoleScoresFor(target)
	if err != nil {
		return 0, err
	}
	idx := holeNumber - 1
	if idx < 0 || idx >= len(holes) {
		return 0, fmt.Errorf("%w: hole %d of %d (%s)", ErrHoleNotFound, holeNumber, len(holes), target)
	}
	if holes[idx].HoleNumber != holeNumber {
		return 0, fmt.Errorf("%w: position %d holds hole %d (%s)", ErrHoleNotFound, idx, holes[idx].HoleNumber, target)
	}
	return idx, nil
}

// Hole returns a copy of the hole score for target and holeNumber.
func (r *Round) Hole(target Target, holeNumber int) (HoleScore, error) {
	idx, err := r.HoleIndex(target, holeNumber)
	if err != nil {
		return HoleScore{}, err
	}
	holes, _ := r.HoleScoresFor(target)
	return holes[idx], nil
}

// SetHole replaces the hole at holeNumber for target. The receiver is modified,
// so callers work on a Clone.
func (r *Round) SetHole(target Target, hs HoleScore) error {
	idx, err := r.HoleIndex(target, hs.HoleNumber)
	if err != nil {
		return err
	}
	if target == TargetPartner {
		r.PlayingPartnerRound.HoleScores[idx] = hs
		return nil
	}
	r.HoleScores[idx] = hs
	return nil
}

// HoleAt returns the strokes and score for both players at holeNumber. A missing
// partner or partner hole yields zeros.
func (r *Round) HoleAt(holeNumber int) (strokes int, score float64, partnerStrokes int, partnerScore float64, err error) {
	own, err := r.Hole(TargetGolfer, holeNumber)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if r.PlayingPartnerRound != nil {
		if p, perr := r.Hole(TargetPartner, holeNumber); perr == nil {
			partnerStrokes, partnerScore = p.Strokes, p.Score
		}
	}
	return own.Strokes, own.Score, partnerStrokes, partnerScore, nil
}

// Totals sums gross strokes and points over the holes target has played.
func (r *Round) Totals(target Target) (strokes int, points float64) {
	holes, err := r.HoleScoresFor(target)
	if err != nil {
		return 0, 0
	}
	for _, h := range holes {
		if h.IsHoleNotPlayed {
			continue
		}
		strokes += h.Strokes
		points += h.Score
	}
	return strokes, points
}
