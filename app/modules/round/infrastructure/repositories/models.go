package rounddb

import (
	"fmt"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/uptrace/bun"
)

// CurrentSchemaVersion is written with every saved round. Rows stored before
// versioning existed carry 0 and are read as version 1.
const CurrentSchemaVersion = 1

// Round is the persisted row. Query-relevant fields are top-level columns;
// the hole lists and the partner card are JSON columns.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID            string `bun:"id,pk"`
	SchemaVersion int    `bun:"schema_version,notnull"`
	RemoteUUID    string `bun:"remote_uuid"`

	GolferID      string  `bun:"golfer_id"`
	GolferName    string  `bun:"golfer_name"`
	GolfLinkNo    string  `bun:"golf_link_no"`
	Gender        string  `bun:"gender"`
	DailyHandicap float64 `bun:"daily_handicap"`
	HandicapIndex float64 `bun:"handicap_index"`
	TeeColor      string  `bun:"tee_color"`
	ScratchRating float64 `bun:"scratch_rating"`
	SlopeRating   float64 `bun:"slope_rating"`
	ClubID        string  `bun:"club_id"`
	ClubName      string  `bun:"club_name"`
	ClubState     string  `bun:"club_state"`

	CompetitionType string `bun:"competition_type"`
	RoundType       string `bun:"round_type"`
	CourseID        string `bun:"course_id"`

	HoleScores     []HoleScoreV1   `bun:"hole_scores"`
	PlayingPartner *PartnerRoundV1 `bun:"playing_partner"`

	IsSubmitted       bool  `bun:"is_submitted,notnull"`
	IsAbandoned       bool  `bun:"is_abandoned,notnull"`
	IsClubSubmitted   bool  `bun:"is_club_submitted,notnull"`
	IsMarkedForReview bool  `bun:"is_marked_for_review,notnull"`
	IsSynced          bool  `bun:"is_synced,notnull"`
	LastUpdated       int64 `bun:"last_updated,notnull"`

	RoundDate     string `bun:"round_date,notnull"`
	StartTime     int64  `bun:"start_time"`
	FinishTime    int64  `bun:"finish_time"`
	SubmittedTime int64  `bun:"submitted_time"`
	CreatedAt     int64  `bun:"created_at,notnull"`
}

// HoleScoreV1 is the stored shape of one hole. Field names are fixed by the
// schema version, not by the domain type.
type HoleScoreV1 struct {
	HoleNumber      int     `json:"hole_number"`
	Par             int     `json:"par"`
	Strokes         int     `json:"strokes"`
	Score           float64 `json:"score"`
	Index1          int     `json:"index1"`
	Index2          int     `json:"index2"`
	Index3          int     `json:"index3"`
	Meters          int     `json:"meters"`
	IsBallPickedUp  bool    `json:"is_ball_picked_up"`
	IsHoleNotPlayed bool    `json:"is_hole_not_played"`
}

// PartnerRoundV1 is the stored shape of the embedded partner card.
type PartnerRoundV1 struct {
	GolferID      string        `json:"golfer_id"`
	GolferName    string        `json:"golfer_name"`
	GolfLinkNo    string        `json:"golf_link_no"`
	Gender        string        `json:"gender"`
	DailyHandicap float64       `json:"daily_handicap"`
	HandicapIndex float64       `json:"handicap_index"`
	TeeColor      string        `json:"tee_color"`
	ScratchRating float64       `json:"scratch_rating"`
	SlopeRating   float64       `json:"slope_rating"`
	HoleScores    []HoleScoreV1 `json:"hole_scores"`
}

// FromDomain encodes a domain round at the current schema version.
func FromDomain(r *roundtypes.Round) *Round {
	row := &Round{
		ID:                r.ID,
		SchemaVersion:     CurrentSchemaVersion,
		RemoteUUID:        r.RemoteUUID,
		GolferID:          r.GolferID,
		GolferName:        r.GolferName,
		GolfLinkNo:        r.GolfLinkNo,
		Gender:            r.Gender,
		DailyHandicap:     r.DailyHandicap,
		HandicapIndex:     r.HandicapIndex,
		TeeColor:          r.TeeColor,
		ScratchRating:     r.ScratchRating,
		SlopeRating:       r.SlopeRating,
		ClubID:            r.ClubID,
		ClubName:          r.ClubName,
		ClubState:         r.ClubState,
		CompetitionType:   r.CompetitionType,
		RoundType:         r.RoundType,
		CourseID:          r.CourseID,
		HoleScores:        encodeHoles(r.HoleScores),
		IsSubmitted:       r.IsSubmitted,
		IsAbandoned:       r.IsAbandoned,
		IsClubSubmitted:   r.IsClubSubmitted,
		IsMarkedForReview: r.IsMarkedForReview,
		IsSynced:          r.IsSynced,
		LastUpdated:       r.LastUpdated,
		RoundDate:         r.RoundDate,
		StartTime:         r.StartTime,
		FinishTime:        r.FinishTime,
		SubmittedTime:     r.SubmittedTime,
		CreatedAt:         r.CreatedAt,
	}
	if pp := r.PlayingPartnerRound; pp != nil {
		row.PlayingPartner = &PartnerRoundV1{
			GolferID:      pp.GolferID,
			GolferName:    pp.GolferName,
			GolfLinkNo:    pp.GolfLinkNo,
			Gender:        pp.Gender,
			DailyHandicap: pp.DailyHandicap,
			HandicapIndex: pp.HandicapIndex,
			TeeColor:      pp.TeeColor,
			ScratchRating: pp.ScratchRating,
			SlopeRating:   pp.SlopeRating,
			HoleScores:    encodeHoles(pp.HoleScores),
		}
	}
	return row
}

// ToDomain decodes a row, upgrading older schema versions. Rows written by a
// newer build fail with ErrUnsupportedSchema instead of losing fields.
func (row *Round) ToDomain() (*roundtypes.Round, error) {
	if err := row.upgrade(); err != nil {
		return nil, err
	}
	r := &roundtypes.Round{
		ID:                row.ID,
		RemoteUUID:        row.RemoteUUID,
		GolferID:          row.GolferID,
		GolferName:        row.GolferName,
		GolfLinkNo:        row.GolfLinkNo,
		Gender:            row.Gender,
		DailyHandicap:     row.DailyHandicap,
		HandicapIndex:     row.HandicapIndex,
		TeeColor:          row.TeeColor,
		ScratchRating:     row.ScratchRating,
		SlopeRating:       row.SlopeRating,
		ClubID:            row.ClubID,
		ClubName:          row.ClubName,
		ClubState:         row.ClubState,
		CompetitionType:   row.CompetitionType,
		RoundType:         row.RoundType,
		CourseID:          row.CourseID,
		HoleScores:        decodeHoles(row.HoleScores),
		IsSubmitted:       row.IsSubmitted,
		IsAbandoned:       row.IsAbandoned,
		IsClubSubmitted:   row.IsClubSubmitted,
		IsMarkedForReview: row.IsMarkedForReview,
		IsSynced:          row.IsSynced,
		LastUpdated:       row.LastUpdated,
		RoundDate:         row.RoundDate,
		StartTime:         row.StartTime,
		FinishTime:        row.FinishTime,
		SubmittedTime:     row.SubmittedTime,
		CreatedAt:         row.CreatedAt,
	}
	if pp := row.PlayingPartner; pp != nil {
		r.PlayingPartnerRound = &roundtypes.PlayingPartnerRound{
			GolferID:      pp.GolferID,
			GolferName:    pp.GolferName,
			GolfLinkNo:    pp.GolfLinkNo,
			Gender:        pp.Gender,
			DailyHandicap: pp.DailyHandicap,
			HandicapIndex: pp.HandicapIndex,
			TeeColor:      pp.TeeColor,
			ScratchRating: pp.ScratchRating,
			SlopeRating:   pp.SlopeRating,
			HoleScores:    decodeHoles(pp.HoleScores),
		}
	}
	return r, nil
}

func (row *Round) upgrade() error {
	switch {
	case row.SchemaVersion == 0:
		row.SchemaVersion = 1
	case row.SchemaVersion > CurrentSchemaVersion:
		return fmt.Errorf("%w: round %s has version %d, max %d", ErrUnsupportedSchema, row.ID, row.SchemaVersion, CurrentSchemaVersion)
	}
	return nil
}

func encodeHoles(in []roundtypes.HoleScore) []HoleScoreV1 {
	if in == nil {
		return nil
	}
	out := make([]HoleScoreV1, len(in))
	for i, h := range in {
		out[i] = HoleScoreV1{
			HoleNumber:      h.HoleNumber,
			Par:             h.Par,
			Strokes:         h.Strokes,
			Score:           h.Score,
			Index1:          h.Index1,
			Index2:          h.Index2,
			Index3:          h.Index3,
			Meters:          h.Meters,
			IsBallPickedUp:  h.IsBallPickedUp,
			IsHoleNotPlayed: h.IsHoleNotPlayed,
		}
	}
	return out
}

func decodeHoles(in []HoleScoreV1) []roundtypes.HoleScore {
	if in == nil {
		return nil
	}
	out := make([]roundtypes.HoleScore, len(in))
	for i, h := range in {
		out[i] = roundtypes.HoleScore{
			HoleNumber:      h.HoleNumber,
			Par:             h.Par,
			Strokes:         h.Strokes,
			Score:           h.Score,
			Index1:          h.Index1,
			Index2:          h.Index2,
			Index3:          h.Index3,
			Meters:          h.Meters,
			IsBallPickedUp:  h.IsBallPickedUp,
			IsHoleNotPlayed: h.IsHoleNotPlayed,
		}
	}
	return out
}
