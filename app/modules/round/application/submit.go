package roundservice

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	"github.com/Black-And-White-Club/scorecard/pkg/results"
	"github.com/uptrace/bun"
)

// BuildSubmission converts a round into the submission body. A participant
// without a golf link number is left out.
func BuildSubmission(round *roundtypes.Round, sigs Signatures) roundremote.SubmissionPayload {
	payload := roundremote.SubmissionPayload{PlayerScores: []roundremote.PlayerScore{}}
	if round == nil {
		return payload
	}
	if round.GolfLinkNo != "" {
		payload.PlayerScores = append(payload.PlayerScores, playerScore(round.GolfLinkNo, sigs.Golfer, round.HoleScores))
	}
	if pp := round.PlayingPartnerRound; pp != nil && pp.GolfLinkNo != "" {
		payload.PlayerScores = append(payload.PlayerScores, playerScore(pp.GolfLinkNo, sigs.Partner, pp.HoleScores))
	}
	return payload
}

func playerScore(golfLinkNo, signature string, holes []roundtypes.HoleScore) roundremote.PlayerScore {
	ordered := slices.Clone(holes)
	slices.SortStableFunc(ordered, func(a, b roundtypes.HoleScore) int {
		return cmp.Compare(a.HoleNumber, b.HoleNumber)
	})

	out := make([]roundremote.SubmittedHole, 0, len(ordered))
	for _, h := range ordered {
		out = append(out, roundremote.SubmittedHole{
			GrossScore:   h.Strokes,
			BallPickedUp: h.IsBallPickedUp,
			NotPlayed:    h.IsHoleNotPlayed,
		})
	}
	return roundremote.PlayerScore{GolfLinkNumber: golfLinkNo, Signature: signature, Holes: out}
}

// SubmitRound sends the signed cards. The round is marked submitted only after
// the remote store accepted them; on any failure the stored round is untouched.
func (s *RoundService) SubmitRound(ctx context.Context, round *roundtypes.Round, sigs Signatures) (*roundtypes.Round, error) {
	if round == nil {
		return nil, ErrRoundRequired
	}

	result, err := withTelemetry(s, ctx, "SubmitRound", round.ID, func(ctx context.Context) (results.OperationResult[*roundtypes.Round, error], error) {
		return s.submitRoundLogic(ctx, round, sigs)
	})
	submitted, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, roundevents.RoundSubmittedV1, submitted, roundevents.RoundSubmittedPayloadV1{
		RoundID:       submitted.ID,
		ClubID:        submitted.ClubID,
		GolfLinkNo:    submitted.GolfLinkNo,
		SubmittedTime: submitted.SubmittedTime,
	})
	return submitted, nil
}

func (s *RoundService) submitRoundLogic(ctx context.Context, round *roundtypes.Round, sigs Signatures) (results.OperationResult[*roundtypes.Round, error], error) {
	if round.IsSubmitted {
		return results.FailureResult[*roundtypes.Round, error](ErrAlreadySubmitted), nil
	}
	payload := BuildSubmission(round, sigs)
	if len(payload.PlayerScores) == 0 {
		return results.FailureResult[*roundtypes.Round, error](ErrNothingToSubmit), nil
	}
	if s.gateway == nil {
		return results.OperationResult[*roundtypes.Round, error]{}, fmt.Errorf("remote gateway is not configured")
	}

	if err := s.gateway.SubmitScores(ctx, payload); err != nil {
		s.metrics.RecordRemoteCall(ctx, "SubmitScores", roundremote.KindOf(err).String())
		return results.OperationResult[*roundtypes.Round, error]{}, fmt.Errorf("failed to submit scores: %w", err)
	}
	s.metrics.RecordRemoteCall(ctx, "SubmitScores", "success")

	next := round.Clone()
	next.IsSubmitted = true
	next.SubmittedTime = s.now()

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*roundtypes.Round, error], error) {
		if err := s.repo.SaveRound(ctx, db, next); err != nil {
			return results.OperationResult[*roundtypes.Round, error]{}, fmt.Errorf("failed to save submitted round: %w", err)
		}
		return results.SuccessResult[*roundtypes.Round, error](next), nil
	})
}
