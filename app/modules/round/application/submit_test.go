package roundservice

import (
	"context"
	"errors"
	"testing"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestBuildSubmission(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*roundtypes.Round)
		wantLinks []string
	}{
		{
			name:      "both players",
			wantLinks: []string{"1234567890", "9876543210"},
		},
		{
			name:      "partner without golf link is omitted",
			mutate:    func(r *roundtypes.Round) { r.PlayingPartnerRound.GolfLinkNo = "" },
			wantLinks: []string{"1234567890"},
		},
		{
			name:      "golfer without golf link is omitted",
			mutate:    func(r *roundtypes.Round) { r.GolfLinkNo = "" },
			wantLinks: []string{"9876543210"},
		},
		{
			name:      "no partner",
			mutate:    func(r *roundtypes.Round) { r.PlayingPartnerRound = nil },
			wantLinks: []string{"1234567890"},
		},
		{
			name: "nobody",
			mutate: func(r *roundtypes.Round) {
				r.GolfLinkNo = ""
				r.PlayingPartnerRound = nil
			},
			wantLinks: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := testRound()
			if tt.mutate != nil {
				tt.mutate(round)
			}

			payload := BuildSubmission(round, Signatures{Golfer: "sig-a", Partner: "sig-b"})

			links := []string{}
			for _, ps := range payload.PlayerScores {
				links = append(links, ps.GolfLinkNumber)
				assert.Len(t, ps.Holes, 9)
			}
			assert.Equal(t, tt.wantLinks, links)
		})
	}
}

func TestBuildSubmissionHoles(t *testing.T) {
	round := testRound()
	round.PlayingPartnerRound = nil
	round.HoleScores = []roundtypes.HoleScore{
		{HoleNumber: 2, Strokes: 7, IsBallPickedUp: true},
		{HoleNumber: 1, Strokes: 4},
		{HoleNumber: 3, IsHoleNotPlayed: true},
	}

	payload := BuildSubmission(round, Signatures{Golfer: "data:image/png;base64,AAAA"})

	require.Len(t, payload.PlayerScores, 1)
	assert.Equal(t, roundremote.PlayerScore{
		GolfLinkNumber: "1234567890",
		Signature:      "data:image/png;base64,AAAA",
		Holes: []roundremote.SubmittedHole{
			{GrossScore: 4},
			{GrossScore: 7, BallPickedUp: true},
			{GrossScore: 0, NotPlayed: true},
		},
	}, payload.PlayerScores[0])
	assert.Equal(t, 2, round.HoleScores[0].HoleNumber, "input order must be preserved")
}

func TestSubmitRound(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*roundtypes.Round)
		setupGW   func(*FakeGateway)
		setupRepo func(*FakeRoundRepo)
		wantErr   error
		wantAny   bool
		wantCalls []string
	}{
		{
			name:      "accepted",
			wantCalls: []string{"SubmitScores"},
		},
		{
			name: "remote rejection blocks the transition",
			setupGW: func(f *FakeGateway) {
				f.SubmitScoresFunc = func(ctx context.Context, payload roundremote.SubmissionPayload) error {
					return &roundremote.Error{Kind: roundremote.KindDomain, Message: "card already lodged"}
				}
			},
			wantAny:   true,
			wantCalls: []string{"SubmitScores"},
		},
		{
			name: "timeout blocks the transition",
			setupGW: func(f *FakeGateway) {
				f.SubmitScoresFunc = func(ctx context.Context, payload roundremote.SubmissionPayload) error {
					return &roundremote.Error{Kind: roundremote.KindTimeout}
				}
			},
			wantAny:   true,
			wantCalls: []string{"SubmitScores"},
		},
		{
			name: "nobody to submit",
			mutate: func(r *roundtypes.Round) {
				r.GolfLinkNo = ""
				r.PlayingPartnerRound = nil
			},
			wantErr:   ErrNothingToSubmit,
			wantCalls: []string{},
		},
		{
			name:      "already submitted",
			mutate:    func(r *roundtypes.Round) { r.IsSubmitted = true },
			wantErr:   ErrAlreadySubmitted,
			wantCalls: []string{},
		},
		{
			name: "local save failure",
			setupRepo: func(f *FakeRoundRepo) {
				f.SaveRoundFunc = func(ctx context.Context, db bun.IDB, round *roundtypes.Round) error {
					return errors.New("disk full")
				}
			},
			wantAny:   true,
			wantCalls: []string{"SubmitScores"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := testRound()
			round.HoleScores[0].Strokes = 4
			if tt.mutate != nil {
				tt.mutate(round)
			}
			repo := NewFakeRoundRepo(round)
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			gw := NewFakeGateway()
			if tt.setupGW != nil {
				tt.setupGW(gw)
			}
			pub := &FakePublisher{}
			svc := newTestService(testDeps{repo: repo, gateway: gw, pub: pub})

			got, err := svc.SubmitRound(context.Background(), round, Signatures{Golfer: "sig"})

			assert.Equal(t, tt.wantCalls, gw.Trace())
			if tt.wantErr != nil || tt.wantAny {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Nil(t, got)
				assert.Equal(t, round, repo.Stored(round.ID), "stored round must be unchanged")
				assert.Empty(t, pub.Topics())
				return
			}

			require.NoError(t, err)
			assert.True(t, got.IsSubmitted)
			assert.Equal(t, testNow.UnixMilli(), got.SubmittedTime)
			assert.False(t, round.IsSubmitted, "input round must not be modified")

			stored := repo.Stored(round.ID)
			assert.True(t, stored.IsSubmitted)
			assert.Equal(t, testNow.UnixMilli(), stored.SubmittedTime)
			assert.Equal(t, []string{roundevents.RoundSubmittedV1 + ".club-1"}, pub.Topics())
		})
	}
}

func TestSubmitRoundSurfacesRemoteKind(t *testing.T) {
	gw := NewFakeGateway()
	gw.SubmitScoresFunc = func(ctx context.Context, payload roundremote.SubmissionPayload) error {
		return &roundremote.Error{Kind: roundremote.KindNoConnection, Operation: "SubmitScores"}
	}
	svc := newTestService(testDeps{gateway: gw})

	_, err := svc.SubmitRound(context.Background(), testRound(), Signatures{})

	require.Error(t, err)
	assert.Equal(t, roundremote.KindNoConnection, roundremote.KindOf(err))
}
