package roundservice

import (
	"log/slog"
	"time"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/connectivity"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	roundutil "github.com/Black-And-White-Club/scorecard/app/modules/round/utils"
	"github.com/Black-And-White-Club/scorecard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/message"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

const testToday = "2026-10-16"

type testDeps struct {
	repo    *FakeRoundRepo
	gateway *FakeGateway
	network *connectivity.Static
	pub     *FakePublisher
}

func newTestService(deps testDeps) *RoundService {
	if deps.repo == nil {
		deps.repo = NewFakeRoundRepo()
	}
	if deps.network == nil {
		deps.network = connectivity.NewStatic(true)
	}
	var pub message.Publisher
	if deps.pub != nil {
		pub = deps.pub
	}
	var gw roundremote.Gateway
	if deps.gateway != nil {
		gw = deps.gateway
	}
	svc := NewRoundService(
		deps.repo,
		gw,
		deps.network,
		roundutil.NewDateProvider(roundutil.NewFixedClock(testNow), time.UTC),
		pub,
		slog.Default(),
		observability.NewNoop(),
		nil,
		nil,
	)
	svc.newID = func() string { return "generated-id" }
	return svc
}

func testHoles(n int) []roundtypes.HoleScore {
	holes := make([]roundtypes.HoleScore, n)
	for i := range holes {
		holes[i] = roundtypes.HoleScore{
			HoleNumber: i + 1,
			Par:        4,
			Index1:     i + 1,
			Index2:     i + 10,
			Index3:     i + 19,
			Meters:     320 + i*10,
		}
	}
	return holes
}

func testRound() *roundtypes.Round {
	return &roundtypes.Round{
		ID:              "round-1",
		RemoteUUID:      "remote-1",
		GolferID:        "golfer-1",
		GolferName:      "Sam Taylor",
		GolfLinkNo:      "1234567890",
		DailyHandicap:   18,
		ClubID:          "club-1",
		ClubName:        "Riverside",
		CompetitionType: "stableford",
		HoleScores:      testHoles(9),
		PlayingPartnerRound: &roundtypes.PlayingPartnerRound{
			GolferID:      "golfer-2",
			GolferName:    "Alex Reid",
			GolfLinkNo:    "9876543210",
			DailyHandicap: 10,
			HoleScores:    testHoles(9),
		},
		RoundDate:   testToday,
		LastUpdated: 1,
		IsSynced:    true,
	}
}
