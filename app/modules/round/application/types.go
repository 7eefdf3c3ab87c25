package roundservice

import roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"

// HoleScoreRequest is one gross score entry.
type HoleScoreRequest struct {
	HoleNumber int
	Strokes    int
	Target     roundtypes.Target
}

// PickupRequest concedes a hole. ExtraStrokes is the stroke allocation for the
// hole and must be supplied.
type PickupRequest struct {
	HoleNumber   int
	Target       roundtypes.Target
	ExtraStrokes *int
}

// MutationResult is the committed state after a hole mutation.
type MutationResult struct {
	Round        *roundtypes.Round
	Hole         roundtypes.HoleScore
	RemoteSynced bool
}

// Signatures are the opaque signature blobs captured for each card.
type Signatures struct {
	Golfer  string
	Partner string
}

// Reconcile triggers.
const (
	TriggerResume          = "app_resumed"
	TriggerNetworkRestored = "network_restored"
	TriggerSchedule        = "schedule"
	TriggerManual          = "manual"
)
