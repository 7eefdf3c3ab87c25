package roundevents

import roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"

// Outbound topics. Each is published club scoped as "<topic>.<clubID>".
const (
	HoleScoreUpdatedV1 = "round.hole_score.updated.v1"
	PickupRecordedV1   = "round.pickup.recorded.v1"
	HoleNotPlayedV1    = "round.hole.not_played.v1"
	RoundSyncedV1      = "round.synced.v1"
	RoundSubmittedV1   = "round.submitted.v1"

	// ReconcileCompletedV1 reports the outcome of a lifecycle triggered pass.
	ReconcileCompletedV1 = "round.reconcile.completed.v1"
)

// Inbound lifecycle triggers that start a reconciliation pass.
const (
	AppResumedV1      = "app.lifecycle.resumed.v1"
	NetworkRestoredV1 = "app.network.restored.v1"
)

// HoleScoreChangedPayloadV1 describes a committed change to one hole.
// It is shared by the score, pickup and not-played topics.
type HoleScoreChangedPayloadV1 struct {
	RoundID      string               `json:"round_id"`
	ClubID       string               `json:"club_id"`
	Target       string               `json:"target"`
	HoleScore    roundtypes.HoleScore `json:"hole_score"`
	RemoteSynced bool                 `json:"remote_synced"`
	LastUpdated  int64                `json:"last_updated"`
}

// RoundSyncedPayloadV1 is published after the full round reached the remote store.
type RoundSyncedPayloadV1 struct {
	RoundID     string `json:"round_id"`
	ClubID      string `json:"club_id"`
	Trigger     string `json:"trigger"`
	LastUpdated int64  `json:"last_updated"`
}

// RoundSubmittedPayloadV1 is published once the remote accepted the final card.
type RoundSubmittedPayloadV1 struct {
	RoundID       string `json:"round_id"`
	ClubID        string `json:"club_id"`
	GolfLinkNo    string `json:"golf_link_no"`
	SubmittedTime int64  `json:"submitted_time"`
}

// LifecyclePayloadV1 is emitted by the device shell on resume or when connectivity returns.
type LifecyclePayloadV1 struct {
	Reason     string `json:"reason"`
	OccurredAt int64  `json:"occurred_at"`
}

// ReconcileCompletedPayloadV1 answers a lifecycle trigger.
type ReconcileCompletedPayloadV1 struct {
	Trigger string `json:"trigger"`
	Synced  int    `json:"synced"`
}
