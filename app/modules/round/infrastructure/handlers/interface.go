package roundhandlers

import (
	"context"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	"github.com/Black-And-White-Club/scorecard/pkg/handlerwrapper"
)

// Handlers reacts to device lifecycle events.
type Handlers interface {
	HandleAppResumed(ctx context.Context, payload *roundevents.LifecyclePayloadV1) ([]handlerwrapper.Result, error)
	HandleNetworkRestored(ctx context.Context, payload *roundevents.LifecyclePayloadV1) ([]handlerwrapper.Result, error)
}
