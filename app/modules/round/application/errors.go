package roundservice

import "errors"

var (
	ErrActiveRoundExists = errors.New("an active round already exists for this date")
	ErrAlreadySubmitted  = errors.New("round is already submitted")
	ErrInvalidStrokes    = errors.New("strokes cannot be negative")
	ErrMalformedHoles    = errors.New("hole scores must be numbered 1..N in order")
	ErrNothingToSubmit   = errors.New("no participant has a golf link number")
	ErrRoundRequired     = errors.New("round is required")
)
