package models

import "errors"

// Error taxonomy for the designer core. Callers classify with errors.Is;
// wrapping sites add context with fmt.Errorf and %w.
var (
	// ErrNotFound covers a missing product, color, print area or baseline
	// asset. Image-resolution paths degrade to a neutral/placeholder asset
	// instead of surfacing this to the buyer.
	ErrNotFound = errors.New("not found")

	// ErrAssetLoad means an image failed to decode.
	ErrAssetLoad = errors.New("asset load failure")

	// ErrPersistence means a storage write was rejected (e.g. quota) after
	// eviction and one retry.
	ErrPersistence = errors.New("persistence failure")

	// ErrRaceGuardSkip means an operation declined to run because the
	// render lock was held. Silent: the state machine re-triggers the
	// skipped work once the template swap finishes.
	ErrRaceGuardSkip = errors.New("render lock held, skipped")

	// ErrStaleResult means an async result arrived after its selection
	// context changed and was discarded without being applied.
	ErrStaleResult = errors.New("stale result discarded")
)
