package session

import "errors"

var (
	// ErrUnknownTier is returned when a tier id is not in the catalog.
	ErrUnknownTier = errors.New("session: unknown tier")
	// ErrUnknownAddon is returned when an add-on id is not in the catalog.
	ErrUnknownAddon = errors.New("session: unknown addon")
	// ErrNoSession is returned when an operation requires an existing session.
	ErrNoSession = errors.New("session: no active session")
	// ErrNoTierSelected is returned when add-ons are toggled before a tier is
	// chosen. Some bot variants treated this as a no-op; the strict error is
	// deliberate.
	ErrNoTierSelected = errors.New("session: no tier selected")
)
