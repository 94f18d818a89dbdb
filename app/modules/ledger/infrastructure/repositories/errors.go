package ledgerdb

import "errors"

// Sentinel errors for the repository layer. These are infrastructure-level
// signals; the service layer decides whether they are domain failures.
var (
	// ErrGameNotFound indicates the requested game does not exist.
	ErrGameNotFound = errors.New("game not found")

	// ErrUserCycleNotFound indicates no user-cycle exists for the lookup.
	ErrUserCycleNotFound = errors.New("user cycle not found")
)
