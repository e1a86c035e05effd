package game

import "errors"

// Engine failures are recoverable and leave room state untouched. The server
// reports them only to the client whose command failed.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrNotFound         = errors.New("not found")
	ErrTimingViolation  = errors.New("timing violation")
	ErrRuleViolation    = errors.New("rule violation")
)
