package model

import "errors"

// Error taxonomy. Validation errors fail a job immediately with no retry;
// invariant errors indicate a bug upstream of the store and are rejected
// before commit; transient errors are retried by the shared policy.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation")
	ErrInvariant  = errors.New("graph invariant violation")
)
