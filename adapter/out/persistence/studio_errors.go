package persistence

import "errors"

// Sentinel errors shared by the SQL and MongoDB adapters. Services map
// these onto API error envelopes.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrInvalidInput = errors.New("invalid input")
)
