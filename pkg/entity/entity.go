// Package entity defines the values held by the directory: contacts, meetings
// and the rules that classify a meeting as future or past relative to a clock.
package entity

import "errors"

// Error kinds surfaced to callers. Use errors.Is to test for them; concrete
// errors wrap one of these with a description of the offending input.
var (
	// ErrNullArgument reports a required argument that was not supplied.
	ErrNullArgument = errors.New("rolodex: required argument missing")

	// ErrInvalidArgument reports a well-formed but semantically invalid input.
	ErrInvalidArgument = errors.New("rolodex: invalid argument")

	// ErrInvalidState reports an operation the meeting's temporal state forbids.
	ErrInvalidState = errors.New("rolodex: invalid state")

	// ErrNotFound reports a lookup for an id that does not exist.
	ErrNotFound = errors.New("rolodex: not found")
)
