// Package common defines shared constants and sentinel errors used across
// FlashGenius components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrValidation reports a caller-supplied precondition violation:
	// missing input, empty card-set name, nothing to save.
	ErrValidation = errors.New("validation error")

	// ErrTransport reports an unreachable endpoint, a non-success status or
	// a malformed response.
	ErrTransport = errors.New("transport error")

	// ErrContent reports unsupported or unreadable file or page content.
	ErrContent = errors.New("content error")

	// ErrNotFound reports a referenced card set that is absent from the store.
	ErrNotFound = errors.New("not found")
)
