// Package common defines shared constants and sentinel errors used across
// the layers of the certificate service. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors (caller can fix the input and retry).
	ErrorValidation     = errors.New("validation error")
	ErrorProfileBlocked = errors.New("profile is blocked")

	// Certificate lifecycle errors.
	ErrorInvalidStateTransition = errors.New("invalid state transition")

	// Minting errors. ErrorDuplicateCertificateID signals a write-time race on
	// the public identifier and triggers a remint; ErrorCollisionExhausted is
	// terminal for the issuance attempt.
	ErrorDuplicateCertificateID = errors.New("duplicate certificate id")
	ErrorCollisionExhausted     = errors.New("certificate id collision retries exhausted")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
)
