package domain

import (
	"errors"
	"fmt"
)

// Validation failures, rejected before any network call.
var (
	ErrUnsupportedSkuType   = errors.New("unsupported sku type")
	ErrUnsupportedAPI       = errors.New("unsupported billing api version")
	ErrMissingPackageName   = errors.New("package name is required")
	ErrMissingSku           = errors.New("sku is required")
	ErrMissingAccount       = errors.New("account is required")
	ErrMissingPurchaseToken = errors.New("purchase token is required")
	ErrFlowNotFound         = errors.New("buy flow not found")
	ErrFlowFinished         = errors.New("buy flow already finished")
	ErrUnexpectedFlowState  = errors.New("unexpected buy flow state")
)

// Auth provider failure reasons (external interface contract).
var (
	ErrNoAccount        = errors.New("no such account")
	ErrTokenUnavailable = errors.New("auth token unavailable")
	ErrConsentRequired  = errors.New("interactive consent required")
)

// TransportError covers network failures, timeouts and non-2xx statuses.
// Never retried by the engine.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError marks a well-formed response violating a structural
// invariant, e.g. mismatched parallel array lengths.
type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol violation: %s", e.Op, e.Reason)
}

// AuthError is a recoverable in-flow authentication failure. WrongPassword
// distinguishes a rejected credential from an exchange fault.
type AuthError struct {
	WrongPassword bool
	Err           error
}

func (e *AuthError) Error() string {
	if e.WrongPassword {
		return "auth proof exchange: password rejected"
	}
	return fmt.Sprintf("auth proof exchange: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
