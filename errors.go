package nordigen

import (
	"errors"
	"fmt"
)

var (
	// ErrStateNotFound is returned when no record exists at the given path.
	// Callers usually react by starting a fresh authorization.
	ErrStateNotFound = errors.New("state file not found")

	// ErrStateCorrupt is returned when a record exists but cannot be
	// decoded. It is deliberately distinct from ErrStateNotFound: a corrupt
	// record must never be silently overwritten by a re-authorization.
	ErrStateCorrupt = errors.New("state file is corrupt")

	// ErrNetwork wraps transport-level failures talking to the provider.
	ErrNetwork = errors.New("network error")

	// ErrRefreshExpired means the refresh token is past its validity
	// window and a full re-authorization is required.
	ErrRefreshExpired = errors.New("refresh token has expired")

	// ErrBind means the local callback port could not be bound.
	ErrBind = errors.New("could not bind callback address")

	// ErrAuthorization wraps a failed application authorization.
	ErrAuthorization = errors.New("authorization failed")

	// ErrListenerUsed is returned when waiting twice on the same
	// single-use callback listener.
	ErrListenerUsed = errors.New("callback listener already used")
)

// ProviderError is a non-success response from the provider API.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// ProtocolError means the local callback request was malformed or did not
// carry the expected parameter.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("callback protocol error: %s", e.Reason)
}

// HandshakeError means the bank consent handshake failed: the callback
// listener errored out or the echoed reference did not match the one issued
// when the requisition was created.
type HandshakeError struct {
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("consent handshake failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("consent handshake failed: %s", e.Reason)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
