package nordigen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TokenStatus describes what EnsureToken found at the state path.
type TokenStatus int

const (
	// TokenValid: a persisted pair exists and neither token has expired.
	TokenValid TokenStatus = iota
	// TokenNeedsRefresh: the access token is expired but the refresh token
	// is still good. EnsureToken reports this, it does not refresh itself;
	// refreshing is a separate explicit operation.
	TokenNeedsRefresh
	// TokenIssued: no usable pair existed, a fresh one was obtained from
	// the provider and persisted.
	TokenIssued
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenNeedsRefresh:
		return "needs-refresh"
	case TokenIssued:
		return "issued"
	default:
		return "unknown"
	}
}

// Flow drives the authorization and credential lifecycle: the application
// token state machine and the bank-consent handshake. It never retries and
// never terminates the process; every failure comes back typed.
type Flow struct {
	client *Client
	log    *slog.Logger
	now    func() time.Time
}

func NewFlow(client *Client, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}

	return &Flow{
		client: client,
		log:    logger,
		now:    time.Now,
	}
}

// pendingHandshake exists only between requisition creation and callback
// receipt. It is a plain local value, deliberately not package state.
type pendingHandshake struct {
	bankID        string
	requisitionID string
	link          string
	expectedRef   string
}

// EnsureToken makes sure an application token pair exists at statePath. A
// valid pair is returned untouched without any network call. An expired
// access token with a live refresh token is only reported as
// TokenNeedsRefresh. When no record exists, or the refresh token itself is
// expired, a fresh pair is obtained and persisted. A corrupt state file
// aborts: it is never silently replaced by a re-authorization.
func (f *Flow) EnsureToken(ctx context.Context, secretID, secretKey, statePath string) (*State, TokenStatus, error) {
	now := f.now()

	state, err := LoadState(statePath)
	switch {
	case err == nil:
		if !state.IsRefreshExpired(now) {
			if state.IsTokenExpired(now) {
				f.log.Debug("access token expired, refresh still valid", "state", statePath)
				return state, TokenNeedsRefresh, nil
			}
			f.log.Debug("authorization still valid", "state", statePath)
			return state, TokenValid, nil
		}
		f.log.Debug("refresh token expired, re-authorizing", "state", statePath)
	case errors.Is(err, ErrStateNotFound):
		f.log.Debug("no on-disk state, authorizing", "state", statePath)
	default:
		return nil, 0, err
	}

	pair, err := f.client.NewToken(ctx, secretID, secretKey)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	newState, err := WriteState(statePath, *pair, f.now())
	if err != nil {
		return nil, 0, err
	}

	f.log.Info("obtained new authorization", "expires", newState.TokenExpiresOn())

	return newState, TokenIssued, nil
}

// Refresh exchanges the persisted refresh token for a new access token. A
// still-valid access token makes this a deliberate no-op. An expired
// refresh token fails with ErrRefreshExpired and leaves the persisted state
// untouched; re-authorizing is the caller's explicit decision.
func (f *Flow) Refresh(ctx context.Context, statePath string) (*State, error) {
	state, err := LoadState(statePath)
	if err != nil {
		return nil, err
	}

	now := f.now()

	if !state.IsTokenExpired(now) {
		f.log.Debug("access token still valid, refresh is a no-op", "state", statePath)
		return state, nil
	}

	if state.IsRefreshExpired(now) {
		return nil, fmt.Errorf("%w: expired on %s", ErrRefreshExpired, state.RefreshExpiresOn())
	}

	token, err := f.client.RefreshToken(ctx, state.RefreshToken)
	if err != nil {
		return nil, err
	}

	newState, err := WriteRefreshedState(statePath, state, *token, f.now())
	if err != nil {
		return nil, err
	}

	f.log.Info("refreshed authorization", "expires", newState.TokenExpiresOn())

	return newState, nil
}

// AuthorizeBankOptions tunes a single consent handshake.
type AuthorizeBankOptions struct {
	// ListenAddr is the loopback address the callback listener binds.
	// Defaults to DefaultCallbackAddr.
	ListenAddr string

	// Timeout bounds the wait for the bank's redirect. Zero means wait
	// until ctx is done.
	Timeout time.Duration

	// PresentLink is called with the consent link once the requisition
	// exists; rendering it to the operator is the caller's concern.
	PresentLink func(link string)
}

// DefaultCallbackAddr is where the bank's redirect lands unless
// reconfigured.
const DefaultCallbackAddr = "127.0.0.1:1337"

// AuthorizeBank runs the full consent handshake for one bank: create the
// requisition with a fresh reference, hand the consent link to the
// operator, wait for the browser redirect, verify the echoed reference
// matches the issued one, confirm the requisition, and persist the consent
// record. A mismatched reference or a failed listener aborts with
// *HandshakeError and persists nothing; partial handshakes never produce a
// consent record.
func (f *Flow) AuthorizeBank(ctx context.Context, access, bankID, consentPath string, opts AuthorizeBankOptions) (*BankConsent, error) {
	if opts.ListenAddr == "" {
		opts.ListenAddr = DefaultCallbackAddr
	}

	listener, err := NewCallbackListener(opts.ListenAddr, f.log)
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	reference := uuid.NewString()

	requisition, err := f.client.CreateRequisition(ctx, access, bankID, listener.RedirectURL(), reference)
	if err != nil {
		return nil, err
	}

	pending := pendingHandshake{
		bankID:        bankID,
		requisitionID: requisition.ID,
		link:          requisition.Link,
		expectedRef:   reference,
	}

	f.log.Debug("requisition created",
		"requisition_id", pending.requisitionID, "reference", pending.expectedRef)

	if opts.PresentLink != nil {
		opts.PresentLink(pending.link)
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ref, err := listener.Wait(waitCtx)
	if err != nil {
		return nil, &HandshakeError{Reason: "callback listener failed", Err: err}
	}

	if ref != pending.expectedRef {
		return nil, &HandshakeError{
			Reason: fmt.Sprintf("reference mismatch: got %q, expected %q", ref, pending.expectedRef),
		}
	}

	confirmed, err := f.client.GetRequisition(ctx, access, pending.requisitionID)
	if err != nil {
		return nil, &HandshakeError{Reason: "could not confirm requisition", Err: err}
	}

	consent := &BankConsent{
		BankID:        pending.bankID,
		RequisitionID: pending.requisitionID,
		Reference:     ref,
		Requisition:   confirmed.Raw,
	}

	if err := WriteConsent(consentPath, consent); err != nil {
		return nil, err
	}

	f.log.Info("bank authorized",
		"bank_id", bankID, "requisition_id", pending.requisitionID, "status", confirmed.Status)

	return consent, nil
}
