package nordigen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/nordigen-tools/nordigen-go/internal/helpers"
)

// State is the persisted application token pair. WrittenAt is set at the
// instant the pair is persisted, not when the provider response arrived;
// both expiry clocks are derived from it.
type State struct {
	Token          string    `json:"token"`
	TokenExpires   uint      `json:"token_expires"`
	RefreshToken   string    `json:"refresh_token"`
	RefreshExpires uint      `json:"refresh_expires"`
	WrittenAt      time.Time `json:"written_at"`
}

// TokenExpiresOn returns the instant the access token expires.
func (s *State) TokenExpiresOn() time.Time {
	return s.WrittenAt.Add(time.Duration(s.TokenExpires) * time.Second)
}

// RefreshExpiresOn returns the instant the refresh token expires.
func (s *State) RefreshExpiresOn() time.Time {
	return s.WrittenAt.Add(time.Duration(s.RefreshExpires) * time.Second)
}

// IsTokenExpired reports whether the access token is expired at now. The
// boundary is inclusive: the token is expired the instant it reaches its
// expiry time.
func (s *State) IsTokenExpired(now time.Time) bool {
	return !now.Before(s.TokenExpiresOn())
}

// IsRefreshExpired reports whether the refresh token is expired at now,
// with the same inclusive boundary.
func (s *State) IsRefreshExpired(now time.Time) bool {
	return !now.Before(s.RefreshExpiresOn())
}

// LoadState reads the persisted token state at path. A missing file yields
// ErrStateNotFound; a file that exists but does not decode yields
// ErrStateCorrupt. Callers branch on the two: absence means "go authorize",
// corruption means "stop, do not overwrite".
func LoadState(path string) (*State, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, path)
		}
		return nil, fmt.Errorf("could not read state file %s: %w", path, err)
	}

	var state State
	if err := json.Unmarshal(contents, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateCorrupt, path, err)
	}

	return &state, nil
}

// WriteState persists a freshly issued token pair at path, stamping it with
// now. The write is atomic: no partial record is observable if the process
// dies mid-write.
func WriteState(path string, pair TokenPair, now time.Time) (*State, error) {
	state := &State{
		Token:          pair.Access,
		TokenExpires:   pair.AccessExpires,
		RefreshToken:   pair.Refresh,
		RefreshExpires: pair.RefreshExpires,
		WrittenAt:      now,
	}

	if err := writeStateFile(path, state); err != nil {
		return nil, err
	}

	return state, nil
}

// WriteRefreshedState persists the outcome of a token refresh: the new
// access token with its new TTL, the original refresh token, and a refresh
// TTL adjusted so the derived refresh expiry instant is unchanged from the
// prior record. The refresh clock keeps counting from the original
// issuance.
func WriteRefreshedState(path string, prev *State, token AccessToken, now time.Time) (*State, error) {
	remaining := prev.RefreshExpiresOn().Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	state := &State{
		Token:          token.Access,
		TokenExpires:   token.AccessExpires,
		RefreshToken:   prev.RefreshToken,
		RefreshExpires: uint(remaining / time.Second),
		WrittenAt:      now,
	}

	if err := writeStateFile(path, state); err != nil {
		return nil, err
	}

	return state, nil
}

func writeStateFile(path string, state *State) error {
	contents, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}

	if err := helpers.WriteFileAtomic(path, contents, 0o600); err != nil {
		return fmt.Errorf("could not write state file %s: %w", path, err)
	}

	return nil
}
