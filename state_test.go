package nordigen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStateRoundTrip(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "state.json")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	pair := TokenPair{
		Access:         "access-token",
		AccessExpires:  3600,
		Refresh:        "refresh-token",
		RefreshExpires: 7776000,
	}

	written, err := WriteState(path, pair, now)
	require.NoError(t, err)

	loaded, err := LoadState(path)
	require.NoError(t, err)

	assert.Equal(written, loaded)
	assert.Equal("access-token", loaded.Token)
	assert.Equal("refresh-token", loaded.RefreshToken)
	assert.True(loaded.WrittenAt.Equal(now))
}

func TestWriteStateIsPretty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	_, err := WriteState(path, TokenPair{Access: "a", Refresh: "r"}, time.Now())
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "\n  \"token\"")
}

func TestWriteStateLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteState(filepath.Join(dir, "state.json"), TokenPair{}, time.Now())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestLoadStateNotFound(t *testing.T) {
	_, err := LoadState(filepath.Join(t.TempDir(), "missing.json"))

	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.NotErrorIs(t, err, ErrStateCorrupt)
}

func TestLoadStateCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadState(path)

	assert.ErrorIs(t, err, ErrStateCorrupt)
	assert.NotErrorIs(t, err, ErrStateNotFound)
}

func TestExpiryBoundaryIsInclusive(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &State{
		TokenExpires:   3600,
		RefreshExpires: 7776000,
		WrittenAt:      issuedAt,
	}

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"one second before expiry", issuedAt.Add(3599 * time.Second), false},
		{"exactly at expiry", issuedAt.Add(3600 * time.Second), true},
		{"after expiry", issuedAt.Add(3601 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, state.IsTokenExpired(tt.now))
		})
	}

	assert.False(t, state.IsRefreshExpired(issuedAt.Add(7775999*time.Second)))
	assert.True(t, state.IsRefreshExpired(issuedAt.Add(7776000*time.Second)))
}

func TestWriteRefreshedStateKeepsRefreshBaseline(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "state.json")
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	prev, err := WriteState(path, TokenPair{
		Access:         "old-access",
		AccessExpires:  3600,
		Refresh:        "refresh-token",
		RefreshExpires: 7776000,
	}, t0)
	require.NoError(t, err)

	refreshedAt := t0.Add(3601 * time.Second)
	assert.True(prev.IsTokenExpired(refreshedAt))
	assert.False(prev.IsRefreshExpired(refreshedAt))

	next, err := WriteRefreshedState(path, prev, AccessToken{
		Access:        "new-access",
		AccessExpires: 3600,
	}, refreshedAt)
	require.NoError(t, err)

	assert.Equal("new-access", next.Token)
	assert.Equal("refresh-token", next.RefreshToken)
	// The refresh clock keeps counting from the original issuance.
	assert.True(next.RefreshExpiresOn().Equal(prev.RefreshExpiresOn()))
	assert.True(next.TokenExpiresOn().Equal(refreshedAt.Add(3600 * time.Second)))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(next, loaded)
}

func TestStateFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	_, err := WriteState(path, TokenPair{Access: "a"}, time.Now())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStateFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	_, err := WriteState(path, TokenPair{
		Access:         "a",
		AccessExpires:  1,
		Refresh:        "r",
		RefreshExpires: 2,
	}, time.Now())
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, field := range []string{"token", "token_expires", "refresh_token", "refresh_expires", "written_at"} {
		assert.True(t, strings.Contains(string(contents), `"`+field+`"`), "missing field %q", field)
	}
}
