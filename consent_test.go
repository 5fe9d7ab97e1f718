package nordigen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsentRoundTrip(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "bank.json")

	consent := &BankConsent{
		BankID:        "ABNAMRO_ABNANL2A",
		RequisitionID: "req-123",
		Reference:     "ref-abc",
		Requisition:   json.RawMessage(`{"id":"req-123","status":"LN"}`),
	}

	require.NoError(t, WriteConsent(path, consent))

	loaded, err := LoadConsent(path)
	require.NoError(t, err)

	assert.Equal(consent.BankID, loaded.BankID)
	assert.Equal(consent.RequisitionID, loaded.RequisitionID)
	assert.Equal(consent.Reference, loaded.Reference)
	assert.JSONEq(string(consent.Requisition), string(loaded.Requisition))
}

func TestLoadConsentNotFound(t *testing.T) {
	_, err := LoadConsent(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestLoadConsentCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, err := LoadConsent(path)
	assert.ErrorIs(t, err, ErrStateCorrupt)
}
