package nordigen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nordigen-tools/nordigen-go/internal/helpers"
)

// BankConsent is the persisted outcome of a completed bank-consent
// handshake. It embeds no token; API calls against the consented accounts
// use whatever access token is valid at the time. Records are never mutated
// in place, a new consent supersedes an old one wholesale.
type BankConsent struct {
	BankID        string          `json:"bank_id"`
	RequisitionID string          `json:"requisition_id"`
	Reference     string          `json:"reference"`
	Requisition   json.RawMessage `json:"requisition"`
}

// LoadConsent reads a persisted bank consent. Missing and corrupt records
// are distinguished the same way LoadState does it.
func LoadConsent(path string) (*BankConsent, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, path)
		}
		return nil, fmt.Errorf("could not read bank consent file %s: %w", path, err)
	}

	var consent BankConsent
	if err := json.Unmarshal(contents, &consent); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateCorrupt, path, err)
	}

	return &consent, nil
}

// WriteConsent persists a bank consent record atomically.
func WriteConsent(path string, consent *BankConsent) error {
	contents, err := json.MarshalIndent(consent, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode bank consent: %w", err)
	}

	if err := helpers.WriteFileAtomic(path, contents, 0o600); err != nil {
		return fmt.Errorf("could not write bank consent file %s: %w", path, err)
	}

	return nil
}
