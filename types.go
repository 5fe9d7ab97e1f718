package nordigen

import (
	"encoding/json"
	"time"
)

// TokenPair is the provider's response to a new-token request. Both tokens
// are issued together; their TTLs are whole seconds.
type TokenPair struct {
	Access         string `json:"access"`
	AccessExpires  uint   `json:"access_expires"`
	Refresh        string `json:"refresh"`
	RefreshExpires uint   `json:"refresh_expires"`
}

// AccessToken is the provider's response to a refresh request. No new
// refresh token is issued; the caller keeps the original one.
type AccessToken struct {
	Access        string `json:"access"`
	AccessExpires uint   `json:"access_expires"`
}

// Institution is one entry of the provider's bank listing.
type Institution struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	BIC                  string   `json:"bic"`
	TransactionTotalDays string   `json:"transaction_total_days"`
	Countries            []string `json:"countries"`
	Logo                 string   `json:"logo"`
}

// Requisition is the provider's representation of one bank-consent session.
// Raw holds the verbatim response body so consent records can persist the
// provider payload untouched.
type Requisition struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	InstitutionID string   `json:"institution_id"`
	Link          string   `json:"link"`
	Reference     string   `json:"reference"`
	Redirect      string   `json:"redirect"`
	Accounts      []string `json:"accounts"`

	Raw json.RawMessage `json:"-"`
}

// AccountMetadata describes a single bank account attached to a requisition.
type AccountMetadata struct {
	ID            string     `json:"id"`
	IBAN          string     `json:"iban"`
	Currency      string     `json:"currency"`
	InstitutionID string     `json:"institution_id"`
	Name          *string    `json:"name,omitempty"`
	OwnerName     *string    `json:"owner_name,omitempty"`
	Product       *string    `json:"product,omitempty"`
	AccountType   *string    `json:"account_type,omitempty"`
	Created       *time.Time `json:"created,omitempty"`
	LastAccessed  *time.Time `json:"last_accessed,omitempty"`
}

// Amount is a currency-tagged decimal amount, kept as the provider's string.
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Balance is one entry of an account's balance listing.
type Balance struct {
	BalanceAmount Amount `json:"balanceAmount"`
	BalanceType   string `json:"balanceType"`
	ReferenceDate string `json:"referenceDate"`
}

// Transaction is a single booked or pending account transaction.
type Transaction struct {
	TransactionID                     string  `json:"transactionId"`
	BookingDate                       string  `json:"bookingDate"`
	ValueDate                         string  `json:"valueDate"`
	TransactionAmount                 Amount  `json:"transactionAmount"`
	RemittanceInformationUnstructured *string `json:"remittanceInformationUnstructured,omitempty"`
}

// Transactions groups an account's transactions the way the provider
// returns them.
type Transactions struct {
	Booked  []Transaction `json:"booked"`
	Pending []Transaction `json:"pending"`
}

type newTokenRequest struct {
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
}

type refreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

type createRequisitionRequest struct {
	Redirect      string `json:"redirect"`
	InstitutionID string `json:"institution_id"`
	Reference     string `json:"reference"`
}

type balancesResponse struct {
	Balances []Balance `json:"balances"`
}

type transactionsResponse struct {
	Transactions Transactions `json:"transactions"`
}
