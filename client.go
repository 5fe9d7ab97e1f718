package nordigen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the provider's production API root.
const DefaultBaseURL = "https://ob.nordigen.com/api/v2"

// maxErrorBodyLen caps how much of a provider error body is kept around.
const maxErrorBodyLen = 2048

// Client talks to the provider's token and bank-requisition endpoints. It
// performs exactly one request per call: there are no retries here, retry
// decisions belong to the caller.
type Client struct {
	h       *http.Client
	baseURL string
	log     *slog.Logger
}

type ClientArgs struct {
	H       *http.Client
	BaseURL string
	Logger  *slog.Logger
}

func NewClient(args ClientArgs) *Client {
	if args.H == nil {
		args.H = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	if args.BaseURL == "" {
		args.BaseURL = DefaultBaseURL
	}

	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	return &Client{
		h:       args.H,
		baseURL: strings.TrimRight(args.BaseURL, "/"),
		log:     args.Logger,
	}
}

// NewToken exchanges the application's secret pair for a fresh token pair.
func (c *Client) NewToken(ctx context.Context, secretID, secretKey string) (*TokenPair, error) {
	body, err := c.do(ctx, "POST", "/token/new/", "", newTokenRequest{
		SecretID:  secretID,
		SecretKey: secretKey,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not obtain token: %w", err)
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, fmt.Errorf("could not decode token response: %w", err)
	}

	return &pair, nil
}

// RefreshToken obtains a new access token for an existing refresh token.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (*AccessToken, error) {
	body, err := c.do(ctx, "POST", "/token/refresh/", "", refreshTokenRequest{
		Refresh: refresh,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not refresh token: %w", err)
	}

	var token AccessToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("could not decode refresh response: %w", err)
	}

	return &token, nil
}

// ListInstitutions lists the banks the provider supports, optionally
// filtered by ISO country code.
func (c *Client) ListInstitutions(ctx context.Context, access, country string) ([]Institution, error) {
	var query url.Values
	if country != "" {
		query = url.Values{"country": {country}}
	}

	body, err := c.do(ctx, "GET", "/institutions/", access, nil, query)
	if err != nil {
		return nil, fmt.Errorf("could not list institutions: %w", err)
	}

	var institutions []Institution
	if err := json.Unmarshal(body, &institutions); err != nil {
		return nil, fmt.Errorf("could not decode institutions response: %w", err)
	}

	return institutions, nil
}

// CreateRequisition starts a bank-consent session. The reference is the
// caller-generated correlator the provider echoes back, as the `ref` query
// parameter, when the bank redirects the user to redirectURL.
func (c *Client) CreateRequisition(ctx context.Context, access, institutionID, redirectURL, reference string) (*Requisition, error) {
	body, err := c.do(ctx, "POST", "/requisitions/", access, createRequisitionRequest{
		Redirect:      redirectURL,
		InstitutionID: institutionID,
		Reference:     reference,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create requisition: %w", err)
	}

	return decodeRequisition(body)
}

// GetRequisition fetches the current state of a requisition. It is a single
// request, not a poll loop; confirming consent state after the callback is
// one call.
func (c *Client) GetRequisition(ctx context.Context, access, requisitionID string) (*Requisition, error) {
	body, err := c.do(ctx, "GET", "/requisitions/"+requisitionID+"/", access, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get requisition: %w", err)
	}

	return decodeRequisition(body)
}

// AccountMetadata fetches the provider's metadata for a single account.
func (c *Client) AccountMetadata(ctx context.Context, access, accountID string) (*AccountMetadata, error) {
	body, err := c.do(ctx, "GET", "/accounts/"+accountID+"/", access, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get account metadata: %w", err)
	}

	var meta AccountMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("could not decode account metadata: %w", err)
	}

	return &meta, nil
}

// AccountBalances fetches the balances of a single account.
func (c *Client) AccountBalances(ctx context.Context, access, accountID string) ([]Balance, error) {
	body, err := c.do(ctx, "GET", "/accounts/"+accountID+"/balances/", access, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get account balances: %w", err)
	}

	var resp balancesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not decode balances response: %w", err)
	}

	return resp.Balances, nil
}

// AccountTransactions fetches the transactions of a single account.
func (c *Client) AccountTransactions(ctx context.Context, access, accountID string) (*Transactions, error) {
	body, err := c.do(ctx, "GET", "/accounts/"+accountID+"/transactions/", access, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get account transactions: %w", err)
	}

	var resp transactionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not decode transactions response: %w", err)
	}

	return &resp.Transactions, nil
}

func decodeRequisition(body []byte) (*Requisition, error) {
	var req Requisition
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("could not decode requisition response: %w", err)
	}

	req.Raw = json.RawMessage(body)

	return &req, nil
}

func (c *Client) do(ctx context.Context, method, path, access string, payload any, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("could not encode request payload: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	c.log.Debug("provider request", "method", method, "path", path)

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		summary := string(body)
		if len(summary) > maxErrorBodyLen {
			summary = summary[:maxErrorBodyLen]
		}
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Body:       summary,
		}
	}

	return body, nil
}
