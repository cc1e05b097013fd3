package agent

import (
	"context"
	"net/http"
	"net/url"
)

// CredentialExchange is an issue-credential exchange record.
type CredentialExchange struct {
	CredentialExchangeID string         `json:"credential_exchange_id"`
	ConnectionID         string         `json:"connection_id,omitempty"`
	State                string         `json:"state"`
	SchemaID             string         `json:"schema_id,omitempty"`
	CredentialDefID      string         `json:"credential_definition_id,omitempty"`
	CredentialID         string         `json:"credential_id,omitempty"`
	CredentialOffer      map[string]any `json:"credential_offer,omitempty"`
	CredentialProposal   map[string]any `json:"credential_proposal_dict,omitempty"`
	CreatedAt            string         `json:"created_at,omitempty"`
	UpdatedAt            string         `json:"updated_at,omitempty"`
}

// WalletCredential is a credential stored in the wallet.
type WalletCredential struct {
	Referent  string            `json:"referent"`
	SchemaID  string            `json:"schema_id"`
	CredDefID string            `json:"cred_def_id"`
	RevRegID  *string           `json:"rev_reg_id"`
	CredRevID *string           `json:"cred_rev_id"`
	Attrs     map[string]string `json:"attrs"`
}

// PresentationExchange is a present-proof exchange record.
type PresentationExchange struct {
	PresentationExchangeID string         `json:"presentation_exchange_id"`
	ConnectionID           string         `json:"connection_id,omitempty"`
	State                  string         `json:"state"`
	PresentationRequest    map[string]any `json:"presentation_request,omitempty"`
	CreatedAt              string         `json:"created_at,omitempty"`
	UpdatedAt              string         `json:"updated_at,omitempty"`
}

type results[T any] struct {
	Results []T `json:"results"`
}

func (c *Client) ListCredentialOffers(ctx context.Context) ([]CredentialExchange, error) {
	var out results[CredentialExchange]
	q := url.Values{"state": {"offer_received"}}
	if err := c.do(ctx, "list credential offers", http.MethodGet, "/issue-credential/records", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// RequestCredential answers an offer with a credential request.
func (c *Client) RequestCredential(ctx context.Context, exchangeID string) (*CredentialExchange, error) {
	var out CredentialExchange
	path := "/issue-credential/records/" + url.PathEscape(exchangeID) + "/send-request"
	if err := c.do(ctx, "request credential", http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StoreCredential stores a received credential. An empty credentialID lets
// the wallet choose one.
func (c *Client) StoreCredential(ctx context.Context, exchangeID, credentialID string) (*CredentialExchange, error) {
	body := map[string]any{}
	if credentialID != "" {
		body["credential_id"] = credentialID
	}

	var out CredentialExchange
	path := "/issue-credential/records/" + url.PathEscape(exchangeID) + "/store"
	if err := c.do(ctx, "store credential", http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCredentials lists wallet credentials, filtered by a WQL query when
// wql is non-empty.
func (c *Client) ListCredentials(ctx context.Context, wql string) ([]WalletCredential, error) {
	var q url.Values
	if wql != "" {
		q = url.Values{"wql": {wql}}
	}

	var out results[WalletCredential]
	if err := c.do(ctx, "list credentials", http.MethodGet, "/credentials", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) GetCredential(ctx context.Context, id string) (*WalletCredential, error) {
	var out WalletCredential
	if err := c.do(ctx, "get credential", http.MethodGet, "/credential/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	return c.do(ctx, "delete credential", http.MethodDelete, "/credential/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListProofRequests(ctx context.Context) ([]PresentationExchange, error) {
	var out results[PresentationExchange]
	q := url.Values{"state": {"request_received"}}
	if err := c.do(ctx, "list proof requests", http.MethodGet, "/present-proof/records", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SendPresentation answers a proof request with the given requested
// credentials document.
func (c *Client) SendPresentation(ctx context.Context, exchangeID string, presentation map[string]any) (*PresentationExchange, error) {
	if presentation == nil {
		presentation = map[string]any{}
	}

	var out PresentationExchange
	path := "/present-proof/records/" + url.PathEscape(exchangeID) + "/send-presentation"
	if err := c.do(ctx, "send presentation", http.MethodPost, path, nil, presentation, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
