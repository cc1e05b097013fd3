package agent

import (
	"context"
	"net/http"
	"net/url"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/invitation"
)

// ConnectionRecord is a connection as the agent reports it.
type ConnectionRecord struct {
	ConnectionID  string `json:"connection_id"`
	State         string `json:"state"`
	TheirDID      string `json:"their_did,omitempty"`
	MyDID         string `json:"my_did,omitempty"`
	InvitationKey string `json:"invitation_key,omitempty"`
	Alias         string `json:"alias,omitempty"`
	TheirLabel    string `json:"their_label,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type connectionList struct {
	Results []ConnectionRecord `json:"results"`
}

// ReceiveInvitation submits a decoded invitation with auto-accept on.
func (c *Client) ReceiveInvitation(ctx context.Context, inv *invitation.Payload, alias string) (*ConnectionRecord, error) {
	q := url.Values{"auto_accept": {"true"}}
	if alias != "" {
		q.Set("alias", alias)
	}

	var rec ConnectionRecord
	if err := c.do(ctx, "receive invitation", http.MethodPost, "/connections/receive-invitation", q, inv.Object, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListConnections returns all connections, or those in state when non-empty.
func (c *Client) ListConnections(ctx context.Context, state string) ([]ConnectionRecord, error) {
	var q url.Values
	if state != "" {
		q = url.Values{"state": {state}}
	}

	var out connectionList
	if err := c.do(ctx, "list connections", http.MethodGet, "/connections", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) GetConnection(ctx context.Context, id string) (*ConnectionRecord, error) {
	var rec ConnectionRecord
	if err := c.do(ctx, "get connection", http.MethodGet, "/connections/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, id string) (*ConnectionRecord, error) {
	var rec ConnectionRecord
	path := "/connections/" + url.PathEscape(id) + "/accept-invitation"
	if err := c.do(ctx, "accept invitation", http.MethodPost, path, nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.do(ctx, "delete connection", http.MethodDelete, "/connections/"+url.PathEscape(id), nil, nil, nil)
}
