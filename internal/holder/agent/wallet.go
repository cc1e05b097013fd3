package agent

import (
	"context"
	"fmt"
	"net/http"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

type didResult struct {
	Result *models.DID `json:"result"`
}

type didList struct {
	Results []models.DID `json:"results"`
}

// CreateDID asks the wallet for a fresh local DID.
func (c *Client) CreateDID(ctx context.Context) (*models.DID, error) {
	var out didResult
	if err := c.do(ctx, "create did", http.MethodPost, "/wallet/did/create", nil, map[string]any{}, &out); err != nil {
		return nil, err
	}
	if out.Result == nil || out.Result.DID == "" {
		return nil, fmt.Errorf("create did: empty result")
	}
	return out.Result, nil
}

// GetPublicDID returns nil without error when no public DID is set.
func (c *Client) GetPublicDID(ctx context.Context) (*models.DID, error) {
	var out didResult
	if err := c.do(ctx, "get public did", http.MethodGet, "/wallet/did/public", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) ListDIDs(ctx context.Context) ([]models.DID, error) {
	var out didList
	if err := c.do(ctx, "list dids", http.MethodGet, "/wallet/did", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
