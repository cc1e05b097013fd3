// Package agent is a client for the admin API of the holder's cloud agent.
// The agent owns connection, credential and wallet state; this package only
// forwards requests and decodes the records it returns.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxErrorBody caps how much of a failed response is kept in RemoteError.
const maxErrorBody = 4 << 10

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logging.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("module", "agent"),
	}
}

// requestID reuses the inbound request id when there is one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// do sends one request and decodes a 2xx JSON body into out (when non-nil).
// Transport failures match ErrAgentUnreachable, non-2xx statuses yield a
// *common.RemoteError, and 404 additionally matches ErrNotFound.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(common.AgentAPIKeyHeader, c.apiKey)
	}
	rid := requestID(ctx)
	req.Header.Set(common.RequestIDHeader, rid)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v", common.ErrAgentUnreachable, op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "agent call", "op", op, "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start), "request_id", rid)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		remote := &common.RemoteError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", common.ErrNotFound, remote)
		}
		return remote
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Status returns the agent's /status document.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, "status", http.MethodGet, "/status", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
