package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/agent"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/auth"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/memory"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/services"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeAgent serves the subset of the agent admin API the router reaches.
type fakeAgent struct {
	srv *httptest.Server

	mu          sync.Mutex
	connections map[string]map[string]any
	dids        int
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()
	f := &fakeAgent{connections: map[string]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /connections/receive-invitation", func(w http.ResponseWriter, r *http.Request) {
		var inv map[string]any
		_ = json.NewDecoder(r.Body).Decode(&inv)
		if inv["label"] == "reject-me" {
			http.Error(w, "invitation rejected", http.StatusUnprocessableEntity)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		id := fmt.Sprintf("conn-%d", len(f.connections)+1)
		rec := map[string]any{"connection_id": id, "state": "request", "their_label": inv["label"]}
		f.connections[id] = rec
		writeJSON(w, http.StatusOK, rec)
	})
	mux.HandleFunc("GET /connections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []map[string]any{}
		for _, c := range f.connections {
			out = append(out, c)
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": out})
	})
	mux.HandleFunc("GET /connections/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.connections[r.PathValue("id")]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	})
	mux.HandleFunc("DELETE /connections/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.connections[r.PathValue("id")]; !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		delete(f.connections, r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	mux.HandleFunc("POST /wallet/did/create", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.dids++
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"did": fmt.Sprintf("did:sov:%d", f.dids), "verkey": "vk"}})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"label": "holder.agent"})
	})
	mux.HandleFunc("GET /credential/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStore) Put(_ context.Context, key, _ string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.local/" + key + "?X-Amz-Signature=x", nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T, agentURL string, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	rm, tx := memory.NewManager(), memory.Transactor{}
	log := logging.NewNop()
	ac := agent.NewClient(agentURL, "test-key", 2*time.Second, log)
	a := auth.NewService("test-secret", time.Hour, bcrypt.MinCost)

	return NewRouter(Deps{
		Users:       services.NewUserService(tx, rm, a, ac, "holder-wallet", log),
		Connections: services.NewConnectionService(tx, rm, ac, log),
		Wallet:      services.NewWalletService(tx, rm, ac, log),
		Credentials: services.NewCredentialService(tx, rm, ac, log),
		Documents:   services.NewDocumentService(tx, rm, &memStore{objects: map[string][]byte{}}, 15*time.Minute, log),
		Logger:      log,
		CORSOrigins: []string{"https://wallet.example"},
		Checks:      checks,
	})
}

func closedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func register(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["access_token"].(string)
}

func oobURL(label string) string {
	inv, _ := json.Marshal(map[string]any{
		"@type": "https://didcomm.org/out-of-band/1.1/invitation",
		"@id":   "8a4d1b3c",
		"label": label,
	})
	return "https://issuer.example/invite?oob=" + base64.URLEncoding.EncodeToString(inv)
}

func TestRootAndHealth(t *testing.T) {
	fa := newFakeAgent(t)

	h := newTestRouter(t, fa.srv.URL, nil)
	rec := do(t, h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Holder Agent", decode(t, rec)["service"])

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	h = newTestRouter(t, fa.srv.URL, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"storage":  func(context.Context) error { return errors.New("bucket missing") },
	})
	rec = do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"database": "ok", "storage": "unavailable"}, body["checks"])
}

func TestRegisterReceiveInvitationEndToEnd(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)

	token := register(t, h, "alice")

	rec := do(t, h, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "did:sov:1", me["did"])
	assert.Equal(t, "holder-wallet", me["wallet_id"])
	assert.NotContains(t, me, "hashed_password")

	rec = do(t, h, http.MethodPost, "/connections", token, map[string]any{"invitation_url": oobURL("Faber College")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conn := decode(t, rec)
	assert.Equal(t, "conn-1", conn["connection_id"])
	assert.Equal(t, "request", conn["state"])
	assert.Equal(t, "Faber College", conn["their_label"])

	rec = do(t, h, http.MethodGet, "/connections/cached", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stale", rec.Header().Get("X-Cache"))
	cached := decode(t, rec)
	assert.EqualValues(t, 1, cached["total"])
	assert.Equal(t, "cache", cached["source"])

	rec = do(t, h, http.MethodGet, "/connections", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	listed := decode(t, rec)
	assert.EqualValues(t, 1, listed["total"])
	assert.NotContains(t, listed, "source")

	rec = do(t, h, http.MethodGet, "/connections/conn-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/connections/missing", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Connection not found", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodDelete, "/connections/conn-1", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/connections/conn-1", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/connections/cached", token, nil)
	assert.EqualValues(t, 0, decode(t, rec)["total"])
}

func TestAuthErrors(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)
	register(t, h, "alice")

	rec := do(t, h, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = do(t, h, http.MethodGet, "/connections", "not.a.token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "could not validate credentials", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "wrong password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{"username": "nobody", "password": "wrong password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice", "email": "other@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "username or email already exists", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "bo", "email": "bo@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	form := url.Values{"username": {"alice"}, "password": {"correct horse"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	login := decode(t, rr)
	assert.Equal(t, "bearer", login["token_type"])
	assert.NotEmpty(t, login["access_token"])
}

func TestUpdateMe(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)
	token := register(t, h, "alice")

	rec := do(t, h, http.MethodPatch, "/auth/me", token, map[string]any{"email": "alice@new.example"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "alice@new.example", decode(t, rec)["email"])

	rec = do(t, h, http.MethodPatch, "/auth/me", token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectionErrorMapping(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)
	token := register(t, h, "alice")

	rec := do(t, h, http.MethodPost, "/connections", token, map[string]any{"invitation_url": "https://issuer.example/invite"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/connections", token, map[string]any{"invitation_url": oobURL("reject-me")})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "invitation rejected")

	rec = do(t, h, http.MethodPost, "/connections/missing/accept", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentUnreachable(t *testing.T) {
	h := newTestRouter(t, closedURL(t), nil)
	token := register(t, h, "alice")

	rec := do(t, h, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["did"], "registration continues without a DID")

	rec = do(t, h, http.MethodGet, "/connections", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.EqualValues(t, 0, list["total"])
	assert.Equal(t, []any{}, list["connections"])

	rec = do(t, h, http.MethodGet, "/connections/conn-1", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/connections/conn-1", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/connections", token, map[string]any{"invitation_url": oobURL("Faber")})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodGet, "/credentials", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["credentials"])

	rec = do(t, h, http.MethodGet, "/proofs/requests", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["total"])
}

func TestWalletRoutes(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)
	token := register(t, h, "alice")

	rec := do(t, h, http.MethodGet, "/wallet/did", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "did:sov:1", decode(t, rec)["did"])

	rec = do(t, h, http.MethodPost, "/wallet/did", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, "existing DID is returned as is")

	rec = do(t, h, http.MethodGet, "/wallet/info", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "holder.agent", decode(t, rec)["label"])

	rec = do(t, h, http.MethodGet, "/credentials/missing", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Credential not found", decode(t, rec)["detail"])
}

func TestWalletDIDMissing(t *testing.T) {
	h := newTestRouter(t, closedURL(t), nil)
	token := register(t, h, "alice")

	rec := do(t, h, http.MethodGet, "/wallet/did", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DID not found for user", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodPost, "/wallet/did", token, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDocumentRoutes(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)
	token := register(t, h, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "diploma.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode(t, rec)
	cid := doc["cid"].(string)
	assert.Equal(t, services.ContentID([]byte("hello")), cid)
	assert.NotContains(t, doc, "storage_key")

	rec = do(t, h, http.MethodGet, "/documents/"+cid, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, `"`+cid+`"`, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "diploma.txt")

	rec = do(t, h, http.MethodGet, "/documents/"+cid+"/url", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["url"], "users/1/"+cid)

	rec = do(t, h, http.MethodGet, "/documents", token, nil)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	other := register(t, h, "bob")
	rec = do(t, h, http.MethodGet, "/documents/"+cid, other, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/documents/"+cid, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/documents/"+cid, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/documents?filename=empty.bin", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	fa := newFakeAgent(t)
	h := newTestRouter(t, fa.srv.URL, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://wallet.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://wallet.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Cache")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("x: %w", common.ErrExpiredSession), http.StatusUnauthorized},
		{common.ErrDuplicateUser, http.StatusConflict},
		{common.ErrParse, http.StatusBadRequest},
		{common.ErrValidation, http.StatusBadRequest},
		{common.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", common.ErrNotFound, &common.RemoteError{Op: "get", Status: 404}), http.StatusNotFound},
		{common.ErrUserInactive, http.StatusForbidden},
		{&common.RemoteError{Op: "receive invitation", Status: 422, Body: "bad"}, http.StatusBadGateway},
		{common.ErrAgentUnreachable, http.StatusServiceUnavailable},
		{common.ErrPoolExhausted, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
