package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/agent"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/auth"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/memory"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// fakeAgent is a minimal in-process agent admin API.
type fakeAgent struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	connections map[string]map[string]any
	received    []map[string]any
	nextState   string
	failCreate  bool
	dids        int
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()
	f := &fakeAgent{t: t, connections: map[string]map[string]any{}, nextState: "request"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /connections/receive-invitation", f.receive)
	mux.HandleFunc("GET /connections", f.list)
	mux.HandleFunc("GET /connections/{id}", f.get)
	mux.HandleFunc("DELETE /connections/{id}", f.delete)
	mux.HandleFunc("POST /connections/{id}/accept-invitation", f.accept)
	mux.HandleFunc("POST /wallet/did/create", f.createDID)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAgent) client() *agent.Client {
	return agent.NewClient(f.srv.URL, "test-key", 2*time.Second, logging.NewNop())
}

func (f *fakeAgent) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("encode: %v", err)
	}
}

func (f *fakeAgent) receive(w http.ResponseWriter, r *http.Request) {
	var inv map[string]any
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		http.Error(w, "bad invitation", http.StatusBadRequest)
		return
	}
	if inv["label"] == "reject-me" {
		http.Error(w, "invitation rejected", http.StatusUnprocessableEntity)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, inv)
	id := "conn-" + string(rune('a'+len(f.received)-1))
	rec := map[string]any{
		"connection_id": id,
		"state":         f.nextState,
		"their_label":   inv["label"],
		"alias":         r.URL.Query().Get("alias"),
		"created_at":    "2025-03-01T12:00:00.000000Z",
	}
	f.connections[id] = rec
	f.write(w, http.StatusOK, rec)
}

func (f *fakeAgent) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := r.URL.Query().Get("state")
	out := []map[string]any{}
	for _, c := range f.connections {
		if state == "" || c["state"] == state {
			out = append(out, c)
		}
	}
	f.write(w, http.StatusOK, map[string]any{"results": out})
}

func (f *fakeAgent) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.connections[r.PathValue("id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	f.write(w, http.StatusOK, c)
}

func (f *fakeAgent) delete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := f.connections[id]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	delete(f.connections, id)
	f.write(w, http.StatusOK, map[string]any{})
}

func (f *fakeAgent) accept(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.connections[r.PathValue("id")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if c["state"] != "invitation" {
		http.Error(w, "connection not in invitation state", http.StatusBadRequest)
		return
	}
	c["state"] = "request"
	f.write(w, http.StatusOK, c)
}

func (f *fakeAgent) createDID(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		http.Error(w, "wallet locked", http.StatusInternalServerError)
		return
	}
	f.dids++
	did := "did:sov:" + string(rune('A'+f.dids-1))
	f.write(w, http.StatusOK, map[string]any{"result": map[string]any{"did": did, "verkey": "vk-" + did}})
}

// setState changes what the agent reports for a connection.
func (f *fakeAgent) setState(id, state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connections[id]["state"] = state
}

// unreachable returns a client pointing at a closed server.
func unreachable(t *testing.T) *agent.Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	return agent.NewClient(addr, "k", time.Second, logging.NewNop())
}

func newAuth() *auth.Service {
	return auth.NewService("test-secret", time.Hour, bcrypt.MinCost)
}

func newRepos() (*memory.Manager, memory.Transactor) {
	return memory.NewManager(), memory.Transactor{}
}
