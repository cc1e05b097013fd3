package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type receiveInvitationRequest struct {
	InvitationURL string `json:"invitation_url"`
	Alias         string `json:"alias"`
}

func (a *API) receiveInvitation(w http.ResponseWriter, r *http.Request) {
	var in receiveInvitationRequest
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	c, err := a.conns.ReceiveInvitation(r.Context(), identity(r), in.InvitationURL, in.Alias)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) listConnections(w http.ResponseWriter, r *http.Request) {
	conns := a.conns.ListConnections(r.Context(), r.URL.Query().Get("state"))
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns, "total": len(conns)})
}

// cachedConnections lists the caller's locally cached rows. They are not
// reconciled with the agent; GET /connections is the authoritative view.
func (a *API) cachedConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := a.conns.CachedConnections(r.Context(), identity(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeCached(w, "connections", conns, len(conns))
}

func (a *API) getConnection(w http.ResponseWriter, r *http.Request) {
	c, ok := a.conns.GetConnection(r.Context(), chi.URLParam(r, "connectionID"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Connection not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteConnection(w http.ResponseWriter, r *http.Request) {
	if !a.conns.DeleteConnection(r.Context(), chi.URLParam(r, "connectionID")) {
		writeDetail(w, http.StatusNotFound, "Connection not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	c, err := a.conns.AcceptInvitation(r.Context(), identity(r), chi.URLParam(r, "connectionID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
