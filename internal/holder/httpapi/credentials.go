package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/go-chi/chi/v5"
)

type storeCredentialRequest struct {
	CredentialID string `json:"credential_id"`
}

type linkDocumentRequest struct {
	CID string `json:"cid"`
}

func (a *API) listCredentials(w http.ResponseWriter, r *http.Request) {
	creds := a.creds.List(r.Context(), r.URL.Query().Get("wql"))
	writeJSON(w, http.StatusOK, map[string]any{"credentials": creds, "total": len(creds)})
}

// cachedCredentials is the credential counterpart of cachedConnections.
func (a *API) cachedCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := a.creds.Cached(r.Context(), identity(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeCached(w, "credentials", creds, len(creds))
}

func (a *API) listOffers(w http.ResponseWriter, r *http.Request) {
	offers := a.creds.Offers(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"offers": offers, "total": len(offers)})
}

func (a *API) acceptOffer(w http.ResponseWriter, r *http.Request) {
	ex, err := a.creds.AcceptOffer(r.Context(), chi.URLParam(r, "exchangeID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (a *API) storeCredential(w http.ResponseWriter, r *http.Request) {
	var in storeCredentialRequest
	if err := decodeOptionalJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	c, err := a.creds.Store(r.Context(), identity(r), chi.URLParam(r, "exchangeID"), in.CredentialID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) getCredential(w http.ResponseWriter, r *http.Request) {
	c, ok := a.creds.Get(r.Context(), chi.URLParam(r, "credentialID"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Credential not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteCredential(w http.ResponseWriter, r *http.Request) {
	if !a.creds.Delete(r.Context(), chi.URLParam(r, "credentialID")) {
		writeDetail(w, http.StatusNotFound, "Credential not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) linkDocument(w http.ResponseWriter, r *http.Request) {
	var in linkDocumentRequest
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.CID == "" {
		a.fail(w, r, fmt.Errorf("%w: cid is required", common.ErrValidation))
		return
	}

	c, err := a.creds.LinkDocument(r.Context(), identity(r), chi.URLParam(r, "credentialID"), in.CID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) listProofRequests(w http.ResponseWriter, r *http.Request) {
	reqs := a.creds.ProofRequests(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"proof_requests": reqs, "total": len(reqs)})
}

func (a *API) sendPresentation(w http.ResponseWriter, r *http.Request) {
	var presentation map[string]any
	if err := decodeOptionalJSON(w, r, &presentation); err != nil {
		a.fail(w, r, err)
		return
	}

	px, err := a.creds.Present(r.Context(), chi.URLParam(r, "exchangeID"), presentation)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, px)
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	err := decodeJSON(w, r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
