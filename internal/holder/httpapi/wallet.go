package httpapi

import (
	"errors"
	"net/http"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
)

func (a *API) getDID(w http.ResponseWriter, r *http.Request) {
	d, err := a.wallet.DID(r.Context(), identity(r))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "DID not found for user")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) ensureDID(w http.ResponseWriter, r *http.Request) {
	d, err := a.wallet.EnsureDID(r.Context(), identity(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if d.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, d)
}

func (a *API) listDIDs(w http.ResponseWriter, r *http.Request) {
	dids := a.wallet.ListDIDs(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"dids": dids, "total": len(dids)})
}

func (a *API) publicDID(w http.ResponseWriter, r *http.Request) {
	d, ok := a.wallet.PublicDID(r.Context())
	if !ok {
		writeDetail(w, http.StatusNotFound, "no public DID")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) walletInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.wallet.Info(r.Context()))
}
