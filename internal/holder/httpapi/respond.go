package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
)

// maxJSONBody bounds request bodies other than document uploads.
const maxJSONBody = 1 << 20

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeCached writes rows read from the local cache without asking the
// agent. They may lag the agent's state; the envelope says so with
// "source": "cache" and the X-Cache header.
func writeCached(w http.ResponseWriter, name string, items any, total int) {
	w.Header().Set("X-Cache", "stale")
	writeJSON(w, http.StatusOK, map[string]any{name: items, "total": total, "source": "cache"})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

// statusFor maps a service error to a status code and client-facing detail.
// Checks run in order: an agent 404 matches both ErrNotFound and
// ErrRemoteOperationFailed and must report 404.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrExpiredSession),
		errors.Is(err, common.ErrMalformedSession):
		return http.StatusUnauthorized, "could not validate credentials"
	case errors.Is(err, common.ErrDuplicateUser):
		return http.StatusConflict, common.ErrDuplicateUser.Error()
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrParse):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrUserInactive):
		return http.StatusForbidden, common.ErrUserInactive.Error()
	case errors.Is(err, common.ErrAgentUnreachable):
		return http.StatusServiceUnavailable, common.ErrAgentUnreachable.Error()
	case errors.Is(err, common.ErrPoolExhausted):
		return http.StatusServiceUnavailable, "service busy, retry later"
	case errors.Is(err, common.ErrRemoteOperationFailed):
		var re *common.RemoteError
		if errors.As(err, &re) {
			return http.StatusBadGateway, fmt.Sprintf("agent rejected %s: %s", re.Op, re.Body)
		}
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, common.ErrIntegrity):
		return http.StatusInternalServerError, common.ErrIntegrity.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeDetail(w, status, detail)
}

// decodeJSON reads a JSON body into v. Failures match common.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return fmt.Errorf("%w: expected application/json body", common.ErrValidation)
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json body: %w", common.ErrValidation, err)
	}
	return nil
}
