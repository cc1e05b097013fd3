package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.users.Register(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// login accepts a JSON body or an OAuth2 password form.
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			a.fail(w, r, fmt.Errorf("%w: invalid form: %v", common.ErrValidation, err))
			return
		}
		in.Username = r.PostFormValue("username")
		in.Password = r.PostFormValue("password")
	default:
		if err := decodeJSON(w, r, &in); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	if in.Username == "" || in.Password == "" {
		a.fail(w, r, fmt.Errorf("%w: username and password are required", common.ErrValidation))
		return
	}

	res, err := a.users.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeDetail(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.Me(r.Context(), identity(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateAccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	u, err := a.users.UpdateAccount(r.Context(), identity(r), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
