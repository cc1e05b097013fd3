package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/services"
	"github.com/go-chi/chi/v5"
)

// uploadDocument takes a multipart "file" part, or a raw body named by the
// filename query parameter.
func (a *API) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxDocumentSize+64<<10)

	filename, mimeType, data, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = fmt.Errorf("%w: document exceeds %d bytes", common.ErrValidation, services.MaxDocumentSize)
		}
		a.fail(w, r, err)
		return
	}

	doc, err := a.docs.Upload(r.Context(), identity(r), filename, mimeType, data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func readUpload(r *http.Request) (filename, mimeType string, data []byte, err error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		data, err = io.ReadAll(r.Body)
		if err != nil {
			return "", "", nil, err
		}
		return r.URL.Query().Get("filename"), mt, data, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", "", nil, fmt.Errorf("%w: missing file part", common.ErrValidation)
		}
		return "", "", nil, err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return "", "", nil, err
	}
	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := a.docs.List(r.Context(), identity(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": len(docs)})
}

func (a *API) downloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, data, err := a.docs.Download(r.Context(), identity(r), chi.URLParam(r, "cid"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("ETag", strconv.Quote(doc.CID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) documentURL(w http.ResponseWriter, r *http.Request) {
	u, err := a.docs.PresignedURL(r.Context(), identity(r), chi.URLParam(r, "cid"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := a.docs.Delete(r.Context(), identity(r), chi.URLParam(r, "cid")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
