// Package httpapi exposes the holder services over a JSON REST API.
package httpapi

import (
	"context"
	"net/http"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/services"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	serviceName    = "Holder Agent"
	serviceVersion = "1.0.0"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Users       *services.UserService
	Connections *services.ConnectionService
	Wallet      *services.WalletService
	Credentials *services.CredentialService
	Documents   *services.DocumentService
	Logger      logging.Logger
	CORSOrigins []string
	// Checks are run by GET /health, keyed by dependency name.
	Checks map[string]HealthCheck
}

// API holds the request handlers.
type API struct {
	users  *services.UserService
	conns  *services.ConnectionService
	wallet *services.WalletService
	creds  *services.CredentialService
	docs   *services.DocumentService
	checks map[string]HealthCheck
	logger logging.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With("module", "http")
	a := &API{
		users:  d.Users,
		conns:  d.Connections,
		wallet: d.Wallet,
		creds:  d.Credentials,
		docs:   d.Documents,
		checks: d.Checks,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(accessLog(logger))
	r.Use(cors(d.CORSOrigins))

	r.Get("/", a.root)
	r.Get("/health", a.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.register)
		r.Post("/login", a.login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d.Users))
			r.Get("/me", a.me)
			r.Patch("/me", a.updateMe)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(d.Users))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/did", a.getDID)
			r.Post("/did", a.ensureDID)
			r.Get("/dids", a.listDIDs)
			r.Get("/did/public", a.publicDID)
			r.Get("/info", a.walletInfo)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Post("/", a.receiveInvitation)
			r.Get("/", a.listConnections)
			r.Get("/cached", a.cachedConnections)
			r.Get("/{connectionID}", a.getConnection)
			r.Delete("/{connectionID}", a.deleteConnection)
			r.Post("/{connectionID}/accept", a.acceptInvitation)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", a.listCredentials)
			r.Get("/cached", a.cachedCredentials)
			r.Get("/offers", a.listOffers)
			r.Post("/offers/{exchangeID}/accept", a.acceptOffer)
			r.Post("/offers/{exchangeID}/store", a.storeCredential)
			r.Get("/{credentialID}", a.getCredential)
			r.Delete("/{credentialID}", a.deleteCredential)
			r.Put("/{credentialID}/document", a.linkDocument)
		})

		r.Route("/proofs", func(r chi.Router) {
			r.Get("/requests", a.listProofRequests)
			r.Post("/requests/{exchangeID}/present", a.sendPresentation)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", a.uploadDocument)
			r.Get("/", a.listDocuments)
			r.Get("/{cid}", a.downloadDocument)
			r.Get("/{cid}/url", a.documentURL)
			r.Delete("/{cid}", a.deleteDocument)
		})
	})

	return r
}

func (a *API) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": serviceName,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"status": "healthy"}

	if len(a.checks) > 0 {
		results := make(map[string]string, len(a.checks))
		for name, check := range a.checks {
			if err := check(r.Context()); err != nil {
				a.logger.Warn(r.Context(), "health check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			results[name] = "ok"
		}
		body["checks"] = results
	}

	writeJSON(w, status, body)
}

// identity is only called behind requireAuth.
func identity(r *http.Request) int64 {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}
