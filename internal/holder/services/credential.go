package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/agent"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
)

// CredentialService relays issue-credential and present-proof flows to the
// agent and caches stored credentials per holder. It follows the same
// read/write split as ConnectionService.
type CredentialService struct {
	tx     dbx.Transactor
	repos  repomanager.RepositoryManager
	agent  CredentialAgent
	logger logging.Logger
}

func NewCredentialService(tx dbx.Transactor, repos repomanager.RepositoryManager, a CredentialAgent, logger logging.Logger) *CredentialService {
	return &CredentialService{tx: tx, repos: repos, agent: a, logger: logger.With("module", "credentials")}
}

// issuerFromCredDef reads the issuer DID prefix of a credential definition
// id such as "WgWxqztrNooG92RXvxSTWv:3:CL:20:tag".
func issuerFromCredDef(credDefID string) string {
	if i := strings.IndexByte(credDefID, ':'); i > 0 {
		return credDefID[:i]
	}
	return ""
}

func projectCredential(wc *agent.WalletCredential) *models.Credential {
	attrs := wc.Attrs
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &models.Credential{
		CredentialID: wc.Referent,
		SchemaID:     wc.SchemaID,
		CredDefID:    wc.CredDefID,
		IssuerDID:    issuerFromCredDef(wc.CredDefID),
		RevRegID:     wc.RevRegID,
		CredRevID:    wc.CredRevID,
		Attributes:   attrs,
	}
}

func (s *CredentialService) Offers(ctx context.Context) []agent.CredentialExchange {
	offers, err := s.agent.ListCredentialOffers(ctx)
	if err != nil {
		s.logger.Warn(ctx, "list credential offers", "error", err)
		return []agent.CredentialExchange{}
	}
	if offers == nil {
		offers = []agent.CredentialExchange{}
	}
	return offers
}

// AcceptOffer answers an offer with a credential request.
func (s *CredentialService) AcceptOffer(ctx context.Context, exchangeID string) (*agent.CredentialExchange, error) {
	ex, err := s.agent.RequestCredential(ctx, exchangeID)
	if err != nil {
		s.logger.Error(ctx, "request credential", "exchange_id", exchangeID, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "credential requested", "exchange_id", exchangeID, "state", ex.State)
	return ex, nil
}

// Store saves a received credential in the wallet and caches it for
// userID. When the stored credential cannot be read back, only its id is
// cached.
func (s *CredentialService) Store(ctx context.Context, userID int64, exchangeID, credentialID string) (*models.Credential, error) {
	ex, err := s.agent.StoreCredential(ctx, exchangeID, credentialID)
	if err != nil {
		s.logger.Error(ctx, "store credential", "exchange_id", exchangeID, "error", err)
		return nil, err
	}

	id := ex.CredentialID
	if id == "" {
		id = credentialID
	}
	if id == "" {
		return nil, fmt.Errorf("%w: store credential: no credential id in response", common.ErrRemoteOperationFailed)
	}

	c := &models.Credential{CredentialID: id, SchemaID: ex.SchemaID, CredDefID: ex.CredentialDefID, Attributes: map[string]string{}}
	if wc, err := s.agent.GetCredential(ctx, id); err != nil {
		s.logger.Warn(ctx, "read back stored credential", "credential_id", id, "error", err)
	} else {
		c = projectCredential(wc)
		c.CredentialID = id
	}
	if c.IssuerDID == "" {
		c.IssuerDID = issuerFromCredDef(c.CredDefID)
	}
	c.UserID = userID

	var saved *models.Credential
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		saved, err = s.repos.Credentials(tx).Upsert(ctx, c)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "cache credential", "credential_id", id, "error", err)
		return c, nil
	}

	s.logger.Info(ctx, "credential stored", "credential_id", id, "user_id", userID)
	return saved, nil
}

// List returns wallet credentials, optionally filtered by a WQL query.
// Agent failures yield an empty list.
func (s *CredentialService) List(ctx context.Context, wql string) []*models.Credential {
	creds, err := s.agent.ListCredentials(ctx, wql)
	if err != nil {
		s.logger.Warn(ctx, "list credentials", "error", err)
		return []*models.Credential{}
	}
	out := make([]*models.Credential, 0, len(creds))
	for i := range creds {
		out = append(out, projectCredential(&creds[i]))
	}
	return out
}

func (s *CredentialService) Get(ctx context.Context, id string) (*models.Credential, bool) {
	wc, err := s.agent.GetCredential(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "get credential", "credential_id", id, "error", err)
		return nil, false
	}
	return projectCredential(wc), true
}

// Delete reports whether the agent acknowledged the deletion; the cached
// row goes only after an acknowledgement.
func (s *CredentialService) Delete(ctx context.Context, id string) bool {
	if err := s.agent.DeleteCredential(ctx, id); err != nil {
		s.logger.Warn(ctx, "delete credential", "credential_id", id, "error", err)
		return false
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repos.Credentials(tx).DeleteByCredentialID(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Warn(ctx, "drop cached credential", "credential_id", id, "error", err)
	}
	return true
}

// Cached lists the credentials stored through this service for userID.
func (s *CredentialService) Cached(ctx context.Context, userID int64) ([]*models.Credential, error) {
	var list []*models.Credential
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repos.Credentials(tx).ListByUser(ctx, userID)
		return err
	})
	return list, err
}

// LinkDocument attaches a stored document to a cached credential. Both must
// belong to userID.
func (s *CredentialService) LinkDocument(ctx context.Context, userID int64, credentialID, cid string) (*models.Credential, error) {
	var out *models.Credential
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repos.Credentials(tx).GetByCredentialID(ctx, credentialID)
		if err != nil {
			return err
		}
		if c.UserID != userID {
			return common.ErrNotFound
		}
		if _, err := s.repos.Documents(tx).GetByCID(ctx, userID, cid); err != nil {
			return err
		}
		c.DocumentCID = &cid
		out, err = s.repos.Credentials(tx).Upsert(ctx, c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("link document: %w", err)
	}
	return out, nil
}

func (s *CredentialService) ProofRequests(ctx context.Context) []agent.PresentationExchange {
	reqs, err := s.agent.ListProofRequests(ctx)
	if err != nil {
		s.logger.Warn(ctx, "list proof requests", "error", err)
		return []agent.PresentationExchange{}
	}
	if reqs == nil {
		reqs = []agent.PresentationExchange{}
	}
	return reqs
}

// Present answers a proof request with the requested credentials document.
func (s *CredentialService) Present(ctx context.Context, exchangeID string, presentation map[string]any) (*agent.PresentationExchange, error) {
	px, err := s.agent.SendPresentation(ctx, exchangeID, presentation)
	if err != nil {
		s.logger.Error(ctx, "send presentation", "exchange_id", exchangeID, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "presentation sent", "exchange_id", exchangeID, "state", px.State)
	return px, nil
}
