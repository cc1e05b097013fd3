package services

import (
	"context"
	"fmt"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
)

// WalletDID is the DID assigned to a holder account.
type WalletDID struct {
	DID      string  `json:"did"`
	WalletID *string `json:"wallet_id"`
	Created  bool    `json:"created,omitempty"`
}

type WalletService struct {
	tx     dbx.Transactor
	repos  repomanager.RepositoryManager
	agent  WalletAgent
	logger logging.Logger
}

func NewWalletService(tx dbx.Transactor, repos repomanager.RepositoryManager, a WalletAgent, logger logging.Logger) *WalletService {
	return &WalletService{tx: tx, repos: repos, agent: a, logger: logger.With("module", "wallet")}
}

func (s *WalletService) user(ctx context.Context, userID int64) (*models.User, error) {
	var u *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		u, err = s.repos.Users(tx).GetByID(ctx, userID)
		return err
	})
	return u, err
}

// DID returns the holder's DID, or ErrNotFound when none is assigned.
func (s *WalletService) DID(ctx context.Context, userID int64) (*WalletDID, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.DID == nil || *u.DID == "" {
		return nil, fmt.Errorf("did for user %d: %w", userID, common.ErrNotFound)
	}
	return &WalletDID{DID: *u.DID, WalletID: u.WalletID}, nil
}

// EnsureDID returns the holder's DID, creating and assigning one first
// when the account has none.
func (s *WalletService) EnsureDID(ctx context.Context, userID int64) (*WalletDID, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.DID != nil && *u.DID != "" {
		return &WalletDID{DID: *u.DID, WalletID: u.WalletID}, nil
	}

	did, err := s.agent.CreateDID(ctx)
	if err != nil {
		s.logger.Error(ctx, "create did", "user_id", userID, "error", err)
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repos.Users(tx).UpdateDID(ctx, userID, did.DID)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assign did: %w", err)
	}

	s.logger.Info(ctx, "did assigned", "user_id", userID, "did", did.DID)
	return &WalletDID{DID: did.DID, WalletID: u.WalletID, Created: true}, nil
}

// Info returns the agent status document, or an empty one on failure.
func (s *WalletService) Info(ctx context.Context) map[string]any {
	st, err := s.agent.Status(ctx)
	if err != nil {
		s.logger.Warn(ctx, "wallet info", "error", err)
		return map[string]any{}
	}
	return st
}

func (s *WalletService) ListDIDs(ctx context.Context) []models.DID {
	dids, err := s.agent.ListDIDs(ctx)
	if err != nil {
		s.logger.Warn(ctx, "list dids", "error", err)
		return []models.DID{}
	}
	if dids == nil {
		dids = []models.DID{}
	}
	return dids
}

func (s *WalletService) PublicDID(ctx context.Context) (*models.DID, bool) {
	did, err := s.agent.GetPublicDID(ctx)
	if err != nil {
		s.logger.Warn(ctx, "public did", "error", err)
		return nil, false
	}
	return did, did != nil
}
