package services

import (
	"context"
	"fmt"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/agent"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/invitation"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
)

// ConnectionService relays connection lifecycle calls to the agent and
// keeps a local projection of the records it returns. Reads degrade to
// empty results when the agent fails; writes return the failure.
//
// Agent calls always complete before the unit of work that caches their
// result starts, so no pooled connection waits on the network.
type ConnectionService struct {
	tx     dbx.Transactor
	repos  repomanager.RepositoryManager
	agent  ConnectionAgent
	logger logging.Logger
}

func NewConnectionService(tx dbx.Transactor, repos repomanager.RepositoryManager, a ConnectionAgent, logger logging.Logger) *ConnectionService {
	return &ConnectionService{tx: tx, repos: repos, agent: a, logger: logger.With("module", "connections")}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var agentTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999Z",
	"2006-01-02 15:04:05Z",
}

// parseAgentTime returns the zero time for values it cannot read.
func parseAgentTime(v string) time.Time {
	for _, layout := range agentTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// project maps an agent record. An unknown state becomes
// ConnectionStateUnrecognized; the raw value always stays in RemoteState.
func (s *ConnectionService) project(ctx context.Context, rec *agent.ConnectionRecord) *models.Connection {
	state, err := models.ParseConnectionState(rec.State)
	if err != nil {
		s.logger.Warn(ctx, "agent reported unrecognized connection state",
			"connection_id", rec.ConnectionID, "state", rec.State)
	}
	return &models.Connection{
		ConnectionID:  rec.ConnectionID,
		State:         state,
		RemoteState:   rec.State,
		TheirDID:      optional(rec.TheirDID),
		MyDID:         optional(rec.MyDID),
		InvitationKey: optional(rec.InvitationKey),
		Alias:         optional(rec.Alias),
		TheirLabel:    optional(rec.TheirLabel),
		CreatedAt:     parseAgentTime(rec.CreatedAt),
		UpdatedAt:     parseAgentTime(rec.UpdatedAt),
	}
}

// cache upserts c for userID. A failure is logged and c is returned as the
// agent reported it, since the agent already holds the record.
func (s *ConnectionService) cache(ctx context.Context, userID int64, c *models.Connection) *models.Connection {
	c.UserID = userID
	var saved *models.Connection
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		saved, err = s.repos.Connections(tx).Upsert(ctx, c)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "cache connection", "connection_id", c.ConnectionID, "error", err)
		return c
	}
	return saved
}

// refresh updates already cached rows; records nobody cached are skipped.
func (s *ConnectionService) refresh(ctx context.Context, conns ...*models.Connection) {
	if len(conns) == 0 {
		return
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Connections(tx)
		for _, c := range conns {
			if _, err := repo.RefreshFromRemote(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "refresh cached connections", "count", len(conns), "error", err)
	}
}

// ReceiveInvitation parses rawURL and submits the invitation with
// auto-accept on. Parse errors match common.ErrParse; agent rejections
// yield *common.RemoteError.
func (s *ConnectionService) ReceiveInvitation(ctx context.Context, userID int64, rawURL, alias string) (*models.Connection, error) {
	inv, err := invitation.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	rec, err := s.agent.ReceiveInvitation(ctx, inv, alias)
	if err != nil {
		s.logger.Error(ctx, "receive invitation", "kind", inv.Kind, "error", err)
		return nil, err
	}
	if rec.ConnectionID == "" {
		return nil, fmt.Errorf("%w: receive invitation: no connection id in response", common.ErrRemoteOperationFailed)
	}

	c := s.project(ctx, rec)
	if c.Alias == nil {
		c.Alias = optional(alias)
	}
	s.logger.Info(ctx, "invitation received", "connection_id", c.ConnectionID, "kind", inv.Kind, "state", c.RemoteState)
	return s.cache(ctx, userID, c), nil
}

// ListConnections never fails; any agent error yields an empty list.
func (s *ConnectionService) ListConnections(ctx context.Context, state string) []*models.Connection {
	recs, err := s.agent.ListConnections(ctx, state)
	if err != nil {
		s.logger.Warn(ctx, "list connections", "state", state, "error", err)
		return []*models.Connection{}
	}

	out := make([]*models.Connection, 0, len(recs))
	for i := range recs {
		out = append(out, s.project(ctx, &recs[i]))
	}
	s.refresh(ctx, out...)
	return out
}

// GetConnection reports false on any failure, including an unreachable
// agent.
func (s *ConnectionService) GetConnection(ctx context.Context, id string) (*models.Connection, bool) {
	rec, err := s.agent.GetConnection(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "get connection", "connection_id", id, "error", err)
		return nil, false
	}
	c := s.project(ctx, rec)
	s.refresh(ctx, c)
	return c, true
}

// DeleteConnection reports whether the agent acknowledged the deletion.
// The cached row goes only after an acknowledgement.
func (s *ConnectionService) DeleteConnection(ctx context.Context, id string) bool {
	if err := s.agent.DeleteConnection(ctx, id); err != nil {
		s.logger.Warn(ctx, "delete connection", "connection_id", id, "error", err)
		return false
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repos.Connections(tx).DeleteByRemoteID(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Warn(ctx, "drop cached connection", "connection_id", id, "error", err)
	}
	return true
}

// AcceptInvitation returns agent failures to the caller.
func (s *ConnectionService) AcceptInvitation(ctx context.Context, userID int64, id string) (*models.Connection, error) {
	rec, err := s.agent.AcceptInvitation(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "accept invitation", "connection_id", id, "error", err)
		return nil, err
	}
	if rec.ConnectionID == "" {
		rec.ConnectionID = id
	}
	return s.cache(ctx, userID, s.project(ctx, rec)), nil
}

// CachedConnections lists the local rows for userID.
func (s *ConnectionService) CachedConnections(ctx context.Context, userID int64) ([]*models.Connection, error) {
	var list []*models.Connection
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repos.Connections(tx).ListByUser(ctx, userID)
		return err
	})
	return list, err
}
