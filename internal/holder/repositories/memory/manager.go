// Package memory implements the holder repositories in process memory. It
// backs service and handler tests; writes are not rolled back.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/connections"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/credentials"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/documents"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/users"
)

// Manager satisfies repomanager.RepositoryManager. Every DBTX argument is
// ignored; all repositories share one state.
type Manager struct {
	mu          sync.Mutex
	now         func() time.Time
	nextID      int64
	seq         int64
	users       map[int64]*models.User
	connections map[string]*models.Connection
	credentials map[string]*models.Credential
	documents   map[string]*models.Document
}

func NewManager() *Manager {
	return &Manager{
		now:         time.Now,
		users:       map[int64]*models.User{},
		connections: map[string]*models.Connection{},
		credentials: map[string]*models.Credential{},
		documents:   map[string]*models.Document{},
	}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository             { return (*userRepo)(m) }
func (m *Manager) Connections(dbx.DBTX) connections.Repository { return (*connectionRepo)(m) }
func (m *Manager) Credentials(dbx.DBTX) credentials.Repository { return (*credentialRepo)(m) }
func (m *Manager) Documents(dbx.DBTX) documents.Repository     { return (*documentRepo)(m) }

func (m *Manager) id() int64 {
	m.nextID++
	return m.nextID
}

// tick returns a strictly increasing timestamp so ordering by creation time
// is deterministic.
func (m *Manager) tick() time.Time {
	m.seq++
	return m.now().UTC().Add(time.Duration(m.seq) * time.Microsecond)
}

// SetActive flips a user's active flag; there is no repository method for
// it since accounts are deactivated out of band.
func (m *Manager) SetActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsActive = active
	}
}

// Transactor runs fn directly with a nil DBTX.
type Transactor struct{}

func (Transactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

type userRepo Manager

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrDuplicateUser
		}
	}
	u.ID = m.id()
	u.IsActive = true
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = clone(u)
	return u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (r *userRepo) update(id int64, apply func(u *models.User) error) (bool, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	if err := apply(u); err != nil {
		return false, err
	}
	u.UpdatedAt = m.tick()
	return true, nil
}

func (r *userRepo) UpdateDID(_ context.Context, id int64, did string) (bool, error) {
	return r.update(id, func(u *models.User) error {
		u.DID = &did
		return nil
	})
}

func (r *userRepo) UpdateEmail(_ context.Context, id int64, email string) (bool, error) {
	m := (*Manager)(r)
	return r.update(id, func(u *models.User) error {
		for _, other := range m.users {
			if other.ID != id && strings.EqualFold(other.Email, email) {
				return common.ErrDuplicateUser
			}
		}
		u.Email = email
		return nil
	})
}

func (r *userRepo) UpdatePassword(_ context.Context, id int64, hashedPassword string) (bool, error) {
	return r.update(id, func(u *models.User) error {
		u.HashedPassword = hashedPassword
		return nil
	})
}

func (r *userRepo) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, clone(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), nil
}

func (r *userRepo) Delete(_ context.Context, id int64) (bool, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	for k, c := range m.connections {
		if c.UserID == id {
			delete(m.connections, k)
		}
	}
	return true, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

type connectionRepo Manager

func (r *connectionRepo) Upsert(_ context.Context, c *models.Connection) (*models.Connection, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.connections[c.ConnectionID]; ok {
		existing.State = c.State
		existing.RemoteState = c.RemoteState
		keep(&existing.TheirDID, c.TheirDID)
		keep(&existing.MyDID, c.MyDID)
		keep(&existing.InvitationKey, c.InvitationKey)
		keep(&existing.Alias, c.Alias)
		keep(&existing.TheirLabel, c.TheirLabel)
		existing.UpdatedAt = m.tick()
		return clone(existing), nil
	}
	c.ID = m.id()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	m.connections[c.ConnectionID] = clone(c)
	return c, nil
}

func keep(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}

func (r *connectionRepo) RefreshFromRemote(_ context.Context, c *models.Connection) (bool, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.connections[c.ConnectionID]
	if !ok {
		return false, nil
	}
	existing.State = c.State
	existing.RemoteState = c.RemoteState
	keep(&existing.TheirDID, c.TheirDID)
	keep(&existing.MyDID, c.MyDID)
	keep(&existing.TheirLabel, c.TheirLabel)
	existing.UpdatedAt = m.tick()
	return true, nil
}

func (r *connectionRepo) GetByRemoteID(_ context.Context, connectionID string) (*models.Connection, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.connections[connectionID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(c), nil
}

func (r *connectionRepo) ListByUser(_ context.Context, userID int64) ([]*models.Connection, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Connection, 0)
	for _, c := range m.connections {
		if c.UserID == userID {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *connectionRepo) DeleteByRemoteID(_ context.Context, connectionID string) (bool, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[connectionID]; !ok {
		return false, nil
	}
	delete(m.connections, connectionID)
	return true, nil
}

type credentialRepo Manager

func (r *credentialRepo) Upsert(_ context.Context, c *models.Credential) (*models.Credential, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.credentials[c.CredentialID]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		if c.DocumentCID == nil {
			c.DocumentCID = existing.DocumentCID
		}
	} else {
		c.ID = m.id()
		c.CreatedAt = m.tick()
	}
	c.UpdatedAt = m.tick()
	m.credentials[c.CredentialID] = clone(c)
	return c, nil
}

func (r *credentialRepo) GetByCredentialID(_ context.Context, credentialID string) (*models.Credential, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.credentials[credentialID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(c), nil
}

func (r *credentialRepo) ListByUser(_ context.Context, userID int64) ([]*models.Credential, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Credential, 0)
	for _, c := range m.credentials {
		if c.UserID == userID {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *credentialRepo) DeleteByCredentialID(_ context.Context, credentialID string) (bool, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.credentials[credentialID]; !ok {
		return false, nil
	}
	delete(m.credentials, credentialID)
	return true, nil
}

type documentRepo Manager

func docKey(userID int64, cid string) string {
	return fmt.Sprintf("%d/%s", userID, cid)
}

func (r *documentRepo) Create(_ context.Context, d *models.Document) (*models.Document, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	key := docKey(d.UserID, d.CID)
	if existing, ok := m.documents[key]; ok {
		return clone(existing), nil
	}
	d.ID = m.id()
	d.CreatedAt = m.tick()
	m.documents[key] = clone(d)
	return d, nil
}

func (r *documentRepo) GetByCID(_ context.Context, userID int64, cid string) (*models.Document, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.documents[docKey(userID, cid)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(d), nil
}

func (r *documentRepo) ListByUser(_ context.Context, userID int64) ([]*models.Document, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Document, 0)
	for _, d := range m.documents {
		if d.UserID == userID {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *documentRepo) Delete(_ context.Context, userID int64, cid string) (bool, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	key := docKey(userID, cid)
	if _, ok := m.documents[key]; !ok {
		return false, nil
	}
	delete(m.documents, key)
	return true, nil
}
