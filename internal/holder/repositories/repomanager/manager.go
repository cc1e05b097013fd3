package repomanager

import (
	"context"
	"database/sql"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/connections"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/credentials"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/documents"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, usually the
// transaction of the current unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Connections(db dbx.DBTX) connections.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Documents(db dbx.DBTX) documents.Repository
}
