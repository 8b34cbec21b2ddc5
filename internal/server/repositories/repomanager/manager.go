package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkovalev/folderlock/internal/dbx"
	"github.com/dkovalev/folderlock/internal/server/repositories/emailcodes"
	"github.com/dkovalev/folderlock/internal/server/repositories/grants"
	"github.com/dkovalev/folderlock/internal/server/repositories/locks"
	"github.com/dkovalev/folderlock/internal/server/repositories/profiles"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Locks(db dbx.DBTX) locks.Repository
	Grants(db dbx.DBTX) grants.Repository
	EmailCodes(db dbx.DBTX) emailcodes.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
