package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/logging"
	"github.com/dkovalev/folderlock/internal/server/models"
	"github.com/dkovalev/folderlock/internal/server/repositories/repomanager"
)

// GrantService manages folder sharing grants — the other side of the
// no-lock-while-shared invariant. Locks on a folder do not block sharing;
// the restriction only runs the other way (a shared folder cannot be
// locked, checked by LockService).
type GrantService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGrantService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *GrantService {
	return &GrantService{db: db, repomanager: m, logger: log.With("module", "grants")}
}

// Share grants granteeID access to the owner's folder.
func (s *GrantService) Share(ctx context.Context, ownerID, folderID, granteeID string) (*models.FolderGrant, error) {
	if granteeID == ownerID {
		return nil, common.ErrorSelfGrant
	}

	grant := &models.FolderGrant{
		ID:        uuid.NewString(),
		FolderID:  folderID,
		OwnerID:   ownerID,
		GranteeID: granteeID,
	}
	if err := s.repomanager.Grants(s.db).Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("error creating grant: %w", err)
	}

	s.logger.Info(ctx, "folder shared", "folder_id", folderID, "grantee_id", granteeID)
	return grant, nil
}

// Revoke removes a grant. Only the folder owner may revoke.
func (s *GrantService) Revoke(ctx context.Context, ownerID, folderID, granteeID string) error {
	grant, err := s.repomanager.Grants(s.db).GetByFolderAndGrantee(ctx, folderID, granteeID)
	if err != nil {
		return err
	}
	if grant.OwnerID != ownerID {
		return common.ErrorUnauthorized
	}

	if err := s.repomanager.Grants(s.db).Delete(ctx, folderID, granteeID); err != nil {
		return err
	}

	s.logger.Info(ctx, "grant revoked", "folder_id", folderID, "grantee_id", granteeID)
	return nil
}

// List returns all active grants on a folder.
func (s *GrantService) List(ctx context.Context, folderID string) ([]*models.FolderGrant, error) {
	return s.repomanager.Grants(s.db).ListByFolder(ctx, folderID)
}
