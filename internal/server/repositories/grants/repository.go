package grants

import (
	"context"

	"github.com/dkovalev/folderlock/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, grant *models.FolderGrant) error
	Delete(ctx context.Context, folderID, granteeID string) error
	// ListByFolder returns every active grant on the folder. A non-empty
	// result blocks lock creation.
	ListByFolder(ctx context.Context, folderID string) ([]*models.FolderGrant, error)
	GetByFolderAndGrantee(ctx context.Context, folderID, granteeID string) (*models.FolderGrant, error)
}
