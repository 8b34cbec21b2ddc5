package locks

import (
	"context"

	"github.com/dkovalev/folderlock/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, lock *models.FolderLock) error
	GetByFolder(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error)
	// GetByFolderForUpdate reads the lock row with a row-level lock so that
	// concurrent attempt-counter updates serialize. Must be called inside a
	// transaction.
	GetByFolderForUpdate(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error)
	GetByID(ctx context.Context, id string) (*models.FolderLock, error)
	// UpdateState persists the mutable unlock state: is_locked,
	// failed_attempts, lockout_until, last_unlock_attempt.
	UpdateState(ctx context.Context, lock *models.FolderLock) error
	Delete(ctx context.Context, id, ownerID string) error
}
