package profiles

import (
	"context"

	"github.com/dkovalev/folderlock/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
	// UpdateBackupCodes replaces the stored backup-code list, used after a
	// code is consumed.
	UpdateBackupCodes(ctx context.Context, userID string, codes []string) error
}
