package emailcodes

import (
	"context"
	"time"

	"github.com/dkovalev/folderlock/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, code *models.EmailCode) error
	// ListActive returns unexpired codes for the user and purpose.
	ListActive(ctx context.Context, userID, purpose string, now time.Time) ([]*models.EmailCode, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes rows past their expiry; called opportunistically
	// during recovery lookups.
	DeleteExpired(ctx context.Context, now time.Time) error
}
