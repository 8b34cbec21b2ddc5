package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/cryptox"
	"github.com/dkovalev/folderlock/internal/logging"
	"github.com/dkovalev/folderlock/internal/otpx"
	"github.com/dkovalev/folderlock/internal/server/config"
	"github.com/dkovalev/folderlock/internal/server/mailer"
	"github.com/dkovalev/folderlock/internal/server/models"
	"github.com/dkovalev/folderlock/internal/server/notify"
	"github.com/dkovalev/folderlock/internal/server/repositories/repomanager"
)

// EmailCodeAAD is the associated-data tag for stored email recovery codes,
// separating them from lock payloads sealed by the same primitive.
const EmailCodeAAD = "folderlock:email-code:v1"

// RecoveryMethod selects the alternate proof of identity used to bypass a
// lock.
type RecoveryMethod string

const (
	RecoveryTOTP   RecoveryMethod = "totp"
	RecoveryBackup RecoveryMethod = "backup"
	RecoveryEmail  RecoveryMethod = "email"
)

const emailCodeDigits = 6

// RecoveryService bypasses a folder lock with an alternate proof of
// identity. A successful recovery deletes the lock entirely — it is a full
// reset, not a one-time bypass.
type RecoveryService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	cipher       *cryptox.Cipher
	serverKey    []byte
	totp         otpx.Verifier
	mail         mailer.Mailer
	notifier     notify.Notifier
	logger       logging.Logger
	emailCodeTTL time.Duration
}

// NewRecoveryService constructs a RecoveryService. The server encryption
// key is taken from config (hex-encoded, 32 bytes) and injected here;
// there is no package-level key.
func NewRecoveryService(db *sql.DB, m repomanager.RepositoryManager, cipher *cryptox.Cipher,
	totp otpx.Verifier, mail mailer.Mailer, n notify.Notifier, log logging.Logger,
	cfg *config.Config) (*RecoveryService, error) {

	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}

	return &RecoveryService{
		db:           db,
		repomanager:  m,
		cipher:       cipher,
		serverKey:    key,
		totp:         totp,
		mail:         mail,
		notifier:     n,
		logger:       log.With("module", "recovery"),
		emailCodeTTL: cfg.EmailCodeTTL,
	}, nil
}

// Recover verifies the proof for the given method and, on success, deletes
// the folder lock. Each method consumes the credential it uses: backup
// codes are removed from the list, email codes are deleted on match. A
// proof that does not verify fails with ErrorInvalidCode and mutates no
// lock state.
func (s *RecoveryService) Recover(ctx context.Context, ownerID, folderID string, method RecoveryMethod, proof string) error {
	lock, err := s.repomanager.Locks(s.db).GetByFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}

	switch method {
	case RecoveryTOTP:
		err = s.verifyTOTP(ctx, ownerID, proof)
	case RecoveryBackup:
		err = s.consumeBackupCode(ctx, ownerID, proof)
	case RecoveryEmail:
		err = s.consumeEmailCode(ctx, ownerID, proof)
	default:
		return common.ErrorInvalidCode
	}
	if err != nil {
		return err
	}

	if err := s.repomanager.Locks(s.db).Delete(ctx, lock.ID, ownerID); err != nil {
		return fmt.Errorf("error removing lock after recovery: %w", err)
	}

	s.logger.Info(ctx, "lock recovered", "folder_id", folderID, "method", method)
	s.notifier.Notify(ctx, notify.Event{
		Type: notify.EventLockRecovered, OwnerID: ownerID, FolderID: folderID, At: time.Now(),
	})
	return nil
}

// SendEmailCode generates a one-time recovery code, stores it encrypted
// under the server key with the configured TTL, and delivers it to the
// user's email address.
func (s *RecoveryService) SendEmailCode(ctx context.Context, ownerID string) error {
	profile, err := s.repomanager.Profiles(s.db).Get(ctx, ownerID)
	if err != nil {
		return err
	}

	code, err := common.MakeRandDigitString(emailCodeDigits)
	if err != nil {
		return common.ErrorInternal
	}

	encrypted, err := s.cipher.EncryptWithKey(code, s.serverKey)
	if err != nil {
		return common.ErrorInternal
	}

	record := &models.EmailCode{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		CodeEncrypted: encrypted,
		Purpose:       models.PurposeFolderLockRecovery,
		ExpiresAt:     time.Now().Add(s.emailCodeTTL),
	}
	if err := s.repomanager.EmailCodes(s.db).Create(ctx, record); err != nil {
		return fmt.Errorf("error storing email code: %w", err)
	}

	body := fmt.Sprintf("Your folder recovery code is %s. It expires in %d minutes.",
		code, int(s.emailCodeTTL.Minutes()))
	if err := s.mail.Send(ctx, profile.Email, "Folder recovery code", body); err != nil {
		return fmt.Errorf("error sending recovery code: %w", err)
	}

	s.logger.Info(ctx, "recovery code sent", "user_id", ownerID)
	return nil
}

func (s *RecoveryService) verifyTOTP(ctx context.Context, ownerID, proof string) error {
	profile, err := s.repomanager.Profiles(s.db).Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if profile.TOTPSecret == "" {
		return common.ErrorInvalidCode
	}

	ok, err := s.totp.Verify(proof, profile.TOTPSecret)
	if err != nil {
		return common.ErrorInternal
	}
	if !ok {
		return common.ErrorInvalidCode
	}
	return nil
}

// consumeBackupCode matches the proof (case-insensitive, stored uppercase)
// against the user's backup codes and removes exactly the matched one.
func (s *RecoveryService) consumeBackupCode(ctx context.Context, ownerID, proof string) error {
	profile, err := s.repomanager.Profiles(s.db).Get(ctx, ownerID)
	if err != nil {
		return err
	}

	normalized := strings.ToUpper(strings.TrimSpace(proof))

	idx := -1
	for i, code := range profile.BackupCodes {
		if code == normalized {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.ErrorInvalidCode
	}

	remaining := append(profile.BackupCodes[:idx:idx], profile.BackupCodes[idx+1:]...)
	if err := s.repomanager.Profiles(s.db).UpdateBackupCodes(ctx, ownerID, remaining); err != nil {
		return fmt.Errorf("error consuming backup code: %w", err)
	}
	return nil
}

// consumeEmailCode decrypts each unexpired stored code under the server key
// and compares to the proof; the first match is deleted. Expired rows are
// cleaned up opportunistically and never matched.
func (s *RecoveryService) consumeEmailCode(ctx context.Context, ownerID, proof string) error {
	now := time.Now()
	repo := s.repomanager.EmailCodes(s.db)

	if err := repo.DeleteExpired(ctx, now); err != nil {
		// cleanup failure must not block recovery; ListActive filters by
		// expiry anyway
		s.logger.Warn(ctx, "email code cleanup failed", "error", err.Error())
	}

	codes, err := repo.ListActive(ctx, ownerID, models.PurposeFolderLockRecovery, now)
	if err != nil {
		return fmt.Errorf("error listing email codes: %w", err)
	}

	for _, record := range codes {
		plain, err := s.cipher.DecryptWithKey(record.CodeEncrypted, s.serverKey)
		if err != nil {
			if errors.Is(err, cryptox.ErrDecryptFailed) {
				continue
			}
			return common.ErrorInternal
		}
		if plain == proof {
			if err := repo.Delete(ctx, record.ID); err != nil {
				return fmt.Errorf("error consuming email code: %w", err)
			}
			return nil
		}
	}
	return common.ErrorInvalidCode
}
