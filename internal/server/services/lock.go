// Package services contains the server-side business logic: the lock
// lifecycle manager, the unlock/attempt-tracking state machine, and the
// recovery flows.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/cryptox"
	"github.com/dkovalev/folderlock/internal/dbx"
	"github.com/dkovalev/folderlock/internal/logging"
	"github.com/dkovalev/folderlock/internal/server/config"
	"github.com/dkovalev/folderlock/internal/server/models"
	"github.com/dkovalev/folderlock/internal/server/notify"
	"github.com/dkovalev/folderlock/internal/server/repositories/repomanager"
)

// PayloadAAD is the associated-data tag bound to every lock payload. Not a
// secret; it domain-separates lock payloads from other uses of the cipher.
const PayloadAAD = "folderlock:lock-payload:v1"

// UnlockResult reports the outcome of an unlock attempt. On failure the
// accompanying sentinel error tells the caller which branch was taken while
// the fields carry the only details safe to reveal: the remaining attempt
// count, or the lockout expiry.
type UnlockResult struct {
	Unlocked          bool
	RemainingAttempts int
	LockoutUntil      *time.Time
}

// LockService implements the lock lifecycle (create, lock, remove) and the
// unlock state machine over the folder_locks table.
type LockService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	cipher          *cryptox.Cipher
	notifier        notify.Notifier
	logger          logging.Logger
	maxAttempts     int
	lockoutDuration time.Duration
}

// NewLockService constructs a LockService using repositories and server config.
func NewLockService(db *sql.DB, m repomanager.RepositoryManager, cipher *cryptox.Cipher,
	n notify.Notifier, log logging.Logger, cfg *config.Config) *LockService {
	return &LockService{
		db:              db,
		repomanager:     m,
		cipher:          cipher,
		notifier:        n,
		logger:          log.With("module", "locks"),
		maxAttempts:     cfg.MaxAttempts,
		lockoutDuration: cfg.LockoutDuration,
	}
}

// CreateLock creates a lock for (ownerID, folderID). The passcode encrypts
// itself: plaintext and secret are the same value, so a later decryption
// that reproduces the passcode is the proof of correctness.
//
// Fails with ErrorAlreadyLocked if a lock exists, ErrorSharedFolder if the
// folder has any active grant, ErrorInvalidFormat if the passcode does not
// match the lock type.
func (s *LockService) CreateLock(ctx context.Context, ownerID, folderID string, lockType models.LockType, passcode string) (*models.FolderLock, error) {
	if !lockType.Valid() || !ValidateFormat(passcode, lockType) {
		return nil, common.ErrorInvalidFormat
	}

	if _, err := s.repomanager.Locks(s.db).GetByFolder(ctx, ownerID, folderID); err == nil {
		return nil, common.ErrorAlreadyLocked
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking existing lock: %w", err)
	}

	if err := s.checkNotShared(ctx, folderID); err != nil {
		return nil, err
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	payload, err := s.cipher.Encrypt(passcode, passcode, salt)
	if err != nil {
		return nil, common.ErrorInternal
	}

	lock := &models.FolderLock{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		FolderID:         folderID,
		LockType:         lockType,
		EncryptedPayload: payload,
		Salt:             salt,
		IsLocked:         true,
		MaxAttempts:      s.maxAttempts,
	}

	if err := s.repomanager.Locks(s.db).Create(ctx, lock); err != nil {
		return nil, fmt.Errorf("error creating lock: %w", err)
	}

	s.logger.Info(ctx, "lock created", "folder_id", folderID, "lock_type", lockType)
	s.notifier.Notify(ctx, notify.Event{
		Type: notify.EventLockCreated, OwnerID: ownerID, FolderID: folderID, At: time.Now(),
	})
	return lock, nil
}

// GetLock returns the lock for (ownerID, folderID), or ErrorNotFound.
func (s *LockService) GetLock(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error) {
	return s.repomanager.Locks(s.db).GetByFolder(ctx, ownerID, folderID)
}

// Lock re-engages an existing lock. The sharing rule is re-checked: a grant
// issued after creation blocks locking until it is revoked.
func (s *LockService) Lock(ctx context.Context, ownerID, folderID string) error {
	lock, err := s.repomanager.Locks(s.db).GetByFolder(ctx, ownerID, folderID)
	if err != nil {
		return err
	}

	if err := s.checkNotShared(ctx, folderID); err != nil {
		return err
	}

	lock.IsLocked = true
	if err := s.repomanager.Locks(s.db).UpdateState(ctx, lock); err != nil {
		return fmt.Errorf("error locking folder: %w", err)
	}

	s.notifier.Notify(ctx, notify.Event{
		Type: notify.EventLockLocked, OwnerID: ownerID, FolderID: folderID, At: time.Now(),
	})
	return nil
}

// RemoveLock deletes the lock record unconditionally given ownership. This
// is the direct removal path; recovery-gated removal lives in RecoveryService.
func (s *LockService) RemoveLock(ctx context.Context, lockID, ownerID string) error {
	lock, err := s.repomanager.Locks(s.db).GetByID(ctx, lockID)
	if err != nil {
		return err
	}
	if lock.OwnerID != ownerID {
		return common.ErrorUnauthorized
	}

	if err := s.repomanager.Locks(s.db).Delete(ctx, lockID, ownerID); err != nil {
		return err
	}

	s.logger.Info(ctx, "lock removed", "folder_id", lock.FolderID)
	s.notifier.Notify(ctx, notify.Event{
		Type: notify.EventLockRemoved, OwnerID: ownerID, FolderID: lock.FolderID, At: time.Now(),
	})
	return nil
}

// AttemptUnlock runs the unlock state machine for the folder owner.
//
// The whole read-modify-write runs in one transaction with the lock row
// held FOR UPDATE, so concurrent attempts cannot both slip past the
// attempt threshold.
//
// Outcomes:
//   - nil error, Unlocked=true: counters reset, folder unlocked.
//   - ErrorLockedOut: active lockout window; LockoutUntil is set, nothing
//     else is touched and decryption is never attempted.
//   - ErrorInvalidFormat: malformed input; never counts as an attempt.
//   - ErrorInvalidPasscode: wrong passcode (or tampered payload — the two
//     are indistinguishable); RemainingAttempts tells the caller how many
//     tries are left before lockout.
func (s *LockService) AttemptUnlock(ctx context.Context, ownerID, folderID, passcode string) (*UnlockResult, error) {
	var result *UnlockResult
	var outcome error

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Locks(tx)
		lock, err := repo.GetByFolderForUpdate(ctx, ownerID, folderID)
		if err != nil {
			return err
		}

		now := time.Now()

		if lock.LockedOut(now) {
			result = &UnlockResult{LockoutUntil: lock.LockoutUntil}
			outcome = common.ErrorLockedOut
			return nil
		}

		if !ValidateFormat(passcode, lock.LockType) {
			outcome = common.ErrorInvalidFormat
			return nil
		}

		lock.LastUnlockAttempt = &now

		if s.passcodeMatches(lock, passcode) {
			lock.IsLocked = false
			lock.FailedAttempts = 0
			lock.LockoutUntil = nil
			if err := repo.UpdateState(ctx, lock); err != nil {
				return err
			}
			result = &UnlockResult{Unlocked: true}
			return nil
		}

		lock.FailedAttempts++
		remaining := lock.MaxAttempts - lock.FailedAttempts
		if remaining < 0 {
			remaining = 0
		}
		lockedOut := lock.FailedAttempts >= lock.MaxAttempts
		if lockedOut {
			until := now.Add(s.lockoutDuration)
			lock.LockoutUntil = &until
			lock.FailedAttempts = 0
		}
		if err := repo.UpdateState(ctx, lock); err != nil {
			return err
		}

		if lockedOut {
			s.notifier.Notify(ctx, notify.Event{
				Type: notify.EventLockLockedOut, OwnerID: ownerID, FolderID: folderID, At: now,
			})
		}

		result = &UnlockResult{RemainingAttempts: remaining}
		outcome = common.ErrorInvalidPasscode
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome == nil && result != nil && result.Unlocked {
		s.notifier.Notify(ctx, notify.Event{
			Type: notify.EventLockUnlocked, OwnerID: ownerID, FolderID: folderID, At: time.Now(),
		})
	}
	return result, outcome
}

// AttemptSharedUnlock evaluates an unlock by a grantee against the owner's
// lock record, read-only. A successful result is scoped to the caller's
// session; neither success nor failure mutates the owner's is_locked flag
// or attempt counters, so a shared user cannot exhaust or reset the owner's
// lockout state.
func (s *LockService) AttemptSharedUnlock(ctx context.Context, granteeID, folderID, passcode string) (*UnlockResult, error) {
	grant, err := s.repomanager.Grants(s.db).GetByFolderAndGrantee(ctx, folderID, granteeID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	lock, err := s.repomanager.Locks(s.db).GetByFolder(ctx, grant.OwnerID, folderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if lock.LockedOut(now) {
		return &UnlockResult{LockoutUntil: lock.LockoutUntil}, common.ErrorLockedOut
	}

	if !ValidateFormat(passcode, lock.LockType) {
		return nil, common.ErrorInvalidFormat
	}

	if s.passcodeMatches(lock, passcode) {
		return &UnlockResult{Unlocked: true}, nil
	}

	remaining := lock.MaxAttempts - lock.FailedAttempts
	if remaining < 0 {
		remaining = 0
	}
	return &UnlockResult{RemainingAttempts: remaining}, common.ErrorInvalidPasscode
}

// passcodeMatches decrypts the stored payload with the supplied passcode
// and compares the plaintext to it. The equality check guards against a
// theoretical GCM tag collision without a matching plaintext.
func (s *LockService) passcodeMatches(lock *models.FolderLock, passcode string) bool {
	plain, err := s.cipher.Decrypt(lock.EncryptedPayload, passcode, lock.Salt)
	return err == nil && plain == passcode
}

func (s *LockService) checkNotShared(ctx context.Context, folderID string) error {
	grants, err := s.repomanager.Grants(s.db).ListByFolder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("error listing grants: %w", err)
	}
	if len(grants) > 0 {
		return common.ErrorSharedFolder
	}
	return nil
}
