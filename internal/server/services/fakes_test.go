package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/dbx"
	"github.com/dkovalev/folderlock/internal/logging"
	"github.com/dkovalev/folderlock/internal/server/models"
	"github.com/dkovalev/folderlock/internal/server/notify"
	emailcodesrepo "github.com/dkovalev/folderlock/internal/server/repositories/emailcodes"
	grantsrepo "github.com/dkovalev/folderlock/internal/server/repositories/grants"
	locksrepo "github.com/dkovalev/folderlock/internal/server/repositories/locks"
	profilesrepo "github.com/dkovalev/folderlock/internal/server/repositories/profiles"
)

func newDiscardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- in-memory repositories ---

type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[string]*models.FolderLock // by id
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locks: map[string]*models.FolderLock{}}
}

func (f *fakeLockRepo) Create(ctx context.Context, lock *models.FolderLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	lock.CreatedAt = now
	lock.UpdatedAt = now
	cp := *lock
	f.locks[lock.ID] = &cp
	return nil
}

func (f *fakeLockRepo) GetByFolder(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.locks {
		if l.OwnerID == ownerID && l.FolderID == folderID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeLockRepo) GetByFolderForUpdate(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error) {
	return f.GetByFolder(ctx, ownerID, folderID)
}

func (f *fakeLockRepo) GetByID(ctx context.Context, id string) (*models.FolderLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.locks[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeLockRepo) UpdateState(ctx context.Context, lock *models.FolderLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.locks[lock.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.IsLocked = lock.IsLocked
	stored.FailedAttempts = lock.FailedAttempts
	stored.LockoutUntil = lock.LockoutUntil
	stored.LastUnlockAttempt = lock.LastUnlockAttempt
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeLockRepo) Delete(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok || l.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(f.locks, id)
	return nil
}

type fakeGrantRepo struct {
	mu     sync.Mutex
	grants []*models.FolderGrant
}

func (f *fakeGrantRepo) Create(ctx context.Context, grant *models.FolderGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	grant.CreatedAt = time.Now()
	cp := *grant
	f.grants = append(f.grants, &cp)
	return nil
}

func (f *fakeGrantRepo) Delete(ctx context.Context, folderID, granteeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, g := range f.grants {
		if g.FolderID == folderID && g.GranteeID == granteeID {
			f.grants = append(f.grants[:i], f.grants[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeGrantRepo) ListByFolder(ctx context.Context, folderID string) ([]*models.FolderGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.FolderGrant
	for _, g := range f.grants {
		if g.FolderID == folderID {
			cp := *g
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeGrantRepo) GetByFolderAndGrantee(ctx context.Context, folderID, granteeID string) (*models.FolderGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grants {
		if g.FolderID == folderID && g.GranteeID == granteeID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeEmailCodeRepo struct {
	mu    sync.Mutex
	codes []*models.EmailCode
}

func (f *fakeEmailCodeRepo) Create(ctx context.Context, code *models.EmailCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code.CreatedAt = time.Now()
	cp := *code
	f.codes = append(f.codes, &cp)
	return nil
}

func (f *fakeEmailCodeRepo) ListActive(ctx context.Context, userID, purpose string, now time.Time) ([]*models.EmailCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.EmailCode
	for _, c := range f.codes {
		if c.UserID == userID && c.Purpose == purpose && c.ExpiresAt.After(now) {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeEmailCodeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.codes {
		if c.ID == id {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeEmailCodeRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.codes[:0]
	for _, c := range f.codes {
		if c.ExpiresAt.After(now) {
			kept = append(kept, c)
		}
	}
	f.codes = kept
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*models.UserProfile{}}
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	cp.BackupCodes = append([]string(nil), p.BackupCodes...)
	return &cp, nil
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *profile
	cp.BackupCodes = append([]string(nil), profile.BackupCodes...)
	f.profiles[profile.UserID] = &cp
	return nil
}

func (f *fakeProfileRepo) UpdateBackupCodes(ctx context.Context, userID string, codes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.BackupCodes = append([]string(nil), codes...)
	return nil
}

// --- repomanager over the fakes ---

type fakeRepoManager struct {
	locks      *fakeLockRepo
	grants     *fakeGrantRepo
	emailCodes *fakeEmailCodeRepo
	profiles   *fakeProfileRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		locks:      newFakeLockRepo(),
		grants:     &fakeGrantRepo{},
		emailCodes: &fakeEmailCodeRepo{},
		profiles:   newFakeProfileRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Locks(db dbx.DBTX) locksrepo.Repository { return m.locks }
func (m *fakeRepoManager) Grants(db dbx.DBTX) grantsrepo.Repository { return m.grants }
func (m *fakeRepoManager) EmailCodes(db dbx.DBTX) emailcodesrepo.Repository { return m.emailCodes }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profilesrepo.Repository { return m.profiles }

// --- collaborators ---

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Notify(ctx context.Context, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

type fakeTOTPVerifier struct {
	valid bool
	err   error
}

func (f *fakeTOTPVerifier) Verify(code, secret string) (bool, error) {
	return f.valid, f.err
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // recipients
	body string
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	f.body = body
	return nil
}
