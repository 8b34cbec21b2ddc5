package locks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func lockRows(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "folder_id", "lock_type", "encrypted_payload", "salt",
		"is_locked", "failed_attempts", "max_attempts", "lockout_until",
		"last_unlock_attempt", "created_at", "updated_at",
	}).AddRow(id, "owner-1", "folder-1", "passcode_4", "aa:bb:cc", []byte("salt"),
		true, 0, 5, nil, nil, now, now)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+folder_locks\s*\(.*\)\s*VALUES\s*\(\$1,.*\$9\)\s*RETURNING\s+created_at,\s*updated_at\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)
	mock.ExpectQuery(q).
		WithArgs("l-1", "owner-1", "folder-1", models.LockTypePasscode4, "aa:bb:cc",
			[]byte("salt"), true, 0, 5).
		WillReturnRows(rows)

	lock := &models.FolderLock{
		ID: "l-1", OwnerID: "owner-1", FolderID: "folder-1",
		LockType: models.LockTypePasscode4, EncryptedPayload: "aa:bb:cc",
		Salt: []byte("salt"), IsLocked: true, MaxAttempts: 5,
	}
	if err := repo.Create(context.Background(), lock); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !lock.CreatedAt.Equal(now) || !lock.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not populated: %+v", lock)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+folder_locks`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.FolderLock{ID: "l-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByFolder_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+folder_locks\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+folder_id\s*=\s*\$2\s*$`

	mock.ExpectQuery(q).
		WithArgs("owner-1", "folder-1").
		WillReturnRows(lockRows("l-1"))

	got, err := repo.GetByFolder(context.Background(), "owner-1", "folder-1")
	if err != nil {
		t.Fatalf("GetByFolder error: %v", err)
	}
	if got.ID != "l-1" || got.LockType != models.LockTypePasscode4 || !got.IsLocked {
		t.Fatalf("unexpected lock: %+v", got)
	}
	if got.LockoutUntil != nil || got.LastUnlockAttempt != nil {
		t.Fatalf("expected nil nullable fields: %+v", got)
	}
}

func TestGetByFolder_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+folder_locks\s+WHERE\s+owner_id`).
		WithArgs("owner-1", "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByFolder(context.Background(), "owner-1", "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByFolderForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+folder_locks\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+folder_id\s*=\s*\$2\s+FOR\s+UPDATE\s*$`

	mock.ExpectQuery(q).
		WithArgs("owner-1", "folder-1").
		WillReturnRows(lockRows("l-1"))

	got, err := repo.GetByFolderForUpdate(context.Background(), "owner-1", "folder-1")
	if err != nil {
		t.Fatalf("GetByFolderForUpdate error: %v", err)
	}
	if got.ID != "l-1" {
		t.Fatalf("unexpected lock: %+v", got)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+folder_locks\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("l-1").
		WillReturnRows(lockRows("l-1"))

	got, err := repo.GetByID(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.OwnerID != "owner-1" {
		t.Fatalf("unexpected lock: %+v", got)
	}
}

func TestUpdateState_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+folder_locks\s+SET\s+is_locked\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s*$`

	until := time.Now().Add(15 * time.Minute)
	attempt := time.Now()
	mock.ExpectExec(q).
		WithArgs("l-1", true, 5, until, attempt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lock := &models.FolderLock{
		ID: "l-1", IsLocked: true, FailedAttempts: 5,
		LockoutUntil: &until, LastUnlockAttempt: &attempt,
	}
	if err := repo.UpdateState(context.Background(), lock); err != nil {
		t.Fatalf("UpdateState error: %v", err)
	}
}

func TestUpdateState_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+folder_locks\s+SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateState(context.Background(), &models.FolderLock{ID: "ghost"})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+folder_locks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s*$`

	mock.ExpectExec(q).
		WithArgs("l-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "l-1", "owner-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestDelete_WrongOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+folder_locks\s+WHERE`).
		WithArgs("l-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "l-1", "intruder")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
