package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/server/models"
	"github.com/dkovalev/folderlock/internal/server/services"
)

type createLockRequest struct {
	LockType models.LockType `json:"lock_type"`
	Passcode string          `json:"passcode"`
}

type unlockRequest struct {
	Passcode string `json:"passcode"`
	// Shared marks an unlock by a grantee rather than the owner; the
	// decision is session-scoped and the owner's lock state is untouched.
	Shared bool `json:"shared"`
}

type recoverRequest struct {
	Method services.RecoveryMethod `json:"method"`
	Proof  string                  `json:"proof"`
}

type shareRequest struct {
	GranteeID string `json:"grantee_id"`
}

// lockResponse never exposes the encrypted payload or salt.
type lockResponse struct {
	ID                string     `json:"id"`
	FolderID          string     `json:"folder_id"`
	LockType          string     `json:"lock_type"`
	IsLocked          bool       `json:"is_locked"`
	FailedAttempts    int        `json:"failed_attempts"`
	MaxAttempts       int        `json:"max_attempts"`
	LockoutUntil      *time.Time `json:"lockout_until,omitempty"`
	LastUnlockAttempt *time.Time `json:"last_unlock_attempt,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toLockResponse(lock *models.FolderLock) lockResponse {
	return lockResponse{
		ID:                lock.ID,
		FolderID:          lock.FolderID,
		LockType:          string(lock.LockType),
		IsLocked:          lock.IsLocked,
		FailedAttempts:    lock.FailedAttempts,
		MaxAttempts:       lock.MaxAttempts,
		LockoutUntil:      lock.LockoutUntil,
		LastUnlockAttempt: lock.LastUnlockAttempt,
		CreatedAt:         lock.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateLock(w http.ResponseWriter, r *http.Request) {
	var req createLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lock, err := s.locks.CreateLock(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["folderID"], req.LockType, req.Passcode)
	if err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, toLockResponse(lock))
}

func (s *Server) handleGetLock(w http.ResponseWriter, r *http.Request) {
	lock, err := s.locks.GetLock(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["folderID"])
	if err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toLockResponse(lock))
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if err := s.locks.Lock(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["folderID"]); err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_locked": true})
}

func (s *Server) handleRemoveLock(w http.ResponseWriter, r *http.Request) {
	ownerID := userIDFrom(r.Context())
	lock, err := s.locks.GetLock(r.Context(), ownerID, mux.Vars(r)["folderID"])
	if err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	if err := s.locks.RemoveLock(r.Context(), lock.ID, ownerID); err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	folderID := mux.Vars(r)["folderID"]

	var result *services.UnlockResult
	var err error
	if req.Shared {
		result, err = s.locks.AttemptSharedUnlock(ctx, userIDFrom(ctx), folderID, req.Passcode)
	} else {
		result, err = s.locks.AttemptUnlock(ctx, userIDFrom(ctx), folderID, req.Passcode)
	}
	if err != nil {
		s.writeServiceError(w, r, err, result)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": result.Unlocked})
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.recovery.Recover(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["folderID"], req.Method, req.Proof)
	if err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleSendEmailCode(w http.ResponseWriter, r *http.Request) {
	if err := s.recovery.SendEmailCode(r.Context(), userIDFrom(r.Context())); err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GranteeID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := s.grants.Share(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["folderID"], req.GranteeID)
	if err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": grant.ID, "grantee_id": grant.GranteeID})
}

func (s *Server) handleListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := s.grants.List(r.Context(), mux.Vars(r)["folderID"])
	if err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}

	out := make([]map[string]string, 0, len(grants))
	for _, g := range grants {
		out = append(out, map[string]string{"id": g.ID, "grantee_id": g.GranteeID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.grants.Revoke(r.Context(), userIDFrom(r.Context()), vars["folderID"], vars["granteeID"]); err != nil {
		s.writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service sentinels to HTTP statuses. Cryptographic
// failure detail never leaves the service layer; unexpected errors surface
// as an opaque 500 so the UI cannot mistake them for a wrong passcode.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, result *services.UnlockResult) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyLocked):
		writeError(w, http.StatusConflict, "folder is already locked")
	case errors.Is(err, common.ErrorSharedFolder):
		writeError(w, http.StatusConflict, "folder is shared and cannot be locked")
	case errors.Is(err, common.ErrorSelfGrant):
		writeError(w, http.StatusBadRequest, "cannot share a folder with its owner")
	case errors.Is(err, common.ErrorInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid passcode format")
	case errors.Is(err, common.ErrorInvalidPasscode):
		body := map[string]any{"error": "invalid passcode"}
		if result != nil {
			body["remaining_attempts"] = result.RemainingAttempts
		}
		writeJSON(w, http.StatusForbidden, body)
	case errors.Is(err, common.ErrorLockedOut):
		body := map[string]any{"error": "too many failed attempts"}
		if result != nil && result.LockoutUntil != nil {
			body["lockout_until"] = result.LockoutUntil
		}
		writeJSON(w, http.StatusTooManyRequests, body)
	case errors.Is(err, common.ErrorInvalidCode):
		writeError(w, http.StatusForbidden, "invalid recovery code")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		s.logger.Error(r.Context(), "internal error", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
