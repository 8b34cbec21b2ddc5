// Package api exposes the folder lock service over HTTP. The layer is thin
// by design: request decoding, identity extraction, service calls, and
// error-to-status mapping. All policy lives in the services.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/dkovalev/folderlock/internal/logging"
	"github.com/dkovalev/folderlock/internal/server/auth"
	"github.com/dkovalev/folderlock/internal/server/services"
)

type ctxKey int

const userIDKey ctxKey = 0

// Server is the HTTP front of the lock, grant, and recovery services.
type Server struct {
	address   string
	locks     *services.LockService
	grants    *services.GrantService
	recovery  *services.RecoveryService
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(address string, locks *services.LockService, grants *services.GrantService,
	recovery *services.RecoveryService, log logging.Logger, jwtSecret string) *Server {
	return &Server{
		address:   address,
		locks:     locks,
		grants:    grants,
		recovery:  recovery,
		logger:    log.With("module", "api"),
		jwtSecret: []byte(jwtSecret),
	}
}

// Router builds the route table. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/folders/{folderID}/lock", s.handleCreateLock).Methods(http.MethodPost)
	api.HandleFunc("/folders/{folderID}/lock", s.handleGetLock).Methods(http.MethodGet)
	api.HandleFunc("/folders/{folderID}/lock", s.handleRemoveLock).Methods(http.MethodDelete)
	api.HandleFunc("/folders/{folderID}/lock/engage", s.handleLock).Methods(http.MethodPost)
	api.HandleFunc("/folders/{folderID}/lock/unlock", s.handleUnlock).Methods(http.MethodPost)
	api.HandleFunc("/folders/{folderID}/lock/recover", s.handleRecover).Methods(http.MethodPost)
	api.HandleFunc("/recovery/email-code", s.handleSendEmailCode).Methods(http.MethodPost)
	api.HandleFunc("/folders/{folderID}/grants", s.handleShare).Methods(http.MethodPost)
	api.HandleFunc("/folders/{folderID}/grants", s.handleListGrants).Methods(http.MethodGet)
	api.HandleFunc("/folders/{folderID}/grants/{granteeID}", s.handleRevoke).Methods(http.MethodDelete)

	return handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, r))
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// authMiddleware verifies the bearer token and stashes the user id in the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
