// Package server exposes the registration desk over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/services"
	"github.com/sirdesai22/regdesk/internal/workers"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Store       *services.RecordStore
	Queue       *services.SyncQueue
	Worker      *workers.SyncWorker
	Net         *workers.Connectivity
	Backups     *services.BackupManager
	Auth        *services.Auth
	Log         *zap.Logger
	CORSOrigins []string
	Now         func() time.Time
}

type server struct {
	Deps
}

func New(addr string, d Deps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           Handler(d),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler builds the routed API. Admin routes need a Bearer session token.
func Handler(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &server{Deps: d}
	admin := s.requireAdmin

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.healthz)

	// public
	mux.HandleFunc("GET /api/tournament", s.getTournament)
	mux.HandleFunc("GET /api/teams", s.listTeams)
	mux.HandleFunc("GET /api/teams/{id}", s.getTeam)
	mux.HandleFunc("POST /api/teams", s.registerTeam)
	mux.HandleFunc("POST /api/admin/login", s.login)

	// admin
	mux.Handle("POST /api/admin/logout", admin(s.logout))
	mux.Handle("POST /api/admin/password", admin(s.changePassword))
	mux.Handle("GET /api/admin/settings", admin(s.getSystemSettings))
	mux.Handle("PUT /api/admin/settings", admin(s.putSystemSettings))
	mux.Handle("POST /api/admin/reset", admin(s.reset))
	mux.Handle("POST /api/admin/teams", admin(s.createTeam))
	mux.Handle("PUT /api/tournament", admin(s.putTournament))
	mux.Handle("GET /api/settings", admin(s.getSettings))
	mux.Handle("PUT /api/settings", admin(s.putSettings))
	mux.Handle("POST /api/registration/open", admin(s.openRegistration))
	mux.Handle("POST /api/registration/close", admin(s.closeRegistration))
	mux.Handle("PUT /api/teams/{id}", admin(s.updateTeam))
	mux.Handle("POST /api/teams/{id}/status", admin(s.setStatus))
	mux.Handle("DELETE /api/teams/{id}", admin(s.deleteTeam))
	mux.Handle("GET /api/stats", admin(s.stats))

	mux.Handle("GET /api/backups", admin(s.listBackups))
	mux.Handle("POST /api/backups", admin(s.createBackup))
	mux.Handle("POST /api/backups/{index}/restore", admin(s.restoreBackup))
	mux.Handle("DELETE /api/backups/{index}", admin(s.deleteBackup))

	mux.Handle("GET /api/sync/queue", admin(s.syncQueue))
	mux.Handle("POST /api/sync/drain", admin(s.drain))
	mux.Handle("POST /api/sync/retry", admin(s.retryAll))
	mux.Handle("POST /api/sync/retry/{id}", admin(s.retryTeam))
	mux.Handle("PUT /api/sync/online", admin(s.setOnline))

	mux.Handle("GET /api/export/teams.csv", admin(s.exportTeams))
	mux.Handle("GET /api/export/players.csv", admin(s.exportPlayers))
	mux.Handle("GET /api/export/data.json", admin(s.exportData))

	if len(d.CORSOrigins) == 0 {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(mux)
}

func (s *server) requireAdmin(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.fail(w, errs.ErrUnauthorized)
			return
		}
		if err := s.Auth.Authorize(r.Context(), token); err != nil {
			s.fail(w, err)
			return
		}
		h(w, r)
	})
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"online": s.Net.Online(),
		"queue":  s.Queue.Len(),
	})
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string                  `json:"error"`
	Errors []*errs.ValidationError `json:"errors,omitempty"`
}

func (s *server) fail(w http.ResponseWriter, err error) {
	var (
		many errs.ValidationErrors
		one  *errs.ValidationError
		bad  *badRequest
	)
	switch {
	case errors.As(err, &many):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errs.ErrValidation.Error(), Errors: many})
	case errors.As(err, &one):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errs.ErrValidation.Error(), Errors: []*errs.ValidationError{one}})
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: bad.Error()})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, errs.ErrRegistrationClosed),
		errors.Is(err, errs.ErrTeamLimitReached),
		errors.Is(err, errs.ErrDrainInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errs.ErrUnauthorized.Error()})
	case errors.Is(err, errs.ErrConfirmationRequired):
		writeJSON(w, http.StatusPreconditionRequired, errorBody{Error: err.Error()})
	default:
		s.Log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

type badRequest struct{ err error }

func (b *badRequest) Error() string { return "invalid request body: " + b.err.Error() }

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &badRequest{err: err}
	}
	return nil
}

// confirmed enforces ?confirm=true on destructive calls.
func confirmed(r *http.Request) error {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !ok {
		return errs.ErrConfirmationRequired
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NotFound("team", raw)
	}
	return id, nil
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NotFound("backup", raw)
	}
	return i, nil
}
