package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/export"
	"github.com/sirdesai22/regdesk/internal/models"
	"github.com/sirdesai22/regdesk/internal/services"
)

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &body); err != nil {
		s.fail(w, err)
		return
	}
	token, exp, err := s.Auth.Login(r.Context(), body.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expiresAt": exp})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.Logout(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) changePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &body); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Auth.ChangePassword(r.Context(), body.Password); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getSystemSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Auth.SystemSettings())
}

func (s *server) putSystemSettings(w http.ResponseWriter, r *http.Request) {
	var in services.SystemSettingsUpdate
	if err := decode(w, r, &in); err != nil {
		s.fail(w, err)
		return
	}
	st, err := s.Auth.UpdateSystemSettings(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) putTournament(w http.ResponseWriter, r *http.Request) {
	var t models.Tournament
	if err := decode(w, r, &t); err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.Store.SetTournament(r.Context(), t)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Settings())
}

func (s *server) putSettings(w http.ResponseWriter, r *http.Request) {
	var st models.Settings
	if err := decode(w, r, &st); err != nil {
		s.fail(w, err)
		return
	}
	st, err := s.Store.UpdateSettings(r.Context(), st)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) openRegistration(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.OpenRegistration(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Store.Tournament())
}

func (s *server) closeRegistration(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.CloseRegistration(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Store.Tournament())
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	if err := confirmed(r); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Store.Reset(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- backups ----------

func (s *server) listBackups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Backups.ListBackups())
}

func (s *server) createBackup(w http.ResponseWriter, r *http.Request) {
	b, err := s.Backups.CreateBackup(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *server) restoreBackup(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := confirmed(r); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Backups.Restore(r.Context(), i); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Store.Stats())
}

func (s *server) deleteBackup(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := confirmed(r); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Backups.DeleteBackup(r.Context(), i); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- export ----------

func (s *server) exportTeams(w http.ResponseWriter, r *http.Request) {
	s.attachment(w, "text/csv; charset=utf-8", "teams", "csv")
	if err := export.TeamsCSV(w, s.Store.ListTeams(services.TeamFilter{})); err != nil {
		s.Log.Warn("export teams", zap.Error(err))
	}
}

func (s *server) exportPlayers(w http.ResponseWriter, r *http.Request) {
	s.attachment(w, "text/csv; charset=utf-8", "players", "csv")
	if err := export.PlayersCSV(w, s.Store.ListTeams(services.TeamFilter{})); err != nil {
		s.Log.Warn("export players", zap.Error(err))
	}
}

func (s *server) exportData(w http.ResponseWriter, r *http.Request) {
	s.attachment(w, "application/json", "data", "json")
	if err := export.DataJSON(w, s.Store.Snapshot(), s.Now()); err != nil {
		s.Log.Warn("export data", zap.Error(err))
	}
}

func (s *server) attachment(w http.ResponseWriter, contentType, name, ext string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="tournament-`+name+`-`+s.Now().Format(time.DateOnly)+`.`+ext+`"`)
}
