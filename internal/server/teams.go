package server

import (
	"fmt"
	"net/http"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
	"github.com/sirdesai22/regdesk/internal/services"
)

func (s *server) getTournament(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Tournament())
}

func (s *server) listTeams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.TeamFilter{Status: models.TeamStatus(q.Get("status")), Search: q.Get("q")}
	if f.Status != "" && !f.Status.Valid() {
		s.fail(w, errs.ValidationErrors{{Field: "status", Message: fmt.Sprintf("unknown status %q", f.Status)}})
		return
	}
	writeJSON(w, http.StatusOK, s.Store.ListTeams(f))
}

func (s *server) getTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.Store.GetTeam(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) registerTeam(w http.ResponseWriter, r *http.Request) {
	var in services.TeamInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.Store.Register(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *server) createTeam(w http.ResponseWriter, r *http.Request) {
	var in services.TeamInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.Store.CreateTeam(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *server) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var in services.TeamInput
	if err := decode(w, r, &in); err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.Store.UpdateTeam(r.Context(), id, in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		Status models.TeamStatus `json:"status"`
	}
	if err := decode(w, r, &body); err != nil {
		s.fail(w, err)
		return
	}
	t, err := s.Store.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := confirmed(r); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Store.DeleteTeam(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Stats())
}
