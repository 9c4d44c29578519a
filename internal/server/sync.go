package server

import (
	"net/http"
)

func (s *server) syncQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"online": s.Net.Online(),
		"items":  s.Queue.Items(),
	})
}

func (s *server) drain(w http.ResponseWriter, r *http.Request) {
	res, err := s.Worker.DrainOnce(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) retryTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Worker.RequeueFailed(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"requeued": 1})
}

func (s *server) retryAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.Worker.RequeueAllFailed(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"requeued": n})
}

// setOnline lets an operator force the connectivity flag, e.g. while the
// probe is disabled.
func (s *server) setOnline(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Online bool `json:"online"`
	}
	if err := decode(w, r, &body); err != nil {
		s.fail(w, err)
		return
	}
	changed := s.Net.Set(body.Online)
	writeJSON(w, http.StatusOK, map[string]any{"online": s.Net.Online(), "changed": changed})
}
