package inspect

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/shadowdom/pkg/snapshot"
)

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []snapshot.Info{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	markup := []byte(s.doc.HTML())
	if err := s.opts.Store.Put(r.Context(), name, markup); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("snapshot saved", "name", name, "bytes", len(markup))
	writeJSON(w, http.StatusCreated, snapshot.Info{Name: name, Size: int64(len(markup))})
}

// handleRestoreSnapshot reconciles the document against a stored
// snapshot, so unchanged nodes keep their live handles.
func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	markup, err := s.opts.Store.Get(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.doc.SetInnerHTML(r.Context(), s.doc.Root(), string(markup)); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("snapshot restored", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
