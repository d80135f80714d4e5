package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/callerid/internal/caller"
)

// The bridge routes always answer 200 with the bridge's value; false or
// null means the operation failed.

func (s *Server) listCallers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.ListAll(r.Context()))
}

func (s *Server) putCaller(w http.ResponseWriter, r *http.Request) {
	var rec caller.Record
	if !decodeJSON(w, r, &rec) {
		return
	}
	writeJSON(w, http.StatusOK, s.bridge.Put(r.Context(), rec))
}

func (s *Server) putCallers(w http.ResponseWriter, r *http.Request) {
	var recs []caller.Record
	if !decodeJSON(w, r, &recs) {
		return
	}
	writeJSON(w, http.StatusOK, s.bridge.PutMany(r.Context(), recs))
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.ListAllKeys(r.Context()))
}

func (s *Server) deleteCallers(w http.ResponseWriter, r *http.Request) {
	var keys []string
	if !decodeJSON(w, r, &keys) {
		return
	}
	writeJSON(w, http.StatusOK, s.bridge.DeleteMany(r.Context(), keys))
}

func (s *Server) clearCallers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.Clear(r.Context()))
}

func (s *Server) getCaller(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.Get(r.Context(), chi.URLParam(r, "number")))
}

func (s *Server) deleteCaller(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.Delete(r.Context(), chi.URLParam(r, "number")))
}

type showPopupRequest struct {
	Show *bool `json:"show"`
}

func (s *Server) getShowPopup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.GetShowPopup(r.Context()))
}

func (s *Server) setShowPopup(w http.ResponseWriter, r *http.Request) {
	var req showPopupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Show == nil {
		writeError(w, http.StatusBadRequest, "missing required field: show")
		return
	}
	writeJSON(w, http.StatusOK, s.bridge.SetShowPopup(r.Context(), *req.Show))
}

func (s *Server) getDialCountryCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.GetDialCountryCode())
}

func (s *Server) hasOverlayPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.HasOverlayPermission())
}

func (s *Server) requestOverlayPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.RequestOverlayPermission(r.Context()))
}
