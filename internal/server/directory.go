package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/callerid/internal/photocache"
)

// projection reads ?projection=a,b. Absent means the default columns.
func projection(r *http.Request) []string {
	raw, ok := r.URL.Query()["projection"]
	if !ok || len(raw) == 0 {
		return nil
	}
	var cols []string
	for _, part := range strings.Split(strings.Join(raw, ","), ",") {
		if part = strings.TrimSpace(part); part != "" {
			cols = append(cols, part)
		}
	}
	return cols
}

func (s *Server) directories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.directory.Directories(projection(r)))
}

func (s *Server) phoneLookup(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	writeJSON(w, http.StatusOK, s.directory.LookupPhone(r.Context(), number, projection(r)))
}

// query takes a full content URI in ?uri=.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.directory.Query(r.Context(), r.URL.Query().Get("uri"), projection(r)))
}

func (s *Server) primaryPhoto(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, s.directory.PrimaryPhoto(r.URL.Query().Get("token")))
}

// asset takes a full photo content URI in ?uri=.
func (s *Server) asset(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, s.directory.OpenAsset(r.URL.Query().Get("uri")))
}

func (s *Server) serveAsset(w http.ResponseWriter, asset *photocache.Asset) {
	if asset == nil {
		writeError(w, http.StatusNotFound, "no photo")
		return
	}
	f, err := asset.Open()
	if err != nil {
		s.logger.Warn("open photo asset", "path", asset.Path, "error", err)
		writeError(w, http.StatusNotFound, "no photo")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", asset.MimeType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("stream photo asset", "path", asset.Path, "error", err)
	}
}
