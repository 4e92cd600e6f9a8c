package runtime

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/drblury/surfaceflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
)

// StartInspectServer mounts the read-only surface API when it is enabled.
func (s *Service) StartInspectServer() {
	if !s.Conf.InspectEnabled {
		return
	}
	s.RegisterHTTPHandler(s.Conf.GetInspectPort(), "/api/", s.InspectHandler())
}

// InspectHandler serves the surface store as JSON:
//
//	GET /api/surfaces                 snapshot of every surface
//	GET /api/surfaces/{id}            one surface
//	GET /api/surfaces/{id}/data?path= a value of its data model
func (s *Service) InspectHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)
	r.Get("/api/surfaces", s.handleListSurfaces)
	r.Get("/api/surfaces/{id}", s.handleGetSurface)
	r.Get("/api/surfaces/{id}/data", s.handleGetSurfaceData)
	return r
}

func (s *Service) handleListSurfaces(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetSnapshot())
}

func (s *Service) handleGetSurface(w http.ResponseWriter, r *http.Request) {
	surface, ok := s.store.GetSurface(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "surface not found")
		return
	}
	s.writeJSON(w, http.StatusOK, surface)
}

func (s *Service) handleGetSurfaceData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.GetSurface(id); !ok {
		s.writeError(w, http.StatusNotFound, "surface not found")
		return
	}
	value, ok := s.store.GetData(id, r.URL.Query().Get("path"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "no value at path")
		return
	}
	s.writeJSON(w, http.StatusOK, value)
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := jsoncodec.Marshal(v)
	if err != nil {
		s.Logger.Error("Failed to encode inspection response", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.Logger.Debug("Failed to write inspection response", loggingpkg.LogFields{"error": err.Error()})
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware sets CORS headers for allowed origins and answers preflight
// requests with 204.
func (s *Service) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed := s.getAllowedCORSOrigin(r.Header.Get("Origin")); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if allowed != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getAllowedCORSOrigin returns the Access-Control-Allow-Origin value for the
// request origin, or "" when it is not allowed.
func (s *Service) getAllowedCORSOrigin(requestOrigin string) string {
	if s.Conf == nil {
		return ""
	}
	for _, allowed := range s.Conf.InspectCORSAllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if requestOrigin != "" && strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
