package server

import (
	"net/http"
)

// getConfig answers with the effective runtime configuration.
func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.appConfig)
}
