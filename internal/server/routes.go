package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Session routes
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Post("/import", s.importSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)

			r.Get("/message", s.getMessages)
			r.Post("/message", s.sendMessage)

			r.Put("/system", s.setSystemPrompt)
			r.Get("/export", s.exportSession)
		})
	})

	// Document routes
	r.Route("/document", func(r chi.Router) {
		r.Get("/", s.getDocument)
		r.Put("/", s.setDocument)
		r.Post("/format", s.formatDocument)
	})

	// Event streaming (SSE)
	r.Get("/event", s.events)

	// Configuration
	r.Get("/config", s.getConfig)
}
