package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/svgpro/svgpro/internal/chat"
	"github.com/svgpro/svgpro/internal/config"
	"github.com/svgpro/svgpro/internal/dispatch"
	"github.com/svgpro/svgpro/internal/editor"
	"github.com/svgpro/svgpro/internal/provider"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no write timeout, SSE connections stay open
	}
}

// Server is the HTTP server.
type Server struct {
	config    *Config
	appConfig *config.Config
	router    *chi.Mux
	httpSrv   *http.Server

	sessions *chat.Service
	registry *provider.Registry
	editor   *editor.Editor

	mu          sync.Mutex
	controllers map[string]*chat.Controller
}

// New creates a Server over the given subsystems.
func New(cfg *Config, appCfg *config.Config, sessions *chat.Service, registry *provider.Registry, ed *editor.Editor) *Server {
	s := &Server{
		config:      cfg,
		appConfig:   appCfg,
		router:      chi.NewRouter(),
		sessions:    sessions,
		registry:    registry,
		editor:      ed,
		controllers: make(map[string]*chat.Controller),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// controllerFor returns the session's retry controller, creating it on first
// use. One controller per session keeps the one-cycle-per-session guarantee.
func (s *Server) controllerFor(sess *chat.Session) (*chat.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.controllers[sess.ID()]; ok {
		return c, nil
	}

	prov, err := s.registry.Get(s.appConfig.Provider)
	if err != nil {
		return nil, err
	}

	agent := chat.NewAgent(sess, chat.ModelConfig{
		Model:            s.appConfig.Model,
		Temperature:      s.appConfig.Temperature,
		TopP:             s.appConfig.TopP,
		MaxTokens:        s.appConfig.MaxTokens,
		FrequencyPenalty: s.appConfig.FrequencyPenalty,
		PresencePenalty:  s.appConfig.PresencePenalty,
		ContextWindow:    s.appConfig.ContextWindow,
	})
	c := chat.NewController(agent, dispatch.New(prov), s.editor, s.appConfig.MaxAttempts)
	s.controllers[sess.ID()] = c
	return c, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
