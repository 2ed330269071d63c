package testutil

import (
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/svgpro/svgpro/internal/chat"
	"github.com/svgpro/svgpro/internal/config"
	"github.com/svgpro/svgpro/internal/editor"
	"github.com/svgpro/svgpro/internal/provider"
	"github.com/svgpro/svgpro/internal/server"
	"github.com/svgpro/svgpro/internal/storage"
)

// TestServer runs the full HTTP API in-process against a mock provider and a
// throwaway workspace.
type TestServer struct {
	BaseURL string

	LLM      *MockLLM
	Editor   *editor.Editor
	Sessions *chat.Service

	httpSrv *httptest.Server
	workDir string
}

// StartTestServer boots a server over a fresh temp workspace.
func StartTestServer() (*TestServer, error) {
	workDir, err := os.MkdirTemp("", "svgpro-citest-*")
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	cfg.Provider = "mockllm"
	cfg.Document = filepath.Join(workDir, "canvas.svg")

	store := storage.New(filepath.Join(workDir, "storage"))
	sessions := chat.NewService(store)

	ed, err := editor.New(cfg.Document, store)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	llm := NewMockLLM()
	registry := provider.NewRegistry()
	registry.Register(llm)

	srv := server.New(server.DefaultConfig(), cfg, sessions, registry, ed)
	httpSrv := httptest.NewServer(srv.Router())

	return &TestServer{
		BaseURL:  httpSrv.URL,
		LLM:      llm,
		Editor:   ed,
		Sessions: sessions,
		httpSrv:  httpSrv,
		workDir:  workDir,
	}, nil
}

// Client returns a TestClient against this server.
func (s *TestServer) Client() *TestClient {
	return NewTestClient(s.BaseURL)
}

// Stop shuts the server down and removes the workspace.
func (s *TestServer) Stop() {
	s.httpSrv.Close()
	os.RemoveAll(s.workDir)
}
