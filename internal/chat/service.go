package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/svgpro/svgpro/internal/event"
	"github.com/svgpro/svgpro/internal/logging"
	"github.com/svgpro/svgpro/internal/storage"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = storage.ErrNotFound

// Service manages the session collection and its persistence.
type Service struct {
	store *storage.Store
	log   zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a session service over the given store.
func NewService(store *storage.Store) *Service {
	return &Service{
		store:    store,
		log:      logging.Component("session"),
		sessions: make(map[string]*Session),
	}
}

// Create makes a new session with the default directive installed, persists
// it, and returns it.
func (s *Service) Create(ctx context.Context) (*Session, error) {
	sess := NewSession("")
	sess.SetSystemPrompt(DefaultSystemPrompt)

	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.log.Info().Str("session", sess.ID()).Msg("session created")
	event.Publish(event.Event{Type: event.SessionCreated, Data: event.SessionData{SessionID: sess.ID()}})
	return sess, nil
}

// Get returns the session with the given id, loading it from the store when
// it is not already in memory.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	var raw json.RawMessage
	if err := s.store.Get(ctx, []string{"session", id}, &raw); err != nil {
		return nil, err
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	sess = NewSessionFromRecord(rec)

	s.mu.Lock()
	// A concurrent load may have won; keep the first instance.
	if existing, ok := s.sessions[id]; ok {
		sess = existing
	} else {
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	return sess, nil
}

// List returns the ids of all persisted sessions, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx, []string{"session"})
}

// Save persists the session's current state.
func (s *Service) Save(ctx context.Context, sess *Session) error {
	if err := s.persist(ctx, sess); err != nil {
		return err
	}
	event.Publish(event.Event{Type: event.SessionUpdated, Data: event.SessionData{SessionID: sess.ID()}})
	return nil
}

// Import loads a session record from an arbitrary file, registers it, and
// persists it into the store. A structurally invalid file yields a
// FormatError and changes nothing.
func (s *Service) Import(ctx context.Context, path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	sess, err := s.ImportRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session", sess.ID()).Str("file", path).Msg("session imported")
	return sess, nil
}

// ImportRecord registers and persists a session built from a decoded record.
func (s *Service) ImportRecord(ctx context.Context, rec *Record) (*Session, error) {
	sess := NewSessionFromRecord(rec)

	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	event.Publish(event.Event{Type: event.SessionCreated, Data: event.SessionData{SessionID: sess.ID()}})
	return sess, nil
}

// Export writes a session record to an arbitrary file.
func (s *Service) Export(ctx context.Context, id, path string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	data, err := EncodeRecord(sess.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	s.log.Info().Str("session", id).Str("file", path).Msg("session exported")
	return nil
}

func (s *Service) persist(ctx context.Context, sess *Session) error {
	if err := s.store.Put(ctx, []string{"session", sess.ID()}, sess.Snapshot()); err != nil {
		return fmt.Errorf("persist session %s: %w", sess.ID(), err)
	}
	return nil
}
