package chat

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Session is an ordered transcript of messages plus an optional system
// directive. It is mutated only by appending messages or replacing the
// directive; the transcript itself is never rewritten.
type Session struct {
	id string

	mu           sync.RWMutex
	systemPrompt string
	messages     []Message
}

// NewSession creates an empty session. An empty id gets a fresh ULID.
func NewSession(id string) *Session {
	if id == "" {
		id = ulid.Make().String()
	}
	return &Session{id: id}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append adds a message to the end of the transcript. Content is not
// validated; steering and user messages go through the same path.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// SetSystemPrompt replaces the directive used for future context windows.
// Already-stored messages are untouched.
func (s *Session) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemPrompt = prompt
}

// SystemPrompt returns the current directive, empty when unset.
func (s *Session) SystemPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemPrompt
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the transcript length.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// ContextWindow returns the directive (when set) followed by the last max
// messages of the transcript, oldest first. Read-only.
func (s *Session) ContextWindow(max int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var window []Message
	if s.systemPrompt != "" {
		window = append(window, Message{
			Role:    RoleSystem,
			Content: s.systemPrompt,
		})
	}

	start := 0
	if max >= 0 && len(s.messages) > max {
		start = len(s.messages) - max
	}
	window = append(window, s.messages[start:]...)
	return window
}

// Snapshot captures the session as a persistable record.
func (s *Session) Snapshot() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := &Record{
		SessionID: s.id,
		Messages:  make([]Message, len(s.messages)),
	}
	copy(rec.Messages, s.messages)
	if s.systemPrompt != "" {
		prompt := s.systemPrompt
		rec.SystemPrompt = &prompt
	}
	return rec
}

// NewSessionFromRecord builds a session from a decoded record.
func NewSessionFromRecord(rec *Record) *Session {
	s := NewSession(rec.SessionID)
	if rec.SystemPrompt != nil {
		s.systemPrompt = *rec.SystemPrompt
	}
	s.messages = make([]Message, len(rec.Messages))
	copy(s.messages, rec.Messages)
	return s
}
