package chat

import (
	"encoding/json"
	"fmt"
)

// Record is the persisted session format:
//
//	{"session_id": "...", "system_prompt": "..."|null, "messages": [...]}
//
// A save/restore round trip reproduces an equivalent session.
type Record struct {
	SessionID    string    `json:"session_id"`
	SystemPrompt *string   `json:"system_prompt"`
	Messages     []Message `json:"messages"`
}

// rawRecord mirrors Record with optional fields so decoding can tell a
// missing field from a zero value.
type rawRecord struct {
	SessionID    *string      `json:"session_id"`
	SystemPrompt *string      `json:"system_prompt"`
	Messages     []rawMessage `json:"messages"`
}

type rawMessage struct {
	Role      *string  `json:"role"`
	Content   *string  `json:"content"`
	Timestamp *float64 `json:"timestamp"`
}

// EncodeRecord serializes a record as indented JSON.
func EncodeRecord(rec *Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// DecodeRecord parses and validates a persisted session record. A record
// that is not structurally valid yields a FormatError and no partial state.
func DecodeRecord(data []byte) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("malformed record: %v", err)}
	}

	if raw.SessionID == nil || *raw.SessionID == "" {
		return nil, &FormatError{Reason: "missing session_id"}
	}
	if raw.Messages == nil {
		return nil, &FormatError{Reason: "missing messages"}
	}

	rec := &Record{
		SessionID:    *raw.SessionID,
		SystemPrompt: raw.SystemPrompt,
		Messages:     make([]Message, 0, len(raw.Messages)),
	}

	for i, m := range raw.Messages {
		if m.Role == nil {
			return nil, &FormatError{Reason: fmt.Sprintf("message %d: missing role", i)}
		}
		role := Role(*m.Role)
		if !role.Valid() {
			return nil, &FormatError{Reason: fmt.Sprintf("message %d: unrecognized role %q", i, *m.Role)}
		}
		if m.Content == nil {
			return nil, &FormatError{Reason: fmt.Sprintf("message %d: missing content", i)}
		}
		if m.Timestamp == nil {
			return nil, &FormatError{Reason: fmt.Sprintf("message %d: missing timestamp", i)}
		}
		rec.Messages = append(rec.Messages, Message{
			Role:      role,
			Content:   *m.Content,
			Timestamp: *m.Timestamp,
		})
	}

	return rec, nil
}
