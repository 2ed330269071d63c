package event

// SessionData accompanies session.created and session.updated.
type SessionData struct {
	SessionID string `json:"sessionID"`
}

// MessageData accompanies message.created. Steering messages injected by the
// retry controller are not published with this event type.
type MessageData struct {
	SessionID string  `json:"sessionID"`
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// ChatStateData accompanies chat.state.changed.
type ChatStateData struct {
	SessionID string `json:"sessionID"`
	From      string `json:"from"`
	To        string `json:"to"`
	Attempt   int    `json:"attempt"`
	Reason    string `json:"reason,omitempty"`
}

// ChatRetryData accompanies chat.retry.
type ChatRetryData struct {
	SessionID   string `json:"sessionID"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"maxAttempts"`
	Reason      string `json:"reason"`
}

// ChatAcceptedData accompanies chat.accepted.
type ChatAcceptedData struct {
	SessionID string `json:"sessionID"`
	Markup    string `json:"markup"`
}

// ChatFailedData accompanies chat.failed.
type ChatFailedData struct {
	SessionID string `json:"sessionID"`
	Attempts  int    `json:"attempts"`
	Reason    string `json:"reason"`
}

// DocumentData accompanies document.updated.
type DocumentData struct {
	Revision  int    `json:"revision"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Source    string `json:"source"` // "assistant" | "manual" | "file"
}

// FileEditedData accompanies file.edited.
type FileEditedData struct {
	File string `json:"file"`
}
