package chat

import "time"

// LogRecord mirrors one turn into the flat export log. Records are only
// ever written and serialized; they are never read back into the transcript.
type LogRecord struct {
	SessionID string    `json:"sessionId"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
}
