package chat

import "time"

// Session captures a transient single-user counseling conversation.
type Session struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}
