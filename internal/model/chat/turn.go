package chat

// Role tags the speaker of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of the conversation, immutable once appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
