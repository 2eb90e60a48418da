package chat

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
