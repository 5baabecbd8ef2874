package conversation

import (
	"time"

	"github.com/talentscout/intake/internal/question"
)

// Record is the accumulating structured data about one candidate for
// one session. Fields are filled monotonically as the intake advances;
// a new session starts from an empty record.
type Record struct {
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Experience string              `json:"experience"`
	Position   string              `json:"position"`
	Location   string              `json:"location"`
	TechStack  string              `json:"tech_stack"`
	Skills     []string            `json:"skills"`
	Questions  []question.Question `json:"questions"`
	Answers    map[string]string   `json:"answers"`

	// Saved is the persistence status of the final write: nil until
	// completion, then success or failure. It only affects the wording
	// of the farewell message.
	Saved *bool `json:"-"`
}

// NewRecord returns an empty record ready to be filled by a session.
func NewRecord() *Record {
	return &Record{Answers: make(map[string]string)}
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry, persisted with every audit write.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}
