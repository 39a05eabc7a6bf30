package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "bot"
)

// Kind distinguishes plain text replies from restaurant card replies.
type Kind string

const (
	KindText Kind = "text"
	KindCard Kind = "card"
)

// Message is a single conversation turn. Immutable once stored; the JSON
// field names match the payloads the web widget consumes.
type Message struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"sessionId,omitempty"`
	Role         Role         `json:"type"`
	Content      string       `json:"content"`
	Kind         Kind         `json:"message_type"`
	Cards        []Card       `json:"cards,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
	CreatedAt    time.Time    `json:"timestamp"`
}

// QuickReply is a suggested follow-up the user can tap instead of typing.
type QuickReply struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}
