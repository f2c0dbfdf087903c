package models

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationMessage is a single entry in a chat session. Messages are only
// ever appended, so insertion order is display order.
type ConversationMessage struct {
	ID             string    `json:"id" msgpack:"id"`
	Role           Role      `json:"role" msgpack:"role"`
	Text           string    `json:"text" msgpack:"text"`
	CreatedAt      time.Time `json:"createdAt" msgpack:"createdAt"`
	FileIDs        []string  `json:"fileIds,omitempty" msgpack:"fileIds,omitempty"`
	ProjectContext string    `json:"projectContext,omitempty" msgpack:"projectContext,omitempty"`
	FileContext    string    `json:"fileContext,omitempty" msgpack:"fileContext,omitempty"`
}

// MessageView is a message with its file references resolved to the current
// tracked state.
type MessageView struct {
	ConversationMessage
	Files []TrackedFile `json:"files,omitempty" msgpack:"files,omitempty"`
}
