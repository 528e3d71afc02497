package domain

import "time"

// NewChatTitle is the placeholder title of a chat until a generated one is available.
const NewChatTitle = "New Chat"

type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
	RoleModel  Role = "model"
)

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
