package domain

import "time"

type UserMemory struct {
	ID        string
	UserID    int64
	Memory    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoMemoryText is used in prompts when nothing is known about the user yet.
const NoMemoryText = "We currently have no memory of the user."
