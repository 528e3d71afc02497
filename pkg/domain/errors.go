package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrAlreadyStreaming = errors.New("chat is already streaming")
	ErrInvalidRequest   = errors.New("invalid request")
)
