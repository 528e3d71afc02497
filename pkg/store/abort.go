package store

import (
	"context"
	"sync"
)

// Token is the cancellation handle of one stream session. Every suspending
// call of the session runs under Context().
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

func (t *Token) Context() context.Context { return t.ctx }

func (t *Token) Abort() { t.cancel() }

// Aborted reports whether the token was aborted or its parent was cancelled.
func (t *Token) Aborted() bool { return t.ctx.Err() != nil }

// AbortRegistry tracks the live token of each chat.
type AbortRegistry struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func NewAbortRegistry() *AbortRegistry {
	return &AbortRegistry{tokens: make(map[string]*Token)}
}

// Set registers token for chatID. A token still registered for the chat is
// aborted first, so at most one stays live.
func (r *AbortRegistry) Set(chatID string, token *Token) {
	r.mu.Lock()
	prev, ok := r.tokens[chatID]
	r.tokens[chatID] = token
	r.mu.Unlock()

	if ok && prev != token {
		prev.Abort()
	}
}

func (r *AbortRegistry) Get(chatID string) (*Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[chatID]
	return token, ok
}

func (r *AbortRegistry) Remove(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, chatID)
}

// RemoveIf removes the chat's token only if it is still token and reports
// whether it did.
func (r *AbortRegistry) RemoveIf(chatID string, token *Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tokens[chatID] != token {
		return false
	}
	delete(r.tokens, chatID)
	return true
}

func (r *AbortRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tokens)
}
