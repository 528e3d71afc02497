package services

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type fakeProvider struct {
	mu sync.Mutex

	chunks    []string
	streamErr error
	replies   []string
	genErr    error

	requests []domain.ModelRequest
}

func (f *fakeProvider) StreamText(_ context.Context, req domain.ModelRequest) iter.Seq2[string, error] {
	f.record(req)
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield("", f.streamErr)
		}
	}
}

func (f *fakeProvider) GenerateText(_ context.Context, req domain.ModelRequest) (string, error) {
	f.record(req)
	if f.genErr != nil {
		return "", f.genErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeProvider) record(req domain.ModelRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

func (f *fakeProvider) lastRequest() domain.ModelRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type memRepo struct {
	mu sync.Mutex

	chats    map[string]domain.Chat
	owners   map[string]int64
	messages []domain.Message
	memories map[int64]domain.UserMemory
	saveErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		chats:    make(map[string]domain.Chat),
		owners:   make(map[string]int64),
		memories: make(map[int64]domain.UserMemory),
	}
}

func (r *memRepo) Create(_ context.Context, userID int64, chat domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = chat
	r.owners[chat.ID] = userID
	return nil
}

func (r *memRepo) UpdateTitle(_ context.Context, chatID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat := r.chats[chatID]
	chat.Title = title
	r.chats[chatID] = chat
	return nil
}

func (r *memRepo) GetByID(_ context.Context, userID int64, chatID string) (domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok || r.owners[chatID] != userID {
		return domain.Chat{}, domain.ErrNotFound
	}
	return chat, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID int64) ([]domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Chat
	for id, c := range r.chats {
		if r.owners[id] == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, userID int64, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[chatID] == userID {
		delete(r.chats, chatID)
	}
	return nil
}

func (r *memRepo) Save(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *memRepo) AppendText(_ context.Context, messageID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == messageID {
			r.messages[i].Text += text
		}
	}
	return nil
}

func (r *memRepo) ListByChat(_ context.Context, chatID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) message(id string) domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m
		}
	}
	return domain.Message{}
}

// memoryRepo adapts memRepo to MemoryRepository, whose Save differs.
type memoryRepo struct {
	*memRepo
}

func (r memoryRepo) GetByUserID(_ context.Context, userID int64) (domain.UserMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mem, ok := r.memories[userID]
	if !ok {
		return domain.UserMemory{}, domain.ErrNotFound
	}
	return mem, nil
}

func (r memoryRepo) Save(_ context.Context, userID int64, memory string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories[userID] = domain.UserMemory{UserID: userID, Memory: memory, UpdatedAt: time.Now()}
	return nil
}

type collector struct {
	events []string
}

func (c *collector) emit(data string) error {
	c.events = append(c.events, data)
	return nil
}
