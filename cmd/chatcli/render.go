package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/store"
)

// renderer prints store events of the open chat as they happen.
type renderer struct {
	mu      sync.Mutex
	out     io.Writer
	chats   *store.ChatStore
	current func() string

	typing *color.Color
	notice *color.Color
}

func newRenderer(out io.Writer, chats *store.ChatStore, current func() string) *renderer {
	return &renderer{
		out:     out,
		chats:   chats,
		current: current,
		typing:  color.New(color.Faint, color.Italic),
		notice:  color.New(color.FgYellow),
	}
}

func (r *renderer) handle(e store.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Kind == store.EventTyping {
		if e.Text != "" && e.Text != domain.TypingSmile {
			r.typing.Fprintf(r.out, "\n(%s)\n", e.Text)
		}
		return
	}

	// The first answer of a new chat is added before navigation switches to it.
	current := r.current()
	if e.ChatID != current && !(current == "" && e.Kind == store.EventMessageAdded) {
		return
	}

	switch e.Kind {
	case store.EventMessageAdded:
		msg, ok := r.chats.Message(e.ChatID, e.MessageID)
		if !ok || msg.Role != domain.RoleSystem {
			return
		}
		fmt.Fprint(r.out, "\n» ")
		fmt.Fprint(r.out, msg.Text)
	case store.EventMessageAppended:
		fmt.Fprint(r.out, e.Text)
	case store.EventMessageReplaced:
		r.notice.Fprint(r.out, e.Text)
	case store.EventStreaming:
		if !e.Streaming {
			fmt.Fprintln(r.out)
		}
	case store.EventChatTitle:
		r.typing.Fprintf(r.out, "[%s]\n", e.Text)
	}
}
