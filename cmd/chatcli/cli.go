package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/dskvich/memi-chat/pkg/chat"
	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/logger"
	"github.com/dskvich/memi-chat/pkg/store"
)

type AgentAPI interface {
	GetAgents(ctx context.Context) ([]domain.Agent, error)
}

type command struct {
	name string
	arg  string
}

// parseCommand splits "/name arg". ok is false for plain prompts.
func parseCommand(line string) (cmd command, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

// selectAgents picks agents by name, case insensitive, in the order given.
func selectAgents(all []domain.Agent, names []string) (selected []domain.Agent, missing []string) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		agent, ok := lo.Find(all, func(a domain.Agent) bool { return strings.EqualFold(a.Name, name) })
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, agent)
	}
	return selected, missing
}

type cli struct {
	out    io.Writer
	chats  *store.ChatStore
	agents *store.AgentStore
	api    AgentAPI
	svc    *chat.Service

	mu      sync.Mutex
	current string
}

func newCLI(out io.Writer, chats *store.ChatStore, agents *store.AgentStore, api AgentAPI) *cli {
	return &cli{out: out, chats: chats, agents: agents, api: api}
}

// Navigate switches to chatID.
func (c *cli) Navigate(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = chatID
}

func (c *cli) CurrentChat() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *cli) abortCurrent() bool {
	chatID := c.CurrentChat()
	if chatID == "" || !c.chats.IsStreaming(chatID) {
		return false
	}
	c.svc.AbortStream(chatID)
	return true
}

func (c *cli) sync(ctx context.Context) {
	if err := c.svc.RefreshChats(ctx); err != nil {
		slog.WarnContext(ctx, "Refreshing chats failed", logger.Err(err))
	}
	agents, err := c.api.GetAgents(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Fetching agents failed", logger.Err(err))
		return
	}
	c.agents.SetAgents(agents)
}

func (c *cli) loop(ctx context.Context, lines <-chan string) error {
	fmt.Fprintln(c.out, "Type a message, or /help.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.handleLine(ctx, line); quit {
				return nil
			}
		}
	}
}

func (c *cli) handleLine(ctx context.Context, line string) (quit bool) {
	cmd, ok := parseCommand(line)
	if !ok {
		c.send(ctx, line)
		return false
	}

	switch cmd.name {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(c.out, "/new  /chats  /open N  /delete  /agents [a,b]  /talkmore on|off  /ai LABEL  /quit")
	case "new":
		c.Navigate("")
		fmt.Fprintln(c.out, "Started a new chat.")
	case "chats":
		c.listChats()
	case "open":
		c.openChat(ctx, cmd.arg)
	case "delete":
		c.deleteChat(ctx)
	case "agents":
		c.selectAgents(cmd.arg)
	case "talkmore":
		c.agents.SetTalkMore(cmd.arg != "off")
		fmt.Fprintf(c.out, "Talk more: %t\n", c.agents.TalkMore())
	case "ai":
		if cmd.arg != "" {
			c.agents.SetSelectedAI(cmd.arg)
		}
		fmt.Fprintf(c.out, "AI: %s\n", c.agents.SelectedAI())
	default:
		fmt.Fprintf(c.out, "Unknown command /%s\n", cmd.name)
	}
	return false
}

func (c *cli) send(ctx context.Context, text string) {
	chatID, err := c.svc.HandleSendMessage(ctx, c.CurrentChat(), text)
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt):
	case errors.Is(err, domain.ErrAlreadyStreaming):
		fmt.Fprintln(c.out, "Still answering, wait or press Ctrl-C.")
	case err != nil:
		fmt.Fprintf(c.out, "Sending failed: %v\n", err)
	default:
		c.Navigate(chatID)
	}
}

func (c *cli) listChats() {
	chats := c.chats.Chats()
	if len(chats) == 0 {
		fmt.Fprintln(c.out, "No chats yet.")
		return
	}
	current := c.CurrentChat()
	for i, ch := range chats {
		marker := " "
		if ch.ID == current {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %d. %s\n", marker, i+1, ch.Title)
	}
}

func (c *cli) openChat(ctx context.Context, arg string) {
	chats := c.chats.Chats()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(chats) {
		fmt.Fprintln(c.out, "Usage: /open N, see /chats")
		return
	}

	chatID := chats[n-1].ID
	c.Navigate(chatID)
	if err := c.svc.LoadMessages(ctx, chatID); err != nil {
		slog.WarnContext(ctx, "Loading messages failed", "chatID", chatID, logger.Err(err))
	}
	for _, m := range c.chats.Messages(chatID) {
		fmt.Fprintf(c.out, "%s> %s\n", m.Role, m.Text)
	}
}

func (c *cli) deleteChat(ctx context.Context) {
	chatID := c.CurrentChat()
	if chatID == "" {
		fmt.Fprintln(c.out, "No chat open.")
		return
	}
	if err := c.svc.DeleteChat(ctx, chatID); err != nil {
		fmt.Fprintf(c.out, "Deleting failed: %v\n", err)
		return
	}
	c.Navigate("")
	fmt.Fprintln(c.out, "Chat deleted.")
}

func (c *cli) selectAgents(arg string) {
	all := c.agents.Agents()
	if arg == "" {
		for _, a := range all {
			fmt.Fprintf(c.out, "- %s: %s\n", a.Name, a.Description)
		}
		selected := lo.Map(c.agents.SelectedAgents(), func(a domain.Agent, _ int) string { return a.Name })
		fmt.Fprintf(c.out, "Selected: %s\n", strings.Join(selected, ", "))
		return
	}

	if arg == "none" {
		c.agents.SetSelectedAgents(nil)
		fmt.Fprintln(c.out, "Group chat off.")
		return
	}

	selected, missing := selectAgents(all, strings.Split(arg, ","))
	if len(missing) > 0 {
		fmt.Fprintf(c.out, "Unknown agents: %s\n", strings.Join(missing, ", "))
		return
	}
	c.agents.SetSelectedAgents(selected)
	fmt.Fprintf(c.out, "Selected %d agents.\n", len(selected))
}
