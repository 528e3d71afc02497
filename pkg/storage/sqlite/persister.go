// Package sqlite persists the client chat store between runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dskvich/memi-chat/pkg/domain"
	"github.com/dskvich/memi-chat/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT NOT NULL,
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (chat_id, id)
);`

type Persister struct {
	db *sql.DB
}

// NewPersister opens or creates the database at path.
func NewPersister(path string) (*Persister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Persister{db: db}, nil
}

func (p *Persister) Close() error {
	return p.db.Close()
}

// Save replaces the persisted state with snap.
func (p *Persister) Save(ctx context.Context, snap store.Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats`); err != nil {
		return fmt.Errorf("clearing chats: %w", err)
	}

	for i, c := range snap.Chats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chats (id, title, created_at, position) VALUES (?, ?, ?, ?)`,
			c.ID, c.Title, formatTime(c.CreatedAt), i,
		); err != nil {
			return fmt.Errorf("saving chat %s: %w", c.ID, err)
		}

		for j, m := range snap.Messages[c.ID] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (id, chat_id, role, text, created_at, position) VALUES (?, ?, ?, ?, ?, ?)`,
				m.ID, c.ID, string(m.Role), m.Text, formatTime(m.CreatedAt), j,
			); err != nil {
				return fmt.Errorf("saving message %s: %w", m.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Load reads the persisted state. An empty database yields an empty snapshot.
func (p *Persister) Load(ctx context.Context) (store.Snapshot, error) {
	snap := store.Snapshot{Messages: make(map[string][]domain.Message)}

	rows, err := p.db.QueryContext(ctx, `SELECT id, title, created_at FROM chats ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Chat
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Title, &createdAt); err != nil {
			return snap, fmt.Errorf("scanning chat: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return snap, err
		}
		snap.Chats = append(snap.Chats, c)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterating chats: %w", err)
	}

	msgRows, err := p.db.QueryContext(ctx, `SELECT id, chat_id, role, text, created_at FROM messages ORDER BY chat_id, position`)
	if err != nil {
		return snap, fmt.Errorf("querying messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var m domain.Message
		var role, createdAt string
		if err := msgRows.Scan(&m.ID, &m.ChatID, &role, &m.Text, &createdAt); err != nil {
			return snap, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = domain.Role(role)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return snap, err
		}
		snap.Messages[m.ChatID] = append(snap.Messages[m.ChatID], m)
	}
	if err := msgRows.Err(); err != nil {
		return snap, fmt.Errorf("iterating messages: %w", err)
	}

	return snap, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
