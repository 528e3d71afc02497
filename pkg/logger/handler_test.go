package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	opts := *DefaultOptions
	opts.Level = level
	opts.NoColor = true
	opts.SrcFileMode = Nop
	return slog.New(NewHandler(buf, &opts))
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l *slog.Logger, ctx context.Context)
		contains []string
		empty    bool
	}{
		{
			name: "info with attrs",
			log: func(l *slog.Logger, ctx context.Context) {
				l.InfoContext(ctx, "Streaming message", "chatID", "abc")
			},
			contains: []string{"INFO", "| Streaming message", "chatID=abc"},
		},
		{
			name: "request id from context",
			log: func(l *slog.Logger, _ context.Context) {
				ctx := ContextWithRequestID(context.Background(), "0123456789abcdef")
				l.InfoContext(ctx, "Handling request")
			},
			contains: []string{"01234567 ", "Handling request"},
		},
		{
			name: "error attribute",
			log: func(l *slog.Logger, ctx context.Context) {
				l.ErrorContext(ctx, "Reading stream", Err(errors.New("boom")))
			},
			contains: []string{"ERROR", "err=boom"},
		},
		{
			name: "groups prefix keys",
			log: func(l *slog.Logger, ctx context.Context) {
				l.WithGroup("turn").InfoContext(ctx, "Turn started", "index", 1)
			},
			contains: []string{"turn.index=1"},
		},
		{
			name: "below level is dropped",
			log: func(l *slog.Logger, ctx context.Context) {
				l.DebugContext(ctx, "noise")
			},
			empty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newTestLogger(&buf, slog.LevelInfo), context.Background())

			if tt.empty {
				assert.Empty(t, buf.String())
				return
			}
			for _, c := range tt.contains {
				assert.Contains(t, buf.String(), c)
			}
			assert.NotContains(t, buf.String(), "\u001b[")
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
