package sse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrStreamingUnsupported = errors.New("response writer does not support flushing")

// Writer emits events on an HTTP response and flushes after each one.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// WriteEvent writes data as one event, one "data: " line per payload line.
func (s *Writer) WriteEvent(data string) error {
	var b strings.Builder
	for _, line := range strings.Split(data, "\n") {
		b.WriteString(dataPrefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := fmt.Fprint(s.w, b.String()); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
