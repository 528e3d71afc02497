// Package sse decodes and encodes the server-sent event framing used by the
// chat streaming endpoints: events separated by a blank line, each carrying
// one or more "data: " lines.
package sse

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix     = "data: "
	readBufferSize = 4096
)

var eventDelimiter = []byte("\n\n")

// Decoder turns an incrementally delivered byte stream into event payloads.
// It is not safe for concurrent use and cannot be restarted.
type Decoder struct {
	r       io.Reader
	buf     []byte
	chunk   []byte
	pending []string
	eof     bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:     r,
		chunk: make([]byte, readBufferSize),
	}
}

// Next returns the next payload in arrival order. It returns io.EOF after the
// stream has ended and any buffered trailing event has been emitted.
func (d *Decoder) Next() (string, error) {
	for len(d.pending) == 0 {
		if d.eof {
			return "", io.EOF
		}
		if err := d.fill(); err != nil {
			return "", err
		}
	}

	payload := d.pending[0]
	d.pending = d.pending[1:]
	return payload, nil
}

func (d *Decoder) fill() error {
	n, err := d.r.Read(d.chunk)
	if n > 0 {
		d.buf = append(d.buf, d.chunk[:n]...)
		d.cutEvents()
	}

	switch {
	case errors.Is(err, io.EOF):
		d.eof = true
		d.flush()
		return nil
	case err != nil:
		return err
	}
	return nil
}

// cutEvents moves every complete event out of the buffer. The bytes after the
// last delimiter stay buffered; multi-byte runes are only converted to string
// once their event is complete.
func (d *Decoder) cutEvents() {
	for {
		idx := bytes.Index(d.buf, eventDelimiter)
		if idx < 0 {
			return
		}
		event := string(d.buf[:idx])
		d.buf = d.buf[idx+len(eventDelimiter):]

		if payload, ok := ParseEvent(event); ok {
			d.pending = append(d.pending, payload)
		}
	}
}

func (d *Decoder) flush() {
	rest := string(d.buf)
	d.buf = nil
	if strings.TrimSpace(rest) == "" {
		return
	}
	if payload, ok := ParseEvent(rest); ok {
		d.pending = append(d.pending, payload)
	}
}

// ParseEvent extracts the payload of a single event. Multiple data lines are
// joined with "\n". ok is false when the event carries no data line.
func ParseEvent(event string) (payload string, ok bool) {
	var data []string
	for _, line := range strings.Split(event, "\n") {
		if strings.HasPrefix(line, dataPrefix) {
			data = append(data, strings.TrimPrefix(line, dataPrefix))
		}
	}
	if len(data) == 0 {
		return "", false
	}
	return strings.Join(data, "\n"), true
}
