package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader delivers the stream in the given pieces, one per Read.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func splitAt(s string, cuts ...int) *chunkReader {
	b := []byte(s)
	var chunks [][]byte
	prev := 0
	for _, c := range cuts {
		chunks = append(chunks, b[prev:c])
		prev = c
	}
	chunks = append(chunks, b[prev:])
	return &chunkReader{chunks: chunks}
}

func readAll(t *testing.T, d *Decoder) []string {
	t.Helper()
	var out []string
	for {
		payload, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, payload)
	}
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []string
	}{
		{
			name:   "single events",
			stream: "data: Hel\n\ndata: lo\n\n",
			want:   []string{"Hel", "lo"},
		},
		{
			name:   "multi line payload",
			stream: "data: first\ndata: second\n\ndata: third\n\n",
			want:   []string{"first\nsecond", "third"},
		},
		{
			name:   "non data lines are ignored",
			stream: "event: message\nid: 1\ndata: hi\n\n: keep-alive\n\n",
			want:   []string{"hi"},
		},
		{
			name:   "trailing event without delimiter is flushed",
			stream: "data: a\n\ndata: b",
			want:   []string{"a", "b"},
		},
		{
			name:   "blank tail is dropped",
			stream: "data: a\n\n\n  ",
			want:   []string{"a"},
		},
		{
			name:   "empty data line",
			stream: "data: \n\n",
			want:   []string{""},
		},
		{
			name:   "markdown image with surrounding newlines",
			stream: "data: \ndata: ![image](https://x/y.webp)\ndata: \n\n",
			want:   []string{"\n![image](https://x/y.webp)\n"},
		},
		{
			name:   "empty stream",
			stream: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, NewDecoder(strings.NewReader(tt.stream)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecoderChunkBoundaries(t *testing.T) {
	stream := "data: héllo\n\ndata: 世界\ndata: 🙂 ok\n\ndata: tail"
	want := readAll(t, NewDecoder(strings.NewReader(stream)))
	require.Equal(t, []string{"héllo", "世界\n🙂 ok", "tail"}, want)

	t.Run("one byte at a time", func(t *testing.T) {
		got := readAll(t, NewDecoder(iotest.OneByteReader(strings.NewReader(stream))))
		assert.Equal(t, want, got)
	})

	t.Run("every pair of cut points", func(t *testing.T) {
		n := len(stream)
		for i := 1; i < n; i++ {
			for j := i; j < n; j++ {
				got := readAll(t, NewDecoder(splitAt(stream, i, j)))
				if !assert.Equal(t, want, got, "cuts at %d,%d", i, j) {
					return
				}
			}
		}
	})
}

func TestDecoderPreservesArrivalOrder(t *testing.T) {
	var b strings.Builder
	var want []string
	for i := 0; i < 500; i++ {
		payload := strings.Repeat(string(rune('a'+i%26)), i%7+1)
		want = append(want, payload)
		b.WriteString("data: " + payload + "\n\n")
	}

	got := readAll(t, NewDecoder(iotest.HalfReader(strings.NewReader(b.String()))))
	assert.Equal(t, want, got)
}

func TestDecoderReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: a\n\n"), iotest.ErrReader(boom))
	d := NewDecoder(r)

	payload, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", payload)

	_, err = d.Next()
	assert.ErrorIs(t, err, boom)
}

func TestParseEvent(t *testing.T) {
	payload, ok := ParseEvent("data: x\ndata: y")
	assert.True(t, ok)
	assert.Equal(t, "x\ny", payload)

	_, ok = ParseEvent("retry: 1000")
	assert.False(t, ok)
}
