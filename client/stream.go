package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrStreamClosed is returned by Recv after Close.
var ErrStreamClosed = errors.New("stream closed")

const dataPrefix = "data: "

// Stream reads content fragments from a server-sent event body.
type Stream struct {
	body   io.ReadCloser
	r      *bufio.Reader
	logger *zap.Logger

	closeOnce sync.Once
	closed    bool
	done      bool
}

func newStream(body io.ReadCloser, logger *zap.Logger) *Stream {
	return &Stream{
		body:   body,
		r:      bufio.NewReaderSize(body, 64*1024),
		logger: logger,
	}
}

// Recv returns the next non-empty content fragment. It returns io.EOF once
// the server sends [DONE] or closes the body.
func (s *Stream) Recv() (string, error) {
	if s.closed {
		return "", ErrStreamClosed
	}
	for !s.done {
		line, err := s.r.ReadString('\n')
		if err != nil {
			// An unterminated trailing line is never a complete event.
			s.done = true
			if errors.Is(err, io.EOF) {
				break
			}
			return "", &UpstreamError{Op: "stream", Err: err}
		}

		fragment, ok := s.parseLine(line)
		if ok {
			return fragment, nil
		}
	}
	return "", io.EOF
}

func (s *Stream) parseLine(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line == "" || !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}

	data := strings.TrimSpace(line[len(dataPrefix):])
	if data == "[DONE]" {
		s.done = true
		return "", false
	}

	var chunk chatCompletionChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		s.logger.Debug("skipping malformed stream event", zap.String("data", truncate(data, 120)), zap.Error(err))
		return "", false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

// Fragments iterates fragments until the end of the stream. A non-EOF
// error is yielded once as the final element.
func (s *Stream) Fragments() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			fragment, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// Close releases the underlying connection. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		err = s.body.Close()
	})
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
