package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
)

const readChunkSize = 4 << 10

type variant int

const (
	variantUnknown variant = iota
	variantEvents
	variantArray
)

// Stream reads events from an analysis response body. It is not safe for
// concurrent use.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	variant variant
	head    []byte
	buf     []byte
	dec     Decoder
	queue   []Event
	err     error
	closed  bool
}

// NewStream wraps a response body. contentType selects the non-streaming
// variant when it is application/json; otherwise the first non-space byte of
// the body decides.
func NewStream(ctx context.Context, body io.ReadCloser, contentType string) *Stream {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Stream{ctx: ctx, body: body, buf: make([]byte, readChunkSize)}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		s.variant = variantArray
	}
	return s
}

// Next returns the next event. After the terminal event it returns io.EOF.
// A stream that ends without a terminal event returns ErrStreamIncomplete.
func (s *Stream) Next() (Event, error) {
	for {
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			return ev, nil
		}
		if s.err != nil {
			return Event{}, s.err
		}
		s.fill()
	}
}

// Results drains the stream, reporting each progress event to onProgress,
// and returns the terminal result set.
func (s *Stream) Results(onProgress func(Progress)) ([]Result, error) {
	defer s.Close()
	for {
		ev, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrStreamIncomplete
			}
			return nil, err
		}
		switch ev.Kind {
		case EventProgress:
			if onProgress != nil {
				onProgress(ev.Progress)
			}
		case EventResults:
			return ev.Results, nil
		}
	}
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func (s *Stream) fill() {
	if s.variant == variantArray {
		s.readArray()
		return
	}

	n, err := s.body.Read(s.buf)
	if n > 0 {
		chunk := s.buf[:n]
		if s.variant == variantUnknown {
			s.head = append(s.head, chunk...)
			trimmed := bytes.TrimLeft(s.head, " \t\r\n")
			if len(trimmed) == 0 && err == nil {
				return
			}
			if len(trimmed) > 0 && trimmed[0] == '[' {
				s.variant = variantArray
				if err != nil {
					s.finishArray(err)
				}
				return
			}
			s.variant = variantEvents
			chunk = s.head
			s.head = nil
		}
		events, derr := s.dec.Feed(chunk)
		s.queue = append(s.queue, events...)
		if derr != nil {
			s.fail(derr)
			return
		}
		if s.dec.Done() {
			s.finish()
			return
		}
	}
	if err == nil {
		return
	}
	if errors.Is(err, io.EOF) {
		events, ferr := s.dec.Flush()
		s.queue = append(s.queue, events...)
		switch {
		case ferr != nil:
			s.fail(ferr)
		case s.dec.Done():
			s.finish()
		default:
			s.fail(ErrStreamIncomplete)
		}
		return
	}
	s.fail(s.readError(err))
}

func (s *Stream) readArray() {
	rest, err := io.ReadAll(s.body)
	s.head = append(s.head, rest...)
	if err != nil {
		s.fail(s.readError(err))
		return
	}
	s.finishArray(io.EOF)
}

func (s *Stream) finishArray(readErr error) {
	if !errors.Is(readErr, io.EOF) {
		s.fail(s.readError(readErr))
		return
	}
	if len(strings.TrimSpace(string(s.head))) == 0 {
		s.fail(ErrStreamIncomplete)
		return
	}
	results, err := DecodeResults(s.head)
	s.head = nil
	if err != nil {
		s.fail(err)
		return
	}
	s.queue = append(s.queue, Event{Kind: EventResults, Results: results})
	s.finish()
}

func (s *Stream) finish() {
	s.err = io.EOF
	_ = s.Close()
}

func (s *Stream) fail(err error) {
	s.err = err
	_ = s.Close()
}

func (s *Stream) readError(err error) error {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &TransportError{Err: fmt.Errorf("read response: %w", err)}
}
