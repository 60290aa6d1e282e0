package capture

import (
	"bufio"
	"io"
	"log/slog"
)

// ReaderSource adapts a line stream into capture events, one event per line.
// This is the boundary a platform hook plugs into: anything that can write
// observed text to a pipe becomes an event feed.
type ReaderSource struct {
	events chan Event
}

func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{events: make(chan Event)}

	go func() {
		defer close(s.events)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			s.events <- Event{Texts: []string{scanner.Text()}}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("event source read failed", "error", err)
		}
	}()

	return s
}

func (s *ReaderSource) Events() <-chan Event {
	return s.events
}
