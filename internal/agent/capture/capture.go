package capture

import (
	"log/slog"
	"strings"
)

// Node is one element of the UI tree an event originated from. Text may fail
// per node (the element can vanish between the event and the read).
type Node interface {
	Text() (string, error)
	Children() []Node
}

// Event is one text-change notification from the OS layer.
type Event struct {
	// Texts is the event's own text payload.
	Texts []string
	// Description is the event's auxiliary description field.
	Description string
	// Source is the originating UI node, nil when unavailable.
	Source Node
}

// Source is an inbound feed of capture events. The monitor is the sole
// consumer, which keeps OS specifics out of the matching path.
type Source interface {
	Events() <-chan Event
}

// Extract collects every candidate string from an event: the payload texts,
// the description, and a depth-first walk over the source node and all of its
// descendants. A node whose text read fails is skipped without aborting its
// siblings. Whitespace-only strings are dropped and duplicates collapsed,
// preserving first-seen order.
func Extract(ev Event) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}

	for _, text := range ev.Texts {
		add(text)
	}
	add(ev.Description)

	if ev.Source != nil {
		walk(ev.Source, add)
	}

	return out
}

func walk(node Node, add func(string)) {
	text, err := node.Text()
	if err != nil {
		slog.Debug("failed to read node text", "error", err)
	} else {
		add(text)
	}

	for _, child := range node.Children() {
		if child == nil {
			continue
		}
		walk(child, add)
	}
}
