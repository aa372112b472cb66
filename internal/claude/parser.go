package claude

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// defaultBufferSize bounds a single stream-json line. Tool results can carry
// whole files, so it is generous.
const defaultBufferSize = 10 * 1024 * 1024

// Parser turns stream-json output into [Event] values.
type Parser interface {
	// Parse reads until EOF and emits one [Event] per valid line. The
	// channel closes when the reader is exhausted or fails. Blank and
	// malformed lines are skipped.
	Parse(reader io.Reader) <-chan Event
}

// DefaultParser implements [Parser] with a line scanner.
type DefaultParser struct {
	// BufferSize is the longest accepted line in bytes.
	BufferSize int
}

// NewParser creates a [DefaultParser] with a 10MB line limit.
func NewParser() *DefaultParser {
	return &DefaultParser{BufferSize: defaultBufferSize}
}

// Parse implements [Parser].
func (p *DefaultParser) Parse(reader io.Reader) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		bufSize := p.BufferSize
		if bufSize <= 0 {
			bufSize = defaultBufferSize
		}
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), bufSize)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			event, err := ParseSingle(line)
			if err != nil {
				continue
			}
			events <- event
		}
	}()

	return events
}

// ParseSingle parses one stream-json line. Unlike [Parser.Parse] it reports
// malformed input.
func ParseSingle(line string) (Event, error) {
	var raw StreamEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Event{}, err
	}
	return NewEventFromStream(&raw), nil
}

// Transcript accumulates the generated content from a stream of events.
type Transcript struct {
	texts  []string
	result string
	isErr  bool
}

// Add records one event.
func (t *Transcript) Add(e Event) {
	switch {
	case e.IsText():
		t.texts = append(t.texts, e.Text)
	case e.SessionComplete:
		t.result = e.ResultText
		t.isErr = e.IsError
	}
}

// Text returns the result event's text, or the assistant text joined with
// blank lines when the stream carried no result.
func (t *Transcript) Text() string {
	if t.result != "" {
		return t.result
	}
	return strings.Join(t.texts, "\n\n")
}

// Failed reports whether the result event flagged an error.
func (t *Transcript) Failed() bool {
	return t.isErr
}
