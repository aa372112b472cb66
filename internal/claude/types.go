// Package claude runs the external agent that generates step content.
//
// The agent is a user-installed command-line program. It receives the merged
// prompt through a private temporary file (as an argument, on stdin, or both)
// and writes the generated content to stdout, either as plain text or as
// Claude's stream-json event format.
//
// [ProcessExecutor] spawns the agent under a timeout and always removes the
// prompt file afterwards. Stream-json output is decoded line by line into
// [Event] values by [DefaultParser]. [MockExecutor] stands in for the process
// in tests.
package claude

import "strings"

// StreamEvent is one raw line of stream-json output.
//
// Most callers should use [Event]; StreamEvent stays reachable through
// [Event.Raw].
type StreamEvent struct {
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype,omitempty"`
	Message       *MessageContent `json:"message,omitempty"`
	ToolUseResult *ToolResult     `json:"tool_use_result,omitempty"`
	Result        string          `json:"result,omitempty"`
	IsError       bool            `json:"is_error,omitempty"`
}

// MessageContent is the message carried by an assistant event.
type MessageContent struct {
	Content []ContentBlock `json:"content,omitempty"`
}

// ContentBlock is a "text" or "tool_use" block within a message.
type ContentBlock struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Name  string     `json:"name,omitempty"`
	Input *ToolInput `json:"input,omitempty"`
}

// ToolInput holds the tool parameters worth showing to the user.
type ToolInput struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// ToolResult is the output of a tool the agent ran.
type ToolResult struct {
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

// EventType is the kind of a stream-json event.
//
// A session usually emits system (init), then assistant and user events in
// turn, then a single result event.
type EventType string

const (
	EventTypeSystem    EventType = "system"
	EventTypeAssistant EventType = "assistant"
	EventTypeUser      EventType = "user"
	EventTypeResult    EventType = "result"
)

// SubtypeInit marks the system event that opens a session.
const SubtypeInit = "init"

// Event is a parsed agent event.
type Event struct {
	Raw *StreamEvent

	Type    EventType
	Subtype string

	// Text is the assistant's text output. Multiple text blocks in one
	// message are joined with newlines.
	Text string

	ToolName        string
	ToolDescription string
	ToolCommand     string
	ToolFilePath    string

	ToolStdout      string
	ToolStderr      string
	ToolInterrupted bool

	SessionStarted  bool
	SessionComplete bool

	// ResultText is the final answer carried by a result event.
	ResultText string

	// IsError is true when a result event reports a failed session.
	IsError bool
}

// NewEventFromStream flattens a [StreamEvent] into an [Event].
func NewEventFromStream(raw *StreamEvent) Event {
	e := Event{
		Raw:     raw,
		Type:    EventType(raw.Type),
		Subtype: raw.Subtype,
	}

	switch e.Type {
	case EventTypeSystem:
		e.SessionStarted = raw.Subtype == SubtypeInit

	case EventTypeAssistant:
		if raw.Message == nil {
			break
		}
		var texts []string
		for _, block := range raw.Message.Content {
			switch block.Type {
			case "text":
				texts = append(texts, block.Text)
			case "tool_use":
				e.ToolName = block.Name
				if block.Input != nil {
					e.ToolDescription = block.Input.Description
					e.ToolCommand = block.Input.Command
					e.ToolFilePath = block.Input.FilePath
				}
			}
		}
		e.Text = strings.Join(texts, "\n")

	case EventTypeUser:
		if raw.ToolUseResult != nil {
			e.ToolStdout = raw.ToolUseResult.Stdout
			e.ToolStderr = raw.ToolUseResult.Stderr
			e.ToolInterrupted = raw.ToolUseResult.Interrupted
		}

	case EventTypeResult:
		e.SessionComplete = true
		e.ResultText = raw.Result
		e.IsError = raw.IsError
	}

	return e
}

// IsText reports whether the event carries assistant text.
func (e Event) IsText() bool {
	return e.Type == EventTypeAssistant && e.Text != ""
}

// IsToolUse reports whether the agent is invoking a tool.
func (e Event) IsToolUse() bool {
	return e.Type == EventTypeAssistant && e.ToolName != ""
}

// IsToolResult reports whether the event carries tool output.
func (e Event) IsToolResult() bool {
	return e.Type == EventTypeUser && (e.ToolStdout != "" || e.ToolStderr != "")
}
