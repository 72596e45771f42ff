package llm

import (
	"context"
)

// Provider streams model output events for a request.
type Provider interface {
	Name() string
	Credential() string // Returns credential type for debugging (e.g., "api_key", "env", "none")
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Request represents a single model turn.
type Request struct {
	Model           string
	Messages        []Message
	MaxOutputTokens int
	Temperature     float32
}

// Role identifies a message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message holds a role and its text.
type Message struct {
	Role Role
	Text string
}

// EventType describes streaming events.
type EventType string

const (
	EventTextDelta EventType = "text_delta"
	EventUsage     EventType = "usage"
	EventDone      EventType = "done"
	EventError     EventType = "error"
	EventRetry     EventType = "retry" // Emitted when retrying after a transient failure
)

// Event represents a streamed output update.
type Event struct {
	Type EventType
	Text string
	Use  *Usage
	Err  error
	// Retry fields (for EventRetry)
	RetryAttempt     int
	RetryMaxAttempts int
	RetryWaitSecs    float64
}

// Usage captures token usage if available.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func SystemText(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// splitSystem separates system text from the conversation turns.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Text
			continue
		}
		if m.Text != "" {
			turns = append(turns, m)
		}
	}
	return system, turns
}

func chooseModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}
