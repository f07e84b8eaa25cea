package generation

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned when the user message is empty.
var ErrEmptyMessage = errors.New("message must not be empty")

// ErrInvalidRole is returned when a history message is neither a user nor an assistant turn.
var ErrInvalidRole = errors.New("invalid history role")

// Message represents a chat message for generation
type Message struct {
	Role    string `json:"role"`    // "user", "assistant"
	Content string `json:"content"` // Message content
}

// History is the ordered, append-only list of prior turns of one session.
type History []Message

// Validate checks that every message is a user or assistant turn.
func (h History) Validate() error {
	for i, msg := range h {
		if msg.Role != "user" && msg.Role != "assistant" {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRole, i, msg.Role)
		}
	}
	return nil
}

// Append returns the history extended by a user message and the reply to it.
func (h History) Append(userMessage, reply string) History {
	out := make(History, len(h), len(h)+2)
	copy(out, h)
	return append(out,
		Message{Role: "user", Content: userMessage},
		Message{Role: "assistant", Content: reply},
	)
}

// Generator produces a reply from persona context, history and the latest message.
// A non-empty extraInstruction is appended to the system prompt for this call only.
type Generator interface {
	Generate(ctx context.Context, history History, message, extraInstruction string) (string, error)
}
