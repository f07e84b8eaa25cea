package harnessports

import (
	"context"
	"time"
)

// Turn represents one message of a recorded conversation.
type Turn struct {
	Role      string    `json:"role"`       // "user" | "assistant" | "tool"
	Content   string    `json:"content"`    // text or JSON string (for tool outputs)
	CreatedAt time.Time `json:"created_at"` // server-side timestamp
}

// ConversationStore persists conversation transcripts and tool artifacts.
type ConversationStore interface {
	SaveTurn(ctx context.Context, conversationID string, turn Turn) error
	LoadContext(ctx context.Context, conversationID string, k int) ([]Turn, error) // last-k turns
	AppendToolArtifact(ctx context.Context, conversationID, name string, payload []byte) error
}
