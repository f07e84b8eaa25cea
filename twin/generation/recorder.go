package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// StoreRecorder writes completed turns to a ConversationStore: the user message,
// the final reply and the verdict as a "verdict" artifact.
type StoreRecorder struct {
	store ports.ConversationStore
	now   func() time.Time
}

// NewStoreRecorder creates a recorder over store.
func NewStoreRecorder(store ports.ConversationStore) *StoreRecorder {
	return &StoreRecorder{store: store, now: time.Now}
}

type verdictArtifact struct {
	Verdict
	Revised bool    `json:"revised"`
	Stages  []Stage `json:"stages"`
}

func (r *StoreRecorder) RecordTurn(ctx context.Context, conversationID, message string, outcome *Outcome) error {
	now := r.now()
	if err := r.store.SaveTurn(ctx, conversationID, ports.Turn{Role: "user", Content: message, CreatedAt: now}); err != nil {
		return fmt.Errorf("failed to record user turn: %w", err)
	}
	if err := r.store.SaveTurn(ctx, conversationID, ports.Turn{Role: "assistant", Content: outcome.Text, CreatedAt: now}); err != nil {
		return fmt.Errorf("failed to record assistant turn: %w", err)
	}

	payload, err := json.Marshal(verdictArtifact{
		Verdict: outcome.Verdict,
		Revised: outcome.Revised,
		Stages:  outcome.Attempts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	if err := r.store.AppendToolArtifact(ctx, conversationID, "verdict", payload); err != nil {
		return fmt.Errorf("failed to record verdict: %w", err)
	}
	return nil
}

var _ Recorder = (*StoreRecorder)(nil)
