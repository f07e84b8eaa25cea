//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/nidhishmalav/career-twin/twin/db"
	"github.com/nidhishmalav/career-twin/twin/generation/harness/adapters"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// RunSmokeStore checks the embedded libsql features the transcript store relies on,
// then writes and reads back one recorded turn.
func RunSmokeStore(ctx context.Context, path string, logger zerolog.Logger) error {
	defer os.Remove(path)

	dbconn, err := db.ConnectToDB(ctx, path, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer dbconn.Close()

	// JSON1 is used to query verdict artifacts
	var jsonRes string
	if err := dbconn.QueryRowContext(ctx, `SELECT json_extract('{"test":"value"}', '$.test')`).Scan(&jsonRes); err != nil {
		return fmt.Errorf("JSON1 query: %w", err)
	}
	if jsonRes != "value" {
		return fmt.Errorf("JSON1 returned unexpected: %v", jsonRes)
	}
	logger.Info().Msg("OK: JSON1")

	store := adapters.NewLibSQLConversationStore(dbconn)
	const conversationID = "smoke"
	for _, turn := range []ports.Turn{
		{Role: "user", Content: "What is your email?"},
		{Role: "assistant", Content: "You can reach me through this chat."},
	} {
		if err := store.SaveTurn(ctx, conversationID, turn); err != nil {
			return err
		}
	}
	if err := store.AppendToolArtifact(ctx, conversationID, "verdict", []byte(`{"is_acceptable":true,"feedback":"fine"}`)); err != nil {
		return err
	}

	turns, err := store.LoadContext(ctx, conversationID, 10)
	if err != nil {
		return err
	}
	if len(turns) != 2 || turns[0].Role != "user" {
		return fmt.Errorf("unexpected turns: %+v", turns)
	}
	logger.Info().Int("turns", len(turns)).Msg("OK: turns round trip")

	var accepted int
	err = dbconn.QueryRowContext(ctx, `
		SELECT count(*) FROM tool_artifacts
		WHERE name = 'verdict' AND json_extract(payload, '$.is_acceptable') = 1
	`).Scan(&accepted)
	if err != nil {
		return fmt.Errorf("verdict query: %w", err)
	}
	if accepted != 1 {
		return fmt.Errorf("expected 1 accepted verdict, got %d", accepted)
	}
	logger.Info().Msg("OK: verdict artifact query")

	return nil
}
