package tools

import (
	"context"
	"encoding/json"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
)

// RecordUnknownQuestionSchema defines the JSON schema for record_unknown_question parameters.
const RecordUnknownQuestionSchema = `{
  "type": "object",
  "properties": {
    "question": {
      "type": "string",
      "description": "The question that couldn't be answered"
    }
  },
  "required": ["question"],
  "additionalProperties": false
}`

// RecordUnknownQuestionTool records a question the twin could not answer.
type RecordUnknownQuestionTool struct {
	notifier ports.Notifier
	logger   zerolog.Logger
}

// NewRecordUnknownQuestionTool creates the tool.
func NewRecordUnknownQuestionTool(notifier ports.Notifier, logger zerolog.Logger) *RecordUnknownQuestionTool {
	return &RecordUnknownQuestionTool{notifier: notifier, logger: logger}
}

func (t *RecordUnknownQuestionTool) Name() string { return string(RecordUnknownQuestion) }

func (t *RecordUnknownQuestionTool) Description() string {
	return "Always use this tool to record any question that couldn't be answered"
}

func (t *RecordUnknownQuestionTool) Schema() []byte { return []byte(RecordUnknownQuestionSchema) }

// Invoke pushes the question and acknowledges.
func (t *RecordUnknownQuestionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Question string `json:"question"`
	}
	if err := decodeArgs(RecordUnknownQuestion, args, &in); err != nil {
		return nil, err
	}

	t.logger.Info().Str("question", in.Question).Msg("Recording unknown question")
	notify(ctx, t.notifier, t.logger, RecordUnknownQuestion, "Recording "+in.Question)

	return ackOK, nil
}

var _ ports.Tool = (*RecordUnknownQuestionTool)(nil)
