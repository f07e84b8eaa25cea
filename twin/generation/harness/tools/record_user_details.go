package tools

import (
	"context"
	"encoding/json"
	"fmt"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
)

// RecordUserDetailsSchema defines the JSON schema for record_user_details parameters.
const RecordUserDetailsSchema = `{
  "type": "object",
  "properties": {
    "email": {
      "type": "string",
      "description": "The email address of this user"
    },
    "name": {
      "type": "string",
      "description": "The user's name, if they provided it"
    },
    "notes": {
      "type": "string",
      "description": "Any additional context about the user"
    }
  },
  "required": ["email"],
  "additionalProperties": false
}`

// UserDetails are the arguments of record_user_details.
type UserDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// RecordUserDetailsTool records a visitor who wants to get in touch.
type RecordUserDetailsTool struct {
	notifier ports.Notifier
	logger   zerolog.Logger
}

// NewRecordUserDetailsTool creates the tool.
func NewRecordUserDetailsTool(notifier ports.Notifier, logger zerolog.Logger) *RecordUserDetailsTool {
	return &RecordUserDetailsTool{notifier: notifier, logger: logger}
}

// Name returns the tool name.
func (t *RecordUserDetailsTool) Name() string {
	return string(RecordUserDetails)
}

// Description returns the tool description shown to the model.
func (t *RecordUserDetailsTool) Description() string {
	return "Use this tool to record that a user is interested in being in touch and provided an email address"
}

// Schema returns the JSON schema for tool parameters.
func (t *RecordUserDetailsTool) Schema() []byte {
	return []byte(RecordUserDetailsSchema)
}

// Invoke pushes the contact details and acknowledges.
func (t *RecordUserDetailsTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var details UserDetails
	if err := decodeArgs(RecordUserDetails, args, &details); err != nil {
		return nil, err
	}
	if details.Name == "" {
		details.Name = "Name not provided"
	}
	if details.Notes == "" {
		details.Notes = "not provided"
	}

	t.logger.Info().Str("email", details.Email).Msg("Recording user details")
	notify(ctx, t.notifier, t.logger, RecordUserDetails,
		fmt.Sprintf("Recording %s with email %s and notes %s", details.Name, details.Email, details.Notes))

	return ackOK, nil
}

var _ ports.Tool = (*RecordUserDetailsTool)(nil)
