package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
)

// ToolID identifies one of the tools the chat model may call.
type ToolID string

const (
	RecordUserDetails     ToolID = "record_user_details"
	RecordUnknownQuestion ToolID = "record_unknown_question"
)

// AllToolIDs lists every tool in declaration order.
func AllToolIDs() []ToolID {
	return []ToolID{RecordUserDetails, RecordUnknownQuestion}
}

// ParseToolID maps a model-supplied name onto a ToolID.
func ParseToolID(name string) (ToolID, bool) {
	for _, id := range AllToolIDs() {
		if string(id) == name {
			return id, true
		}
	}
	return "", false
}

// ErrInvalidArguments is returned when a tool call's arguments are not a JSON object.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Ack is the result every recording tool returns.
type Ack struct {
	Recorded string `json:"recorded"`
}

var ackOK = Ack{Recorded: "ok"}

// Dispatcher routes tool calls to their handlers.
type Dispatcher struct {
	tools  map[ToolID]ports.Tool
	logger zerolog.Logger
}

// NewDispatcher registers tools and checks that every ToolID has exactly one
// handler whose argument schema compiles.
func NewDispatcher(logger zerolog.Logger, tools ...ports.Tool) (*Dispatcher, error) {
	validator := harness.NewJSONValidator()
	registered := make(map[ToolID]ports.Tool, len(tools))

	for _, tool := range tools {
		id, ok := ParseToolID(tool.Name())
		if !ok {
			return nil, fmt.Errorf("tool %q is not a known tool", tool.Name())
		}
		if _, dup := registered[id]; dup {
			return nil, fmt.Errorf("tool %q registered twice", id)
		}
		if _, err := validator.Compile(tool.Schema()); err != nil {
			return nil, fmt.Errorf("tool %q has an invalid schema: %w", id, err)
		}
		registered[id] = tool
	}

	for _, id := range AllToolIDs() {
		if _, ok := registered[id]; !ok {
			return nil, fmt.Errorf("no handler registered for tool %q", id)
		}
	}

	return &Dispatcher{tools: registered, logger: logger}, nil
}

// NewDefaultDispatcher wires the recording tools to notifier.
func NewDefaultDispatcher(notifier ports.Notifier, logger zerolog.Logger) (*Dispatcher, error) {
	return NewDispatcher(logger,
		NewRecordUserDetailsTool(notifier, logger),
		NewRecordUnknownQuestionTool(notifier, logger),
	)
}

// Specs declares the tools to the model, in declaration order.
func (d *Dispatcher) Specs() []ports.ToolSpec {
	specs := make([]ports.ToolSpec, 0, len(d.tools))
	for _, id := range AllToolIDs() {
		tool := d.tools[id]
		specs = append(specs, ports.ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			JSONSchema:  tool.Schema(),
		})
	}
	return specs
}

// Dispatch runs the named tool. Unknown names produce an empty JSON object.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	id, ok := ParseToolID(name)
	if !ok {
		d.logger.Warn().Str("tool", name).Msg("Unknown tool requested")
		return json.RawMessage(`{}`), nil
	}

	result, err := d.tools[id].Invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s result: %w", id, err)
	}
	return out, nil
}

// decodeArgs unmarshals a JSON object of arguments into v.
func decodeArgs(id ToolID, args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidArguments, id, err)
	}
	return nil
}

// notify delivers message and logs, rather than returns, a delivery failure.
func notify(ctx context.Context, notifier ports.Notifier, logger zerolog.Logger, id ToolID, message string) {
	if err := notifier.Notify(ctx, message); err != nil {
		logger.Warn().Err(err).Str("tool", string(id)).Msg("Notification failed")
	}
}

var _ ports.ToolDispatcher = (*Dispatcher)(nil)
