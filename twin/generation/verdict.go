package generation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// ErrMalformedVerdict is returned when the evaluator reply does not match the verdict shape.
// It is never treated as a rejection.
var ErrMalformedVerdict = errors.New("malformed verdict")

// Verdict is the evaluator's accept/reject judgment of one candidate reply.
type Verdict struct {
	Acceptable bool   `json:"is_acceptable"`
	Feedback   string `json:"feedback"`
}

// VerdictSchema is requested from the evaluator model and checked on every reply.
const VerdictSchema = `{
  "type": "object",
  "properties": {
    "is_acceptable": {"type": "boolean"},
    "feedback": {"type": "string"}
  },
  "required": ["is_acceptable", "feedback"],
  "additionalProperties": false
}`

var (
	verdictSchema   = harness.MustCompileSchema([]byte(VerdictSchema))
	verdictResponse = &ports.ResponseSchema{Name: "verdict", Schema: []byte(VerdictSchema)}
)

// MalformedVerdictError carries the raw evaluator output that failed to parse.
type MalformedVerdictError struct {
	Raw string
	Err error
}

func (e *MalformedVerdictError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedVerdict, e.Err)
}

func (e *MalformedVerdictError) Unwrap() []error { return []error{ErrMalformedVerdict, e.Err} }

// ParseVerdict extracts and validates a verdict from raw model output.
func ParseVerdict(raw string) (Verdict, error) {
	data, err := harness.NewOutputParser().ParseJSONOutput(raw)
	if err != nil {
		return Verdict{}, &MalformedVerdictError{Raw: raw, Err: err}
	}
	if err := verdictSchema.Validate(data); err != nil {
		return Verdict{}, &MalformedVerdictError{Raw: raw, Err: err}
	}

	var v Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return Verdict{}, &MalformedVerdictError{Raw: raw, Err: err}
	}
	return v, nil
}
