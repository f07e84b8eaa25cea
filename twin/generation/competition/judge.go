package competition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nidhishmalav/career-twin/twin/config"
	"github.com/nidhishmalav/career-twin/twin/generation/harness"
)

// ErrInvalidRanking is wrapped by every *RankingError.
var ErrInvalidRanking = errors.New("invalid ranking")

// RankingSchema is the shape the judge must answer with.
const RankingSchema = `{
  "type": "object",
  "properties": {
    "results": {
      "type": "array",
      "items": {"type": ["string", "integer"]}
    }
  },
  "required": ["results"]
}`

var rankingSchema = harness.MustCompileSchema([]byte(RankingSchema))

// RankingError reports a judge reply that cannot be turned into a leaderboard.
type RankingError struct {
	Raw    string
	Reason string
}

func (e *RankingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRanking, e.Reason)
}

func (e *RankingError) Unwrap() error { return ErrInvalidRanking }

// Entry is one leaderboard row.
type Entry struct {
	Rank       int
	Competitor config.ModelRef
	Answer     string
}

// Leaderboard is the judged result of a competition.
type Leaderboard struct {
	Question string
	Answers  []Answer // in competitor order
	Entries  []Entry  // best first
}

// Judge asks the judge model to rank the answers.
func (c *Competition) Judge(ctx context.Context, question string, answers []Answer) (*Leaderboard, error) {
	raw, err := c.ask(ctx, c.judge, JudgePrompt(question, answers))
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	ranks, err := ParseRanking(raw, len(answers))
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{Question: question, Answers: answers}
	for i, idx := range ranks {
		answer := answers[idx-1]
		board.Entries = append(board.Entries, Entry{
			Rank:       i + 1,
			Competitor: answer.Competitor,
			Answer:     answer.Text,
		})
		c.logger.Info().Int("rank", i+1).Str("competitor", answer.Competitor.String()).Msg("Ranked")
	}
	return board, nil
}

// JudgePrompt builds the ranking request for the judge model.
func JudgePrompt(question string, answers []Answer) string {
	var together strings.Builder
	for i, answer := range answers {
		fmt.Fprintf(&together, "# Response from competitor %d\n\n", i+1)
		together.WriteString(answer.Text)
		together.WriteString("\n\n")
	}

	return fmt.Sprintf(`You are judging a competition between %d competitors.
Each model has been given this question:

%s

Your job is to evaluate each response for clarity and strength of argument, and rank them in order of best to worst.
Respond with JSON, and only JSON, with the following format:
{"results": ["best competitor number", "second best competitor number", "third best competitor number", ...]}

Here are the responses from each competitor:

%s

Now respond with the JSON with the ranked order of the competitors, nothing else. Do not include markdown formatting or code blocks.`,
		len(answers), question, together.String())
}

// ParseRanking turns a judge reply into 1-based competitor indexes, best first.
// The judge may leave competitors out; it may not name one twice.
func ParseRanking(raw string, competitors int) ([]int, error) {
	data, err := harness.NewOutputParser().ParseJSONOutput(raw)
	if err != nil {
		return nil, &RankingError{Raw: raw, Reason: err.Error()}
	}
	if err := rankingSchema.Validate(data); err != nil {
		return nil, &RankingError{Raw: raw, Reason: err.Error()}
	}

	var parsed struct {
		Results []json.Number `json:"results"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, &RankingError{Raw: raw, Reason: err.Error()}
	}
	if len(parsed.Results) == 0 {
		return nil, &RankingError{Raw: raw, Reason: "empty results"}
	}

	seen := make(map[int]bool, len(parsed.Results))
	ranks := make([]int, 0, len(parsed.Results))
	for _, entry := range parsed.Results {
		idx, err := strconv.Atoi(strings.TrimSpace(entry.String()))
		if err != nil {
			return nil, &RankingError{Raw: raw, Reason: fmt.Sprintf("entry %q is not a competitor number", entry)}
		}
		if idx < 1 || idx > competitors {
			return nil, &RankingError{Raw: raw, Reason: fmt.Sprintf("competitor %d out of range 1..%d", idx, competitors)}
		}
		if seen[idx] {
			return nil, &RankingError{Raw: raw, Reason: fmt.Sprintf("competitor %d ranked twice", idx)}
		}
		seen[idx] = true
		ranks = append(ranks, idx)
	}
	return ranks, nil
}
