// Package summary turns a project's responses into an LLM prompt and the
// reply into a structured summary.
package summary

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/unified-feedback/unified/backend/internal/form"
)

// Answer pairs a field label with the stored value. Question is nil for
// answers whose field no longer exists.
type Answer struct {
	Question *string `json:"question"`
	Answer   any     `json:"answer"`
}

type Response struct {
	Timestamp time.Time `json:"timestamp"`
	Answers   []Answer  `json:"answers"`
}

// Payload is what the summarizer sees of a project's responses.
type Payload struct {
	Questions []string   `json:"questions"`
	Responses []Response `json:"responses"`
}

// BuildPayload resolves every answer key through p's fields. Answers follow
// field order; stale keys come last, sorted.
func BuildPayload(p *form.Project, list []*form.Feedback) Payload {
	out := Payload{
		Questions: make([]string, 0, len(p.Fields)),
		Responses: make([]Response, 0, len(list)),
	}
	for _, f := range p.Fields {
		out.Questions = append(out.Questions, f.Label)
	}
	for _, fb := range list {
		r := Response{Timestamp: fb.SubmittedAt, Answers: []Answer{}}
		for _, f := range p.Fields {
			v, ok := fb.Answers[f.ID]
			if !ok {
				continue
			}
			label := f.Label
			r.Answers = append(r.Answers, Answer{Question: &label, Answer: v})
		}
		var stale []string
		for k := range fb.Answers {
			if _, ok := form.LabelFor(p, k); !ok {
				stale = append(stale, k)
			}
		}
		sort.Strings(stale)
		for _, k := range stale {
			r.Answers = append(r.Answers, Answer{Answer: fb.Answers[k]})
		}
		out.Responses = append(out.Responses, r)
	}
	return out
}

const instructions = `You are analysing feedback collected through a form.
The JSON below lists the form's questions and every response.
Write a short TLDR of the overall sentiment, then list the key features or
requests users mention, most frequent first.

Reply in this format:
TLDR: <one or two sentences>
KEY FEATURES:
- <feature>
- <feature>`

// Prompt renders the instruction text followed by the payload as JSON.
func Prompt(p Payload) (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return instructions + "\n\nFeedback data:\n" + string(b), nil
}
