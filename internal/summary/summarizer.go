package summary

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/pkg/logger"
	"github.com/unified-feedback/unified/backend/pkg/metrics"
)

// Reply formats recorded on a Record.
const (
	FormatStructured = "structured"
	FormatProse      = "prose"
)

var ErrNoResponses = errors.New("project has no responses to summarize")

// Generator sends a prompt to a text model. When structured is set the model
// is asked for a JSON object with "tldr" and "keyFeatures"; it may still
// answer in prose.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Record is a stored summary of one project.
type Record struct {
	ProjectID   string    `json:"projectId" bson:"_id"`
	Summary     Summary   `json:"summary" bson:"summary"`
	Format      string    `json:"format" bson:"format"`
	Responses   int       `json:"responses" bson:"responses"`
	Model       string    `json:"model,omitempty" bson:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt" bson:"generatedAt"`
}

type Summarizer struct {
	gen     Generator
	model   string
	timeout time.Duration
}

func NewSummarizer(gen Generator, model string) *Summarizer {
	return &Summarizer{gen: gen, model: model}
}

// WithTimeout bounds each model call. Zero means no bound.
func (s *Summarizer) WithTimeout(d time.Duration) *Summarizer {
	s.timeout = d
	return s
}

type structuredReply struct {
	TLDR        *string  `json:"tldr"`
	KeyFeatures []string `json:"keyFeatures"`
}

// Summarize asks for a structured reply and falls back to scanning prose
// when the model does not return the expected JSON.
func (s *Summarizer) Summarize(ctx context.Context, p *form.Project, list []*form.Feedback) (rec *Record, err error) {
	format := FormatStructured
	defer func() { metrics.Summaries.WithLabelValues(format, metrics.Outcome(err)).Inc() }()
	if len(list) == 0 {
		return nil, apperr.Validation(ErrNoResponses)
	}
	prompt, err := Prompt(BuildPayload(p, list))
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	text, err := s.gen.Generate(ctx, prompt, true)
	if err != nil {
		return nil, apperr.Upstream("summarizer", err)
	}

	sum, ok := decodeStructured(text)
	if !ok {
		format = FormatProse
		logger.Debugf("summary: %s: reply is not JSON, scanning prose", p.ID)
		sum = ParseReply(text)
	}
	if !sum.TLDRFound {
		logger.Warnf("summary: %s: reply has no TLDR section", p.ID)
	}
	if !sum.KeyFeaturesFound {
		logger.Warnf("summary: %s: reply has no key features section", p.ID)
	}
	return &Record{
		ProjectID:   p.ID,
		Summary:     sum,
		Format:      format,
		Responses:   len(list),
		Model:       s.model,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func decodeStructured(text string) (Summary, bool) {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	var r structuredReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(t)), &r); err != nil {
		return Summary{}, false
	}
	if r.TLDR == nil && r.KeyFeatures == nil {
		return Summary{}, false
	}
	s := Summary{KeyFeatures: []string{}}
	if r.TLDR != nil {
		s.TLDR = strings.TrimSpace(*r.TLDR)
		s.TLDRFound = true
	}
	if r.KeyFeatures != nil {
		s.KeyFeaturesFound = true
		for _, f := range r.KeyFeatures {
			if f = strings.TrimSpace(f); f != "" {
				s.KeyFeatures = append(s.KeyFeatures, f)
			}
		}
	}
	return s, true
}
