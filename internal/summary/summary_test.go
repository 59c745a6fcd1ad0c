package summary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/feedback"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/internal/projects"
)

func project() *form.Project {
	return &form.Project{
		ID:      "p1",
		OwnerID: "alice",
		Name:    "Beta",
		Fields: []form.Field{
			form.EmailField("email"),
			{ID: "score", Type: form.FieldSlider, Label: "Score", Config: &form.SliderConfig{Min: 1, Max: 5, Step: 1}},
		},
	}
}

func TestBuildPayloadOrdersAnswersAndKeepsStaleKeys(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	list := []*form.Feedback{{
		ID:          "f1",
		ProjectID:   "p1",
		SubmittedAt: at,
		Answers:     form.Answers{"zz-old": "bye", "score": 4.0, "aa-old": "hi", "email": "a@b.co"},
	}}
	got := BuildPayload(project(), list)
	assert.Equal(t, []string{"Email", "Score"}, got.Questions)
	require.Len(t, got.Responses, 1)
	r := got.Responses[0]
	assert.Equal(t, at, r.Timestamp)
	require.Len(t, r.Answers, 4)
	assert.Equal(t, "Email", *r.Answers[0].Question)
	assert.Equal(t, "Score", *r.Answers[1].Question)
	assert.Nil(t, r.Answers[2].Question)
	assert.Equal(t, "hi", r.Answers[2].Answer)
	assert.Equal(t, "bye", r.Answers[3].Answer)

	b, err := json.Marshal(r.Answers[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":null,"answer":"hi"}`, string(b))
}

func TestPromptEmbedsPayload(t *testing.T) {
	prompt, err := Prompt(BuildPayload(project(), nil))
	require.NoError(t, err)
	assert.Contains(t, prompt, "TLDR:")
	assert.Contains(t, prompt, `"questions"`)
	assert.Contains(t, prompt, `"Score"`)
}

func TestParseReply(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Summary
	}{
		{
			name: "plain",
			text: "TLDR: Users like it.\nKEY FEATURES:\n- dark mode\n- export",
			want: Summary{TLDR: "Users like it.", KeyFeatures: []string{"dark mode", "export"}, TLDRFound: true, KeyFeaturesFound: true},
		},
		{
			name: "markdown decorated",
			text: "## **TL;DR:** Mostly positive\nwith some bugs.\n\n**Key Features Mentioned:**\n1. Slack integration\n2) *faster load*\n• CSV",
			want: Summary{TLDR: "Mostly positive with some bugs.", KeyFeatures: []string{"Slack integration", "faster load", "CSV"}, TLDRFound: true, KeyFeaturesFound: true},
		},
		{
			name: "missing features",
			text: "tldr: fine",
			want: Summary{TLDR: "fine", KeyFeatures: []string{}, TLDRFound: true},
		},
		{
			name: "missing tldr",
			text: "Preamble text\nKey features:\n- a",
			want: Summary{KeyFeatures: []string{"a"}, KeyFeaturesFound: true},
		},
		{
			name: "long features title",
			text: "TLDR: good overall\nKEY FEATURES REQUESTED BY USERS:\n- dark mode\n- export",
			want: Summary{TLDR: "good overall", KeyFeatures: []string{"dark mode", "export"}, TLDRFound: true, KeyFeaturesFound: true},
		},
		{
			name: "decorated long features title",
			text: "**TLDR:** solid\n**Key Features Mentioned by Users:**\n1. dark mode",
			want: Summary{TLDR: "solid", KeyFeatures: []string{"dark mode"}, TLDRFound: true, KeyFeaturesFound: true},
		},
		{
			name: "bare features title ends tldr",
			text: "TL;DR\nUsers are happy.\nKey features requested by users\n- sso",
			want: Summary{TLDR: "Users are happy.", KeyFeatures: []string{"sso"}, TLDRFound: true, KeyFeaturesFound: true},
		},
		{
			name: "sentence is not a header",
			text: "TLDR: ok\nKey features are hard to find. Users want: speed",
			want: Summary{TLDR: "ok Key features are hard to find. Users want: speed", KeyFeatures: []string{}, TLDRFound: true},
		},
		{
			name: "neither",
			text: "I could not analyse this.",
			want: Summary{KeyFeatures: []string{}},
		},
		{
			name: "empty",
			text: "",
			want: Summary{KeyFeatures: []string{}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseReply(tc.text))
		})
	}
}

type fakeGenerator struct {
	reply      string
	err        error
	structured bool
	prompts    []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, structured bool) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.structured = structured
	return f.reply, f.err
}

func someFeedback() []*form.Feedback {
	return []*form.Feedback{{ID: "f1", ProjectID: "p1", Answers: form.Answers{"score": 5.0}, SubmittedAt: time.Now()}}
}

func TestSummarizeStructured(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"tldr\": \"Good\", \"keyFeatures\": [\"a\", \" \", \"b\"]}\n```"}
	rec, err := NewSummarizer(gen, "m").Summarize(context.Background(), project(), someFeedback())
	require.NoError(t, err)
	assert.True(t, gen.structured)
	assert.Equal(t, FormatStructured, rec.Format)
	assert.Equal(t, "Good", rec.Summary.TLDR)
	assert.Equal(t, []string{"a", "b"}, rec.Summary.KeyFeatures)
	assert.Equal(t, 1, rec.Responses)
	assert.Equal(t, "p1", rec.ProjectID)
}

func TestSummarizeFallsBackToProse(t *testing.T) {
	gen := &fakeGenerator{reply: "TLDR: ok\nKEY FEATURES:\n- x"}
	rec, err := NewSummarizer(gen, "m").Summarize(context.Background(), project(), someFeedback())
	require.NoError(t, err)
	assert.Equal(t, FormatProse, rec.Format)
	assert.Equal(t, "ok", rec.Summary.TLDR)
	assert.Equal(t, []string{"x"}, rec.Summary.KeyFeatures)
}

func TestSummarizeErrors(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota")}
	s := NewSummarizer(gen, "m")
	_, err := s.Summarize(context.Background(), project(), someFeedback())
	require.ErrorIs(t, err, apperr.ErrUpstream)

	_, err = s.Summarize(context.Background(), project(), nil)
	require.ErrorIs(t, err, ErrNoResponses)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestServiceGenerateStoresAndCascades(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	fbRepo := feedback.NewMemoryRepository()
	projSvc := projects.NewService(projects.NewMemoryRepository(), fbRepo, store)
	fbSvc := feedback.NewService(fbRepo, projSvc)
	gen := &fakeGenerator{reply: `{"tldr":"fine","keyFeatures":[]}`}
	svc := NewService(fbSvc, projSvc, store, NewSummarizer(gen, "m"))

	p, _, err := projSvc.Create(ctx, "alice", form.Draft{Name: "x", Fields: []form.Field{form.EmailField("email")}})
	require.NoError(t, err)

	_, err = svc.Latest(ctx, "alice", p.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = fbSvc.Submit(ctx, p.ID, form.Answers{"email": "a@b.co"})
	require.NoError(t, err)
	rec, err := svc.Generate(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "fine", rec.Summary.TLDR)

	got, err := svc.Latest(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Summary, got.Summary)

	_, err = svc.Latest(ctx, "bob", p.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Generate(ctx, "bob", p.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, projSvc.Delete(ctx, "alice", p.ID))
	stored, err := store.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestServiceWithoutSummarizer(t *testing.T) {
	svc := NewService(nil, nil, NewMemoryStore(), nil)
	assert.False(t, svc.Configured())
	_, err := svc.Generate(context.Background(), "a", "p")
	require.ErrorIs(t, err, ErrNotConfigured)
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ string, _ bool) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSummarizeTimeout(t *testing.T) {
	s := NewSummarizer(blockingGenerator{}, "m").WithTimeout(10 * time.Millisecond)
	_, err := s.Summarize(context.Background(), project(), someFeedback())
	require.ErrorIs(t, err, apperr.ErrUpstream)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
