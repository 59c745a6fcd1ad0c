package widget

import (
	"context"
	"errors"
	"fmt"

	"github.com/unified-feedback/unified/backend/internal/form"
)

var (
	ErrRequired     = errors.New("this field is required")
	ErrInvalidEmail = errors.New("please enter a valid email address")
	ErrFlowComplete = errors.New("feedback already submitted")
	ErrNoFields     = errors.New("form has no fields")
)

// Submitter stores a finished set of answers.
type Submitter interface {
	Submit(ctx context.Context, projectID string, answers form.Answers) (*form.Feedback, error)
}

// FieldError ties a validation failure to the step that caused it.
type FieldError struct {
	Index   int
	FieldID string
	Err     error
}

func (e *FieldError) Error() string { return fmt.Sprintf("step %d: %v", e.Index+1, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// SubmitError is a failed submission. The flow stays on its last step so
// the caller can retry.
type SubmitError struct{ Err error }

func (e *SubmitError) Error() string   { return "submit feedback: " + e.Err.Error() }
func (e *SubmitError) Unwrap() error   { return e.Err }
func (e *SubmitError) Retryable() bool { return true }

// Flow walks a project's fields one step at a time. States are Step(i) for
// i in [0, len(fields)) and the terminal Submitted.
type Flow struct {
	project   *form.Project
	submitter Submitter
	answers   form.Answers
	step      int
	submitted *form.Feedback
}

// NewFlow starts a flow at Step(0).
func NewFlow(p *form.Project, s Submitter) (*Flow, error) {
	if p == nil || len(p.Fields) == 0 {
		return nil, ErrNoFields
	}
	return &Flow{project: p, submitter: s, answers: form.Answers{}}, nil
}

// Restore rebuilds a flow from state carried between stateless requests.
// Unknown keys are dropped and the step is clamped into range.
func Restore(p *form.Project, s Submitter, step int, answers map[string]string) (*Flow, error) {
	f, err := NewFlow(p, s)
	if err != nil {
		return nil, err
	}
	for id, v := range answers {
		_ = f.Set(id, v)
	}
	if step < 0 {
		step = 0
	}
	if step >= len(p.Fields) {
		step = len(p.Fields) - 1
	}
	f.step = step
	return f, nil
}

func (f *Flow) Project() *form.Project { return f.project }
func (f *Flow) Step() int              { return f.step }
func (f *Flow) Total() int             { return len(f.project.Fields) }
func (f *Flow) IsFirst() bool          { return f.step == 0 }
func (f *Flow) IsLast() bool           { return f.step == len(f.project.Fields)-1 }
func (f *Flow) Submitted() bool        { return f.submitted != nil }

// Result is the stored feedback once the flow is Submitted.
func (f *Flow) Result() *form.Feedback { return f.submitted }

// Current returns the field shown at the current step.
func (f *Flow) Current() form.Field { return f.project.Fields[f.step] }

// Answers returns a copy of the collected answers.
func (f *Flow) Answers() form.Answers {
	out := make(form.Answers, len(f.answers))
	for k, v := range f.answers {
		out[k] = v
	}
	return out
}

// Set records the value for a field. Slider values given as text are parsed.
func (f *Flow) Set(fieldID string, value any) error {
	if f.Submitted() {
		return ErrFlowComplete
	}
	field, _, ok := f.project.FieldByID(fieldID)
	if !ok {
		return fmt.Errorf("no field %q in this form", fieldID)
	}
	if field.Type.Numeric() {
		if form.IsEmpty(value) {
			delete(f.answers, fieldID)
			return nil
		}
		n, ok := form.Number(value)
		if !ok {
			return fmt.Errorf("field %q expects a number", fieldID)
		}
		value = n
	}
	if value == nil {
		delete(f.answers, fieldID)
		return nil
	}
	f.answers[fieldID] = value
	return nil
}

// Control renders the current field bound to this flow's answers.
func (f *Flow) Control() (Control, error) {
	field := f.Current()
	return Render(field, f.project.Theme, f.answers[field.ID], func(id string, v any) { _ = f.Set(id, v) })
}

// Previous goes back one step; it is a no-op at Step(0).
func (f *Flow) Previous() error {
	if f.Submitted() {
		return ErrFlowComplete
	}
	if f.step > 0 {
		f.step--
	}
	return nil
}

// Next validates the current field and advances, or submits on the last step.
func (f *Flow) Next(ctx context.Context) error {
	if f.Submitted() {
		return ErrFlowComplete
	}
	if err := f.check(f.step); err != nil {
		return err
	}
	if !f.IsLast() {
		f.step++
		return nil
	}
	for i := range f.project.Fields {
		if err := f.check(i); err != nil {
			f.step = i
			return err
		}
	}
	fb, err := f.submitter.Submit(ctx, f.project.ID, f.Answers())
	if err != nil {
		return &SubmitError{Err: err}
	}
	f.submitted = fb
	return nil
}

func (f *Flow) check(i int) error {
	field := f.project.Fields[i]
	v := f.answers[field.ID]
	if form.IsEmpty(v) {
		if field.Required {
			return &FieldError{Index: i, FieldID: field.ID, Err: ErrRequired}
		}
		return nil
	}
	if field.Type == form.FieldEmail && !form.ValidEmail(form.Text(v)) {
		return &FieldError{Index: i, FieldID: field.ID, Err: ErrInvalidEmail}
	}
	return nil
}
