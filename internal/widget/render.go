// Package widget turns form fields into interactive controls and drives the
// one-field-per-step submission flow used by the embed page and the preview.
package widget

import (
	"errors"
	"fmt"
	"math"

	"github.com/unified-feedback/unified/backend/internal/form"
)

var (
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrUnknownChoice    = errors.New("value is not one of the choices")
)

// OnChange receives every edit as (field id, new value).
type OnChange func(fieldID string, value any)

// Control is the rendered form of one field.
type Control interface {
	Field() form.Field
	Theme() form.Theme
	// Empty signals an unanswered control; enforcing required fields is the
	// caller's job.
	Empty() bool
}

type base struct {
	field    form.Field
	theme    form.Theme
	onChange OnChange
}

func (b base) Field() form.Field { return b.field }
func (b base) Theme() form.Theme { return b.theme }

func (b base) emit(v any) {
	if b.onChange != nil {
		b.onChange(b.field.ID, v)
	}
}

// TextControl is a single-line input for text and email fields.
type TextControl struct {
	base
	Value string
}

// InputType is the HTML input type: "text" or "email".
func (c *TextControl) InputType() string { return string(c.field.Type) }
func (c *TextControl) Empty() bool       { return form.IsEmpty(c.Value) }

func (c *TextControl) Edit(s string) {
	c.Value = s
	c.emit(s)
}

// TextAreaControl is the multi-line variant of TextControl.
type TextAreaControl struct {
	base
	Value string
}

func (c *TextAreaControl) Empty() bool { return form.IsEmpty(c.Value) }

func (c *TextAreaControl) Edit(s string) {
	c.Value = s
	c.emit(s)
}

// Choice is one exclusive option of a ChoiceControl.
type Choice struct {
	Label    string
	Value    string
	Selected bool
}

// ChoiceControl is a radio group over an mcq field's options.
type ChoiceControl struct {
	base
	Choices []Choice
}

func (c *ChoiceControl) Empty() bool { return c.Selected() == "" }

// Selected returns the selected value or "".
func (c *ChoiceControl) Selected() string {
	for _, ch := range c.Choices {
		if ch.Selected {
			return ch.Value
		}
	}
	return ""
}

// Select makes value the only selected choice.
func (c *ChoiceControl) Select(value string) error {
	idx := -1
	for i, ch := range c.Choices {
		if ch.Value == value {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownChoice, value)
	}
	for i := range c.Choices {
		c.Choices[i].Selected = i == idx
	}
	c.emit(value)
	return nil
}

// SliderControl is a numeric range input. Value is always within [Min, Max].
type SliderControl struct {
	base
	Min, Max, Step float64
	Value          float64
	set            bool
}

func (c *SliderControl) Empty() bool { return !c.set }

// Slide clamps v into range, snaps it to the step grid and reports the result.
func (c *SliderControl) Slide(v float64) float64 {
	c.Value = c.snap(v)
	c.set = true
	c.emit(c.Value)
	return c.Value
}

func (c *SliderControl) snap(v float64) float64 {
	if math.IsNaN(v) {
		return c.Min
	}
	v = clamp(v, c.Min, c.Max)
	if c.Step > 0 {
		n := math.Round((v - c.Min) / c.Step)
		v = c.Min + n*c.Step
		v = math.Round(v*1e9) / 1e9
	}
	return clamp(v, c.Min, c.Max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Render builds the control for field with the given current value.
func Render(field form.Field, theme form.Theme, current any, onChange OnChange) (Control, error) {
	b := base{field: field, theme: theme, onChange: onChange}
	switch field.Type {
	case form.FieldText, form.FieldEmail:
		return &TextControl{base: b, Value: form.Text(current)}, nil
	case form.FieldTextarea:
		return &TextAreaControl{base: b, Value: form.Text(current)}, nil
	case form.FieldMCQ:
		cur := form.Text(current)
		choices := make([]Choice, 0, len(field.Options))
		for _, o := range field.Options {
			choices = append(choices, Choice{Label: o.Label, Value: o.Value, Selected: cur != "" && o.Value == cur})
		}
		return &ChoiceControl{base: b, Choices: choices}, nil
	case form.FieldSlider:
		c := &SliderControl{base: b, Min: 0, Max: 100, Step: 1}
		if cfg := field.Config; cfg != nil && cfg.Min < cfg.Max {
			c.Min, c.Max = cfg.Min, cfg.Max
			if cfg.Step > 0 {
				c.Step = cfg.Step
			}
		}
		c.Value = c.Min
		if n, ok := form.Number(current); ok && !form.IsEmpty(current) {
			c.Value = clamp(n, c.Min, c.Max)
			c.set = true
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFieldType, field.Type)
}
