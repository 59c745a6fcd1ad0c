// Package form holds the field/form/response contract shared by the project
// editor, the embed widget and the response views.
package form

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType is the closed set of inputs a form can contain.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldMCQ      FieldType = "mcq"
	FieldSlider   FieldType = "slider"
)

// FieldTypes lists every known type in editor order.
var FieldTypes = []FieldType{FieldText, FieldEmail, FieldTextarea, FieldMCQ, FieldSlider}

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldTextarea, FieldMCQ, FieldSlider:
		return true
	}
	return false
}

// Numeric reports whether answers to this type are numbers.
func (t FieldType) Numeric() bool { return t == FieldSlider }

// ParseFieldType accepts any casing and surrounding whitespace.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// Option is one choice of an mcq field.
type Option struct {
	Label string `json:"label" bson:"label" yaml:"label"`
	Value string `json:"value" bson:"value" yaml:"value"`
}

// SliderConfig is the numeric range of a slider field.
type SliderConfig struct {
	Min  float64 `json:"min" bson:"min" yaml:"min"`
	Max  float64 `json:"max" bson:"max" yaml:"max"`
	Step float64 `json:"step" bson:"step" yaml:"step"`
}

// Field describes one input of a form.
type Field struct {
	ID       string        `json:"id" bson:"id" yaml:"id,omitempty"`
	Type     FieldType     `json:"type" bson:"type" yaml:"type"`
	Label    string        `json:"label" bson:"label" yaml:"label"`
	Required bool          `json:"required" bson:"required" yaml:"required,omitempty"`
	Options  []Option      `json:"options" bson:"options,omitempty" yaml:"options,omitempty"`
	Config   *SliderConfig `json:"config,omitempty" bson:"config,omitempty" yaml:"config,omitempty"`
}

// MarshalJSON always emits an options array so clients can iterate it.
func (f Field) MarshalJSON() ([]byte, error) {
	type plain Field
	p := plain(f)
	if p.Options == nil {
		p.Options = []Option{}
	}
	return json.Marshal(p)
}

// normalize drops extras that do not belong to the field's type.
func (f Field) normalize() Field {
	f.Label = strings.TrimSpace(f.Label)
	if f.Type != FieldMCQ {
		f.Options = nil
	} else if f.Options != nil {
		opts := make([]Option, len(f.Options))
		copy(opts, f.Options)
		f.Options = opts
	}
	if f.Type != FieldSlider {
		f.Config = nil
	} else if f.Config != nil {
		c := *f.Config
		f.Config = &c
	}
	return f
}

// EmailField is the capture field new forms start with.
func EmailField(id string) Field {
	return Field{ID: id, Type: FieldEmail, Label: "Email", Required: true}
}
