package form

import (
	"fmt"
	"math"
	"strings"
)

// Code names a specific violation of the field/form contract.
type Code string

const (
	InvalidFieldType   Code = "InvalidFieldType"
	MissingLabel       Code = "MissingLabel"
	InvalidOptions     Code = "InvalidOptions"
	InvalidSliderRange Code = "InvalidSliderRange"
	EmptyForm          Code = "EmptyForm"
	MissingName        Code = "MissingName"
	InvalidTheme       Code = "InvalidTheme"
	DuplicateFieldID   Code = "DuplicateFieldID"
	UnknownAnswerKey   Code = "UnknownAnswerKey"
	InvalidAnswer      Code = "InvalidAnswer"
)

// Violation is a rejected field or form. Index is the offending field's
// position, or -1 when the violation concerns the form itself.
type Violation struct {
	Code    Code   `json:"code"`
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v *Violation) Error() string {
	if v.Index >= 0 {
		return fmt.Sprintf("field %d: %s: %s", v.Index, v.Code, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

func violation(code Code, format string, args ...any) *Violation {
	return &Violation{Code: code, Index: -1, Message: fmt.Sprintf(format, args...)}
}

// ValidateField checks a single field definition. It returns nil or a
// *Violation with Index -1; Build fills the index in.
func ValidateField(f Field) error {
	if !f.Type.Valid() {
		return violation(InvalidFieldType, "unknown field type %q", f.Type)
	}
	if strings.TrimSpace(f.Label) == "" {
		return violation(MissingLabel, "label must not be empty")
	}
	switch f.Type {
	case FieldMCQ:
		if len(f.Options) == 0 {
			return violation(InvalidOptions, "mcq needs at least one option")
		}
		for i, o := range f.Options {
			if strings.TrimSpace(o.Label) == "" || strings.TrimSpace(o.Value) == "" {
				return violation(InvalidOptions, "option %d needs a label and a value", i)
			}
		}
	case FieldSlider:
		if f.Config == nil {
			return violation(InvalidSliderRange, "slider needs a min/max/step config")
		}
		for _, v := range []float64{f.Config.Min, f.Config.Max, f.Config.Step} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return violation(InvalidSliderRange, "slider bounds and step must be finite numbers")
			}
		}
		if !(f.Config.Min < f.Config.Max) {
			return violation(InvalidSliderRange, "min %v must be below max %v", f.Config.Min, f.Config.Max)
		}
		if !(f.Config.Step > 0) {
			return violation(InvalidSliderRange, "step %v must be positive", f.Config.Step)
		}
	case FieldText, FieldEmail, FieldTextarea:
	}
	return nil
}
