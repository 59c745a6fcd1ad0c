package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Answers maps field ids to collected values: string for text, email,
// textarea and mcq fields, float64 for sliders.
type Answers map[string]any

// Feedback is one end-user submission against a project.
type Feedback struct {
	ID          string    `json:"id" bson:"_id"`
	ProjectID   string    `json:"projectId" bson:"projectId"`
	Answers     Answers   `json:"formAnswers" bson:"formAnswers"`
	SubmittedAt time.Time `json:"timestamp" bson:"timestamp"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// ValidEmail reports whether s is a syntactically valid address.
func ValidEmail(s string) bool {
	validateOnce.Do(func() { validate = validator.New() })
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

// Number converts decoded JSON/BSON numerics (and numeric strings posted
// from HTML forms) to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// Text renders any answer value for display.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	if n, ok := Number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// IsEmpty reports whether an answer counts as unanswered.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// CheckAnswers verifies that every key names a field of p and that each value
// has the field's kind. It returns a normalised copy.
func CheckAnswers(p *Project, a Answers) (Answers, error) {
	out := make(Answers, len(a))
	for key, raw := range a {
		f, idx, ok := p.FieldByID(key)
		if !ok {
			return nil, &Violation{Code: UnknownAnswerKey, Index: -1, Field: key, Message: "no such field in this form"}
		}
		bad := func(format string, args ...any) error {
			return &Violation{Code: InvalidAnswer, Index: idx, Field: key, Message: fmt.Sprintf(format, args...)}
		}
		if raw == nil {
			continue
		}
		switch f.Type {
		case FieldSlider:
			n, ok := Number(raw)
			if !ok {
				return nil, bad("slider answer must be a number")
			}
			if f.Config != nil && (n < f.Config.Min || n > f.Config.Max) {
				return nil, bad("%v is outside [%v, %v]", n, f.Config.Min, f.Config.Max)
			}
			out[key] = n
		case FieldMCQ:
			s, ok := raw.(string)
			if !ok {
				return nil, bad("choice answer must be a string")
			}
			if s != "" && !hasOption(f, s) {
				return nil, bad("%q is not one of the options", s)
			}
			out[key] = s
		case FieldEmail:
			s, ok := raw.(string)
			if !ok {
				return nil, bad("email answer must be a string")
			}
			if s = strings.TrimSpace(s); s != "" && !ValidEmail(s) {
				return nil, bad("%q is not a valid email address", s)
			}
			out[key] = s
		case FieldText, FieldTextarea:
			s, ok := raw.(string)
			if !ok {
				return nil, bad("answer must be a string")
			}
			out[key] = s
		default:
			return nil, bad("field has unknown type %q", f.Type)
		}
	}
	return out, nil
}

func hasOption(f Field, value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// LabelFor resolves an answer key to its field label. Keys of fields removed
// after submission resolve to ("", false).
func LabelFor(p *Project, key string) (string, bool) {
	f, _, ok := p.FieldByID(key)
	if !ok {
		return "", false
	}
	return f.Label, true
}
