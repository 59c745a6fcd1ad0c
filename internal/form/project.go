package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Theme is the widget colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

// Project is a form definition owned by an account. Field order is display order.
type Project struct {
	ID          string    `json:"id" bson:"_id"`
	OwnerID     string    `json:"userId" bson:"userId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description,omitempty"`
	Theme       Theme     `json:"theme" bson:"theme"`
	Fields      []Field   `json:"fields" bson:"fields"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy so stored snapshots are never aliased.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Fields = make([]Field, len(p.Fields))
	for i, f := range p.Fields {
		c.Fields[i] = f.normalize()
	}
	return &c
}

// FieldByID looks a field up by its id.
func (p *Project) FieldByID(id string) (Field, int, bool) {
	for i, f := range p.Fields {
		if f.ID == id {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Draft is the editable part of a project, as sent by the dashboard.
type Draft struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description,omitempty"`
	Theme       Theme   `json:"theme" yaml:"theme,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// WarningCode names a convention that was not followed but is not rejected.
type WarningCode string

const FirstFieldNotEmail WarningCode = "FirstFieldNotEmail"

// Warning is a soft finding reported alongside a successful build.
type Warning struct {
	Code    WarningCode `json:"code"`
	Index   int         `json:"index"`
	Message string      `json:"message"`
}

// NewProjectID returns a fresh document id.
func NewProjectID() string { return primitive.NewObjectID().Hex() }

// NewFieldID returns a fresh field id.
func NewFieldID() string { return uuid.NewString() }

// Build validates a draft and returns a new project owned by ownerID.
func Build(d Draft, ownerID string) (*Project, []Warning, error) {
	fields, warnings, theme, err := checkDraft(d)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	return &Project{
		ID:          NewProjectID(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Theme:       theme,
		Fields:      fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, warnings, nil
}

// Replace validates a draft and returns existing with name, description,
// theme and fields replaced wholesale. Id, owner and creation time are kept.
func Replace(existing *Project, d Draft) (*Project, []Warning, error) {
	fields, warnings, theme, err := checkDraft(d)
	if err != nil {
		return nil, nil, err
	}
	p := existing.Clone()
	p.Name = strings.TrimSpace(d.Name)
	p.Description = d.Description
	p.Theme = theme
	p.Fields = fields
	p.UpdatedAt = time.Now().UTC()
	return p, warnings, nil
}

func checkDraft(d Draft) ([]Field, []Warning, Theme, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, nil, "", violation(MissingName, "name must not be empty")
	}
	theme := d.Theme
	if theme == "" {
		theme = ThemeLight
	}
	if !theme.Valid() {
		return nil, nil, "", violation(InvalidTheme, "theme must be light or dark, got %q", d.Theme)
	}
	if len(d.Fields) == 0 {
		return nil, nil, "", violation(EmptyForm, "a form needs at least one field")
	}

	fields := make([]Field, len(d.Fields))
	seen := make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		if err := ValidateField(f); err != nil {
			v := err.(*Violation)
			v.Index = i
			v.Field = f.ID
			return nil, nil, "", v
		}
		f = f.normalize()
		if f.ID == "" {
			f.ID = NewFieldID()
		}
		if prev, dup := seen[f.ID]; dup {
			return nil, nil, "", &Violation{
				Code:    DuplicateFieldID,
				Index:   i,
				Field:   f.ID,
				Message: fmt.Sprintf("id already used by field %d", prev),
			}
		}
		seen[f.ID] = i
		fields[i] = f
	}

	var warnings []Warning
	if first := fields[0]; first.Type != FieldEmail || !first.Required {
		warnings = append(warnings, Warning{
			Code:    FirstFieldNotEmail,
			Index:   0,
			Message: "the first field is expected to be a required email field",
		})
	}
	return fields, warnings, theme, nil
}
