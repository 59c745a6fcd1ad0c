package form

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func slider(min, max, step float64) Field {
	return Field{Type: FieldSlider, Label: "Rating", Config: &SliderConfig{Min: min, Max: max, Step: step}}
}

func TestValidateField(t *testing.T) {
	cases := []struct {
		name  string
		field Field
		want  Code
	}{
		{"text ok", Field{Type: FieldText, Label: "Name"}, ""},
		{"email ok", EmailField(""), ""},
		{"textarea ok", Field{Type: FieldTextarea, Label: "Anything else?"}, ""},
		{"unknown type", Field{Type: "date", Label: "When"}, InvalidFieldType},
		{"empty type", Field{Label: "When"}, InvalidFieldType},
		{"blank label", Field{Type: FieldText, Label: "   "}, MissingLabel},
		{"mcq without options", Field{Type: FieldMCQ, Label: "Pick"}, InvalidOptions},
		{"mcq blank option value", Field{Type: FieldMCQ, Label: "Pick", Options: []Option{{Label: "A", Value: " "}}}, InvalidOptions},
		{"mcq ok", Field{Type: FieldMCQ, Label: "Pick", Options: []Option{{Label: "A", Value: "a"}}}, ""},
		{"slider missing config", Field{Type: FieldSlider, Label: "Rate"}, InvalidSliderRange},
		{"slider min == max", slider(5, 5, 1), InvalidSliderRange},
		{"slider min > max", slider(10, 1, 1), InvalidSliderRange},
		{"slider zero step", slider(1, 5, 0), InvalidSliderRange},
		{"slider negative step", slider(1, 5, -1), InvalidSliderRange},
		{"slider infinite max", slider(1, math.Inf(1), 1), InvalidSliderRange},
		{"slider infinite min", slider(math.Inf(-1), 5, 1), InvalidSliderRange},
		{"slider NaN step", slider(1, 5, math.NaN()), InvalidSliderRange},
		{"slider infinite step", slider(1, 5, math.Inf(1)), InvalidSliderRange},
		{"slider ok", slider(1, 5, 1), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateField(tc.field)
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			var v *Violation
			require.True(t, errors.As(err, &v), "expected *Violation, got %v", err)
			assert.Equal(t, tc.want, v.Code)
		})
	}
}

func TestBuildAssignsIDsAndKeepsOrder(t *testing.T) {
	d := Draft{
		Name:   "  Beta feedback ",
		Fields: []Field{EmailField(""), {Type: FieldText, Label: "What did you like?"}},
	}
	p, warnings, err := Build(d, "owner-1")
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, "owner-1", p.OwnerID)
	assert.Equal(t, "Beta feedback", p.Name)
	assert.Equal(t, ThemeLight, p.Theme)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, FieldEmail, p.Fields[0].Type)
	assert.Equal(t, FieldText, p.Fields[1].Type)
	assert.NotEmpty(t, p.Fields[0].ID)
	assert.NotEqual(t, p.Fields[0].ID, p.Fields[1].ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestBuildRejections(t *testing.T) {
	_, _, err := Build(Draft{Name: "x"}, "o")
	requireCode(t, err, EmptyForm, -1)

	_, _, err = Build(Draft{Name: " ", Fields: []Field{EmailField("")}}, "o")
	requireCode(t, err, MissingName, -1)

	_, _, err = Build(Draft{Name: "x", Theme: "solarized", Fields: []Field{EmailField("")}}, "o")
	requireCode(t, err, InvalidTheme, -1)

	// first failure wins and carries its index
	_, _, err = Build(Draft{Name: "x", Fields: []Field{
		EmailField(""),
		{Type: FieldText, Label: ""},
		{Type: "date", Label: "later"},
	}}, "o")
	requireCode(t, err, MissingLabel, 1)

	_, _, err = Build(Draft{Name: "x", Fields: []Field{
		EmailField("same"),
		{ID: "same", Type: FieldText, Label: "dup"},
	}}, "o")
	requireCode(t, err, DuplicateFieldID, 1)
}

func requireCode(t *testing.T, err error, code Code, index int) {
	t.Helper()
	var v *Violation
	require.True(t, errors.As(err, &v), "expected *Violation, got %v", err)
	assert.Equal(t, code, v.Code)
	assert.Equal(t, index, v.Index)
}

func TestBuildWarnsWhenEmailFieldMissing(t *testing.T) {
	p, warnings, err := Build(Draft{Name: "x", Fields: []Field{{Type: FieldText, Label: "Hi"}}}, "o")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Len(t, warnings, 1)
	assert.Equal(t, FirstFieldNotEmail, warnings[0].Code)

	_, warnings, err = Build(Draft{Name: "x", Fields: []Field{{Type: FieldEmail, Label: "Email"}}}, "o")
	require.NoError(t, err)
	require.Len(t, warnings, 1, "optional email field should also be flagged")
}

func TestBuildNormalizesTypeExtras(t *testing.T) {
	p, _, err := Build(Draft{Name: "x", Fields: []Field{
		{Type: FieldEmail, Label: "Email", Required: true, Options: []Option{{Label: "a", Value: "a"}}, Config: &SliderConfig{Min: 0, Max: 1, Step: 1}},
	}}, "o")
	require.NoError(t, err)
	assert.Nil(t, p.Fields[0].Options)
	assert.Nil(t, p.Fields[0].Config)
}

func TestReplacePreservesIdentity(t *testing.T) {
	p, _, err := Build(Draft{Name: "v1", Fields: []Field{EmailField("e")}}, "owner")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	next, _, err := Replace(p, Draft{Name: "v2", Theme: ThemeDark, Fields: []Field{
		EmailField("e"), slider(1, 5, 1),
	}})
	require.NoError(t, err)
	assert.Equal(t, p.ID, next.ID)
	assert.Equal(t, p.OwnerID, next.OwnerID)
	assert.Equal(t, p.CreatedAt, next.CreatedAt)
	assert.True(t, next.UpdatedAt.After(p.UpdatedAt))
	assert.Equal(t, "v2", next.Name)
	assert.Equal(t, ThemeDark, next.Theme)
	require.Len(t, next.Fields, 2)

	// original snapshot untouched
	assert.Equal(t, "v1", p.Name)
	require.Len(t, p.Fields, 1)

	_, _, err = Replace(p, Draft{Name: "v3"})
	requireCode(t, err, EmptyForm, -1)
}

func TestFieldJSONAlwaysHasOptions(t *testing.T) {
	b, err := json.Marshal(Field{ID: "f", Type: FieldText, Label: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"options":[]`)
	assert.NotContains(t, string(b), `"config"`)
}

func TestParseFieldType(t *testing.T) {
	ft, err := ParseFieldType(" MCQ ")
	require.NoError(t, err)
	assert.Equal(t, FieldMCQ, ft)
	_, err = ParseFieldType("checkbox")
	require.Error(t, err)
}

func testProject(t *testing.T) *Project {
	t.Helper()
	s := slider(1, 5, 1)
	s.ID = "rate"
	p, _, err := Build(Draft{Name: "x", Fields: []Field{
		EmailField("email"),
		s,
		{ID: "pick", Type: FieldMCQ, Label: "Pick", Options: []Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}}},
		{ID: "notes", Type: FieldTextarea, Label: "Notes"},
	}}, "o")
	require.NoError(t, err)
	return p
}

func TestCheckAnswers(t *testing.T) {
	p := testProject(t)

	got, err := CheckAnswers(p, Answers{"email": " a@b.co ", "rate": json.Number("3"), "pick": "yes", "notes": "fine"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got["email"])
	assert.Equal(t, 3.0, got["rate"])

	got, err = CheckAnswers(p, Answers{"rate": "4"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, got["rate"])

	_, err = CheckAnswers(p, Answers{"gone": "x"})
	requireCode(t, err, UnknownAnswerKey, -1)

	_, err = CheckAnswers(p, Answers{"rate": 9.0})
	requireCode(t, err, InvalidAnswer, 1)

	_, err = CheckAnswers(p, Answers{"rate": "many"})
	requireCode(t, err, InvalidAnswer, 1)

	_, err = CheckAnswers(p, Answers{"pick": "maybe"})
	requireCode(t, err, InvalidAnswer, 2)

	_, err = CheckAnswers(p, Answers{"email": "not-an-email"})
	requireCode(t, err, InvalidAnswer, 0)

	_, err = CheckAnswers(p, Answers{"notes": 12.0})
	requireCode(t, err, InvalidAnswer, 3)
}

func TestLabelForStaleKey(t *testing.T) {
	p := testProject(t)
	label, ok := LabelFor(p, "rate")
	assert.True(t, ok)
	assert.Equal(t, "Rating", label)

	label, ok = LabelFor(p, "removed-field")
	assert.False(t, ok)
	assert.Equal(t, "", label)
}

func TestTextAndNumber(t *testing.T) {
	assert.Equal(t, "3", Text(3.0))
	assert.Equal(t, "2.5", Text(2.5))
	assert.Equal(t, "2", Text(int32(2)))
	assert.Equal(t, "ok", Text("ok"))
	assert.Equal(t, "", Text(nil))
	n, ok := Number(int64(7))
	assert.True(t, ok)
	assert.Equal(t, 7.0, n)
	_, ok = Number(true)
	assert.False(t, ok)
	assert.True(t, IsEmpty("  "))
	assert.False(t, IsEmpty(0.0))
}
