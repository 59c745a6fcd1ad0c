package widget

import (
	"errors"
	"html/template"
	"sort"
	"strconv"

	"github.com/unified-feedback/unified/backend/internal/form"
)

// AnswerPrefix prefixes answer inputs in the embed page form.
const AnswerPrefix = "a."

// TemplateName is the name the embed page template is registered under.
const TemplateName = "embed.html"

// Hidden is an answer carried from earlier steps.
type Hidden struct {
	Name  string
	Value string
}

// Page is the view model of one embed page render.
type Page struct {
	Action      string
	Name        string
	Description string
	Theme       form.Theme
	Step        int
	Number      int
	Total       int
	First       bool
	Last        bool
	Label       string
	Required    bool
	InputName   string
	Error       string
	Submitted   bool
	Hidden      []Hidden

	Text     *TextControl
	TextArea *TextAreaControl
	Choice   *ChoiceControl
	Slider   *SliderControl
}

// Format renders slider numbers without trailing zeros.
func (p Page) Format(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// NewPage builds the view of f's current state. A non-nil flowErr, usually
// from Next, is shown above the field.
func NewPage(f *Flow, action string, flowErr error) (Page, error) {
	p := f.Project()
	page := Page{
		Action:      action,
		Name:        p.Name,
		Description: p.Description,
		Theme:       p.Theme,
		Step:        f.Step(),
		Number:      f.Step() + 1,
		Total:       f.Total(),
		First:       f.IsFirst(),
		Last:        f.IsLast(),
		Submitted:   f.Submitted(),
	}
	if flowErr != nil {
		page.Error = userMessage(flowErr)
	}
	if page.Submitted {
		return page, nil
	}

	cur := f.Current()
	page.Label = cur.Label
	page.Required = cur.Required
	page.InputName = AnswerPrefix + cur.ID

	answers := f.Answers()
	keys := make([]string, 0, len(answers))
	for k := range answers {
		if k != cur.ID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		page.Hidden = append(page.Hidden, Hidden{Name: AnswerPrefix + k, Value: form.Text(answers[k])})
	}

	ctl, err := f.Control()
	if err != nil {
		return page, err
	}
	switch c := ctl.(type) {
	case *TextControl:
		page.Text = c
	case *TextAreaControl:
		page.TextArea = c
	case *ChoiceControl:
		page.Choice = c
	case *SliderControl:
		page.Slider = c
	}
	return page, nil
}

func userMessage(err error) string {
	var se *SubmitError
	switch {
	case errors.As(err, &se):
		return "We could not send your feedback. Please try again."
	case errors.Is(err, ErrRequired):
		return ErrRequired.Error()
	case errors.Is(err, ErrInvalidEmail):
		return ErrInvalidEmail.Error()
	case errors.Is(err, ErrFlowComplete):
		return ErrFlowComplete.Error()
	}
	return "Something went wrong."
}

// Templates returns the parsed embed page template.
func Templates() *template.Template {
	return template.Must(template.New(TemplateName).Parse(pageHTML))
}

const pageHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Name}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;padding:2rem}
.light{background:#fff;color:#171717}
.dark{background:#191919;color:#fafafa}
.dark input,.dark textarea{background:#262626;border:1px solid #383838;color:#fafafa}
input[type=text],input[type=email],textarea{width:100%;padding:.75rem;border-radius:.5rem;border:1px solid #e5e7eb;box-sizing:border-box}
textarea{height:6rem;resize:none}
.error{color:#ef4444}
.required{color:#ef4444;margin-left:.25rem}
.nav{display:flex;justify-content:space-between;padding-top:1.5rem}
</style>
</head>
<body class="{{.Theme}}">
<h2>{{.Name}}</h2>
{{if .Submitted}}
<p>Thank you for your feedback!</p>
{{else}}
<p>Step {{.Number}} of {{.Total}}</p>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="{{.Action}}">
<input type="hidden" name="step" value="{{.Step}}">
{{range .Hidden}}<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{end}}
<label>{{.Label}}{{if .Required}}<span class="required">*</span>{{end}}</label>
{{with .Text}}<input type="{{.InputType}}" name="{{$.InputName}}" value="{{.Value}}" placeholder="{{$.Label}}"{{if $.Required}} required{{end}}>{{end}}
{{with .TextArea}}<textarea name="{{$.InputName}}" placeholder="{{$.Label}}"{{if $.Required}} required{{end}}>{{.Value}}</textarea>{{end}}
{{with .Choice}}{{range .Choices}}<label><input type="radio" name="{{$.InputName}}" value="{{.Value}}"{{if .Selected}} checked{{end}}> {{.Label}}</label><br>
{{end}}{{end}}
{{with .Slider}}<input type="range" name="{{$.InputName}}" min="{{$.Format .Min}}" max="{{$.Format .Max}}" step="{{$.Format .Step}}" value="{{$.Format .Value}}">
<div><span>{{$.Format .Min}}</span> <span>{{$.Format .Max}}</span></div>{{end}}
<div class="nav">
{{if not .First}}<button type="submit" name="action" value="previous" formnovalidate>Previous</button>{{else}}<span></span>{{end}}
<button type="submit" name="action" value="next">{{if .Last}}Submit{{else}}Next{{end}}</button>
</div>
</form>
{{end}}
</body>
</html>`
