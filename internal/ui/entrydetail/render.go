// Package entrydetail renders the read-only view of a single entry.
package entrydetail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/entry"
)

var variantTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"hearts": hearts,
}).Parse(`
{{define "healthCheck"}}<div class="entry-variant health-check">
  <p>Health check rating: {{.HealthCheckRating | printf "%d"}} <span class="hearts" title="{{.HealthCheckRating}}">{{hearts .HealthCheckRating}}</span></p>
</div>{{end}}
{{define "occupationalHealthcare"}}<div class="entry-variant occupational-healthcare">
  <p>Employer: {{.EmployerName}}</p>
  {{- with .SickLeave}}
  <p>Sick leave: {{.StartDate}} - {{.EndDate}}</p>
  {{- end}}
</div>{{end}}
{{define "hospital"}}<div class="entry-variant hospital">
  <p>Discharge: {{.Discharge.Date}}</p>
  <p>Criteria: {{.Discharge.Criteria}}</p>
</div>{{end}}
`))

// hearts draws the rating as filled and empty hearts; a healthy patient gets
// all filled.
func hearts(r entry.HealthCheckRating) string {
	if !r.Valid() {
		return ""
	}
	filled := int(entry.MaxRating - r)
	return strings.Repeat("♥", filled) + strings.Repeat("♡", int(entry.MaxRating)-filled)
}

// Render produces the variant specific fragment of e.
func Render(e entry.Entry) (template.HTML, error) {
	var name string
	switch e.(type) {
	case entry.HealthCheckEntry:
		name = "healthCheck"
	case entry.OccupationalHealthcareEntry:
		name = "occupationalHealthcare"
	case entry.HospitalEntry:
		name = "hospital"
	default:
		return entry.AssertNever[template.HTML](e), nil
	}

	var buf bytes.Buffer
	if err := variantTemplates.ExecuteTemplate(&buf, name, e); err != nil {
		return "", fmt.Errorf("render %s entry: %w", e.Type(), err)
	}
	return template.HTML(buf.String()), nil
}

// DiagnosisLine is one diagnosis code with its display name.
type DiagnosisLine struct {
	Code  string
	Name  string
	Known bool
}

// View is the full card of one entry: the shared fields plus the rendered
// variant fragment.
type View struct {
	ID          string
	Type        entry.Type
	Label       string
	Date        string
	Description string
	Specialist  string
	Diagnoses   []DiagnosisLine
	Detail      template.HTML
}

// Build assembles the card of e. Codes missing from dir are shown with the
// diagnosis.UnknownName placeholder.
func Build(e entry.Entry, dir *diagnosis.Directory) (View, error) {
	detail, err := Render(e)
	if err != nil {
		return View{}, err
	}

	base := e.Common()
	v := View{
		ID:          base.ID,
		Type:        e.Type(),
		Label:       e.Type().Label(),
		Date:        base.Date,
		Description: base.Description,
		Specialist:  base.Specialist,
		Detail:      detail,
	}
	for _, code := range base.DiagnosisCodes {
		name, ok := dir.Lookup(code)
		if !ok {
			name = diagnosis.UnknownName
		}
		v.Diagnoses = append(v.Diagnoses, DiagnosisLine{Code: code, Name: name, Known: ok})
	}
	return v, nil
}

// BuildAll builds a card per entry, keeping their order.
func BuildAll(entries []entry.Entry, dir *diagnosis.Directory) ([]View, error) {
	out := make([]View, 0, len(entries))
	for _, e := range entries {
		v, err := Build(e, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
