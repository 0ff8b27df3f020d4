package entryform

import (
	"strconv"

	"github.com/ehr/patientor/internal/domain/entry"
)

// Kind selects the input control a field is rendered with.
type Kind string

const (
	KindText   Kind = "text"
	KindDate   Kind = "date"
	KindRating Kind = "rating"
)

// Field is one rendered input.
type Field struct {
	Name  string
	Label string
	Kind  Kind
	Value string
}

// Choice is one option of a select control.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// View is everything the template needs to draw the form.
type View struct {
	Types       []Choice
	Common      []Field
	Diagnoses   []Choice
	Variant     []Field
	VariantHint string
	Ratings     []Choice
}

// View snapshots the form for rendering.
func (b *Builder) View() View {
	s := b.State()
	return View{
		Types:       typeChoices(s.Type),
		Common:      commonFields(s),
		Diagnoses:   b.diagnosisChoices(s.DiagnosisCodes),
		Variant:     variantFields(s),
		VariantHint: variantHint(s.Type),
		Ratings:     ratingChoices(s.HealthCheckRating),
	}
}

// Fields returns the inputs of the active variant.
func (b *Builder) Fields() []Field {
	return variantFields(b.State())
}

func typeChoices(active entry.Type) []Choice {
	out := make([]Choice, 0, len(entry.Types()))
	for _, t := range entry.Types() {
		out = append(out, Choice{Value: string(t), Label: t.Label(), Selected: t == active})
	}
	return out
}

func commonFields(s State) []Field {
	return []Field{
		{Name: FieldDate, Label: "Date", Kind: KindDate, Value: s.Date},
		{Name: FieldDescription, Label: "Description", Kind: KindText, Value: s.Description},
		{Name: FieldSpecialist, Label: "Specialist", Kind: KindText, Value: s.Specialist},
	}
}

// diagnosisChoices lists the directory as "code - name". Selected codes the
// directory does not know are kept so they are not lost on re-render.
func (b *Builder) diagnosisChoices(selected []string) []Choice {
	picked := make(map[string]bool, len(selected))
	for _, c := range selected {
		picked[c] = true
	}

	codes := b.dir.Codes()
	out := make([]Choice, 0, len(codes)+len(selected))
	for _, code := range codes {
		out = append(out, Choice{Value: code, Label: code + " - " + b.dir.Name(code), Selected: picked[code]})
		delete(picked, code)
	}
	for _, code := range selected {
		if picked[code] {
			out = append(out, Choice{Value: code, Label: code + " - " + b.dir.Name(code), Selected: true})
		}
	}
	return out
}

func variantFields(s State) []Field {
	switch s.Type {
	case entry.TypeHealthCheck:
		return []Field{
			{Name: FieldHealthCheckRating, Label: "Health Check Rating", Kind: KindRating, Value: strconv.Itoa(int(s.HealthCheckRating))},
		}
	case entry.TypeOccupationalHealthcare:
		return []Field{
			{Name: FieldEmployerName, Label: "Employer Name", Kind: KindText, Value: s.EmployerName},
			{Name: FieldSickLeaveStart, Label: "Start Date", Kind: KindDate, Value: s.SickLeaveStart},
			{Name: FieldSickLeaveEnd, Label: "End Date", Kind: KindDate, Value: s.SickLeaveEnd},
		}
	case entry.TypeHospital:
		return []Field{
			{Name: FieldDischargeDate, Label: "Discharge Date", Kind: KindDate, Value: s.DischargeDate},
			{Name: FieldDischargeCriteria, Label: "Discharge Criteria", Kind: KindText, Value: s.DischargeCriteria},
		}
	default:
		return entry.AssertNever[[]Field](s.Type)
	}
}

func variantHint(t entry.Type) string {
	if t == entry.TypeOccupationalHealthcare {
		return "Sick Leave (optional)"
	}
	return ""
}

func ratingChoices(active entry.HealthCheckRating) []Choice {
	out := make([]Choice, 0, int(entry.MaxRating)+1)
	for r := entry.RatingHealthy; r <= entry.MaxRating; r++ {
		out = append(out, Choice{Value: strconv.Itoa(int(r)), Label: strconv.Itoa(int(r)) + " " + r.String(), Selected: r == active})
	}
	return out
}
