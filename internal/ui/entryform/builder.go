// Package entryform collects the input for one new entry and assembles the
// payload of the selected variant.
//
// The builder holds every variant's fields at once. Only the fields of the
// active variant are rendered and emitted; the others stay in memory so that
// switching back restores what was typed, unless Options.ResetOnTypeChange is
// set.
package entryform

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/entry"
)

// Form field names shared with the HTML template.
const (
	FieldType              = "type"
	FieldDate              = "date"
	FieldDescription       = "description"
	FieldSpecialist        = "specialist"
	FieldDiagnosisCodes    = "diagnosisCodes"
	FieldHealthCheckRating = "healthCheckRating"
	FieldEmployerName      = "employerName"
	FieldSickLeaveStart    = "sickLeaveStart"
	FieldSickLeaveEnd      = "sickLeaveEnd"
	FieldDischargeDate     = "dischargeDate"
	FieldDischargeCriteria = "dischargeCriteria"
)

// SubmitFunc receives the assembled payload. The builder itself never talks
// to the network.
type SubmitFunc func(ctx context.Context, values entry.FormValues) error

// CancelFunc is invoked when the user abandons the form.
type CancelFunc func()

type Options struct {
	// ResetOnTypeChange clears the variant specific fields whenever the
	// active type changes. Off by default: values survive a type switch.
	ResetOnTypeChange bool
}

// State is the raw input of the form.
type State struct {
	Type           entry.Type
	Date           string
	Description    string
	Specialist     string
	DiagnosisCodes []string

	HealthCheckRating entry.HealthCheckRating

	EmployerName   string
	SickLeaveStart string
	SickLeaveEnd   string

	DischargeDate     string
	DischargeCriteria string
}

func (s *State) resetVariantFields() {
	s.HealthCheckRating = entry.RatingHealthy
	s.EmployerName = ""
	s.SickLeaveStart = ""
	s.SickLeaveEnd = ""
	s.DischargeDate = ""
	s.DischargeCriteria = ""
}

// Builder is the stateful add-entry form.
type Builder struct {
	mu       sync.Mutex
	dir      *diagnosis.Directory
	onSubmit SubmitFunc
	onCancel CancelFunc
	opts     Options
	state    State
}

// New returns a builder with HealthCheck selected and every field empty.
func New(dir *diagnosis.Directory, onSubmit SubmitFunc, onCancel CancelFunc, opts Options) *Builder {
	return &Builder{
		dir:      dir,
		onSubmit: onSubmit,
		onCancel: onCancel,
		opts:     opts,
		state:    State{Type: entry.TypeHealthCheck},
	}
}

// State returns a copy of the current input.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state
	s.DiagnosisCodes = append([]string(nil), b.state.DiagnosisCodes...)
	return s
}

// Type returns the active variant.
func (b *Builder) Type() entry.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Type
}

// SetType switches the active variant.
func (b *Builder) SetType(t entry.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setTypeLocked(t)
}

func (b *Builder) setTypeLocked(t entry.Type) {
	if t == b.state.Type {
		return
	}
	b.state.Type = t
	if b.opts.ResetOnTypeChange {
		b.state.resetVariantFields()
	}
}

// Apply copies posted form values into the builder. Only keys present in form
// are touched. Unknown type names and unparsable ratings are ignored; ratings
// outside the scale are clamped. A type change is applied after the field
// values, so a reset discards what was posted alongside it.
func (b *Builder) Apply(form url.Values) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &b.state
	setString(form, FieldDate, &s.Date)
	setString(form, FieldDescription, &s.Description)
	setString(form, FieldSpecialist, &s.Specialist)
	setString(form, FieldEmployerName, &s.EmployerName)
	setString(form, FieldSickLeaveStart, &s.SickLeaveStart)
	setString(form, FieldSickLeaveEnd, &s.SickLeaveEnd)
	setString(form, FieldDischargeDate, &s.DischargeDate)
	setString(form, FieldDischargeCriteria, &s.DischargeCriteria)

	if codes, ok := form[FieldDiagnosisCodes]; ok {
		s.DiagnosisCodes = cleanCodes(codes)
	}
	if raw, ok := form[FieldHealthCheckRating]; ok && len(raw) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(raw[0])); err == nil {
			s.HealthCheckRating = clampRating(n)
		}
	}
	if raw, ok := form[FieldType]; ok && len(raw) > 0 {
		if t, ok := entry.ParseType(raw[0]); ok {
			b.setTypeLocked(t)
		}
	}
}

func setString(form url.Values, key string, dst *string) {
	if v, ok := form[key]; ok && len(v) > 0 {
		*dst = v[0]
	}
}

// cleanCodes drops blanks and duplicates. The template always posts an empty
// value so that deselecting every code is distinguishable from not posting.
func cleanCodes(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func clampRating(n int) entry.HealthCheckRating {
	switch {
	case n < int(entry.RatingHealthy):
		return entry.RatingHealthy
	case n > int(entry.MaxRating):
		return entry.MaxRating
	}
	return entry.HealthCheckRating(n)
}

// Build assembles the payload for the active variant.
func (b *Builder) Build() entry.FormValues {
	b.mu.Lock()
	defer b.mu.Unlock()
	return build(b.state)
}

func build(s State) entry.FormValues {
	base := entry.Base{
		Date:           s.Date,
		Description:    s.Description,
		Specialist:     s.Specialist,
		DiagnosisCodes: append([]string{}, s.DiagnosisCodes...),
	}

	switch s.Type {
	case entry.TypeHealthCheck:
		return entry.NewFormValues(entry.HealthCheckEntry{Base: base, HealthCheckRating: s.HealthCheckRating})
	case entry.TypeOccupationalHealthcare:
		e := entry.OccupationalHealthcareEntry{Base: base, EmployerName: s.EmployerName}
		if s.SickLeaveStart != "" && s.SickLeaveEnd != "" {
			e.SickLeave = &entry.SickLeave{StartDate: s.SickLeaveStart, EndDate: s.SickLeaveEnd}
		}
		return entry.NewFormValues(e)
	case entry.TypeHospital:
		return entry.NewFormValues(entry.HospitalEntry{
			Base:      base,
			Discharge: entry.Discharge{Date: s.DischargeDate, Criteria: s.DischargeCriteria},
		})
	default:
		return entry.AssertNever[entry.FormValues](s.Type)
	}
}

// Submit builds the payload and hands it to the submit callback, returning
// whatever the callback returns. The builder keeps its state either way.
func (b *Builder) Submit(ctx context.Context) error {
	values := b.Build()
	if b.onSubmit == nil {
		return nil
	}
	return b.onSubmit(ctx, values)
}

// Cancel invokes the cancel callback.
func (b *Builder) Cancel() {
	if b.onCancel != nil {
		b.onCancel()
	}
}
