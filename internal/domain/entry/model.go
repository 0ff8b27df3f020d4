// Package entry defines the medical entry attached to a patient record.
//
// An Entry is one of a closed set of variants. The set is sealed by an
// unexported marker method, so only this package can add a variant. Code that
// branches on the variant must handle every member of Types() and end its
// switch with AssertNever.
package entry

import "fmt"

// Type is the discriminator carried in the "type" field on the wire.
type Type string

const (
	TypeHealthCheck            Type = "HealthCheck"
	TypeOccupationalHealthcare Type = "OccupationalHealthcare"
	TypeHospital               Type = "Hospital"
)

// Types returns every entry variant in display order.
func Types() []Type {
	return []Type{TypeHealthCheck, TypeOccupationalHealthcare, TypeHospital}
}

// ParseType maps a wire discriminator to a Type.
func ParseType(s string) (Type, bool) {
	for _, t := range Types() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Label returns the human readable name of the variant.
func (t Type) Label() string {
	switch t {
	case TypeHealthCheck:
		return "Health Check"
	case TypeOccupationalHealthcare:
		return "Occupational Healthcare"
	case TypeHospital:
		return "Hospital"
	default:
		return AssertNever[string](t)
	}
}

// HealthCheckRating is the ordinal health-check scale, 0 (healthy) to 3.
type HealthCheckRating int

const (
	RatingHealthy HealthCheckRating = iota
	RatingLowRisk
	RatingHighRisk
	RatingCriticalRisk
)

// MaxRating is the highest value on the rating scale.
const MaxRating = RatingCriticalRisk

// Valid reports whether r lies on the rating scale.
func (r HealthCheckRating) Valid() bool {
	return r >= RatingHealthy && r <= MaxRating
}

func (r HealthCheckRating) String() string {
	switch r {
	case RatingHealthy:
		return "Healthy"
	case RatingLowRisk:
		return "LowRisk"
	case RatingHighRisk:
		return "HighRisk"
	case RatingCriticalRisk:
		return "CriticalRisk"
	}
	return fmt.Sprintf("HealthCheckRating(%d)", int(r))
}

// Base holds the fields shared by every variant.
type Base struct {
	ID             string   `json:"id,omitempty"`
	Date           string   `json:"date"`
	Description    string   `json:"description"`
	Specialist     string   `json:"specialist"`
	DiagnosisCodes []string `json:"diagnosisCodes,omitempty"`
}

// SickLeave is the optional date range of an occupational healthcare entry.
// It is either fully populated or absent.
type SickLeave struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Discharge is the mandatory discharge record of a hospital entry.
type Discharge struct {
	Date     string `json:"date"`
	Criteria string `json:"criteria"`
}

// Entry is the sealed union of entry variants.
type Entry interface {
	Type() Type
	Common() Base
	sealed()
}

type HealthCheckEntry struct {
	Base
	HealthCheckRating HealthCheckRating
}

type OccupationalHealthcareEntry struct {
	Base
	EmployerName string
	SickLeave    *SickLeave
}

type HospitalEntry struct {
	Base
	Discharge Discharge
}

func (HealthCheckEntry) Type() Type            { return TypeHealthCheck }
func (OccupationalHealthcareEntry) Type() Type { return TypeOccupationalHealthcare }
func (HospitalEntry) Type() Type               { return TypeHospital }

func (e HealthCheckEntry) Common() Base            { return e.Base }
func (e OccupationalHealthcareEntry) Common() Base { return e.Base }
func (e HospitalEntry) Common() Base               { return e.Base }

func (HealthCheckEntry) sealed()            {}
func (OccupationalHealthcareEntry) sealed() {}
func (HospitalEntry) sealed()               {}

// WithoutID returns a copy of e with the identifier cleared.
func WithoutID(e Entry) Entry {
	switch v := e.(type) {
	case HealthCheckEntry:
		v.ID = ""
		return v
	case OccupationalHealthcareEntry:
		v.ID = ""
		return v
	case HospitalEntry:
		v.ID = ""
		return v
	default:
		return AssertNever[Entry](e)
	}
}

// FormValues is an entry that has not been persisted yet. The remote service
// assigns the identifier, so FormValues never carries one.
type FormValues struct {
	Entry Entry
}

// NewFormValues wraps e, dropping any identifier it carries.
func NewFormValues(e Entry) FormValues {
	return FormValues{Entry: WithoutID(e)}
}

// Type returns the variant of the wrapped entry.
func (f FormValues) Type() Type { return f.Entry.Type() }
