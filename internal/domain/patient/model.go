package patient

import (
	"github.com/ehr/patientor/internal/domain/entry"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Genders returns the selectable genders in display order.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale, GenderOther}
}

// Valid reports whether g is one of Genders().
func (g Gender) Valid() bool {
	for _, v := range Genders() {
		if g == v {
			return true
		}
	}
	return false
}

// Symbol returns the glyph shown next to the patient name. Anything that is
// not male or female is rendered as unknown.
func (g Gender) Symbol() string {
	switch g {
	case GenderFemale:
		return "♀"
	case GenderMale:
		return "♂"
	default:
		return "?"
	}
}

// Patient as served by the remote API. Entries is absent from list responses.
// SSN is sensitive and only present for some patients.
type Patient struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Gender      Gender     `json:"gender"`
	Occupation  string     `json:"occupation"`
	SSN         *string    `json:"ssn,omitempty"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	Entries     entry.List `json:"entries,omitempty"`
}

// FormValues is a patient to be created; the remote service assigns the id
// and starts the entry list empty.
type FormValues struct {
	Name        string `json:"name"`
	Occupation  string `json:"occupation"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn,omitempty"`
	Gender      Gender `json:"gender"`
}
