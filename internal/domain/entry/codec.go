package entry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when decoding an entry whose "type" is not one of
// Types().
var ErrUnknownType = errors.New("unknown entry type")

type healthCheckWire struct {
	Type Type `json:"type"`
	Base
	HealthCheckRating HealthCheckRating `json:"healthCheckRating"`
}

type occupationalWire struct {
	Type Type `json:"type"`
	Base
	EmployerName string     `json:"employerName"`
	SickLeave    *SickLeave `json:"sickLeave,omitempty"`
}

type hospitalWire struct {
	Type Type `json:"type"`
	Base
	Discharge Discharge `json:"discharge"`
}

func (e HealthCheckEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(healthCheckWire{Type: TypeHealthCheck, Base: e.Base, HealthCheckRating: e.HealthCheckRating})
}

func (e OccupationalHealthcareEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(occupationalWire{Type: TypeOccupationalHealthcare, Base: e.Base, EmployerName: e.EmployerName, SickLeave: e.SickLeave})
}

func (e HospitalEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(hospitalWire{Type: TypeHospital, Base: e.Base, Discharge: e.Discharge})
}

// MarshalJSON encodes the wrapped entry without an identifier. An empty
// diagnosis code list is sent as [] so the payload always carries the field.
func (f FormValues) MarshalJSON() ([]byte, error) {
	e := WithoutID(f.Entry)
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	if len(e.Common().DiagnosisCodes) > 0 {
		return raw, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["diagnosisCodes"] = json.RawMessage("[]")
	return json.Marshal(m)
}

// Decode parses a single entry, dispatching on its "type" field.
func Decode(data []byte) (Entry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	t, ok := ParseType(head.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}

	switch t {
	case TypeHealthCheck:
		var w healthCheckWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", t, err)
		}
		return HealthCheckEntry{Base: w.Base, HealthCheckRating: w.HealthCheckRating}, nil
	case TypeOccupationalHealthcare:
		var w occupationalWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", t, err)
		}
		return OccupationalHealthcareEntry{Base: w.Base, EmployerName: w.EmployerName, SickLeave: w.SickLeave}, nil
	case TypeHospital:
		var w hospitalWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", t, err)
		}
		return HospitalEntry{Base: w.Base, Discharge: w.Discharge}, nil
	default:
		return AssertNever[Entry](t), nil
	}
}

// List is an ordered sequence of entries as returned by the remote service.
type List []Entry

func (l *List) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode entry list: %w", err)
	}
	if raws == nil {
		*l = nil
		return nil
	}
	out := make(List, 0, len(raws))
	for i, raw := range raws {
		e, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	*l = out
	return nil
}
