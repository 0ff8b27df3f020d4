package entry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_HealthCheck(t *testing.T) {
	raw := `{"id":"b4f4eca1","date":"2019-10-20","specialist":"MD House","type":"HealthCheck",
		"description":"Yearly control visit.","healthCheckRating":1}`

	e, err := Decode([]byte(raw))
	require.NoError(t, err)

	hc, ok := e.(HealthCheckEntry)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "b4f4eca1", hc.ID)
	assert.Equal(t, RatingLowRisk, hc.HealthCheckRating)
	assert.Nil(t, hc.DiagnosisCodes)
}

func TestDecode_OccupationalHealthcare(t *testing.T) {
	raw := `{"id":"fcd59fa6","date":"2019-08-05","type":"OccupationalHealthcare","specialist":"MD House",
		"employerName":"HyPD","diagnosisCodes":["Z57.1","Z74.3","M51.2"],
		"description":"Patient mistakenly found himself in a nuclear plant waste site.",
		"sickLeave":{"startDate":"2019-08-05","endDate":"2019-08-28"}}`

	e, err := Decode([]byte(raw))
	require.NoError(t, err)

	oh, ok := e.(OccupationalHealthcareEntry)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "HyPD", oh.EmployerName)
	require.NotNil(t, oh.SickLeave)
	assert.Equal(t, SickLeave{StartDate: "2019-08-05", EndDate: "2019-08-28"}, *oh.SickLeave)
	assert.Equal(t, []string{"Z57.1", "Z74.3", "M51.2"}, oh.DiagnosisCodes)
}

func TestDecode_Hospital(t *testing.T) {
	raw := `{"id":"d811e46d","date":"2015-01-02","type":"Hospital","specialist":"MD House",
		"diagnosisCodes":["S62.5"],"description":"Healing time appr. 2 weeks.",
		"discharge":{"date":"2015-01-16","criteria":"Thumb has healed."}}`

	e, err := Decode([]byte(raw))
	require.NoError(t, err)

	h, ok := e.(HospitalEntry)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, Discharge{Date: "2015-01-16", Criteria: "Thumb has healed."}, h.Discharge)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"Dental","date":"2020-01-01"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestMarshal_VariantFieldsOnly(t *testing.T) {
	cases := []struct {
		entry   Entry
		present []string
		absent  []string
	}{
		{
			entry:   HealthCheckEntry{HealthCheckRating: RatingHealthy},
			present: []string{"type", "healthCheckRating"},
			absent:  []string{"employerName", "sickLeave", "discharge"},
		},
		{
			entry:   OccupationalHealthcareEntry{EmployerName: "Acme"},
			present: []string{"type", "employerName"},
			absent:  []string{"healthCheckRating", "sickLeave", "discharge"},
		},
		{
			entry:   HospitalEntry{},
			present: []string{"type", "discharge"},
			absent:  []string{"healthCheckRating", "employerName", "sickLeave"},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.entry.Type()), func(t *testing.T) {
			b, err := json.Marshal(tc.entry)
			require.NoError(t, err)

			var m map[string]any
			require.NoError(t, json.Unmarshal(b, &m))
			assert.Equal(t, string(tc.entry.Type()), m["type"])
			for _, k := range tc.present {
				assert.Contains(t, m, k)
			}
			for _, k := range tc.absent {
				assert.NotContains(t, m, k)
			}
		})
	}
}

func TestFormValues_MarshalOmitsIDAndKeepsEmptyCodes(t *testing.T) {
	fv := NewFormValues(HealthCheckEntry{
		Base:              Base{ID: "local", Date: "2024-01-01", Description: "d", Specialist: "s", DiagnosisCodes: []string{}},
		HealthCheckRating: RatingLowRisk,
	})

	b, err := json.Marshal(fv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"HealthCheck","date":"2024-01-01","description":"d","specialist":"s",
		"diagnosisCodes":[],"healthCheckRating":1}`, string(b))
}

func TestFormValues_MarshalKeepsCodes(t *testing.T) {
	fv := NewFormValues(HospitalEntry{
		Base:      Base{Date: "2024-02-02", DiagnosisCodes: []string{"S62.5"}},
		Discharge: Discharge{Date: "2024-02-09", Criteria: "ok"},
	})

	b, err := json.Marshal(fv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Hospital","date":"2024-02-02","description":"","specialist":"",
		"diagnosisCodes":["S62.5"],"discharge":{"date":"2024-02-09","criteria":"ok"}}`, string(b))
}

func TestList_UnmarshalKeepsServerOrder(t *testing.T) {
	raw := `[{"type":"Hospital","id":"3","date":"2015-01-02","discharge":{"date":"x","criteria":"y"}},
		{"type":"HealthCheck","id":"1","date":"2019-10-20","healthCheckRating":0}]`

	var l List
	require.NoError(t, json.Unmarshal([]byte(raw), &l))
	require.Len(t, l, 2)
	assert.Equal(t, "3", l[0].Common().ID)
	assert.Equal(t, "1", l[1].Common().ID)
}

func TestList_UnmarshalNull(t *testing.T) {
	var l List
	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Nil(t, l)
}

func TestList_UnmarshalUnknownType(t *testing.T) {
	var l List
	err := json.Unmarshal([]byte(`[{"type":"Dental"}]`), &l)
	assert.True(t, errors.Is(err, ErrUnknownType))
}
