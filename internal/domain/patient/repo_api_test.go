package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/platform/apiclient"
)

func newAPIRepo(t *testing.T, h http.HandlerFunc) Repository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewRepo(apiclient.New(apiclient.Options{BaseURL: srv.URL, Timeout: 2 * time.Second}, zerolog.Nop()))
}

func TestRepoAPI_Get(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/patients/d2773336", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"d2773336","name":"Martin Riggs","dateOfBirth":"1979-01-30","ssn":"300179-77A",
			"gender":"male","occupation":"Cop","entries":[
			{"id":"fcd59fa6","date":"2019-08-05","type":"OccupationalHealthcare","specialist":"MD House",
			"employerName":"HyPD","description":"nuclear plant"}]}`)
	})

	p, err := repo.Get(context.Background(), "d2773336")
	require.NoError(t, err)
	assert.Equal(t, "Martin Riggs", p.Name)
	assert.Equal(t, GenderMale, p.Gender)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, entry.TypeOccupationalHealthcare, p.Entries[0].Type())
}

func TestRepoAPI_Get_NotFound(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"patient not found"}`)
	})

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))
}

func TestRepoAPI_Get_UnknownEntryType(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","name":"n","gender":"other","entries":[{"type":"Dental"}]}`)
	})

	_, err := repo.Get(context.Background(), "x")
	assert.True(t, errors.Is(err, entry.ErrUnknownType))
}

func TestRepoAPI_AddEntry(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/patients/p1/entries", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		require.NoError(t, json.Unmarshal(body, &m))
		assert.NotContains(t, m, "id")
		assert.Equal(t, "Hospital", m["type"])
		assert.Equal(t, []any{}, m["diagnosisCodes"])

		m["id"] = "new-id"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m)
	})

	created, err := repo.AddEntry(context.Background(), "p1", entry.NewFormValues(entry.HospitalEntry{
		Base:      entry.Base{Date: "2024-01-01", Description: "d", Specialist: "s"},
		Discharge: entry.Discharge{Date: "2024-01-03", Criteria: "ok"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.Common().ID)
	assert.Equal(t, entry.TypeHospital, created.Type())
}

func TestRepoAPI_Create(t *testing.T) {
	repo := newAPIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		var fv FormValues
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fv))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"new","name":%q,"gender":%q,"occupation":%q}`, fv.Name, fv.Gender, fv.Occupation)
	})

	p, err := repo.Create(context.Background(), FormValues{Name: "Hans Gruber", Gender: GenderOther, Occupation: "Technician"})
	require.NoError(t, err)
	assert.Equal(t, "new", p.ID)
	assert.Empty(t, p.Entries)
}
