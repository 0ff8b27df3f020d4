package diagnosis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/patientor/internal/platform/apiclient"
)

func TestDirectory_Name(t *testing.T) {
	d := NewDirectory([]Diagnosis{
		{Code: "Z57.1", Name: "Occupational exposure to radiation"},
		{Code: "M24.2", Name: "Disorder of ligament"},
	})

	assert.Equal(t, "Disorder of ligament", d.Name("M24.2"))
	assert.Equal(t, UnknownName, d.Name("S03.5"))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"M24.2", "Z57.1"}, d.Codes())
}

func TestDirectory_DuplicateCodeLastWins(t *testing.T) {
	d := NewDirectory([]Diagnosis{{Code: "A", Name: "first"}, {Code: "A", Name: "second"}})
	assert.Equal(t, "second", d.Name("A"))
	assert.Equal(t, 1, d.Len())
}

func TestDirectory_CodesReturnsCopy(t *testing.T) {
	d := NewDirectory([]Diagnosis{{Code: "A", Name: "a"}})
	codes := d.Codes()
	codes[0] = "mutated"
	assert.Equal(t, []string{"A"}, d.Codes())
}

func TestDirectory_Nil(t *testing.T) {
	var d *Directory
	assert.Equal(t, UnknownName, d.Name("A"))
	assert.Zero(t, d.Len())
	assert.Nil(t, d.Codes())
}

type mockRepo struct {
	list []Diagnosis
	err  error
}

func (m *mockRepo) List(context.Context) ([]Diagnosis, error) { return m.list, m.err }

func TestService_LoadDirectory(t *testing.T) {
	svc := NewService(&mockRepo{list: []Diagnosis{{Code: "J10.1", Name: "Influenza"}}})
	d, err := svc.LoadDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Influenza", d.Name("J10.1"))
}

func TestService_LoadDirectory_Error(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("down")})
	_, err := svc.LoadDirectory(context.Background())
	assert.Error(t, err)
}

func TestRepoAPI_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/diagnoses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"code":"S62.5","name":"Fracture of thumb","latin":"Fractura [ossis] pollicis"}]`))
	}))
	defer srv.Close()

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api", Timeout: time.Second}, zerolog.Nop())
	list, err := NewRepo(client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Latin)
	assert.Equal(t, "Fractura [ossis] pollicis", *list[0].Latin)
}
