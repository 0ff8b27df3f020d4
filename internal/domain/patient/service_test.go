package patient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/patientor/internal/domain/entry"
)

// -- Mock Repository --

type mockRepo struct {
	mu       sync.Mutex
	patients map[string]*Patient
	nextID   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[string]*Patient)}
}

func (m *mockRepo) List(context.Context) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Patient
	for _, p := range m.patients {
		cp := *p
		cp.Entries = nil
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, fv FormValues) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := &Patient{ID: fmt.Sprintf("p-%d", m.nextID), Name: fv.Name, Gender: fv.Gender, Occupation: fv.Occupation, DateOfBirth: fv.DateOfBirth}
	if fv.SSN != "" {
		ssn := fv.SSN
		p.SSN = &ssn
	}
	m.patients[p.ID] = p
	return p, nil
}

func (m *mockRepo) AddEntry(_ context.Context, patientID string, fv entry.FormValues) (entry.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[patientID]
	if !ok {
		return nil, errors.New("not found")
	}
	m.nextID++
	e := fv.Entry
	switch v := e.(type) {
	case entry.HealthCheckEntry:
		v.ID = fmt.Sprintf("e-%d", m.nextID)
		e = v
	case entry.OccupationalHealthcareEntry:
		v.ID = fmt.Sprintf("e-%d", m.nextID)
		e = v
	case entry.HospitalEntry:
		v.ID = fmt.Sprintf("e-%d", m.nextID)
		e = v
	}
	p.Entries = append(p.Entries, e)
	return e, nil
}

func TestService_CreatePatient(t *testing.T) {
	svc := NewService(newMockRepo())

	p, err := svc.CreatePatient(context.Background(), FormValues{
		Name: "  Martin Riggs ", Occupation: "Cop", DateOfBirth: "1979-01-30", SSN: "300179-77A", Gender: GenderMale,
	})
	require.NoError(t, err)
	assert.Equal(t, "Martin Riggs", p.Name)
	require.NotNil(t, p.SSN)
	assert.Equal(t, "300179-77A", *p.SSN)
}

func TestService_CreatePatient_DefaultsGender(t *testing.T) {
	svc := NewService(newMockRepo())

	p, err := svc.CreatePatient(context.Background(), FormValues{Name: "Matti Luukkainen"})
	require.NoError(t, err)
	assert.Equal(t, GenderOther, p.Gender)
	assert.Nil(t, p.SSN)
}

func TestService_CreatePatient_Invalid(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.CreatePatient(context.Background(), FormValues{Name: " "})
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = svc.CreatePatient(context.Background(), FormValues{Name: "x", Gender: "robot"})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestService_AddEntry(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	p, _ := svc.CreatePatient(context.Background(), FormValues{Name: "Dana Scully", Gender: GenderFemale})

	created, err := svc.AddEntry(context.Background(), p.ID, entry.NewFormValues(entry.HealthCheckEntry{
		Base: entry.Base{Date: "2024-01-01", Description: "d", Specialist: "s"},
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, created.Common().ID)

	fresh, err := svc.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, fresh.Entries, 1)
	assert.Equal(t, created.Common().ID, fresh.Entries[0].Common().ID)
}

func TestService_AddEntry_Nil(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.AddEntry(context.Background(), "p-1", entry.FormValues{})
	assert.Error(t, err)
}

func TestGender(t *testing.T) {
	assert.Equal(t, "♀", GenderFemale.Symbol())
	assert.Equal(t, "♂", GenderMale.Symbol())
	assert.Equal(t, "?", GenderOther.Symbol())
	assert.Equal(t, "?", Gender("").Symbol())
	assert.True(t, GenderOther.Valid())
	assert.False(t, Gender("x").Valid())
}
