package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/patientor/internal/domain/entry"
)

// ErrInvalid marks a patient form the service refused to send.
var ErrInvalid = errors.New("invalid patient")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) CreatePatient(ctx context.Context, fv FormValues) (*Patient, error) {
	fv.Name = strings.TrimSpace(fv.Name)
	fv.Occupation = strings.TrimSpace(fv.Occupation)
	fv.SSN = strings.TrimSpace(fv.SSN)
	if fv.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if fv.Gender == "" {
		fv.Gender = GenderOther
	}
	if !fv.Gender.Valid() {
		return nil, fmt.Errorf("%w: invalid gender: %s", ErrInvalid, fv.Gender)
	}
	return s.repo.Create(ctx, fv)
}

// AddEntry sends fv to the remote service. The returned entry carries the
// server-assigned id; callers re-fetch the patient for the authoritative list.
func (s *Service) AddEntry(ctx context.Context, patientID string, fv entry.FormValues) (entry.Entry, error) {
	if fv.Entry == nil {
		return nil, errors.New("entry is required")
	}
	return s.repo.AddEntry(ctx, patientID, fv)
}
