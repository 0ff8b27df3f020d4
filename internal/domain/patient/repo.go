package patient

import (
	"context"

	"github.com/ehr/patientor/internal/domain/entry"
)

type Repository interface {
	List(ctx context.Context) ([]*Patient, error)
	Get(ctx context.Context, id string) (*Patient, error)
	Create(ctx context.Context, fv FormValues) (*Patient, error)
	AddEntry(ctx context.Context, patientID string, fv entry.FormValues) (entry.Entry, error)
}
