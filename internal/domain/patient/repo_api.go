package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/platform/apiclient"
)

type repoAPI struct {
	client *apiclient.Client
}

func NewRepo(client *apiclient.Client) Repository {
	return &repoAPI{client: client}
}

func (r *repoAPI) List(ctx context.Context) ([]*Patient, error) {
	var out []*Patient
	if err := r.client.Get(ctx, "/patients", &out); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func (r *repoAPI) Get(ctx context.Context, id string) (*Patient, error) {
	var out Patient
	if err := r.client.Get(ctx, "/patients/"+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return &out, nil
}

func (r *repoAPI) Create(ctx context.Context, fv FormValues) (*Patient, error) {
	var out Patient
	if err := r.client.Post(ctx, "/patients", fv, &out); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &out, nil
}

func (r *repoAPI) AddEntry(ctx context.Context, patientID string, fv entry.FormValues) (entry.Entry, error) {
	var raw json.RawMessage
	path := "/patients/" + url.PathEscape(patientID) + "/entries"
	if err := r.client.Post(ctx, path, fv, &raw); err != nil {
		return nil, fmt.Errorf("add entry to patient %s: %w", patientID, err)
	}
	created, err := entry.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("add entry to patient %s: %w", patientID, err)
	}
	return created, nil
}
