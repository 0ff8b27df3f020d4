package diagnosis

import (
	"context"
	"fmt"

	"github.com/ehr/patientor/internal/platform/apiclient"
)

type repoAPI struct {
	client *apiclient.Client
}

func NewRepo(client *apiclient.Client) Repository {
	return &repoAPI{client: client}
}

func (r *repoAPI) List(ctx context.Context) ([]Diagnosis, error) {
	var out []Diagnosis
	if err := r.client.Get(ctx, "/diagnoses", &out); err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	return out, nil
}
