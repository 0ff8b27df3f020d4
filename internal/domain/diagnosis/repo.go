package diagnosis

import "context"

type Repository interface {
	List(ctx context.Context) ([]Diagnosis, error)
}
