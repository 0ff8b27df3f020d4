package diagnosis

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LoadDirectory fetches the full diagnosis list and builds the directory.
func (s *Service) LoadDirectory(ctx context.Context) (*Directory, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(list), nil
}
