package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
)

// Pinger checks the remote service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Shell is the application-wide state shared by every view: the patient list
// and the diagnosis directory, both fetched once at startup.
type Shell struct {
	patients  *patient.Service
	diagnoses *diagnosis.Service
	pinger    Pinger
	logger    zerolog.Logger

	mu   sync.RWMutex
	list []*patient.Patient
	dir  *diagnosis.Directory
}

func NewShell(patients *patient.Service, diagnoses *diagnosis.Service, pinger Pinger, logger zerolog.Logger) *Shell {
	return &Shell{
		patients:  patients,
		diagnoses: diagnoses,
		pinger:    pinger,
		logger:    logger.With().Str("component", "shell").Logger(),
		dir:       diagnosis.NewDirectory(nil),
	}
}

// Bootstrap fires the liveness ping without waiting for it and loads the
// patient list and the diagnosis directory in parallel. Each load is
// independent: a failure is logged and leaves its part empty while the other
// still completes. The returned error is the first failure, if any.
func (s *Shell) Bootstrap(ctx context.Context) error {
	if s.pinger != nil {
		go func() {
			pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := s.pinger.Ping(pingCtx); err != nil {
				s.logger.Warn().Err(err).Msg("remote api ping failed")
				return
			}
			s.logger.Debug().Msg("remote api ping ok")
		}()
	}

	var g errgroup.Group
	g.Go(func() error {
		list, err := s.patients.ListPatients(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to fetch patient list")
			return err
		}
		s.mu.Lock()
		s.list = list
		s.mu.Unlock()
		s.logger.Info().Int("patients", len(list)).Msg("patient list loaded")
		return nil
	})
	g.Go(func() error {
		dir, err := s.diagnoses.LoadDirectory(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to fetch diagnoses")
			return err
		}
		s.mu.Lock()
		s.dir = dir
		s.mu.Unlock()
		s.logger.Info().Int("diagnoses", dir.Len()).Msg("diagnosis directory loaded")
		return nil
	})
	return g.Wait()
}

// Patients returns the known patients in insertion order.
func (s *Shell) Patients() []*patient.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*patient.Patient, len(s.list))
	copy(out, s.list)
	return out
}

// AddPatient appends a newly created patient to the list.
func (s *Shell) AddPatient(p *patient.Patient) {
	s.mu.Lock()
	s.list = append(s.list, p)
	s.mu.Unlock()
}

// Directory returns the diagnosis directory. Before a successful Bootstrap
// it is empty.
func (s *Shell) Directory() *diagnosis.Directory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}
