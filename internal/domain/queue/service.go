package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoPatientWaiting means the waiting queue is empty.
	ErrNoPatientWaiting = errors.New("no patient waiting")
	// ErrNoActivePatient means no encounter is in progress.
	ErrNoActivePatient = errors.New("no active patient")
	// ErrEncounterInProgress means an active patient already exists; only one
	// is permitted system-wide.
	ErrEncounterInProgress = errors.New("encounter already in progress")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CheckIn(ctx context.Context, e *Entry) error {
	if strings.TrimSpace(e.PatientName) == "" {
		return fmt.Errorf("patient_name is required")
	}
	if e.PriorityTag != nil && *e.PriorityTag != PriorityEmergency && *e.PriorityTag != PriorityPreferred {
		return fmt.Errorf("invalid priority_tag: %s", *e.PriorityTag)
	}
	if e.CheckInTime.IsZero() {
		e.CheckInTime = time.Now().UTC()
	}
	return s.repo.CheckIn(ctx, e)
}

// ListWaiting returns the queue in calling order. The repository already
// orders its result, but the sort is applied again so the contract does not
// depend on any one implementation.
func (s *Service) ListWaiting(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.ListWaiting(ctx)
	if err != nil {
		return nil, err
	}
	SortEntries(entries)
	return entries, nil
}

func (s *Service) ActivePatient(ctx context.Context) (*ActivePatient, error) {
	return s.repo.ActivePatient(ctx)
}

// CallNext promotes the head of the waiting queue to active patient. The
// promotion is the single externally visible mutation of this component.
func (s *Service) CallNext(ctx context.Context, doctorID string) (*ActivePatient, error) {
	current, err := s.repo.ActivePatient(ctx)
	if err != nil && !errors.Is(err, ErrNoActivePatient) {
		return nil, err
	}
	if current != nil {
		return nil, ErrEncounterInProgress
	}

	entries, err := s.ListWaiting(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoPatientWaiting
	}

	return s.repo.Promote(ctx, entries[0].ID, doctorID)
}
