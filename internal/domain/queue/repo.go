package queue

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CheckIn(ctx context.Context, e *Entry) error
	ListWaiting(ctx context.Context) ([]Entry, error)
	ActivePatient(ctx context.Context) (*ActivePatient, error)
	// Promote atomically removes the entry from the waiting queue and makes
	// it the active patient.
	Promote(ctx context.Context, entryID uuid.UUID, doctorID string) (*ActivePatient, error)
}
