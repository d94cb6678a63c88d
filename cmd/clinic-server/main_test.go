package main

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/queue"
)

func TestActivePatientObserver_DeduplicatesTicks(t *testing.T) {
	calls := 0
	logger := zerolog.New(io.Discard).Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		calls++
	}))
	observe := activePatientObserver(logger)

	p := &queue.ActivePatient{ID: uuid.New(), PatientName: "A", DoctorID: "doc-1", CalledAt: time.Now()}

	observe(p)
	observe(p)
	observe(p)
	if calls != 1 {
		t.Errorf("same patient logged %d times, want 1", calls)
	}

	observe(nil)
	if calls != 2 {
		t.Errorf("room release not logged, calls = %d", calls)
	}

	observe(nil)
	if calls != 2 {
		t.Errorf("repeated empty tick logged, calls = %d", calls)
	}
}
