package encounter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/consultation"
	"github.com/clinic/clinic/internal/domain/conversation"
	"github.com/clinic/clinic/internal/domain/queue"
)

var (
	// ErrNoEncounter means no patient is active, so there is nothing to
	// edit or complete.
	ErrNoEncounter = errors.New("no encounter in progress")
	// ErrSubmitInFlight rejects a second completion attempt while one is
	// pending. Rejected, not queued: a duplicate billing record is worse
	// than asking the doctor to wait.
	ErrSubmitInFlight = errors.New("completion already in progress")
	// ErrSubmissionFailed wraps a rejected completion write. The draft and
	// active patient are untouched; the doctor may retry.
	ErrSubmissionFailed = errors.New("encounter submission failed")
)

// Orchestrator drives one encounter from call-next to completion. It owns
// the active patient, the consultation draft and the conversation session
// for the lifetime of the encounter.
type Orchestrator struct {
	queueSvc *queue.Service
	convSvc  *conversation.Service
	repo     Repository
	logger   zerolog.Logger

	mu      sync.Mutex
	state   State
	patient *queue.ActivePatient
	draft   *consultation.Draft
	session *conversation.Session
}

func NewOrchestrator(queueSvc *queue.Service, convSvc *conversation.Service, repo Repository, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		queueSvc: queueSvc,
		convSvc:  convSvc,
		repo:     repo,
		logger:   logger,
		state:    StateIdle,
		draft:    consultation.NewDraft(),
	}
}

// Adopt picks up an active patient left over from a previous run, so a
// restart mid-encounter does not strand the consultation.
func (o *Orchestrator) Adopt(ctx context.Context) error {
	p, err := o.queueSvc.ActivePatient(ctx)
	if errors.Is(err, queue.ErrNoActivePatient) {
		return nil
	}
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return nil
	}
	o.state = StatePatientActive
	o.patient = p
	o.draft.Reset()
	o.session = o.convSvc.NewSession(p.DoctorID)
	o.logger.Info().Str("patient", p.PatientName).Msg("adopted active patient")
	return nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Patient returns the active patient, or nil when idle.
func (o *Orchestrator) Patient() *queue.ActivePatient {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.patient == nil {
		return nil
	}
	p := *o.patient
	return &p
}

// Draft returns the live consultation draft. Valid only while a patient is
// active.
func (o *Orchestrator) Draft() (*consultation.Draft, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle {
		return nil, ErrNoEncounter
	}
	return o.draft, nil
}

// Session returns the encounter's conversation session.
func (o *Orchestrator) Session() (*conversation.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle || o.session == nil {
		return nil, ErrNoEncounter
	}
	return o.session, nil
}

// CallNext promotes the head of the waiting queue and opens a fresh
// encounter around them.
func (o *Orchestrator) CallNext(ctx context.Context, doctorID string) (*queue.ActivePatient, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return nil, queue.ErrEncounterInProgress
	}

	p, err := o.queueSvc.CallNext(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	o.state = StatePatientActive
	o.patient = p
	o.draft.Reset()
	if o.session != nil {
		o.session.Close()
	}
	o.session = o.convSvc.NewSession(doctorID)
	return p, nil
}

// MergeSuggestion applies the checked parts of an assistant turn's bundle to
// the draft and records the selection on the turn.
func (o *Orchestrator) MergeSuggestion(turnID uuid.UUID, sel conversation.Selection) error {
	o.mu.Lock()
	if o.state == StateIdle || o.session == nil {
		o.mu.Unlock()
		return ErrNoEncounter
	}
	sess, draft := o.session, o.draft
	o.mu.Unlock()

	var bundle *conversation.Bundle
	for _, t := range sess.Turns() {
		if t.ID == turnID {
			bundle = t.Suggestions
			break
		}
	}
	if bundle == nil {
		return conversation.ErrTurnNotFound
	}

	if err := sess.SetSelection(turnID, sel); err != nil {
		return err
	}
	draft.MergeSuggestion(*bundle, sel)
	return nil
}

// Complete submits the draft and releases the active patient. On failure the
// encounter stays live and the doctor may retry; on success the orchestrator
// returns to idle with a fresh draft.
func (o *Orchestrator) Complete(ctx context.Context) (*Completed, error) {
	o.mu.Lock()
	switch o.state {
	case StateIdle:
		o.mu.Unlock()
		return nil, ErrNoEncounter
	case StateCompleting:
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	}

	rec, err := o.draft.Snapshot()
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}

	o.state = StateCompleting
	patient := *o.patient
	o.mu.Unlock()

	enc := &Completed{
		PatientID:      patient.ID,
		PatientName:    patient.PatientName,
		DoctorID:       patient.DoctorID,
		Diagnosis:      rec.Diagnosis,
		TreatmentNotes: rec.TreatmentNotes,
		Prescriptions:  rec.Prescriptions,
		Services:       rec.Services,
	}

	if err := o.repo.Complete(ctx, enc); err != nil {
		o.mu.Lock()
		o.state = StatePatientActive
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	o.mu.Lock()
	o.state = StateIdle
	o.patient = nil
	o.draft.Reset()
	if o.session != nil {
		o.session.Close()
		o.session = nil
	}
	o.mu.Unlock()

	o.logger.Info().
		Str("patient", enc.PatientName).
		Str("encounter_id", enc.ID.String()).
		Msg("encounter completed")
	return enc, nil
}
