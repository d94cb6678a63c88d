package encounter

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/consultation"
)

// State of the orchestrator. Exactly one encounter can be active system-wide.
type State string

const (
	StateIdle          State = "idle"
	StatePatientActive State = "patient_active"
	StateCompleting    State = "completing"
)

// Completed maps to the encounters table: the durable snapshot written when
// an encounter finishes.
type Completed struct {
	ID             uuid.UUID                       `db:"id" json:"id"`
	PatientID      uuid.UUID                       `db:"patient_id" json:"patient_id"`
	PatientName    string                          `db:"patient_name" json:"patient_name"`
	DoctorID       string                          `db:"doctor_id" json:"doctor_id"`
	Diagnosis      string                          `db:"diagnosis" json:"diagnosis"`
	TreatmentNotes string                          `db:"treatment_notes" json:"treatment_notes"`
	Prescriptions  []consultation.PrescriptionRow  `db:"prescriptions" json:"prescriptions"`
	Services       []consultation.SelectedService  `db:"services" json:"services"`
	CompletedAt    time.Time                       `db:"completed_at" json:"completed_at"`
}
