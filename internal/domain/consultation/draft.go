// Package consultation holds the physician-editable exam record for the
// active encounter: diagnosis, treatment notes, prescription rows and the
// billable services picked from the catalog.
package consultation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/conversation"
)

var (
	ErrIndexOutOfRange = errors.New("prescription row index out of range")
	// ErrEmptyDiagnosis blocks completion until a diagnosis is entered.
	ErrEmptyDiagnosis = errors.New("diagnosis is required")
)

// PrescriptionRow is one line of the prescription table. A row may be blank;
// blank rows are data-entry templates and are dropped from the snapshot.
type PrescriptionRow struct {
	DrugName     string `json:"drug_name"`
	Instructions string `json:"instructions"`
}

func (r PrescriptionRow) isBlank() bool {
	return strings.TrimSpace(r.DrugName) == "" && strings.TrimSpace(r.Instructions) == ""
}

// SelectedService is a catalog service the physician has picked for billing.
type SelectedService struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Quantity int       `json:"quantity"`
}

// Record is the immutable snapshot submitted on completion.
type Record struct {
	Diagnosis      string            `json:"diagnosis"`
	TreatmentNotes string            `json:"treatment_notes"`
	Prescriptions  []PrescriptionRow `json:"prescriptions"`
	Services       []SelectedService `json:"services"`
}

// Draft is the mutable exam record. All mutations are serialized by its
// mutex, so the "first empty row" rule stays deterministic under concurrent
// suggestion merges.
type Draft struct {
	mu       sync.Mutex
	diag     string
	notes    string
	rows     []PrescriptionRow
	services []SelectedService
}

// NewDraft returns the empty template: one blank prescription row, nothing
// else.
func NewDraft() *Draft {
	return &Draft{rows: []PrescriptionRow{{}}}
}

func (d *Draft) SetDiagnosis(text string) {
	d.mu.Lock()
	d.diag = text
	d.mu.Unlock()
}

func (d *Draft) SetTreatmentNotes(text string) {
	d.mu.Lock()
	d.notes = text
	d.mu.Unlock()
}

func (d *Draft) AddPrescriptionRow() {
	d.mu.Lock()
	d.rows = append(d.rows, PrescriptionRow{})
	d.mu.Unlock()
}

// RemovePrescriptionRow deletes a row. The table never shrinks below one row:
// removing the last remaining row clears it instead.
func (d *Draft) RemovePrescriptionRow(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.rows) {
		return ErrIndexOutOfRange
	}
	if len(d.rows) == 1 {
		d.rows[0] = PrescriptionRow{}
		return nil
	}
	d.rows = append(d.rows[:index], d.rows[index+1:]...)
	return nil
}

func (d *Draft) UpdatePrescriptionRow(index int, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.rows) {
		return ErrIndexOutOfRange
	}
	switch field {
	case "drug_name":
		d.rows[index].DrugName = value
	case "instructions":
		d.rows[index].Instructions = value
	default:
		return fmt.Errorf("unknown prescription field: %s", field)
	}
	return nil
}

// ToggleService adds the service to the selection, or removes it when
// already selected.
func (d *Draft) ToggleService(svc SelectedService) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.services {
		if s.ID == svc.ID {
			d.services = append(d.services[:i], d.services[i+1:]...)
			return
		}
	}
	if svc.Quantity <= 0 {
		svc.Quantity = 1
	}
	d.services = append(d.services, svc)
}

// MergeSuggestion applies the checked parts of a suggestion bundle. A checked
// diagnosis or notes suggestion replaces the field outright — the selection
// is an explicit overwrite. A checked prescription fills the first fully
// blank row, else appends; a row the physician already filled is never
// touched.
func (d *Draft) MergeSuggestion(bundle conversation.Bundle, sel conversation.Selection) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sel.Diagnosis && bundle.Diagnosis != nil {
		d.diag = *bundle.Diagnosis
	}
	if sel.TreatmentNotes && bundle.TreatmentNotes != nil {
		d.notes = *bundle.TreatmentNotes
	}
	for _, idx := range sel.Prescriptions {
		if idx < 0 || idx >= len(bundle.Prescriptions) {
			continue
		}
		p := bundle.Prescriptions[idx]
		d.fillOrAppend(PrescriptionRow{DrugName: p.DrugName, Instructions: p.Instructions})
	}
}

func (d *Draft) fillOrAppend(row PrescriptionRow) {
	for i := range d.rows {
		if d.rows[i].isBlank() {
			d.rows[i] = row
			return
		}
	}
	d.rows = append(d.rows, row)
}

// Snapshot validates the draft and returns the immutable record to submit.
// Blank template rows are dropped.
func (d *Draft) Snapshot() (Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if strings.TrimSpace(d.diag) == "" {
		return Record{}, ErrEmptyDiagnosis
	}

	rec := Record{
		Diagnosis:      d.diag,
		TreatmentNotes: d.notes,
		Prescriptions:  make([]PrescriptionRow, 0, len(d.rows)),
		Services:       append([]SelectedService{}, d.services...),
	}
	for _, r := range d.rows {
		if !r.isBlank() {
			rec.Prescriptions = append(rec.Prescriptions, r)
		}
	}
	return rec, nil
}

// Reset returns the draft to the empty template.
func (d *Draft) Reset() {
	d.mu.Lock()
	d.diag = ""
	d.notes = ""
	d.rows = []PrescriptionRow{{}}
	d.services = nil
	d.mu.Unlock()
}

// View returns a copy of the current editable state for display.
func (d *Draft) View() Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Record{
		Diagnosis:      d.diag,
		TreatmentNotes: d.notes,
		Prescriptions:  append([]PrescriptionRow{}, d.rows...),
		Services:       append([]SelectedService{}, d.services...),
	}
}
