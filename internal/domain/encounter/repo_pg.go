package encounter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/domain/consultation"
	"github.com/clinic/clinic/internal/domain/queue"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Complete(ctx context.Context, enc *Completed) error {
	prescriptions, err := json.Marshal(enc.Prescriptions)
	if err != nil {
		return fmt.Errorf("marshal prescriptions: %w", err)
	}
	services, err := json.Marshal(enc.Services)
	if err != nil {
		return fmt.Errorf("marshal services: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	enc.ID = uuid.New()
	if err := tx.QueryRow(ctx, `
		INSERT INTO encounters (id, patient_id, patient_name, doctor_id, diagnosis,
			treatment_notes, prescriptions, services)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING completed_at`,
		enc.ID, enc.PatientID, enc.PatientName, enc.DoctorID, enc.Diagnosis,
		enc.TreatmentNotes, prescriptions, services,
	).Scan(&enc.CompletedAt); err != nil {
		return fmt.Errorf("insert encounter: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM active_patient WHERE id = $1`, enc.PatientID)
	if err != nil {
		return fmt.Errorf("release active patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrNoActivePatient
	}

	return tx.Commit(ctx)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]Completed, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, patient_name, doctor_id, diagnosis,
			treatment_notes, prescriptions, services, completed_at
		FROM encounters
		ORDER BY completed_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var encs []Completed
	for rows.Next() {
		var enc Completed
		var prescriptions, services []byte
		if err := rows.Scan(&enc.ID, &enc.PatientID, &enc.PatientName, &enc.DoctorID,
			&enc.Diagnosis, &enc.TreatmentNotes, &prescriptions, &services, &enc.CompletedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(prescriptions, &enc.Prescriptions); err != nil {
			enc.Prescriptions = []consultation.PrescriptionRow{}
		}
		if err := json.Unmarshal(services, &enc.Services); err != nil {
			enc.Services = []consultation.SelectedService{}
		}
		encs = append(encs, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM encounters`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return encs, total, nil
}
