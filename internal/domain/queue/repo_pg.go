package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) CheckIn(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO waiting_queue (id, patient_name, dob, gender, priority_tag, check_in_time)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.PatientName, e.DOB, e.Gender, e.PriorityTag, e.CheckInTime,
	)
	return err
}

func (r *repoPG) ListWaiting(ctx context.Context) ([]Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_name, dob, gender, priority_tag, check_in_time
		FROM waiting_queue
		ORDER BY
			CASE priority_tag WHEN 'Khẩn cấp' THEN 2 WHEN 'Ưu tiên' THEN 1 ELSE 0 END DESC,
			check_in_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PatientName, &e.DOB, &e.Gender, &e.PriorityTag, &e.CheckInTime); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repoPG) ActivePatient(ctx context.Context) (*ActivePatient, error) {
	var p ActivePatient
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_name, dob, gender, doctor_id, called_at
		FROM active_patient
		LIMIT 1`).
		Scan(&p.ID, &p.PatientName, &p.DOB, &p.Gender, &p.DoctorID, &p.CalledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActivePatient
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Promote(ctx context.Context, entryID uuid.UUID, doctorID string) (*ActivePatient, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin promote: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var e Entry
	err = tx.QueryRow(ctx, `
		DELETE FROM waiting_queue WHERE id = $1
		RETURNING id, patient_name, dob, gender, check_in_time`,
		entryID,
	).Scan(&e.ID, &e.PatientName, &e.DOB, &e.Gender, &e.CheckInTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPatientWaiting
	}
	if err != nil {
		return nil, fmt.Errorf("remove queue entry: %w", err)
	}

	p := &ActivePatient{
		ID:          e.ID,
		PatientName: e.PatientName,
		DOB:         e.DOB,
		Gender:      e.Gender,
		DoctorID:    doctorID,
	}
	// singleton_guard has a unique index, so a concurrent call-next loses here
	err = tx.QueryRow(ctx, `
		INSERT INTO active_patient (id, patient_name, dob, gender, doctor_id, singleton_guard)
		VALUES ($1,$2,$3,$4,$5,TRUE)
		RETURNING called_at`,
		p.ID, p.PatientName, p.DOB, p.Gender, p.DoctorID,
	).Scan(&p.CalledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEncounterInProgress
		}
		return nil, fmt.Errorf("set active patient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit promote: %w", err)
	}
	return p, nil
}
