package conversation

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

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO conversations (id, session_id, doctor_id, first_message)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at`,
		rec.ID, rec.SessionID, rec.DoctorID, rec.FirstMessage,
	).Scan(&rec.StartedAt)
}

func (r *repoPG) SaveExchange(ctx context.Context, conversationID uuid.UUID, doctorMsg, assistantMsg string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save exchange: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, m := range []struct {
		sender, body string
	}{
		{RoleDoctor, doctorMsg},
		{RoleAssistant, assistantMsg},
	} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_messages (id, conversation_id, sender, body)
			VALUES ($1,$2,$3,$4)`,
			uuid.New(), conversationID, m.sender, m.body,
		); err != nil {
			return fmt.Errorf("insert %s message: %w", m.sender, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET first_message = $1
		WHERE id = $2 AND first_message = ''`,
		doctorMsg, conversationID,
	); err != nil {
		return fmt.Errorf("stamp first message: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]Record, int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, session_id, doctor_id, first_message, started_at
		FROM conversations
		WHERE doctor_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.DoctorID, &rec.FirstMessage, &rec.StartedAt); err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM conversations WHERE doctor_id = $1`, doctorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var rec Record
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, session_id, doctor_id, first_message, started_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.SessionID, &rec.DoctorID, &rec.FirstMessage, &rec.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repoPG) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, conversation_id, sender, body, sent_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
