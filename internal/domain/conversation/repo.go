package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrConversationNotFound = errors.New("conversation not found")

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	// SaveExchange appends a doctor/assistant message pair and, when it is
	// the first pair, stamps the conversation's first message.
	SaveExchange(ctx context.Context, conversationID uuid.UUID, doctorMsg, assistantMsg string) error
	ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]Record, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
}
