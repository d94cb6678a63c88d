package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Roles a turn can carry.
const (
	RoleDoctor    = "doctor"
	RoleAssistant = "assistant"
)

// SessionRef pairs the AI backend session with the persisted conversation
// record. The two are created together, 1:1.
type SessionRef struct {
	SessionID      string    `json:"session_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// Turn is one utterance in the exchange. Suggestions is populated once on
// assistant turns and never changes afterwards; Selection is the doctor's
// mutable record of which suggestions are checked.
type Turn struct {
	ID           uuid.UUID  `json:"id"`
	Role         string     `json:"role"`
	Text         string     `json:"text"`
	RevealedText string     `json:"revealed_text"`
	Timestamp    time.Time  `json:"timestamp"`
	IsError      bool       `json:"is_error,omitempty"`
	Suggestions  *Bundle    `json:"suggestions,omitempty"`
	Selection    *Selection `json:"selection,omitempty"`
}

// Selection marks which parts of a turn's suggestion bundle the doctor has
// checked for merging into the draft.
type Selection struct {
	Diagnosis      bool  `json:"diagnosis"`
	TreatmentNotes bool  `json:"treatment_notes"`
	Prescriptions  []int `json:"prescriptions"` // indices into Bundle.Prescriptions
}

// Record maps to the conversations table.
type Record struct {
	ID           uuid.UUID `db:"id" json:"conversation_id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	DoctorID     string    `db:"doctor_id" json:"doctor_id"`
	FirstMessage string    `db:"first_message" json:"first_message"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
}

// Message maps to the conversation_messages table.
type Message struct {
	ID             uuid.UUID `db:"id" json:"message_id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"-"`
	Sender         string    `db:"sender" json:"sender"`
	Body           string    `db:"body" json:"message"`
	SentAt         time.Time `db:"sent_at" json:"sent_at"`
}
