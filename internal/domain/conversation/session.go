package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/ai"
)

var (
	// ErrSessionCreate means the backend refused to open a session for the
	// given identity.
	ErrSessionCreate = errors.New("session create failed")
	// ErrSendInFlight rejects a second send while one round trip is pending.
	ErrSendInFlight = errors.New("a message is already in flight")
	// ErrTurnNotFound is returned for selection updates against an unknown
	// turn.
	ErrTurnNotFound = errors.New("turn not found")
)

// errorTurnText is what replaces a failed exchange in the transcript.
const errorTurnText = "Trợ lý AI không phản hồi. Vui lòng gửi lại tin nhắn."

type Service struct {
	repo           Repository
	ai             ai.Client
	logger         zerolog.Logger
	revealInterval time.Duration
}

func NewService(repo Repository, client ai.Client, logger zerolog.Logger, revealInterval time.Duration) *Service {
	return &Service{repo: repo, ai: client, logger: logger, revealInterval: revealInterval}
}

// Start opens a new backend session and its persisted conversation record.
func (s *Service) Start(ctx context.Context, doctorID string) (SessionRef, error) {
	if strings.TrimSpace(doctorID) == "" {
		return SessionRef{}, fmt.Errorf("%w: missing doctor id", ErrSessionCreate)
	}

	rec := &Record{
		SessionID: uuid.NewString(),
		DoctorID:  doctorID,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return SessionRef{}, fmt.Errorf("%w: %v", ErrSessionCreate, err)
	}
	return SessionRef{SessionID: rec.SessionID, ConversationID: rec.ID}, nil
}

// NewSession returns an unstarted session for one conversation panel. The
// backend session is established lazily by the first Send.
func (s *Service) NewSession(doctorID string) *Session {
	return &Session{svc: s, doctorID: doctorID}
}

// ResumeSession rebuilds a session over an existing conversation so a doctor
// can continue a past exchange.
func (s *Service) ResumeSession(ctx context.Context, conversationID uuid.UUID) (*Session, error) {
	rec, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		svc:      s,
		doctorID: rec.DoctorID,
		ref:      &SessionRef{SessionID: rec.SessionID, ConversationID: rec.ID},
	}
	for _, m := range msgs {
		turn := &Turn{
			ID:           m.ID,
			Role:         m.Sender,
			Text:         m.Body,
			RevealedText: m.Body,
			Timestamp:    m.SentAt,
		}
		if m.Sender == RoleAssistant {
			b := Extract(m.Body)
			turn.Suggestions = &b
			turn.Selection = &Selection{}
		}
		sess.turns = append(sess.turns, turn)
	}
	return sess, nil
}

// Session holds one panel's exchange with the assistant. All methods are safe
// for concurrent use; at most one AI round trip is in flight at a time.
type Session struct {
	svc      *Service
	doctorID string

	mu       sync.Mutex
	ref      *SessionRef
	turns    []*Turn
	inFlight bool
	reveal   *RevealTask
}

// Ref returns the session identity, or nil before the first Send/Start.
func (sess *Session) Ref() *SessionRef {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ref == nil {
		return nil
	}
	ref := *sess.ref
	return &ref
}

// Turns returns a snapshot of the transcript.
func (sess *Session) Turns() []Turn {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]Turn, len(sess.turns))
	for i, t := range sess.turns {
		out[i] = *t
	}
	return out
}

// Send performs one blocking round trip to the assistant. The session id is
// captured at send time — established first when absent — so a message can
// never be routed to a stale or not-yet-created session. On assistant failure
// the doctor turn is retracted and a terminal error turn takes its place; the
// doctor resends manually, nothing retries here.
func (sess *Session) Send(ctx context.Context, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty message")
	}

	sess.mu.Lock()
	if sess.inFlight {
		sess.mu.Unlock()
		return nil, ErrSendInFlight
	}
	sess.inFlight = true
	prior := sess.reveal
	sess.reveal = nil
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.inFlight = false
		sess.mu.Unlock()
	}()

	// a reveal from the previous turn must not keep writing
	if prior != nil {
		prior.Cancel()
	}

	ref, err := sess.ensureRef(ctx)
	if err != nil {
		return nil, err
	}
	sessionID := ref.SessionID

	doctorTurn := &Turn{
		ID:           uuid.New(),
		Role:         RoleDoctor,
		Text:         text,
		RevealedText: text,
		Timestamp:    time.Now().UTC(),
	}
	sess.appendTurn(doctorTurn)

	reply, err := sess.svc.ai.Generate(ctx, sessionID, text)
	if err != nil {
		sess.retract(doctorTurn.ID)
		sess.appendTurn(&Turn{
			ID:           uuid.New(),
			Role:         RoleAssistant,
			Text:         errorTurnText,
			RevealedText: errorTurnText,
			Timestamp:    time.Now().UTC(),
			IsError:      true,
		})
		return nil, err
	}

	bundle := Extract(reply)
	turn := &Turn{
		ID:          uuid.New(),
		Role:        RoleAssistant,
		Text:        reply,
		Timestamp:   time.Now().UTC(),
		Suggestions: &bundle,
		Selection:   &Selection{},
	}
	sess.appendTurn(turn)

	// best-effort: a failed history save never disturbs the exchange
	if err := sess.svc.repo.SaveExchange(ctx, ref.ConversationID, text, reply); err != nil {
		sess.svc.logger.Warn().Err(err).
			Str("conversation_id", ref.ConversationID.String()).
			Msg("history save failed")
	}

	snapshot := *turn
	return &snapshot, nil
}

// StartReveal begins the typing effect for a turn, cancelling any reveal
// already in progress.
func (sess *Session) StartReveal(turnID uuid.UUID) (*RevealTask, error) {
	sess.mu.Lock()
	var target *Turn
	for _, t := range sess.turns {
		if t.ID == turnID {
			target = t
			break
		}
	}
	prior := sess.reveal
	sess.mu.Unlock()

	if target == nil {
		return nil, ErrTurnNotFound
	}
	if prior != nil {
		prior.Cancel()
	}

	task := StartReveal(target.Text, sess.svc.revealInterval, func(prefix string) {
		sess.mu.Lock()
		target.RevealedText = prefix
		sess.mu.Unlock()
	})

	sess.mu.Lock()
	sess.reveal = task
	sess.mu.Unlock()
	return task, nil
}

// SetSelection records which suggestions the doctor has checked on a turn.
func (sess *Session) SetSelection(turnID uuid.UUID, sel Selection) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, t := range sess.turns {
		if t.ID == turnID {
			if t.Role != RoleAssistant || t.Suggestions == nil {
				return fmt.Errorf("turn has no suggestions")
			}
			s := sel
			t.Selection = &s
			return nil
		}
	}
	return ErrTurnNotFound
}

// Close tears the panel down: any in-flight reveal is cancelled.
func (sess *Session) Close() {
	sess.mu.Lock()
	prior := sess.reveal
	sess.reveal = nil
	sess.mu.Unlock()
	if prior != nil {
		prior.Cancel()
	}
}

func (sess *Session) ensureRef(ctx context.Context) (SessionRef, error) {
	sess.mu.Lock()
	if sess.ref != nil {
		ref := *sess.ref
		sess.mu.Unlock()
		return ref, nil
	}
	sess.mu.Unlock()

	ref, err := sess.svc.Start(ctx, sess.doctorID)
	if err != nil {
		return SessionRef{}, err
	}

	sess.mu.Lock()
	sess.ref = &ref
	sess.mu.Unlock()
	return ref, nil
}

func (sess *Session) appendTurn(t *Turn) {
	sess.mu.Lock()
	sess.turns = append(sess.turns, t)
	sess.mu.Unlock()
}

func (sess *Session) retract(turnID uuid.UUID) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for i, t := range sess.turns {
		if t.ID == turnID {
			sess.turns = append(sess.turns[:i], sess.turns[i+1:]...)
			return
		}
	}
}
