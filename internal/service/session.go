package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/medassist/internal/domain"
)

// TurnState is the state of a session's in-flight turn.
type TurnState string

const (
	StateIdle          TurnState = "idle"
	StateUserSubmitted TurnState = "user_submitted"
	StateRetrieving    TurnState = "retrieving"
	StateComposing     TurnState = "composing"
	StateGenerating    TurnState = "generating"
	StateAppended      TurnState = "appended"
)

var turnTransitions = map[TurnState][]TurnState{
	StateIdle:          {StateUserSubmitted},
	StateUserSubmitted: {StateRetrieving, StateAppended},
	StateRetrieving:    {StateComposing, StateAppended},
	StateComposing:     {StateGenerating, StateAppended},
	StateGenerating:    {StateAppended},
	StateAppended:      {StateIdle},
}

func canTransition(from, to TurnState) bool {
	for _, next := range turnTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Analyzer answers a single user question.
type Analyzer interface {
	Analyze(ctx context.Context, query string, observe StageObserver) (*Analysis, error)
}

// Session is one conversation. Turns are only ever appended, and at most one
// turn is in flight at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	turns        []domain.Turn
	state        TurnState
	lastActive   time.Time
	onTransition func(from, to TurnState)
}

func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		state:      StateIdle,
		lastActive: now,
	}
}

// OnTransition registers fn to be called on every state change.
func (s *Session) OnTransition(fn func(from, to TurnState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTransition = fn
}

func (s *Session) State() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the conversation so far.
func (s *Session) Turns() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastActive is the time of the last lookup or appended turn, or creation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now().UTC()
	s.mu.Unlock()
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Submit appends the user turn, runs exactly one analysis and appends exactly
// one assistant turn right after it, even when the analysis fails.
func (s *Session) Submit(ctx context.Context, analyzer Analyzer, content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyQuery
	}

	question := domain.NewTurn(domain.RoleUser, content)
	if err := domain.ValidateTurn(question); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, domain.ErrTurnInProgress
	}
	s.turns = append(s.turns, question)
	s.lastActive = time.Now().UTC()
	s.transitionLocked(StateUserSubmitted)
	s.mu.Unlock()

	analysis, err := analyzer.Analyze(WithSessionID(ctx, s.ID), content, s.enterStage)
	if err != nil {
		analysis = &Analysis{
			Query:  content,
			Answer: fmt.Sprintf(GenerationErrorTemplate, err.Error()),
			Failed: true,
		}
	}

	reply := domain.NewTurn(domain.RoleAssistant, analysis.Answer)
	if err := domain.ValidateTurn(reply); err != nil {
		analysis.Answer = fmt.Sprintf(GenerationErrorTemplate, err.Error())
		analysis.Failed = true
		reply = domain.NewTurn(domain.RoleAssistant, analysis.Answer)
	}

	s.mu.Lock()
	s.turns = append(s.turns, reply)
	s.lastActive = time.Now().UTC()
	s.transitionLocked(StateAppended)
	s.transitionLocked(StateIdle)
	s.mu.Unlock()

	return analysis, nil
}

func (s *Session) enterStage(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(TurnState(stage))
}

func (s *Session) transitionLocked(to TurnState) {
	from := s.state
	if !canTransition(from, to) {
		log.Printf("session %s: ignoring transition %s -> %s", s.ID, from, to)
		return
	}
	s.state = to
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}

// SessionManager keeps sessions in memory for the life of the process.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	uuidGen  UUIDGenerator
}

func NewSessionManager() *SessionManager {
	return NewSessionManagerWithUUIDGen(&DefaultUUIDGenerator{})
}

func NewSessionManagerWithUUIDGen(uuidGen UUIDGenerator) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		uuidGen:  uuidGen,
	}
}

func (m *SessionManager) Create() *Session {
	session := NewSession(m.uuidGen.NewString())
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Touched under the registry lock, so EvictIdle cannot drop a session
	// between this lookup and the caller's Submit.
	session.touch()
	return session, nil
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops idle sessions whose last activity is before cutoff and
// returns how many were dropped. Sessions with a turn in flight are kept.
func (m *SessionManager) EvictIdle(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, session := range m.sessions {
		if session.State() != StateIdle || !session.LastActive().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	return evicted
}
