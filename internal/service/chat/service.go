package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownModel    = errors.New("unknown model")
	ErrNoModels        = errors.New("no models configured")
)

const sessionIDLayout = "20060102150405"

// Service owns all per-session mutable state: the ordered transcript, the
// flat export log, and the session's selected model. Sessions never touch
// each other's state, so a single RWMutex over the maps is enough.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	turns    map[string][]chat.Turn
	logs     map[string][]chat.LogRecord

	models []string
	now    func() time.Time
}

// Option customizes a Service, mainly for tests.
type Option func(*Service)

// WithClock replaces the wall clock used for session ids and log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService bootstraps the in-memory session store. models is the enumerated
// set of selectable model identifiers; the first entry is the default.
func NewService(models []string, opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]chat.Session),
		turns:    make(map[string][]chat.Turn),
		logs:     make(map[string][]chat.LogRecord),
		models:   append([]string(nil), models...),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Models returns the enumerated model set.
func (s *Service) Models() []string {
	return append([]string(nil), s.models...)
}

// CreateSession provisions a session. An empty model selects the default.
func (s *Service) CreateSession(_ context.Context, model string) (chat.Session, error) {
	model, err := s.resolveModel(model)
	if err != nil {
		return chat.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := chat.Session{
		ID:        s.newSessionIDLocked(),
		Model:     model,
		CreatedAt: s.now().UTC(),
	}
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]chat.Turn, 0, 16)
	s.logs[session.ID] = make([]chat.LogRecord, 0, 16)

	return session, nil
}

// Session retrieves a session by identifier.
func (s *Service) Session(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Transcript returns a copy of the ordered turns for the session.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// ExportLog returns a copy of the flat log records for the session.
func (s *Service) ExportLog(_ context.Context, sessionID string) ([]chat.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.logs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.LogRecord, len(records))
	copy(copied, records)
	return copied, nil
}

// AppendExchange records one completed exchange: the user turn followed by
// the model turn, mirrored into the export log. Appending the pair under one
// lock keeps the transcript alternating for every observer.
func (s *Service) AppendExchange(_ context.Context, sessionID, userText, modelText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	now := s.now().UTC()
	s.turns[sessionID] = append(s.turns[sessionID],
		chat.Turn{Role: chat.RoleUser, Text: userText},
		chat.Turn{Role: chat.RoleModel, Text: modelText},
	)
	s.logs[sessionID] = append(s.logs[sessionID],
		chat.LogRecord{SessionID: sessionID, Model: session.Model, Timestamp: now, Role: chat.RoleUser, Message: userText},
		chat.LogRecord{SessionID: sessionID, Model: session.Model, Timestamp: now, Role: chat.RoleModel, Message: modelText},
	)
	return nil
}

// SelectModel switches the session's model for subsequent exchanges.
// Already-recorded turns and log records keep the model they were sent with.
func (s *Service) SelectModel(_ context.Context, sessionID, model string) (chat.Session, error) {
	model, err := s.resolveModel(model)
	if err != nil {
		return chat.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	session.Model = model
	s.sessions[sessionID] = session
	return session, nil
}

// Reset discards the session's transcript and export log and replaces the
// session with a fresh one (new wall-clock id, same model selection).
func (s *Service) Reset(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	delete(s.sessions, sessionID)
	delete(s.turns, sessionID)
	delete(s.logs, sessionID)

	session := chat.Session{
		ID:        s.newSessionIDLocked(),
		Model:     old.Model,
		CreatedAt: s.now().UTC(),
	}
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]chat.Turn, 0, 16)
	s.logs[session.ID] = make([]chat.LogRecord, 0, 16)

	return session, nil
}

func (s *Service) resolveModel(model string) (string, error) {
	if len(s.models) == 0 {
		return "", ErrNoModels
	}
	if model == "" {
		return s.models[0], nil
	}
	for _, candidate := range s.models {
		if candidate == model {
			return model, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownModel, model)
}

// newSessionIDLocked derives an id from the wall clock at second resolution.
// Ids created within the same second get a numeric suffix to stay unique.
func (s *Service) newSessionIDLocked() string {
	id := "session_" + s.now().UTC().Format(sessionIDLayout)
	if _, taken := s.sessions[id]; !taken {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if _, taken := s.sessions[candidate]; !taken {
			return candidate
		}
	}
}
