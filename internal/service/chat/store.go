package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrSendInFlight    = errors.New("send already in progress")
)

// Store persists sessions and their transcripts. The in-memory
// implementation below is the default; a Postgres-backed one lives in
// internal/repository.
type Store interface {
	InsertSession(ctx context.Context, session chatmodel.Session) error
	Session(ctx context.Context, id string) (chatmodel.Session, error)
	Sessions(ctx context.Context) ([]chatmodel.Session, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, message chatmodel.Message) error
	Messages(ctx context.Context, sessionID string) ([]chatmodel.Message, error)
}

// MemoryStore keeps sessions and transcripts in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chatmodel.Session
	messages map[string][]chatmodel.Message
}

// NewMemoryStore bootstraps the in-memory store suitable for single-node
// deployments and tests.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chatmodel.Session),
		messages: make(map[string][]chatmodel.Message),
	}
}

// InsertSession registers a new session.
func (s *MemoryStore) InsertSession(_ context.Context, session chatmodel.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chatmodel.Message, 0, 16)
	return nil
}

// Session retrieves a session by identifier.
func (s *MemoryStore) Session(_ context.Context, id string) (chatmodel.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return chatmodel.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Sessions returns every stored session, newest activity first.
func (s *MemoryStore) Sessions(_ context.Context) ([]chatmodel.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chatmodel.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

// UpdateStatus marks a session active or ended.
func (s *MemoryStore) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.Status = status
	session.LastActivity = at
	s.sessions[id] = session
	return nil
}

// DeleteSession removes a session and its transcript.
func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

// AppendMessage adds a message to its session's transcript and bumps the
// session's activity markers.
func (s *MemoryStore) AppendMessage(_ context.Context, message chatmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[message.SessionID]
	if !ok {
		return ErrSessionNotFound
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	session.MessageCount = len(s.messages[message.SessionID])
	session.LastActivity = message.CreatedAt
	s.sessions[message.SessionID] = session
	return nil
}

// Messages returns a copy of the transcript for the provided session.
func (s *MemoryStore) Messages(_ context.Context, sessionID string) ([]chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chatmodel.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
