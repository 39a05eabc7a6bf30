package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
)

// Service encapsulates conversation state management: session lifecycle,
// transcript storage, the history listing, and the per-session send guard.
type Service struct {
	store Store

	mu        sync.Mutex
	currentID string
	sending   map[string]bool
}

// NewService wraps the provided store.
func NewService(store Store) *Service {
	return &Service{
		store:   store,
		sending: make(map[string]bool),
	}
}

// StartSession ends the current session (if any) and provisions a fresh
// active one, making it current.
func (s *Service) StartSession(ctx context.Context) (chatmodel.Session, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	previous := s.currentID
	s.mu.Unlock()

	if previous != "" {
		// Best effort: a missing previous session is not an error here.
		_ = s.store.UpdateStatus(ctx, previous, chatmodel.StatusEnded, now)
	}

	session := chatmodel.Session{
		ID:           uuid.NewString(),
		Title:        chatmodel.DefaultTitle(now),
		Status:       chatmodel.StatusActive,
		StartedAt:    now,
		LastActivity: now,
	}
	if err := s.store.InsertSession(ctx, session); err != nil {
		return chatmodel.Session{}, err
	}

	s.mu.Lock()
	s.currentID = session.ID
	s.mu.Unlock()

	return session, nil
}

// CurrentID returns the identifier of the active session, empty when none
// has been started yet.
func (s *Service) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// SwitchTo makes a stored session the current one, ending the previously
// active session. Prior state is untouched when the id is unknown.
func (s *Service) SwitchTo(ctx context.Context, id string) error {
	if _, err := s.store.Session(ctx, id); err != nil {
		return err
	}

	now := time.Now().UTC()

	s.mu.Lock()
	previous := s.currentID
	s.currentID = id
	s.mu.Unlock()

	if previous != "" && previous != id {
		_ = s.store.UpdateStatus(ctx, previous, chatmodel.StatusEnded, now)
	}
	return s.store.UpdateStatus(ctx, id, chatmodel.StatusActive, now)
}

// AppendMessage stores a message in its session transcript, assigning the
// identifier and timestamp.
func (s *Service) AppendMessage(ctx context.Context, message chatmodel.Message) (chatmodel.Message, error) {
	if strings.TrimSpace(message.Content) == "" && message.Kind != chatmodel.KindCard {
		return chatmodel.Message{}, ErrEmptyMessage
	}
	if message.SessionID == "" {
		return chatmodel.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.Kind == "" {
		message.Kind = chatmodel.KindText
	}

	if err := s.store.AppendMessage(ctx, message); err != nil {
		return chatmodel.Message{}, err
	}
	return message, nil
}

// Transcript returns the stored messages for the provided session.
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]chatmodel.Message, error) {
	return s.store.Messages(ctx, sessionID)
}

// ListSummaries returns the sidebar listing: every session summarized
// relative to now, newest activity first. Always a full replacement of the
// previous listing, never a partial merge.
func (s *Service) ListSummaries(ctx context.Context, now time.Time) ([]chatmodel.Summary, error) {
	sessions, err := s.store.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]chatmodel.Summary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summarize(now))
	}
	return summaries, nil
}

// Delete removes a session outright and reports whether it was the current
// one, letting the caller start a replacement chat.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return false, err
	}

	s.mu.Lock()
	wasCurrent := s.currentID == id
	if wasCurrent {
		s.currentID = ""
	}
	delete(s.sending, id)
	s.mu.Unlock()

	return wasCurrent, nil
}

// BeginSend takes the per-session send guard. A second send for the same
// session while one is pending is rejected, mirroring the widget's
// "ignore send if already sending" rule.
func (s *Service) BeginSend(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending[sessionID] {
		return ErrSendInFlight
	}
	s.sending[sessionID] = true
	return nil
}

// EndSend releases the send guard.
func (s *Service) EndSend(sessionID string) {
	s.mu.Lock()
	delete(s.sending, sessionID)
	s.mu.Unlock()
}
