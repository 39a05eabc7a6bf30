package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
)

func newTestService() *Service {
	return NewService(NewMemoryStore())
}

func TestStartSessionMakesItCurrent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if session.Status != chatmodel.StatusActive {
		t.Errorf("expected active status, got %q", session.Status)
	}
	if !strings.HasPrefix(session.Title, "Chat ") {
		t.Errorf("expected default title, got %q", session.Title)
	}
	if svc.CurrentID() != session.ID {
		t.Errorf("expected current id %s, got %s", session.ID, svc.CurrentID())
	}
}

func TestStartSessionEndsPrevious(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, _ := svc.StartSession(ctx)
	second, _ := svc.StartSession(ctx)

	stored, err := svc.store.Session(ctx, first.ID)
	if err != nil {
		t.Fatalf("failed to load first session: %v", err)
	}
	if stored.Status != chatmodel.StatusEnded {
		t.Errorf("expected first session ended, got %q", stored.Status)
	}
	if svc.CurrentID() != second.ID {
		t.Errorf("expected current id %s, got %s", second.ID, svc.CurrentID())
	}
}

func TestSwitchToUnknownSessionKeepsState(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, _ := svc.StartSession(ctx)

	err := svc.SwitchTo(ctx, "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if svc.CurrentID() != session.ID {
		t.Errorf("current session changed on failed switch")
	}
}

func TestSwitchToActivatesAndEndsPrevious(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, _ := svc.StartSession(ctx)
	second, _ := svc.StartSession(ctx)

	if err := svc.SwitchTo(ctx, first.ID); err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if svc.CurrentID() != first.ID {
		t.Errorf("expected current id %s, got %s", first.ID, svc.CurrentID())
	}

	activated, _ := svc.store.Session(ctx, first.ID)
	if activated.Status != chatmodel.StatusActive {
		t.Errorf("expected switched session active, got %q", activated.Status)
	}
	ended, _ := svc.store.Session(ctx, second.ID)
	if ended.Status != chatmodel.StatusEnded {
		t.Errorf("expected previous session ended, got %q", ended.Status)
	}
}

func TestAppendMessageRejectsEmptyText(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.StartSession(ctx)

	_, err := svc.AppendMessage(ctx, chatmodel.Message{
		SessionID: session.ID,
		Role:      chatmodel.RoleUser,
		Content:   "   ",
	})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestAppendMessageBumpsSessionActivity(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.StartSession(ctx)

	saved, err := svc.AppendMessage(ctx, chatmodel.Message{
		SessionID: session.ID,
		Role:      chatmodel.RoleUser,
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected assigned message id")
	}
	if saved.Kind != chatmodel.KindText {
		t.Errorf("expected text kind default, got %q", saved.Kind)
	}

	stored, _ := svc.store.Session(ctx, session.ID)
	if stored.MessageCount != 1 {
		t.Errorf("expected message count 1, got %d", stored.MessageCount)
	}

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if len(transcript) != 1 || transcript[0].Content != "hello" {
		t.Errorf("unexpected transcript: %+v", transcript)
	}
}

func TestListSummariesNewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, _ := svc.StartSession(ctx)
	second, _ := svc.StartSession(ctx)
	if _, err := svc.AppendMessage(ctx, chatmodel.Message{
		SessionID: second.ID,
		Role:      chatmodel.RoleUser,
		Content:   "hi",
	}); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	summaries, err := svc.ListSummaries(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != second.ID {
		t.Errorf("expected most recent session first, got %s", summaries[0].ID)
	}
	if summaries[0].MessageCount != 1 {
		t.Errorf("expected message count 1, got %d", summaries[0].MessageCount)
	}
	_ = first
}

func TestDeleteReportsWasCurrent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, _ := svc.StartSession(ctx)
	second, _ := svc.StartSession(ctx)

	wasCurrent, err := svc.Delete(ctx, first.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if wasCurrent {
		t.Error("deleting a non-current session reported wasCurrent")
	}

	wasCurrent, err = svc.Delete(ctx, second.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !wasCurrent {
		t.Error("deleting the current session did not report wasCurrent")
	}
	if svc.CurrentID() != "" {
		t.Errorf("expected empty current id, got %s", svc.CurrentID())
	}
}

func TestSendGuardRejectsConcurrentSend(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	session, _ := svc.StartSession(ctx)

	if err := svc.BeginSend(session.ID); err != nil {
		t.Fatalf("BeginSend failed: %v", err)
	}
	if err := svc.BeginSend(session.ID); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	svc.EndSend(session.ID)
	if err := svc.BeginSend(session.ID); err != nil {
		t.Fatalf("BeginSend after EndSend failed: %v", err)
	}
}

func TestRelativeTimeLabels(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(-1 * time.Minute), "1 minute ago"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-time.Hour), "1 hour ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-36 * time.Hour), "1 day ago"},
		{now.Add(-80 * time.Hour), "3 days ago"},
	}
	for _, tc := range cases {
		if got := chatmodel.RelativeTime(tc.at, now); got != tc.want {
			t.Errorf("RelativeTime(%v) = %q, want %q", now.Sub(tc.at), got, tc.want)
		}
	}
}
