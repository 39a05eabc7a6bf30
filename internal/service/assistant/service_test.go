package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/dinedesk/backend/internal/config"
	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/model/restaurant"
)

func newTestAssistant(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(),
		restaurant.NewMemoryStore(restaurant.Seed()),
		config.AIConfig{},
		config.AssistantConfig{CardLimit: 3, HistoryLimit: 5},
	)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		message string
		want    Intent
	}{
		{"I want to book a table", IntentBooking},
		{"reserve a seat for two", IntentBooking},
		{"find me a restaurant nearby", IntentSearch},
		{"what's on the menu", IntentMenu},
		{"show me popular dishes", IntentMenu},
		{"hello there", IntentGeneral},
		{"book a table at a restaurant", IntentBooking},
	}
	for _, tc := range cases {
		if got := DetectIntent(tc.message); got != tc.want {
			t.Errorf("DetectIntent(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestDetectCuisine(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"any good italian places", "italian"},
		{"craving pizza tonight", "italian"},
		{"pasta would be great", "italian"},
		{"chinese food please", "chinese"},
		{"just hungry", ""},
	}
	for _, tc := range cases {
		if got := DetectCuisine(tc.message); got != tc.want {
			t.Errorf("DetectCuisine(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestReplyRedirectsUnservedArea(t *testing.T) {
	svc := newTestAssistant(t)

	reply, err := svc.Reply(context.Background(), nil, "restaurants in Mumbai")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if reply.Kind != chatmodel.KindText {
		t.Errorf("expected text reply, got %q", reply.Kind)
	}
	if len(reply.Cards) != 0 {
		t.Errorf("expected no cards for unserved area, got %d", len(reply.Cards))
	}
	if !strings.Contains(reply.Content, "don't serve that area") {
		t.Errorf("unexpected redirect content: %q", reply.Content)
	}
	if len(reply.QuickReplies) == 0 {
		t.Error("expected redirect quick replies")
	}
}

func TestReplyBookingCarriesBookableCards(t *testing.T) {
	svc := newTestAssistant(t)

	reply, err := svc.Reply(context.Background(), nil, "book a table tonight")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if reply.Kind != chatmodel.KindCard {
		t.Fatalf("expected card reply, got %q", reply.Kind)
	}
	if len(reply.Cards) == 0 || len(reply.Cards) > 3 {
		t.Fatalf("expected 1-3 cards, got %d", len(reply.Cards))
	}
	for _, card := range reply.Cards {
		if !strings.HasPrefix(card.ID, "rest_") {
			t.Errorf("expected rest_ id prefix, got %q", card.ID)
		}
		if len(card.Actions) != 3 {
			t.Errorf("expected three card actions, got %d", len(card.Actions))
		}
	}
}

func TestReplyCuisineSearchFiltersCatalog(t *testing.T) {
	svc := newTestAssistant(t)

	reply, err := svc.Reply(context.Background(), nil, "find me italian restaurants")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if reply.Kind != chatmodel.KindCard {
		t.Fatalf("expected card reply, got %q", reply.Kind)
	}
	for _, card := range reply.Cards {
		if !strings.EqualFold(card.Cuisine, "italian") {
			t.Errorf("expected italian cards only, got %q", card.Cuisine)
		}
	}
}

func TestReplyGeneralHasNoCards(t *testing.T) {
	svc := newTestAssistant(t)

	reply, err := svc.Reply(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if reply.Kind != chatmodel.KindText {
		t.Errorf("expected text reply, got %q", reply.Kind)
	}
	if len(reply.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(reply.Cards))
	}
	if len(reply.QuickReplies) == 0 {
		t.Error("expected general quick replies")
	}
}

func TestReplyRejectsEmptyMessage(t *testing.T) {
	svc := newTestAssistant(t)

	if _, err := svc.Reply(context.Background(), nil, "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestWelcomeStarterReplies(t *testing.T) {
	svc := newTestAssistant(t)

	welcome := svc.Welcome()
	if welcome.Role != chatmodel.RoleAssistant {
		t.Errorf("expected assistant role, got %q", welcome.Role)
	}
	if len(welcome.QuickReplies) != 3 {
		t.Errorf("expected three starter replies, got %d", len(welcome.QuickReplies))
	}
	if !strings.Contains(welcome.Content, "DineDesk") {
		t.Errorf("unexpected welcome content: %q", welcome.Content)
	}
}

func TestComingSoonNotice(t *testing.T) {
	cases := []struct {
		action string
		want   bool
	}{
		{"book_1", true},
		{"menu_2", true},
		{"order_3", true},
		{"reviews_4", true},
		{"directions_5", false},
		{"booking", false},
	}
	for _, tc := range cases {
		notice, ok := ComingSoonNotice(tc.action)
		if ok != tc.want {
			t.Errorf("ComingSoonNotice(%q) ok = %v, want %v", tc.action, ok, tc.want)
		}
		if ok && notice == "" {
			t.Errorf("ComingSoonNotice(%q) returned empty notice", tc.action)
		}
	}
}
