package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	chatservice "github.com/dinedesk/backend/internal/service/chat"
)

// countingAssistant tracks reply invocations so tests can assert the
// one-reply-per-send rule.
type countingAssistant struct {
	calls int
	err   error
}

func (a *countingAssistant) Reply(_ context.Context, _ []chatmodel.Message, userText string) (chatmodel.Message, error) {
	a.calls++
	if a.err != nil {
		return chatmodel.Message{}, a.err
	}
	return chatmodel.Message{
		Role:      chatmodel.RoleAssistant,
		Content:   "You said: " + userText,
		Kind:      chatmodel.KindText,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (a *countingAssistant) Welcome() chatmodel.Message {
	return chatmodel.Message{
		Role:      chatmodel.RoleAssistant,
		Content:   "Hi! Welcome to DineDesk!",
		Kind:      chatmodel.KindText,
		CreatedAt: time.Now().UTC(),
	}
}

func (a *countingAssistant) TypingDelay() time.Duration { return 500 * time.Millisecond }

func setupRouter() (*chi.Mux, *chatservice.Service, *countingAssistant) {
	chatSvc := chatservice.NewService(chatservice.NewMemoryStore())
	replies := &countingAssistant{}
	handler := New(chatSvc, replies)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc, replies
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestSendMessageInvokesAssistantOnce(t *testing.T) {
	r, _, replies := setupRouter()

	resp := postJSON(t, r, "/send_message", map[string]string{"message": "book a table"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if replies.calls != 1 {
		t.Fatalf("expected exactly one assistant invocation, got %d", replies.calls)
	}

	body := decodeBody(t, resp)
	if _, ok := body["user_message"]; !ok {
		t.Error("response missing user_message")
	}
	bot, ok := body["bot_response"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing bot_response")
	}
	if bot["content"] != "You said: book a table" {
		t.Errorf("unexpected bot content: %v", bot["content"])
	}
	if html, _ := bot["html"].(string); !strings.Contains(html, "bot-message") {
		t.Errorf("bot_response missing rendered markup: %v", bot["html"])
	}
	if delay, _ := body["typing_delay_ms"].(float64); delay != 500 {
		t.Errorf("expected typing_delay_ms 500, got %v", body["typing_delay_ms"])
	}
}

func TestSendMessageEmptyRejectedWithoutAssistantCall(t *testing.T) {
	r, _, replies := setupRouter()

	resp := postJSON(t, r, "/send_message", map[string]string{"message": "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if replies.calls != 0 {
		t.Errorf("assistant invoked %d times for an empty message", replies.calls)
	}
}

func TestSendFailureReturnsDraft(t *testing.T) {
	chatSvc := chatservice.NewService(chatservice.NewMemoryStore())
	replies := &countingAssistant{err: context.DeadlineExceeded}
	handler := New(chatSvc, replies)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	resp := postJSON(t, r, "/send_message", map[string]string{"message": "book a table"})
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	body := decodeBody(t, resp)
	if draft, _ := body["draft"].(string); draft != "book a table" {
		t.Errorf("expected draft restored, got %v", body["draft"])
	}
	if success, _ := body["success"].(bool); success {
		t.Error("expected success false")
	}
}

func TestSendMessagePersistsBothTurns(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	postJSON(t, r, "/send_message", map[string]string{"message": "hello"})

	transcript, err := chatSvc.Transcript(context.Background(), chatSvc.CurrentID())
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	// Welcome + user + bot.
	if len(transcript) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(transcript))
	}
	if transcript[1].Role != chatmodel.RoleUser || transcript[2].Role != chatmodel.RoleAssistant {
		t.Errorf("unexpected transcript roles: %q, %q", transcript[1].Role, transcript[2].Role)
	}
}

func TestConcurrentFirstSendsShareOneSession(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]string{"message": "hello"})
			req := httptest.NewRequest(http.MethodPost, "/send_message", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			// Losers of the send guard get the conflict envelope.
			if resp.Code != http.StatusOK && resp.Code != http.StatusConflict {
				t.Errorf("unexpected status %d: %s", resp.Code, resp.Body.String())
			}
		}()
	}
	wg.Wait()

	summaries, err := chatSvc.ListSummaries(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("expected one provisioned session, got %d", len(summaries))
	}
}

func TestQuickReplyComingSoonSkipsAssistant(t *testing.T) {
	r, _, replies := setupRouter()

	resp := postJSON(t, r, "/quick_reply", map[string]string{
		"text":   "Book Table",
		"action": "book_1",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if replies.calls != 0 {
		t.Errorf("assistant invoked %d times for a coming-soon action", replies.calls)
	}

	body := decodeBody(t, resp)
	if notice, _ := body["notice"].(string); notice == "" {
		t.Error("expected a notice in the response")
	}
}

func TestQuickReplyFallsBackToAction(t *testing.T) {
	r, _, replies := setupRouter()

	resp := postJSON(t, r, "/quick_reply", map[string]string{"action": "booking"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if replies.calls != 1 {
		t.Errorf("expected one assistant invocation, got %d", replies.calls)
	}
}

func TestGetHistoryEmptyBeforeAnyChat(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/get_history", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var messages []json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("expected a JSON array, got %s", resp.Body.String())
	}
	if len(messages) != 0 {
		t.Errorf("expected empty history, got %d entries", len(messages))
	}
}

func TestNewChatSeedsWelcome(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	resp := postJSON(t, r, "/new-chat", map[string]string{})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	body := decodeBody(t, resp)
	chatID, _ := body["chat_id"].(string)
	if chatID == "" {
		t.Fatal("response missing chat_id")
	}
	if chatID != chatSvc.CurrentID() {
		t.Errorf("chat_id %s is not the current session %s", chatID, chatSvc.CurrentID())
	}

	welcome, ok := body["welcome_message"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing welcome_message")
	}
	if welcome["content"] != "Hi! Welcome to DineDesk!" {
		t.Errorf("unexpected welcome content: %v", welcome["content"])
	}

	transcript, _ := chatSvc.Transcript(context.Background(), chatID)
	if len(transcript) != 1 {
		t.Errorf("expected welcome in transcript, got %d messages", len(transcript))
	}
}

func TestChatHistoryListsSessions(t *testing.T) {
	r, _, _ := setupRouter()

	postJSON(t, r, "/new-chat", map[string]string{})
	postJSON(t, r, "/new-chat", map[string]string{})

	req := httptest.NewRequest(http.MethodGet, "/chat-history", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	sessions, ok := body["chat_sessions"].([]interface{})
	if !ok {
		t.Fatalf("response missing chat_sessions: %s", resp.Body.String())
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestLoadChatUnknownIDLeavesStateUntouched(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	postJSON(t, r, "/new-chat", map[string]string{})
	current := chatSvc.CurrentID()

	resp := postJSON(t, r, "/load-chat/unknown-id", map[string]string{})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if chatSvc.CurrentID() != current {
		t.Error("current session changed after failed load")
	}
}

func TestLoadChatSwitchesSessions(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	first := decodeBody(t, postJSON(t, r, "/new-chat", map[string]string{}))
	postJSON(t, r, "/new-chat", map[string]string{})

	firstID, _ := first["chat_id"].(string)
	resp := postJSON(t, r, "/load-chat/"+firstID, map[string]string{})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if chatSvc.CurrentID() != firstID {
		t.Errorf("expected current session %s, got %s", firstID, chatSvc.CurrentID())
	}

	body := decodeBody(t, resp)
	messages, ok := body["messages"].([]interface{})
	if !ok || len(messages) != 1 {
		t.Errorf("expected the welcome message in the loaded transcript: %s", resp.Body.String())
	}
}

func TestDeleteCurrentChatProvisionsReplacement(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	created := decodeBody(t, postJSON(t, r, "/new-chat", map[string]string{}))
	chatID, _ := created["chat_id"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/delete-chat/"+chatID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	newID, _ := body["new_chat_id"].(string)
	if newID == "" {
		t.Fatal("deleting the current chat did not provision a replacement")
	}
	if newID == chatID {
		t.Error("replacement chat reused the deleted id")
	}
	if chatSvc.CurrentID() != newID {
		t.Errorf("expected current session %s, got %s", newID, chatSvc.CurrentID())
	}
	if _, ok := body["welcome_message"]; !ok {
		t.Error("replacement chat missing welcome_message")
	}
}

func TestDeleteOtherChatKeepsCurrent(t *testing.T) {
	r, chatSvc, _ := setupRouter()

	first := decodeBody(t, postJSON(t, r, "/new-chat", map[string]string{}))
	postJSON(t, r, "/new-chat", map[string]string{})
	current := chatSvc.CurrentID()

	firstID, _ := first["chat_id"].(string)
	req := httptest.NewRequest(http.MethodDelete, "/delete-chat/"+firstID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if _, ok := body["new_chat_id"]; ok {
		t.Error("deleting a non-current chat provisioned a replacement")
	}
	if chatSvc.CurrentID() != current {
		t.Error("current session changed after deleting another chat")
	}
}

func TestDeleteUnknownChatReturnsNotFound(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodDelete, "/delete-chat/unknown", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
