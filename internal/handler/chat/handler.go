package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/render"
	"github.com/dinedesk/backend/internal/service/assistant"
	chatservice "github.com/dinedesk/backend/internal/service/chat"
	"github.com/dinedesk/backend/pkg/utils"
)

// Assistant is the slice of the reply engine the handler needs. Abstracted
// so tests can count invocations.
type Assistant interface {
	Reply(ctx context.Context, history []chatmodel.Message, userText string) (chatmodel.Message, error)
	Welcome() chatmodel.Message
	TypingDelay() time.Duration
}

// Handler serves the chat endpoints consumed by the widget.
type Handler struct {
	chatSvc *chatservice.Service
	replies Assistant

	// startMu serializes lazy session provisioning so concurrent first
	// sends share one session.
	startMu sync.Mutex
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service, replies Assistant) *Handler {
	return &Handler{chatSvc: chatSvc, replies: replies}
}

// RegisterRoutes wires the chat endpoints onto the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/send_message", h.handleSendMessage)
	r.Post("/quick_reply", h.handleQuickReply)
	r.Get("/get_history", h.handleGetHistory)
	r.Post("/new-chat", h.handleNewChat)
	r.Get("/chat-history", h.handleChatHistory)
	r.Post("/load-chat/{chatID}", h.handleLoadChat)
	r.Delete("/delete-chat/{chatID}", h.handleDeleteChat)
}

// HandleNewChat is exposed for the legacy root-level route.
func (h *Handler) HandleNewChat(w http.ResponseWriter, r *http.Request) {
	h.handleNewChat(w, r)
}

// renderedMessage pairs a message with its server-rendered markup so the
// widget paints without templating of its own.
type renderedMessage struct {
	chatmodel.Message
	HTML string `json:"html"`
}

func rendered(m chatmodel.Message) renderedMessage {
	return renderedMessage{Message: m, HTML: render.Message(m)}
}

func renderAll(messages []chatmodel.Message) []renderedMessage {
	out := make([]renderedMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, rendered(m))
	}
	return out
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.processSend(w, r, payload.Message)
}

func (h *Handler) handleQuickReply(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text   string `json:"text"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Placeholder features answer with a notice and never reach the
	// reply engine.
	if notice, ok := assistant.ComingSoonNotice(payload.Action); ok {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"notice":  notice,
		})
		return
	}

	text := payload.Text
	if text == "" {
		text = payload.Action
	}
	h.processSend(w, r, text)
}

// processSend is the single send path shared by free text and quick
// replies: one outbound reply per invocation, no retries.
func (h *Handler) processSend(w http.ResponseWriter, r *http.Request, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		utils.RespondError(w, http.StatusBadRequest, "Empty message")
		return
	}

	ctx := r.Context()
	sessionID, _, err := h.ensureSession(ctx)
	if err != nil {
		log.Printf("[chat] failed to ensure session: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to start chat session")
		return
	}

	if err := h.chatSvc.BeginSend(sessionID); err != nil {
		utils.RespondError(w, http.StatusConflict, "A message is already being sent")
		return
	}
	defer h.chatSvc.EndSend(sessionID)

	userMessage, err := h.chatSvc.AppendMessage(ctx, chatmodel.Message{
		SessionID: sessionID,
		Role:      chatmodel.RoleUser,
		Content:   trimmed,
		Kind:      chatmodel.KindText,
	})
	if err != nil {
		log.Printf("[chat] failed to save user message: %v", err)
		h.respondSendFailure(w, trimmed)
		return
	}

	history, err := h.chatSvc.Transcript(ctx, sessionID)
	if err != nil {
		log.Printf("[chat] failed to load transcript: %v", err)
		h.respondSendFailure(w, trimmed)
		return
	}

	reply, err := h.replies.Reply(ctx, history, trimmed)
	if err != nil {
		log.Printf("[chat] reply generation failed: %v", err)
		h.respondSendFailure(w, trimmed)
		return
	}
	reply.SessionID = sessionID

	botMessage, err := h.chatSvc.AppendMessage(ctx, reply)
	if err != nil {
		log.Printf("[chat] failed to save bot message: %v", err)
		h.respondSendFailure(w, trimmed)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user_message":    rendered(userMessage),
		"bot_response":    rendered(botMessage),
		"typing_delay_ms": h.replies.TypingDelay().Milliseconds(),
	})
}

// respondSendFailure carries the draft back so the widget can restore it
// into the input field instead of losing it.
func (h *Handler) respondSendFailure(w http.ResponseWriter, draft string) {
	utils.RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"success": false,
		"error":   "Internal server error",
		"draft":   draft,
	})
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := h.chatSvc.CurrentID()
	if sessionID == "" {
		utils.RespondJSON(w, http.StatusOK, []renderedMessage{})
		return
	}

	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		log.Printf("[chat] failed to load history: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, renderAll(messages))
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	session, welcome, err := h.startChat(r.Context())
	if err != nil {
		log.Printf("[chat] failed to start new chat: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to start new chat")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"message":         "New chat started",
		"chat_id":         session.ID,
		"welcome_message": rendered(welcome),
	})
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatSvc.ListSummaries(r.Context(), time.Now().UTC())
	if err != nil {
		log.Printf("[chat] failed to list sessions: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch chat history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"chat_sessions": summaries,
	})
}

func (h *Handler) handleLoadChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	ctx := r.Context()

	if err := h.chatSvc.SwitchTo(ctx, chatID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, "Chat session not found")
		return
	}

	messages, err := h.chatSvc.Transcript(ctx, chatID)
	if err != nil {
		log.Printf("[chat] failed to load chat %s: %v", chatID, err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to load chat")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"chat_id":  chatID,
		"messages": renderAll(messages),
	})
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	ctx := r.Context()

	wasCurrent, err := h.chatSvc.Delete(ctx, chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, "Failed to delete chat")
		return
	}

	response := map[string]interface{}{
		"success": true,
		"message": "Chat deleted successfully",
	}

	// Deleting the active chat immediately provisions its replacement, so
	// the widget's next observable action is a fresh conversation.
	if wasCurrent {
		session, welcome, err := h.startChat(ctx)
		if err != nil {
			log.Printf("[chat] failed to start replacement chat: %v", err)
		} else {
			response["new_chat_id"] = session.ID
			response["welcome_message"] = rendered(welcome)
		}
	}

	utils.RespondJSON(w, http.StatusOK, response)
}

// startChat provisions a session seeded with the welcome message.
func (h *Handler) startChat(ctx context.Context) (chatmodel.Session, chatmodel.Message, error) {
	session, err := h.chatSvc.StartSession(ctx)
	if err != nil {
		return chatmodel.Session{}, chatmodel.Message{}, err
	}

	welcome := h.replies.Welcome()
	welcome.SessionID = session.ID
	saved, err := h.chatSvc.AppendMessage(ctx, welcome)
	if err != nil {
		return chatmodel.Session{}, chatmodel.Message{}, err
	}
	return session, saved, nil
}

// ensureSession returns the current session, creating one (with welcome)
// when the widget sends before explicitly starting a chat.
func (h *Handler) ensureSession(ctx context.Context) (string, bool, error) {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if id := h.chatSvc.CurrentID(); id != "" {
		return id, false, nil
	}
	session, _, err := h.startChat(ctx)
	if err != nil {
		return "", false, err
	}
	return session.ID, true, nil
}
