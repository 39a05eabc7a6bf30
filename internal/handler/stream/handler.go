// Package stream delivers the character-by-character reveal of assistant
// replies over Server-Sent Events. The stream always ends with the full
// reply, byte-identical to a direct render, so clients that skip the
// reveal land on the same DOM state.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/render"
	chatservice "github.com/dinedesk/backend/internal/service/chat"
	"github.com/dinedesk/backend/pkg/utils"
)

var (
	// ErrStreamingUnsupported means the ResponseWriter cannot flush.
	ErrStreamingUnsupported = errors.New("streaming unsupported")
	// ErrStreamBusy means a reveal is already running for the session.
	ErrStreamBusy = errors.New("reveal already streaming")
)

// Assistant generates the reply being revealed.
type Assistant interface {
	Reply(ctx context.Context, history []chatmodel.Message, userText string) (chatmodel.Message, error)
}

// Handler manages reveal streams. One stream per session at a time; a
// second request while one is running is rejected rather than interleaved.
type Handler struct {
	chatSvc *chatservice.Service
	replies Assistant
	tick    time.Duration

	mu     sync.Mutex
	active map[string]bool
}

// New creates the stream handler. tick is the delay between reveal chunks.
func New(chatSvc *chatservice.Service, replies Assistant, tick time.Duration) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		replies: replies,
		tick:    tick,
		active:  make(map[string]bool),
	}
}

// RegisterRoutes wires the stream endpoint onto the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "Empty message")
		return
	}

	err := h.HandleStreamRequest(r.Context(), w, sessionID, message)
	switch {
	case errors.Is(err, ErrStreamingUnsupported):
		utils.RespondError(w, http.StatusInternalServerError, "Streaming unsupported")
	case errors.Is(err, ErrStreamBusy):
		utils.RespondError(w, http.StatusConflict, "A response is already streaming")
	}
}

// event is one SSE frame of the reveal stream.
type event struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	HTML      string `json:"html,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest answers a user message with a revealed reply.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	if !h.begin(sessionID) {
		return fmt.Errorf("%w: session %s", ErrStreamBusy, sessionID)
	}
	defer h.end(sessionID)

	utils.SetupSSEHeaders(w)

	if _, err := h.chatSvc.AppendMessage(ctx, chatmodel.Message{
		SessionID: sessionID,
		Role:      chatmodel.RoleUser,
		Content:   userMessage,
		Kind:      chatmodel.KindText,
	}); err != nil {
		h.send(w, flusher, event{Event: "error", Error: "session not found"})
		return err
	}

	history, err := h.chatSvc.Transcript(ctx, sessionID)
	if err != nil {
		h.send(w, flusher, event{Event: "error", Error: "failed to load conversation"})
		return err
	}

	reply, err := h.replies.Reply(ctx, history, userMessage)
	if err != nil {
		h.send(w, flusher, event{Event: "error", Error: "reply generation failed"})
		return err
	}
	reply.SessionID = sessionID

	saved, err := h.chatSvc.AppendMessage(ctx, reply)
	if err != nil {
		h.send(w, flusher, event{Event: "error", Error: "failed to save reply"})
		return err
	}

	h.send(w, flusher, event{Event: "start", SessionID: sessionID})

	// Card replies paint at once; only plain text gets the reveal.
	if saved.Kind == chatmodel.KindText {
		if err := h.reveal(ctx, w, flusher, sessionID, saved.Content); err != nil {
			return err
		}
	}

	h.send(w, flusher, event{
		Event:     "message",
		SessionID: sessionID,
		Content:   saved.Content,
		HTML:      render.Message(saved),
	})
	h.send(w, flusher, event{Event: "end", SessionID: sessionID, Finished: true})
	return nil
}

// reveal emits the body one character per tick. Completion is signaled by
// the trailing "message" event, not by timing.
func (h *Handler) reveal(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, content string) error {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for _, chunk := range render.RevealChunks(content) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.send(w, flusher, event{Event: "delta", SessionID: sessionID, Content: chunk})
		}
	}
	return nil
}

func (h *Handler) begin(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active[sessionID] {
		return false
	}
	h.active[sessionID] = true
	return true
}

func (h *Handler) end(sessionID string) {
	h.mu.Lock()
	delete(h.active, sessionID)
	h.mu.Unlock()
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, e event) {
	utils.SendSSEChunk(w, flusher, e)
}
