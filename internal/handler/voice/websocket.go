// Package voice exposes the hands-free assistant over a WebSocket: the
// client streams recognition results up, the server drives the turn-taking
// loop and streams states, replies, and synthesis directives back.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/render"
	chatservice "github.com/dinedesk/backend/internal/service/chat"
	"github.com/dinedesk/backend/internal/service/speech"
	voiceservice "github.com/dinedesk/backend/internal/service/voice"
	"github.com/dinedesk/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler upgrades voice connections and runs one loop per connection.
type Handler struct {
	chatSvc  *chatservice.Service
	replies  voiceservice.Responder
	synth    speech.Synthesizer
	upgrader websocket.Upgrader
}

// New creates the voice handler.
func New(chatSvc *chatservice.Service, replies voiceservice.Responder, synth speech.Synthesizer) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		replies: replies,
		synth:   synth,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes wires the voice endpoints onto the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/voice", func(vr chi.Router) {
		vr.Get("/capability", h.handleCapability)
		vr.Get("/ws/{sessionID}", h.handleWebSocket)
	})
}

// handleCapability lets clients discover up front whether replies will be
// spoken, instead of probing at call sites.
func (h *Handler) handleCapability(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"speech_synthesis": h.synth != nil && h.synth.Available(),
	})
}

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type resultPayload struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"isFinal"`
}

type errorPayload struct {
	Code string `json:"code"`
}

type outgoingFrame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.chatSvc.Transcript(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[voice] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	loop := voiceservice.NewLoop(h.replies, h.synth)
	turn := &voiceservice.Turn{}

	h.sendFrame(conn, "state", map[string]string{"state": string(loop.State())})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[voice] read error for session %s: %v", sessionID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch frame.Type {
		case "listen":
			*turn = voiceservice.Turn{}
			state := loop.Listen()
			h.sendFrame(conn, "state", map[string]string{"state": string(state)})

		case "result":
			var payload resultPayload
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				h.sendFrame(conn, "notice", map[string]string{"message": "invalid result payload"})
				continue
			}
			turn.AddResult(payload.Transcript, payload.IsFinal)
			if !payload.IsFinal {
				h.sendFrame(conn, "interim", map[string]string{"text": turn.Interim()})
				continue
			}
			if turn.ShouldAutoSend() {
				h.processTurn(ctx, conn, sessionID, loop, turn)
			}

		case "commit":
			// Recognition ended client-side; consume whatever finalized.
			if turn.Final() != "" {
				h.processTurn(ctx, conn, sessionID, loop, turn)
			}

		case "spoken":
			state := loop.SpeechFinished()
			h.sendFrame(conn, "state", map[string]string{"state": string(state)})

		case "stop":
			*turn = voiceservice.Turn{}
			state := loop.Stop()
			h.sendFrame(conn, "state", map[string]string{"state": string(state)})

		case "error":
			var payload errorPayload
			if err := json.Unmarshal(frame.Data, &payload); err == nil {
				if message, surface := voiceservice.RecognitionErrorMessage(payload.Code); surface {
					h.sendFrame(conn, "notice", map[string]string{"message": message})
				}
			}
			*turn = voiceservice.Turn{}
			state := loop.Stop()
			h.sendFrame(conn, "state", map[string]string{"state": string(state)})

		default:
			h.sendFrame(conn, "notice", map[string]string{"message": "unknown frame type"})
		}
	}
}

// processTurn runs one finalized transcript through the loop and reports
// the outcome to the client.
func (h *Handler) processTurn(ctx context.Context, conn *websocket.Conn, sessionID string, loop *voiceservice.Loop, turn *voiceservice.Turn) {
	transcript := turn.Final()
	*turn = voiceservice.Turn{}

	// A transcript arriving after a stop is user cancellation, not an
	// error: report the state and drop it.
	if loop.State() != voiceservice.StateListening {
		h.sendFrame(conn, "state", map[string]string{"state": string(loop.State())})
		return
	}

	h.sendFrame(conn, "state", map[string]string{"state": string(voiceservice.StateProcessing)})

	userMessage, err := h.chatSvc.AppendMessage(ctx, chatmodel.Message{
		SessionID: sessionID,
		Role:      chatmodel.RoleUser,
		Content:   transcript,
		Kind:      chatmodel.KindText,
	})
	if err != nil {
		log.Printf("[voice] failed to save transcript: %v", err)
	}

	history, err := h.chatSvc.Transcript(ctx, sessionID)
	if err != nil {
		history = []chatmodel.Message{userMessage}
	}

	result, err := loop.FinalTranscript(ctx, history, transcript)
	if err != nil {
		if !errors.Is(err, voiceservice.ErrNotListening) {
			h.sendFrame(conn, "notice", map[string]string{"message": "Failed to process your message"})
		}
		h.sendFrame(conn, "state", map[string]string{"state": string(result.State)})
		return
	}

	if result.Ended {
		farewell := chatmodel.Message{
			Role:      chatmodel.RoleAssistant,
			Content:   voiceservice.Farewell(),
			Kind:      chatmodel.KindText,
			CreatedAt: time.Now().UTC(),
		}
		h.sendFrame(conn, "reply", map[string]interface{}{
			"message": farewell,
			"html":    render.Message(farewell),
		})
		if result.Spoken {
			h.sendFrame(conn, "speak", result.Utterance)
		}
		h.sendFrame(conn, "state", map[string]string{"state": string(result.State)})
		return
	}

	reply := *result.Reply
	reply.SessionID = sessionID
	if saved, err := h.chatSvc.AppendMessage(ctx, reply); err == nil {
		reply = saved
	} else {
		log.Printf("[voice] failed to save reply: %v", err)
	}

	h.sendFrame(conn, "reply", map[string]interface{}{
		"message": reply,
		"html":    render.Message(reply),
	})
	if result.Spoken {
		h.sendFrame(conn, "speak", result.Utterance)
	} else {
		// Nothing to speak, so the speaking phase completes immediately.
		result.State = loop.SpeechFinished()
	}
	h.sendFrame(conn, "state", map[string]string{"state": string(result.State)})
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendFrame(conn *websocket.Conn, frameType string, data interface{}) {
	frame := outgoingFrame{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[voice] failed to write %s frame: %v", frameType, err)
	}
}
