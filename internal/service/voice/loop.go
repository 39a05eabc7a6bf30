// Package voice implements the hands-free assistant: a turn-taking cycle
// over transcripts that listens, asks the reply engine, speaks the answer,
// and resumes listening until the user signs off.
package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/service/speech"
)

// State of the assistant loop.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

// ErrNotListening rejects transcripts that arrive outside a listening turn.
var ErrNotListening = errors.New("loop is not listening")

const farewellText = "Thank you for using DineDesk! Have a great day!"

// endPhrases end the conversation without contacting the reply engine.
// Matched case-insensitively as substrings of the final transcript.
var endPhrases = []string{
	"thank you", "thanks", "bye", "goodbye", "see you later",
	"that's all", "i'm done", "end conversation", "stop",
	"exit", "quit", "finished", "done", "good bye",
}

// Responder generates the assistant reply for a finalized transcript.
type Responder interface {
	Reply(ctx context.Context, history []chatmodel.Message, userText string) (chatmodel.Message, error)
}

// Result is what one finalized transcript produced.
type Result struct {
	State State
	// Reply is the assistant turn, nil when the conversation ended.
	Reply *chatmodel.Message
	// Utterance carries the synthesis directive; zero when synthesis is
	// unsupported or nothing is spoken.
	Utterance speech.Utterance
	// Spoken reports whether Utterance is populated.
	Spoken bool
	// Ended reports that an end-of-conversation phrase closed the loop.
	Ended bool
}

// Loop is the voice assistant state machine. Safe for use from the single
// connection goroutine plus a concurrent Stop.
type Loop struct {
	responder Responder
	synth     speech.Synthesizer

	mu     sync.Mutex
	state  State
	active bool
}

// NewLoop builds an idle loop.
func NewLoop(responder Responder, synth speech.Synthesizer) *Loop {
	return &Loop{
		responder: responder,
		synth:     synth,
		state:     StateIdle,
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Active reports whether the conversation flag is set, i.e. whether the
// loop auto-resumes listening after speaking.
func (l *Loop) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Listen starts a listening turn and flags the conversation active. While a
// reply is mid-flight the state is left alone and the flag alone is raised,
// so the loop resumes listening once speech finishes.
func (l *Loop) Listen() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = true
	if l.state == StateProcessing || l.state == StateSpeaking {
		return l.state
	}
	l.state = StateListening
	return l.state
}

// Stop clears the conversation flag and, unless a reply is mid-flight,
// drops straight to idle. A reply still being spoken finishes and then
// lands on idle because the flag is down.
func (l *Loop) Stop() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	if l.state == StateListening {
		l.state = StateIdle
	}
	return l.state
}

// FinalTranscript consumes a finalized transcript: end phrases short-circuit
// to the farewell, anything else goes through the reply engine and comes
// back as a speakable reply. The caller reports speech completion via
// SpeechFinished.
func (l *Loop) FinalTranscript(ctx context.Context, history []chatmodel.Message, transcript string) (Result, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Result{State: l.State()}, nil
	}

	l.mu.Lock()
	if l.state != StateListening {
		state := l.state
		l.mu.Unlock()
		return Result{State: state}, ErrNotListening
	}
	l.state = StateProcessing
	l.mu.Unlock()

	if IsEndPhrase(transcript) {
		l.mu.Lock()
		l.active = false
		l.state = StateIdle
		l.mu.Unlock()

		result := Result{State: StateIdle, Ended: true}
		result.Utterance, result.Spoken = l.synthesize(ctx, farewellText)
		return result, nil
	}

	reply, err := l.responder.Reply(ctx, history, transcript)
	if err != nil {
		l.mu.Lock()
		if l.active {
			l.state = StateListening
		} else {
			l.state = StateIdle
		}
		state := l.state
		l.mu.Unlock()
		return Result{State: state}, err
	}

	l.mu.Lock()
	l.state = StateSpeaking
	l.mu.Unlock()

	result := Result{State: StateSpeaking, Reply: &reply}
	result.Utterance, result.Spoken = l.synthesize(ctx, reply.Content)
	return result, nil
}

// SpeechFinished moves speaking to listening while the conversation flag is
// up, otherwise to idle.
func (l *Loop) SpeechFinished() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateSpeaking {
		return l.state
	}
	if l.active {
		l.state = StateListening
	} else {
		l.state = StateIdle
	}
	return l.state
}

func (l *Loop) synthesize(ctx context.Context, text string) (speech.Utterance, bool) {
	if l.synth == nil || !l.synth.Available() {
		return speech.Utterance{}, false
	}
	utterance, err := l.synth.Synthesize(ctx, text)
	if err != nil {
		return speech.Utterance{}, false
	}
	return utterance, true
}

// IsEndPhrase reports whether the transcript contains one of the fixed
// end-of-conversation phrases.
func IsEndPhrase(transcript string) bool {
	lower := strings.ToLower(strings.TrimSpace(transcript))
	for _, phrase := range endPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Farewell is the fixed sign-off spoken when the conversation ends.
func Farewell() string { return farewellText }
