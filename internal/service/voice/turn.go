package voice

import "strings"

// Turn accumulates the transcript of one open recognition session
// (single-utterance mode, interim results enabled). Discarded when the
// session ends or errors.
type Turn struct {
	finalParts []string
	interim    string
}

// AddResult records one recognizer result callback.
func (t *Turn) AddResult(transcript string, isFinal bool) {
	if isFinal {
		t.finalParts = append(t.finalParts, transcript)
		t.interim = ""
		return
	}
	t.interim = transcript
}

// Interim returns the not-yet-final text shown as a transient status line.
func (t *Turn) Interim() string {
	return t.interim
}

// Final returns the accumulated finalized transcript.
func (t *Turn) Final() string {
	return strings.Join(t.finalParts, "")
}

// ShouldAutoSend reports whether the last finalized segment ended in
// terminal punctuation, which triggers an automatic send.
func (t *Turn) ShouldAutoSend() bool {
	if len(t.finalParts) == 0 {
		return false
	}
	last := strings.TrimSpace(t.finalParts[len(t.finalParts)-1])
	return strings.HasSuffix(last, ".") ||
		strings.HasSuffix(last, "?") ||
		strings.HasSuffix(last, "!")
}
