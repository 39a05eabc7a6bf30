// Package speech abstracts the voice synthesis capability. The engine
// itself lives client-side; the server decides what to speak and with which
// delivery parameters, and absence of the capability is a typed state
// rather than a scattered feature check.
package speech

import (
	"context"
	"errors"
)

// ErrUnsupported marks the capability as absent. Callers treat it as "do
// not speak", never as a failure to surface.
var ErrUnsupported = errors.New("speech synthesis unsupported")

// Utterance is one synthesis directive handed to the voice client.
type Utterance struct {
	Text     string  `json:"text"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	Volume   float64 `json:"volume"`
	Voice    string  `json:"voice,omitempty"`
	Language string  `json:"language,omitempty"`
}

// Synthesizer produces utterance directives for reply text.
type Synthesizer interface {
	// Synthesize builds the directive for the given text. Implementations
	// must return ErrUnsupported when the capability is absent.
	Synthesize(ctx context.Context, text string) (Utterance, error)
	// Available reports whether Synthesize can succeed.
	Available() bool
}

// Directive is the default Synthesizer: it stamps configured delivery
// parameters onto each utterance.
type Directive struct {
	Rate     float64
	Pitch    float64
	Volume   float64
	Voice    string
	Language string
}

// Synthesize returns the utterance directive for text.
func (d Directive) Synthesize(_ context.Context, text string) (Utterance, error) {
	return Utterance{
		Text:     text,
		Rate:     d.Rate,
		Pitch:    d.Pitch,
		Volume:   d.Volume,
		Voice:    d.Voice,
		Language: d.Language,
	}, nil
}

// Available always holds for the directive synthesizer.
func (d Directive) Available() bool { return true }

// Unsupported is the explicit no-capability variant.
type Unsupported struct{}

// Synthesize always fails with ErrUnsupported.
func (Unsupported) Synthesize(context.Context, string) (Utterance, error) {
	return Utterance{}, ErrUnsupported
}

// Available never holds.
func (Unsupported) Available() bool { return false }
