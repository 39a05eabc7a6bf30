package voice

// Recognizer error codes as reported by the speech-to-text platform.
const (
	ErrCodeNoSpeech          = "no-speech"
	ErrCodeAudioCapture      = "audio-capture"
	ErrCodeNotAllowed        = "not-allowed"
	ErrCodeNetwork           = "network"
	ErrCodeServiceNotAllowed = "service-not-allowed"
	ErrCodeAborted           = "aborted"
)

var recognitionErrorMessages = map[string]string{
	ErrCodeNoSpeech:          "No speech detected. Please try again.",
	ErrCodeAudioCapture:      "Microphone not found. Please check your microphone.",
	ErrCodeNotAllowed:        "Microphone access denied. Please allow microphone access.",
	ErrCodeNetwork:           "Network error. Please check your connection.",
	ErrCodeServiceNotAllowed: "Speech service not allowed. Please check your browser settings.",
}

// RecognitionErrorMessage maps a recognizer error code to the message shown
// to the user. The second result is false for intentional stops (aborted),
// which are never surfaced as errors.
func RecognitionErrorMessage(code string) (string, bool) {
	if code == ErrCodeAborted {
		return "", false
	}
	if message, ok := recognitionErrorMessages[code]; ok {
		return message, true
	}
	return "Voice recognition error. Please try again.", true
}
