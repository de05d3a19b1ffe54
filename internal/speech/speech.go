// Package speech defines the boundary between the interview engine and the
// device that actually talks and listens.
//
// A Synthesizer turns text into audible speech and returns once the utterance
// has finished (or failed). A Recognizer performs one single-shot recognition
// per Listen call and then goes idle until it is started again. Browser
// sessions, the console, and test fakes all implement these interfaces.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// Synthesizer speaks utterances one at a time.
type Synthesizer interface {
	// Speak synthesizes text and blocks until the utterance completes. A
	// platform failure is reported as an error but still means the utterance is
	// over; ctx cancellation stops waiting.
	Speak(ctx context.Context, text string) error

	// Cancel stops any in-flight utterance. It must be safe to call at any time.
	Cancel()
}

// Recognizer performs single-shot speech recognition.
type Recognizer interface {
	// Listen starts recognition and blocks until exactly one of these happens:
	// a transcript is recognized (returned with a nil error), recognition fails
	// (a *RecognitionError), or the session ends without a result
	// (ErrEndOfSession). Only the first alternative is returned.
	Listen(ctx context.Context) (string, error)

	// Abort stops an in-flight recognition. It must be safe to call at any time.
	Abort()
}

// Recognition error reasons as reported by the Web Speech API.
const (
	ReasonNoSpeech     = "no-speech"
	ReasonAborted      = "aborted"
	ReasonAudioCapture = "audio-capture"
	ReasonNetwork      = "network"
	ReasonNotAllowed   = "not-allowed"
)

// ErrEndOfSession is returned by Listen when recognition ended without a result.
var ErrEndOfSession = errors.New("speech: recognition ended without a result")

// RecognitionError is a failed recognition.
type RecognitionError struct {
	Reason string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech: recognition failed: %s", e.Reason)
}

// Silent reports whether the failure means nothing was heard (or the session was
// aborted) rather than a platform fault. Silent failures stop listening without
// a re-prompt.
func (e *RecognitionError) Silent() bool {
	return e.Reason == ReasonNoSpeech || e.Reason == ReasonAborted
}

// SynthesisError is a failed utterance.
type SynthesisError struct {
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech: synthesis failed: %s", e.Reason)
}

// IsSilentStop reports whether err should stop listening without a re-prompt.
func IsSilentStop(err error) bool {
	if errors.Is(err, ErrEndOfSession) {
		return true
	}
	var rerr *RecognitionError
	return errors.As(err, &rerr) && rerr.Silent()
}
