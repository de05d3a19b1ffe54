// Package mock provides deterministic test doubles for the speech interfaces.
//
// Synthesizer records every utterance. Recognizer replays scripted results in
// order and, once the script is exhausted, blocks like a microphone nobody
// talks into until the context ends or Abort is called.
//
//	rec := &mock.Recognizer{Results: []mock.Result{
//	    {Text: "yes"},
//	    {Err: &speech.RecognitionError{Reason: speech.ReasonNetwork}},
//	}}
package mock

import (
	"context"
	"sync"

	"voice-agent/internal/speech"
)

// Synthesizer is a mock speech.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from every Speak after recording the text.
	Err error

	// Hold, if non-nil, makes Speak block until it is closed or ctx ends.
	Hold chan struct{}

	// Spoken records every utterance in order.
	Spoken []string

	// Cancels counts calls to Cancel.
	Cancels int
}

// Speak records text and returns Err.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.Spoken = append(s.Spoken, text)
	hold, err := s.Hold, s.Err
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Cancel counts the call.
func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	s.Cancels++
	s.mu.Unlock()
}

// Utterances returns a copy of Spoken.
func (s *Synthesizer) Utterances() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Spoken...)
}

// CancelCount returns Cancels.
func (s *Synthesizer) CancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cancels
}

// Result is one scripted recognition outcome.
type Result struct {
	Text string
	Err  error
}

// Recognizer is a mock speech.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Results are returned by successive Listen calls.
	Results []Result

	// Listens counts calls to Listen; Aborts counts calls to Abort.
	Listens int
	Aborts  int

	abort chan struct{}
}

// Listen returns the next scripted result, or blocks once the script is empty.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	r.mu.Lock()
	r.Listens++
	if len(r.Results) > 0 {
		res := r.Results[0]
		r.Results = r.Results[1:]
		r.mu.Unlock()
		return res.Text, res.Err
	}
	abort := make(chan struct{})
	r.abort = abort
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-abort:
		return "", &speech.RecognitionError{Reason: speech.ReasonAborted}
	}
}

// Abort counts the call and releases a blocked Listen.
func (r *Recognizer) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Aborts++
	if r.abort != nil {
		close(r.abort)
		r.abort = nil
	}
}

// Push appends scripted results.
func (r *Recognizer) Push(results ...Result) {
	r.mu.Lock()
	r.Results = append(r.Results, results...)
	r.mu.Unlock()
}

// ListenCount returns Listens.
func (r *Recognizer) ListenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Listens
}

// AbortCount returns Aborts.
func (r *Recognizer) AbortCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Aborts
}

var (
	_ speech.Synthesizer = (*Synthesizer)(nil)
	_ speech.Recognizer  = (*Recognizer)(nil)
)
