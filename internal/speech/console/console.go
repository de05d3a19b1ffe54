// Package console is a text stand-in for a speech device: utterances are
// printed and answers are typed, one line per recognition.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"voice-agent/internal/speech"
)

// Console implements speech.Synthesizer and speech.Recognizer over a reader
// and a writer. An empty line counts as silence; end of input ends the session.
type Console struct {
	out   io.Writer
	lines chan string
	done  chan struct{}

	mu    sync.Mutex
	abort chan struct{}
}

// New starts reading lines from in.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, lines: make(chan string), done: make(chan struct{})}
	go c.read(in)
	return c
}

func (c *Console) read(in io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
	close(c.done)
}

// Done is closed once the input is exhausted.
func (c *Console) Done() <-chan struct{} { return c.done }

// Speak prints text.
func (c *Console) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.out, "Agent: %s\n", text)
	return err
}

// Cancel is a no-op: printed text cannot be taken back.
func (c *Console) Cancel() {}

// Listen waits for the next typed line.
func (c *Console) Listen(ctx context.Context) (string, error) {
	abort := make(chan struct{})
	c.mu.Lock()
	c.abort = abort
	c.mu.Unlock()

	fmt.Fprint(c.out, "You: ")
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", speech.ErrEndOfSession
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return "", &speech.RecognitionError{Reason: speech.ReasonNoSpeech}
		}
		return line, nil
	case <-abort:
		return "", &speech.RecognitionError{Reason: speech.ReasonAborted}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Abort releases a pending Listen.
func (c *Console) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abort != nil {
		close(c.abort)
		c.abort = nil
	}
}

var (
	_ speech.Synthesizer = (*Console)(nil)
	_ speech.Recognizer  = (*Console)(nil)
)
