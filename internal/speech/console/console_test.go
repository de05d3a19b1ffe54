package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/speech"
)

func TestConsoleConversation(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("  thirty days \n\n"), &out)
	ctx := context.Background()

	require.NoError(t, c.Speak(ctx, "What is your notice period?"))

	text, err := c.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thirty days", text)

	_, err = c.Listen(ctx)
	var rerr *speech.RecognitionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, speech.ReasonNoSpeech, rerr.Reason)

	_, err = c.Listen(ctx)
	assert.ErrorIs(t, err, speech.ErrEndOfSession)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after end of input")
	}

	assert.Equal(t, "Agent: What is your notice period?\nYou: You: You: ", out.String())
}

func TestConsoleAbort(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	c := New(r, &bytes.Buffer{})

	errs := make(chan error, 1)
	go func() {
		_, err := c.Listen(context.Background())
		errs <- err
	}()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.abort != nil
	}, time.Second, time.Millisecond)

	c.Abort()
	assert.True(t, speech.IsSilentStop(<-errs))
	// a second abort with nothing pending is harmless
	c.Abort()
}
