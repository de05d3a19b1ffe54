package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/speech"
)

// connect starts a server that wraps each connection in a Bridge running its
// read loop, and dials it as the browser would.
func connect(t *testing.T) (*Bridge, *websocket.Conn) {
	t.Helper()
	bridges := make(chan *Bridge, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		b := NewBridge(conn, nil)
		bridges <- b
		_ = b.ReadLoop(r.Context())
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(websocket.StatusNormalClosure, "") })

	select {
	case b := <-bridges:
		return b, client
	case <-ctx.Done():
		t.Fatal("server never accepted")
		return nil, nil
	}
}

func expect(t *testing.T, client *websocket.Conn, msgType string) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg Message
	require.NoError(t, wsjson.Read(ctx, client, &msg))
	require.Equal(t, msgType, msg.Type)
	return msg
}

func reply(t *testing.T, client *websocket.Conn, msg Message) {
	t.Helper()
	require.NoError(t, wsjson.Write(context.Background(), client, msg))
}

func TestSpeakCompletes(t *testing.T) {
	b, client := connect(t)

	errs := make(chan error, 1)
	go func() { errs <- b.Speak(context.Background(), "Hello there") }()

	msg := expect(t, client, TypeSpeak)
	assert.Equal(t, "Hello there", msg.Text)
	// a completion for another utterance is ignored
	reply(t, client, Message{Type: TypeSpoken, ID: msg.ID + 100})
	reply(t, client, Message{Type: TypeSpoken, ID: msg.ID})
	require.NoError(t, <-errs)

	go func() { errs <- b.Speak(context.Background(), "again") }()
	msg = expect(t, client, TypeSpeak)
	reply(t, client, Message{Type: TypeSpeakError, ID: msg.ID, Reason: "synthesis-failed"})

	var serr *speech.SynthesisError
	require.ErrorAs(t, <-errs, &serr)
	assert.Equal(t, "synthesis-failed", serr.Reason)
}

func TestListenOutcomes(t *testing.T) {
	b, client := connect(t)

	type result struct {
		text string
		err  error
	}
	results := make(chan result, 1)
	listen := func() {
		go func() {
			text, err := b.Listen(context.Background())
			results <- result{text, err}
		}()
	}

	listen()
	msg := expect(t, client, TypeListen)
	reply(t, client, Message{Type: TypeResult, ID: msg.ID, Text: "three weeks"})
	r := <-results
	require.NoError(t, r.err)
	assert.Equal(t, "three weeks", r.text)

	listen()
	msg = expect(t, client, TypeListen)
	reply(t, client, Message{Type: TypeError, ID: msg.ID, Reason: speech.ReasonNetwork})
	r = <-results
	var rerr *speech.RecognitionError
	require.ErrorAs(t, r.err, &rerr)
	assert.False(t, rerr.Silent())

	listen()
	msg = expect(t, client, TypeListen)
	reply(t, client, Message{Type: TypeEnd, ID: msg.ID})
	r = <-results
	assert.ErrorIs(t, r.err, speech.ErrEndOfSession)
	assert.True(t, speech.IsSilentStop(r.err))
}

func TestListenContextCancel(t *testing.T) {
	b, client := connect(t)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := b.Listen(ctx)
		errs <- err
	}()
	expect(t, client, TypeListen)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)

	b.Abort()
	expect(t, client, TypeAbortListen)
	b.Cancel()
	expect(t, client, TypeCancelSpeech)
}

func TestControlsAndClose(t *testing.T) {
	b, client := connect(t)

	reply(t, client, Message{Type: TypeRetry})
	reply(t, client, Message{Type: TypeCancel})
	assert.Equal(t, TypeRetry, <-b.Controls())
	assert.Equal(t, TypeCancel, <-b.Controls())

	errs := make(chan error, 1)
	go func() { errs <- b.Speak(context.Background(), "anyone there?") }()
	expect(t, client, TypeSpeak)
	require.NoError(t, client.Close(websocket.StatusNormalClosure, "bye"))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Speak did not return after close")
	}
}
