// Package browser bridges the speech interfaces to a browser tab over a
// websocket. The tab owns the microphone and the voices: it runs the platform
// speech synthesis and recognition engines and reports completions back, so
// the server only ever exchanges JSON messages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"voice-agent/internal/speech"
)

// Message types sent to the browser.
const (
	TypeSpeak        = "speak"
	TypeCancelSpeech = "cancel_speech"
	TypeListen       = "listen"
	TypeAbortListen  = "abort_listen"
	TypeState        = "state"
	TypeDone         = "done"
)

// Message types received from the browser.
const (
	TypeSpoken     = "spoken"
	TypeSpeakError = "speak_error"
	TypeResult     = "result"
	TypeError      = "error"
	TypeEnd        = "end"
	TypeRetry      = "retry"
	TypeCancel     = "cancel"
)

// Message is the JSON envelope for both directions. ID ties a completion to the
// speak or listen request it answers.
type Message struct {
	Type   string `json:"type"`
	ID     uint64 `json:"id,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrClosed is returned by Speak and Listen once the connection is gone.
var ErrClosed = errors.New("browser: connection closed")

const controlTimeout = 2 * time.Second

type pending struct {
	id uint64
	ch chan Message
}

// Bridge implements speech.Synthesizer and speech.Recognizer on top of one
// websocket connection. ReadLoop must be running for requests to complete.
type Bridge struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu       sync.Mutex
	nextID   uint64
	speaking *pending
	hearing  *pending

	controls  chan string
	closed    chan struct{}
	closeOnce sync.Once
}

// NewBridge wraps an accepted websocket connection.
func NewBridge(conn *websocket.Conn, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		conn:     conn,
		log:      log.With("component", "browser"),
		controls: make(chan string, 8),
		closed:   make(chan struct{}),
	}
}

// Controls delivers retry and cancel requests from the browser.
func (b *Bridge) Controls() <-chan string { return b.controls }

// Send writes one message.
func (b *Bridge) Send(ctx context.Context, msg Message) error {
	return wsjson.Write(ctx, b.conn, msg)
}

func (b *Bridge) sendControl(msgType string) {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()
	if err := b.Send(ctx, Message{Type: msgType}); err != nil {
		b.log.Debug("control message not sent", "type", msgType, "error", err)
	}
}

func (b *Bridge) register(slot **pending) *pending {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p := &pending{id: b.nextID, ch: make(chan Message, 1)}
	*slot = p
	return p
}

func (b *Bridge) release(slot **pending, p *pending) {
	b.mu.Lock()
	if *slot == p {
		*slot = nil
	}
	b.mu.Unlock()
}

func (b *Bridge) await(ctx context.Context, p *pending) (Message, error) {
	select {
	case msg := <-p.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-b.closed:
		return Message{}, ErrClosed
	}
}

// Speak asks the browser to say text and waits for it to report the end of the
// utterance.
func (b *Bridge) Speak(ctx context.Context, text string) error {
	p := b.register(&b.speaking)
	defer b.release(&b.speaking, p)

	if err := b.Send(ctx, Message{Type: TypeSpeak, ID: p.id, Text: text}); err != nil {
		return fmt.Errorf("send speak: %w", err)
	}
	msg, err := b.await(ctx, p)
	if err != nil {
		return err
	}
	if msg.Type == TypeSpeakError {
		return &speech.SynthesisError{Reason: msg.Reason}
	}
	return nil
}

// Cancel tells the browser to stop speaking.
func (b *Bridge) Cancel() { b.sendControl(TypeCancelSpeech) }

// Listen starts one recognition in the browser and waits for its outcome.
func (b *Bridge) Listen(ctx context.Context) (string, error) {
	p := b.register(&b.hearing)
	defer b.release(&b.hearing, p)

	if err := b.Send(ctx, Message{Type: TypeListen, ID: p.id}); err != nil {
		return "", fmt.Errorf("send listen: %w", err)
	}
	msg, err := b.await(ctx, p)
	if err != nil {
		return "", err
	}
	switch msg.Type {
	case TypeResult:
		return msg.Text, nil
	case TypeError:
		return "", &speech.RecognitionError{Reason: msg.Reason}
	default:
		return "", speech.ErrEndOfSession
	}
}

// Abort tells the browser to stop recognition.
func (b *Bridge) Abort() { b.sendControl(TypeAbortListen) }

// ReadLoop dispatches incoming messages until the connection closes or ctx
// ends. A normal closure, or ctx ending, returns nil.
func (b *Bridge) ReadLoop(ctx context.Context) error {
	defer b.closeOnce.Do(func() { close(b.closed) })
	for {
		var msg Message
		if err := wsjson.Read(ctx, b.conn, &msg); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		b.dispatch(msg)
	}
}

func (b *Bridge) dispatch(msg Message) {
	var slot **pending
	switch msg.Type {
	case TypeSpoken, TypeSpeakError:
		slot = &b.speaking
	case TypeResult, TypeError, TypeEnd:
		slot = &b.hearing
	case TypeRetry, TypeCancel:
		select {
		case b.controls <- msg.Type:
		default:
			b.log.Warn("control message dropped", "type", msg.Type)
		}
		return
	default:
		b.log.Warn("unknown message type", "type", msg.Type)
		return
	}

	b.mu.Lock()
	p := *slot
	b.mu.Unlock()
	if p == nil || p.id != msg.ID {
		b.log.Debug("stale completion ignored", "type", msg.Type, "id", msg.ID)
		return
	}
	select {
	case p.ch <- msg:
	default:
	}
}

var (
	_ speech.Synthesizer = (*Bridge)(nil)
	_ speech.Recognizer  = (*Bridge)(nil)
)
