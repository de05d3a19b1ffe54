package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-agent/internal/observe"
	"voice-agent/internal/speech"
	"voice-agent/internal/storage"
)

var (
	// ErrSelectionRequired is returned by Run when no candidate and job are selected.
	ErrSelectionRequired = errors.New("interview: select a candidate and a job first")
	// ErrCancelled is returned by Run when the run was cancelled.
	ErrCancelled = errors.New("interview: cancelled")
	// ErrNotRunning is returned by Retry when no run is waiting for one.
	ErrNotRunning = errors.New("interview: no run is waiting")
	// ErrBusy is returned by Select and Run while a run is in flight.
	ErrBusy = errors.New("interview: a run is already in progress")
)

const (
	DefaultPause      = 500 * time.Millisecond
	DefaultListenPoll = 100 * time.Millisecond
)

// Options tunes an Engine. A zero Pause disables the pause between transitions;
// other zero values select the defaults.
type Options struct {
	Script      *Script
	CompanyName string
	// Pause is the delay between state transitions.
	Pause time.Duration
	// ListenPoll is how often a deferred listen re-checks whether speech ended.
	ListenPoll time.Duration
	Clock      func() time.Time
	Logger     *slog.Logger
	Metrics    *observe.Metrics
	// Observer receives a snapshot after every change. It may be called from
	// any goroutine and must not call back into the engine.
	Observer func(Snapshot)
}

// Snapshot is a point-in-time copy of the engine's state.
// Stalled is set while listening stopped without a result and the run waits
// for Retry.
type Snapshot struct {
	RunID       string  `json:"run_id,omitempty"`
	State       State   `json:"state"`
	CandidateID int64   `json:"candidate_id,omitempty"`
	JobID       int64   `json:"job_id,omitempty"`
	Speaking    bool    `json:"speaking"`
	Listening   bool    `json:"listening"`
	Stalled     bool    `json:"stalled"`
	Turns       []Turn  `json:"turns,omitempty"`
	Answers     Answers `json:"answers,omitempty"`
}

// Outcome is the result of a completed run.
type Outcome struct {
	RunID   string     `json:"run_id"`
	Turns   []Turn     `json:"turns"`
	Answers Answers    `json:"answers"`
	Report  SaveReport `json:"report"`
}

// run is the transient state of one interview. It is discarded when the run
// completes or is cancelled.
type run struct {
	id        string
	candidate storage.Candidate
	job       storage.Job
	ctx       context.Context
	cancel    context.CancelFunc
	retry     chan struct{}
	turns     []Turn
	answers   Answers
	speaking  bool
	listening bool
	stalled   bool
}

// Engine drives a voice interview: it greets the candidate, asks the fixed
// questions one at a time, extracts answers, and persists the result. One run
// executes at a time; Run blocks for its whole duration while Cancel and Retry
// may be called from other goroutines.
type Engine struct {
	synth speech.Synthesizer
	rec   speech.Recognizer
	store Recorder
	opts  Options
	log   *slog.Logger

	mu        sync.Mutex
	state     State
	candidate *storage.Candidate
	job       *storage.Job
	run       *run
}

// NewEngine creates an idle engine.
func NewEngine(synth speech.Synthesizer, rec speech.Recognizer, store Recorder, opts Options) *Engine {
	if opts.Script == nil {
		opts.Script = DefaultScript()
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	if opts.ListenPoll <= 0 {
		opts.ListenPoll = DefaultListenPoll
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		synth: synth,
		rec:   rec,
		store: store,
		opts:  opts,
		log:   opts.Logger.With("component", "interview"),
		state: idle(),
	}
}

// Select chooses the candidate and job for the next run. Passing nil for
// either clears the selection and returns the engine to idle.
func (e *Engine) Select(candidate *storage.Candidate, job *storage.Job) error {
	e.mu.Lock()
	if e.run != nil {
		e.mu.Unlock()
		return ErrBusy
	}
	e.candidate, e.job = candidate, job
	if candidate != nil && job != nil {
		e.state = ready()
	} else {
		e.state = idle()
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{State: e.state}
	if e.candidate != nil {
		s.CandidateID = e.candidate.ID
	}
	if e.job != nil {
		s.JobID = e.job.ID
	}
	if r := e.run; r != nil {
		s.RunID = r.id
		s.Speaking = r.speaking
		s.Listening = r.listening
		s.Stalled = r.stalled
		s.Turns = append([]Turn(nil), r.turns...)
		s.Answers = make(Answers, len(r.answers))
		s.Answers.Merge(r.answers)
	}
	return s
}

func (e *Engine) notify(s Snapshot) {
	if e.opts.Observer != nil {
		e.opts.Observer(s)
	}
}

// Run executes one interview for the current selection and blocks until it
// finishes or is cancelled. A run that reaches Done returns its Outcome even when
// persistence failed; the error is then a *SaveError.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	r, err := e.start(ctx)
	if err != nil {
		return nil, err
	}
	defer r.cancel()

	e.opts.Metrics.AddActiveInterviews(ctx, 1)
	defer e.opts.Metrics.AddActiveInterviews(context.WithoutCancel(ctx), -1)

	log := e.log.With("run_id", r.id, "candidate_id", r.candidate.ID, "job_id", r.job.ID)
	log.Info("interview started")

	out, err := e.interview(r, log)
	switch {
	case errors.Is(err, ErrCancelled):
		log.Info("interview cancelled")
		e.opts.Metrics.RecordInterviewRun(context.WithoutCancel(ctx), "cancelled")
		e.abandon(r)
	case err != nil && out == nil:
		log.Error("interview failed", "error", err)
		e.opts.Metrics.RecordInterviewRun(context.WithoutCancel(ctx), "error")
		e.abandon(r)
	case err != nil:
		log.Warn("interview finished, results not fully saved", "error", err)
		e.opts.Metrics.RecordInterviewRun(ctx, "save_failed")
	default:
		log.Info("interview finished", "conversation_id", out.Report.ConversationID, "appointment_id", out.Report.AppointmentID)
		e.opts.Metrics.RecordInterviewRun(ctx, "done")
	}
	return out, err
}

func (e *Engine) start(parent context.Context) (*run, error) {
	e.mu.Lock()
	if e.run != nil {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	if e.candidate == nil || e.job == nil || e.state.Phase != PhaseReady {
		e.mu.Unlock()
		return nil, ErrSelectionRequired
	}
	ctx, cancel := context.WithCancel(parent)
	r := &run{
		id:        uuid.NewString(),
		candidate: *e.candidate,
		job:       *e.job,
		ctx:       ctx,
		cancel:    cancel,
		retry:     make(chan struct{}, 1),
		answers:   Answers{},
	}
	e.run = r
	e.mu.Unlock()
	return r, nil
}

// abandon drops r if it is still current, e.g. after the caller's context ended
// or the run failed.
func (e *Engine) abandon(r *run) {
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return
	}
	e.run = nil
	e.state = idle()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Engine) interview(r *run, log *slog.Logger) (*Outcome, error) {
	ctx := r.ctx
	script := e.opts.Script
	n := script.Len()

	if err := e.transition(r, greeting()); err != nil {
		return nil, err
	}
	text, err := script.renderGreeting(e.promptData(r))
	if err != nil {
		return nil, err
	}
	if err := e.speak(r, text); err != nil {
		return nil, err
	}
	if err := e.pause(ctx); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		field := script.Field(i)
		if err := e.transition(r, asking(i)); err != nil {
			return nil, err
		}
		question, err := script.renderQuestion(i, e.promptData(r))
		if err != nil {
			return nil, err
		}
		if err := e.speak(r, question); err != nil {
			return nil, err
		}
		if err := e.transition(r, listening(i)); err != nil {
			return nil, err
		}
		answer, err := e.awaitAnswer(r, i, log)
		if err != nil {
			return nil, err
		}

		if err := e.transition(r, processing(i)); err != nil {
			return nil, err
		}
		extracted := Extract(field, answer, e.opts.Clock())
		if err := e.commit(r, Turn{QuestionIndex: i, Field: field, Question: question, Answer: answer}, extracted); err != nil {
			return nil, err
		}
		e.opts.Metrics.RecordTurn(ctx, string(field))
		log.Debug("answer processed", "question", i, "field", field)

		if err := e.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := e.transition(r, saving(n-1)); err != nil {
		return nil, err
	}
	if err := e.speak(r, script.closing); err != nil {
		return nil, err
	}

	e.mu.Lock()
	turns := append([]Turn(nil), r.turns...)
	answers := make(Answers, len(r.answers))
	answers.Merge(r.answers)
	e.mu.Unlock()

	report := Save(ctx, e.store, r.candidate.ID, r.job.ID, turns, answers)
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	if report.Err != nil {
		for _, step := range report.Err.failedSteps() {
			e.opts.Metrics.RecordPersistenceFailure(ctx, step)
		}
	}

	// The run is discarded on completion; Done stays until the next Select.
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return nil, ErrCancelled
	}
	e.state = done(n - 1)
	e.run = nil
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	out := &Outcome{RunID: r.id, Turns: turns, Answers: answers, Report: report}
	if report.Err != nil {
		return out, report.Err
	}
	return out, nil
}

func (e *Engine) promptData(r *run) PromptData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return PromptData{
		CandidateName: r.candidate.Name,
		CompanyName:   e.opts.CompanyName,
		JobTitle:      r.job.Title,
		InterviewDate: r.answers[KeyInterviewDate],
		FormattedDate: r.answers[KeyFormattedDate],
		InterviewTime: r.answers[KeyInterviewTime],
	}
}

// transition moves r's engine to the next state. It fails with ErrCancelled
// once r is no longer the current run.
func (e *Engine) transition(r *run, to State) error {
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return ErrCancelled
	}
	from := e.state
	if !validTransition(from, to, e.opts.Script.Len()) {
		e.mu.Unlock()
		return fmt.Errorf("interview: invalid transition %s -> %s", from, to)
	}
	e.state = to
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Debug("state changed", "run_id", r.id, "from", from.String(), "to", to.String())
	e.notify(snap)
	return nil
}

// commit records one processed answer.
func (e *Engine) commit(r *run, t Turn, extracted Answers) error {
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return ErrCancelled
	}
	r.turns = append(r.turns, t)
	r.answers.Merge(extracted)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// setFlags updates the speaking/listening/stalled flags of r.
func (e *Engine) setFlags(r *run, fn func(*run)) error {
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return ErrCancelled
	}
	fn(r)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// speak synthesizes text and waits for the utterance to end. Synthesis
// failures are logged; the utterance still counts as finished.
func (e *Engine) speak(r *run, text string) error {
	err := e.setFlags(r, func(r *run) {
		if r.listening {
			e.rec.Abort()
			r.listening = false
		}
		r.speaking = true
	})
	if err != nil {
		return err
	}

	serr := e.synth.Speak(r.ctx, text)

	if err := e.setFlags(r, func(r *run) { r.speaking = false }); err != nil {
		return err
	}
	if r.ctx.Err() != nil {
		return ErrCancelled
	}
	if serr != nil {
		reason := "unknown"
		var synthErr *speech.SynthesisError
		if errors.As(serr, &synthErr) {
			reason = synthErr.Reason
		}
		e.opts.Metrics.RecordSpeechError(r.ctx, "synthesis", reason)
		e.log.Warn("synthesis failed", "run_id", r.id, "error", serr)
	}
	return nil
}

// listen runs one recognition. A listen requested while an utterance is still
// playing waits, polling, until it ends.
func (e *Engine) listen(r *run) (string, error) {
	for {
		e.mu.Lock()
		if e.run != r {
			e.mu.Unlock()
			return "", ErrCancelled
		}
		if !r.speaking {
			r.listening = true
			snap := e.snapshotLocked()
			e.mu.Unlock()
			e.notify(snap)
			break
		}
		e.mu.Unlock()
		if err := sleep(r.ctx, e.opts.ListenPoll); err != nil {
			return "", ErrCancelled
		}
	}

	text, err := e.rec.Listen(r.ctx)

	if ferr := e.setFlags(r, func(r *run) { r.listening = false }); ferr != nil {
		return "", ferr
	}
	if r.ctx.Err() != nil {
		return "", ErrCancelled
	}
	return text, err
}

// awaitAnswer listens until question i gets a transcript. Platform errors
// re-prompt; a silent stop waits for Retry. There is no timeout.
func (e *Engine) awaitAnswer(r *run, i int, log *slog.Logger) (string, error) {
	for {
		text, err := e.listen(r)
		if errors.Is(err, ErrCancelled) {
			return "", err
		}
		if err == nil {
			return text, nil
		}

		reason := "end-of-session"
		var recErr *speech.RecognitionError
		if errors.As(err, &recErr) {
			reason = recErr.Reason
		}

		if speech.IsSilentStop(err) {
			log.Info("listening stopped, waiting for retry", "question", i, "reason", reason)
			if err := e.stall(r); err != nil {
				return "", err
			}
			continue
		}

		e.opts.Metrics.RecordSpeechError(r.ctx, "recognition", reason)
		log.Warn("recognition failed, asking again", "question", i, "error", err)
		if err := e.speak(r, e.opts.Script.repeat); err != nil {
			return "", err
		}
		if err := e.transition(r, listening(i)); err != nil {
			return "", err
		}
	}
}

// stall marks r as waiting and blocks until Retry or cancellation.
func (e *Engine) stall(r *run) error {
	if err := e.setFlags(r, func(r *run) { r.stalled = true }); err != nil {
		return err
	}
	select {
	case <-r.ctx.Done():
		return ErrCancelled
	case <-r.retry:
		return e.setFlags(r, func(r *run) { r.stalled = false })
	}
}

// Retry resumes listening after recognition stopped without a result.
func (e *Engine) Retry() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil || !e.run.stalled {
		return ErrNotRunning
	}
	select {
	case e.run.retry <- struct{}{}:
	default:
	}
	return nil
}

// Cancel stops the current run, aborting any recognition or utterance in
// progress, and returns the engine to idle with no selection. It is safe to call
// from any state and any number of times.
func (e *Engine) Cancel() {
	e.mu.Lock()
	r := e.run
	changed := r != nil || e.state != idle() || e.candidate != nil || e.job != nil
	e.run = nil
	e.candidate, e.job = nil, nil
	e.state = idle()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if r != nil {
		r.cancel()
		e.rec.Abort()
		e.synth.Cancel()
	}
	if changed {
		e.notify(snap)
	}
}

func (e *Engine) pause(ctx context.Context) error {
	if err := sleep(ctx, e.opts.Pause); err != nil {
		return ErrCancelled
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
