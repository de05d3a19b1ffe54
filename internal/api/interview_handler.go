package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"voice-agent/internal/interview"
	"voice-agent/internal/observe"
	"voice-agent/internal/speech/browser"
)

const sendTimeout = 5 * time.Second

// InterviewSocketHandler runs one voice interview over a websocket
// @Summary Voice interview session
// @Description Upgrades to a websocket. The browser performs speech synthesis and recognition and
// @Description reports completions; the server drives the interview and streams state messages.
// @Description The session ends with a "done" message carrying the outcome.
// @Tags interviews
// @Param candidate_id query int true "Candidate ID"
// @Param job_id query int true "Job ID"
// @Success 101
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /interviews/ws [get]
func (a *API) InterviewSocketHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, err := queryID(r, "candidate_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	jobID, err := queryID(r, "job_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	candidate, err := a.db.GetCandidate(r.Context(), candidateID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	job, err := a.db.GetJob(r.Context(), jobID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: a.opts.AllowedOrigins})
	if err != nil {
		a.log.Warn("websocket accept failed", "component", "interview", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, span := observe.StartSpan(r.Context(), "interview.session")
	defer span.End()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := observe.Logger(ctx).With("candidate_id", candidateID, "job_id", jobID)
	bridge := browser.NewBridge(conn, log)

	engine := interview.NewEngine(bridge, bridge, a.db, interview.Options{
		Script:      a.opts.Script,
		CompanyName: a.opts.CompanyName,
		Pause:       a.opts.Pause,
		ListenPoll:  a.opts.ListenPoll,
		Logger:      log,
		Metrics:     a.opts.Metrics,
		Observer: func(s interview.Snapshot) {
			sctx, scancel := context.WithTimeout(context.Background(), sendTimeout)
			defer scancel()
			if err := bridge.Send(sctx, browser.Message{Type: browser.TypeState, Data: s}); err != nil {
				log.Debug("state message not sent", "error", err)
			}
		},
	})

	var finished atomic.Bool
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := bridge.ReadLoop(gctx)
		if finished.Load() {
			return nil
		}
		return err
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case control := <-bridge.Controls():
				switch control {
				case browser.TypeRetry:
					if err := engine.Retry(); err != nil {
						log.Debug("retry ignored", "error", err)
					}
				case browser.TypeCancel:
					engine.Cancel()
				}
			}
		}
	})

	g.Go(func() error {
		defer cancel()
		if err := engine.Select(candidate, job); err != nil {
			return err
		}
		out, err := engine.Run(gctx)

		done := browser.Message{Type: browser.TypeDone, Data: out}
		switch {
		case errors.Is(err, interview.ErrCancelled):
			done.Reason = "cancelled"
		case err != nil && out == nil:
			done.Reason = "error"
		case err != nil:
			done.Reason = "save_failed"
		}

		finished.Store(true)
		sctx, scancel := context.WithTimeout(context.WithoutCancel(gctx), sendTimeout)
		defer scancel()
		if serr := bridge.Send(sctx, done); serr != nil {
			log.Debug("done message not sent", "error", serr)
		}
		conn.Close(websocket.StatusNormalClosure, "interview finished")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn("interview session ended with error", "error", err)
	}
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}
