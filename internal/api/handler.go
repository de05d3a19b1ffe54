package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"voice-agent/internal/document"
	"voice-agent/internal/interview"
	"voice-agent/internal/observe"
	"voice-agent/internal/storage"
)

// Options configures the API. Zero values select the defaults; a zero Pause
// disables the pause between interview turns.
type Options struct {
	UploadsDir     string
	ImportWorkers  int
	QueueSize      int
	AllowedOrigins []string
	SwaggerURL     string

	// Interview settings for websocket sessions.
	Script      *interview.Script
	CompanyName string
	Pause       time.Duration
	ListenPoll  time.Duration

	Metrics *observe.Metrics
	Logger  *slog.Logger
}

type API struct {
	db          *storage.DB
	parser      *document.Parser
	opts        Options
	log         *slog.Logger
	importQueue chan ImportJob // Background queue for job description text extraction
	workers     sync.WaitGroup
	closeOnce   sync.Once
}

func NewAPI(db *storage.DB, opts Options) *API {
	if opts.UploadsDir == "" {
		opts.UploadsDir = "./uploads"
	}
	if opts.ImportWorkers <= 0 {
		opts.ImportWorkers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 50
	}
	if opts.Script == nil {
		opts.Script = interview.DefaultScript()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &API{
		db:          db,
		parser:      document.NewParser(opts.UploadsDir),
		opts:        opts,
		log:         opts.Logger,
		importQueue: make(chan ImportJob, opts.QueueSize),
	}
	a.StartBackgroundWorkers()
	return a
}

// Close stops accepting imports and waits for queued ones to finish.
func (a *API) Close() {
	a.closeOnce.Do(func() {
		close(a.importQueue)
		a.workers.Wait()
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "component", "api", "error", err)
	}
}

// writeError maps err onto an HTTP status and writes it as {"error": "..."}.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrConstraint), errors.Is(err, errBadRequest),
		errors.Is(err, document.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, interview.ErrSelectionRequired), errors.Is(err, interview.ErrBusy):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("request failed", "component", "api",
			"method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}
