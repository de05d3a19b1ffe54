package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/api"
	"voice-agent/internal/interview"
	"voice-agent/internal/storage"
)

type cliEnv struct {
	url       string
	db        *storage.DB
	candidate *storage.Candidate
	job       *storage.Job
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("INTERVIEW_PAUSE", "1ms")
	t.Setenv("CONFIG_FILE", "")
	t.Chdir(t.TempDir())

	db, err := storage.NewDB("sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	a := api.NewAPI(db, api.Options{UploadsDir: t.TempDir()})
	srv := httptest.NewServer(api.NewRouter(a))
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})

	env := &cliEnv{
		url:       srv.URL,
		db:        db,
		candidate: &storage.Candidate{Name: "Asha Rao", Phone: "555-0101"},
		job:       &storage.Job{Title: "Go Engineer"},
	}
	require.NoError(t, db.CreateCandidate(ctx, env.candidate))
	require.NoError(t, db.CreateJob(ctx, env.job))
	return env
}

func (e *cliEnv) execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--api", e.url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) runArgs() []string {
	return []string{"run",
		"--candidate", strconv.FormatInt(e.candidate.ID, 10),
		"--job", strconv.FormatInt(e.job.ID, 10),
	}
}

func TestRunCommandSavesInterview(t *testing.T) {
	env := setupCLI(t)

	// The blank line is silence: the question is listened for again.
	stdin := "yes I am interested\n\n45 days\n9 lakhs expecting 13\nThursday at 4pm\nyes\n"
	out, err := env.execute(t, stdin, env.runArgs()...)
	require.NoError(t, err)

	assert.Contains(t, out, "Agent: Hello Asha Rao")
	assert.Contains(t, out, "Interview saved.")
	assert.Contains(t, out, "16:00:00")

	got, err := env.db.GetCandidate(context.Background(), env.candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, "45 days", got.NoticePeriod)
	assert.Equal(t, "9", got.CurrentCTC)
	assert.Equal(t, "13", got.ExpectedCTC)
	assert.Equal(t, interview.BookingBooked, got.BookingStatus)
}

func TestRunCommandEndOfInputCancels(t *testing.T) {
	env := setupCLI(t)

	out, err := env.execute(t, "yes\n", env.runArgs()...)
	require.NoError(t, err)
	assert.Contains(t, out, "Interview cancelled")

	convs, err := env.db.ListConversationsByCandidate(context.Background(), env.candidate.ID)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestRunCommandUnknownCandidate(t *testing.T) {
	env := setupCLI(t)

	_, err := env.execute(t, "", "run", "--candidate", "999", "--job", strconv.FormatInt(env.job.ID, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandidatesCommand(t *testing.T) {
	env := setupCLI(t)

	out, err := env.execute(t, "", "candidates")
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Rao")
	assert.Contains(t, out, storage.BookingPending)
}
