package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/api"
	"voice-agent/internal/interview"
	"voice-agent/internal/storage"
)

var _ interview.Recorder = (*Client)(nil)

func newTestClient(t *testing.T) (*Client, *storage.DB) {
	t.Helper()
	db, err := storage.NewDB("sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))

	a := api.NewAPI(db, api.Options{UploadsDir: t.TempDir()})
	srv := httptest.NewServer(api.NewRouter(a))
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return NewClient(srv.URL+"/", 5*time.Second), db
}

func TestClientReadsRecords(t *testing.T) {
	ctx := context.Background()
	client, db := newTestClient(t)

	require.NoError(t, client.Health(ctx))

	cand := &storage.Candidate{Name: "Asha Rao", Phone: "555-0101"}
	require.NoError(t, db.CreateCandidate(ctx, cand))
	job := &storage.Job{Title: "Go Engineer", InterviewSlots: storage.Slots{"monday": {"10am"}}}
	require.NoError(t, db.CreateJob(ctx, job))

	got, err := client.GetCandidate(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.Name)

	list, err := client.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	gotJob, err := client.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.InterviewSlots, gotJob.InterviewSlots)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	_, err := client.GetCandidate(ctx, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)

	err = client.CreateAppointment(ctx, &storage.Appointment{CandidateID: 1, JobID: 1, DateTime: "2026-10-21 15:00:00"})
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func TestClientSavesInterview(t *testing.T) {
	ctx := context.Background()
	client, db := newTestClient(t)

	cand := &storage.Candidate{Name: "Asha Rao"}
	require.NoError(t, db.CreateCandidate(ctx, cand))
	job := &storage.Job{Title: "Go Engineer"}
	require.NoError(t, db.CreateJob(ctx, job))

	turns := []interview.Turn{{QuestionIndex: 0, Field: interview.FieldInterest, Question: "Interested?", Answer: "yes"}}
	answers := interview.Answers{
		interview.KeyNoticePeriod:  "30 days",
		interview.KeyCurrentCTC:    "8",
		interview.KeyExpectedCTC:   "12",
		interview.KeyInterviewDate: "2026-10-21",
		interview.KeyInterviewTime: "3pm",
		interview.KeyConfirmation:  "yes",
	}
	report := interview.Save(ctx, client, cand.ID, job.ID, turns, answers)
	require.True(t, report.OK(), "%v", report.Err)
	assert.NotZero(t, report.ConversationID)
	assert.NotZero(t, report.AppointmentID)

	got, err := db.GetCandidate(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, interview.BookingBooked, got.BookingStatus)
	assert.Equal(t, "30 days", got.NoticePeriod)

	appt, err := db.GetAppointment(ctx, report.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-21 15:00:00", appt.DateTime)
	assert.Equal(t, storage.AppointmentConfirmed, appt.Status)
}
