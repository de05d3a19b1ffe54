package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/storage"
)

type testServer struct {
	*httptest.Server
	api *API
	db  *storage.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := storage.NewDB("sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))

	a := NewAPI(db, Options{
		UploadsDir:  t.TempDir(),
		CompanyName: "Acme Talent",
		ListenPoll:  time.Millisecond,
	})
	srv := httptest.NewServer(NewRouter(a))
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return &testServer{Server: srv, api: a, db: db}
}

// do sends body as JSON and decodes the response into out when out is non-nil.
func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			r = strings.NewReader(raw)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			r = bytes.NewReader(b)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.Client().Get(s.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Voice Agent API is running", string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var health map[string]string
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "healthy", health["status"])

	req, _ := http.NewRequest(http.MethodOptions, s.URL+"/api/candidates", nil)
	resp, err = s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCandidateCRUD(t *testing.T) {
	s := newTestServer(t)

	var created storage.Candidate
	status := s.do(t, http.MethodPost, "/api/candidates", map[string]string{
		"name": "Asha Rao", "phone": "555-0101", "experience": "4 years",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotZero(t, created.ID)
	assert.Equal(t, storage.BookingPending, created.BookingStatus)
	path := fmt.Sprintf("/api/candidates/%d", created.ID)

	var updated storage.Candidate
	status = s.do(t, http.MethodPut, path, map[string]string{"notice_period": "30 days"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "30 days", updated.NoticePeriod)
	assert.Equal(t, "555-0101", updated.Phone)

	var list []storage.Candidate
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/candidates", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Asha Rao", list[0].Name)

	var msg messageResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, nil, &msg))
	assert.Equal(t, "Candidate deleted successfully", msg.Message)

	var errBody errorResponse
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, nil, &errBody))
	assert.NotEmpty(t, errBody.Error)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, path, map[string]string{"name": "x"}, nil))
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"non numeric id", http.MethodGet, "/api/candidates/abc", nil},
		{"negative id", http.MethodGet, "/api/jobs/-1", nil},
		{"malformed json", http.MethodPost, "/api/candidates", "{not json"},
		{"missing name", http.MethodPost, "/api/candidates", map[string]string{"phone": "1"}},
		{"unknown appointment status", http.MethodPost, "/api/appointments", map[string]any{
			"candidate_id": 1, "job_id": 1, "date_time": "2026-10-21 15:00:00", "status": "maybe",
		}},
		{"slots not an object", http.MethodPost, "/api/jobs", `{"title":"x","interview_slots":"[1,2"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorResponse
			assert.Equal(t, http.StatusBadRequest, s.do(t, tt.method, tt.path, tt.body, &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestJobSlotsAcceptSerializedText(t *testing.T) {
	s := newTestServer(t)

	var job storage.Job
	status := s.do(t, http.MethodPost, "/api/jobs",
		`{"title":"Go Engineer","interview_slots":"{\"monday\":[\"10am\",\"2pm\"]}"}`, &job)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, storage.Slots{"monday": {"10am", "2pm"}}, job.InterviewSlots)

	var fetched storage.Job
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d", job.ID), nil, &fetched))
	assert.Equal(t, job.InterviewSlots, fetched.InterviewSlots)
}

func TestAppointmentsAndConversations(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	cand := &storage.Candidate{Name: "Asha Rao"}
	require.NoError(t, s.db.CreateCandidate(ctx, cand))
	job := &storage.Job{Title: "Go Engineer"}
	require.NoError(t, s.db.CreateJob(ctx, job))

	var appt storage.Appointment
	status := s.do(t, http.MethodPost, "/api/appointments", map[string]any{
		"candidate_id": cand.ID, "job_id": job.ID, "date_time": "2026-10-21 15:00:00",
	}, &appt)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, storage.AppointmentScheduled, appt.Status)

	var moved storage.Appointment
	status = s.do(t, http.MethodPut, fmt.Sprintf("/api/appointments/%d", appt.ID),
		map[string]string{"status": "completed"}, &moved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, storage.AppointmentCompleted, moved.Status)
	assert.Equal(t, "2026-10-21 15:00:00", moved.DateTime)

	var conv storage.Conversation
	status = s.do(t, http.MethodPost, "/api/conversations", map[string]any{
		"candidate_id":       cand.ID,
		"transcript":         "Q: Are you interested?\nA: yes",
		"entities_extracted": `{"notice_period":"30 days","current_ctc":null}`,
	}, &conv)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "30 days", conv.EntitiesExtracted.Get("notice_period"))

	var convs []storage.Conversation
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/api/candidates/%d/conversations", cand.ID), nil, &convs))
	assert.Len(t, convs, 1)
	var appts []storage.Appointment
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/api/candidates/%d/appointments", cand.ID), nil, &appts))
	assert.Len(t, appts, 1)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/candidates/999/appointments", nil, nil))

	var msg messageResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, fmt.Sprintf("/api/conversations/%d", conv.ID), nil, &msg))
	assert.Equal(t, "Conversation deleted", msg.Message)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, fmt.Sprintf("/api/appointments/%d", appt.ID), nil, &msg))
	assert.Equal(t, "Appointment deleted", msg.Message)
}

func upload(t *testing.T, s *testServer, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := s.Client().Post(s.URL+"/api/jobs/import", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestImportJobDescription(t *testing.T) {
	s := newTestServer(t)

	resp := upload(t, s, "backend.txt", "We build services in Go on PostgreSQL and Kubernetes.", map[string]string{
		"title":           "Backend Engineer",
		"interview_slots": `{"tuesday":["11am"]}`,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var job storage.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	require.NotZero(t, job.ID)
	assert.Equal(t, storage.Slots{"tuesday": {"11am"}}, job.InterviewSlots)

	require.Eventually(t, func() bool {
		got, err := s.db.GetJob(context.Background(), job.ID)
		return err == nil && got.Description != ""
	}, 5*time.Second, 10*time.Millisecond)

	got, err := s.db.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "We build services in Go on PostgreSQL and Kubernetes.", got.Description)
	assert.Equal(t, "Go, Kubernetes, PostgreSQL", got.Requirements)
}

func TestImportKeepsGivenRequirements(t *testing.T) {
	s := newTestServer(t)

	resp := upload(t, s, "role.md", "Python and Docker.", map[string]string{
		"title": "Data Engineer", "requirements": "SQL",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var job storage.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))

	require.Eventually(t, func() bool {
		got, err := s.db.GetJob(context.Background(), job.ID)
		return err == nil && got.Description != ""
	}, 5*time.Second, 10*time.Millisecond)
	got, err := s.db.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "SQL", got.Requirements)
}

func TestImportRejectsBadUploads(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, upload(t, s, "role.exe", "x", map[string]string{"title": "X"}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, upload(t, s, "role.txt", "x", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, upload(t, s, "role.txt", "x", map[string]string{
		"title": "X", "interview_slots": "{",
	}).StatusCode)

	jobs, err := s.db.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
