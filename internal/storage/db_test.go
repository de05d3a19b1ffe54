package storage

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
    t.Helper()
    db, err := NewDB("sqlite::memory:")
    require.NoError(t, err)
    t.Cleanup(db.Close)
    require.NoError(t, db.Migrate(context.Background()))
    return db
}

func strPtr(s string) *string { return &s }

func TestParseDSN(t *testing.T) {
    tests := []struct {
        name    string
        in      string
        dialect Dialect
        dsn     string
    }{
        {"postgres url", "postgres://u:p@localhost:5432/db?sslmode=disable", DialectPostgres, "postgres://u:p@localhost:5432/db?sslmode=disable"},
        {"postgresql url", "postgresql://localhost/db", DialectPostgres, "postgresql://localhost/db"},
        {"keyword dsn", "host=localhost dbname=agent", DialectPostgres, "host=localhost dbname=agent"},
        {"memory", "sqlite::memory:", DialectSQLite, "file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
        {"file path", "sqlite:data/agent.db", DialectSQLite, "file:data/agent.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
        {"bare file", "agent.db", DialectSQLite, "file:agent.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            dialect, dsn := ParseDSN(tt.in)
            assert.Equal(t, tt.dialect, dialect)
            assert.Equal(t, tt.dsn, dsn)
        })
    }
}

func TestRebind(t *testing.T) {
    pg := &DB{dialect: DialectPostgres}
    lite := &DB{dialect: DialectSQLite}
    q := `UPDATE t SET a = ?, b = ? WHERE id = ?`
    assert.Equal(t, `UPDATE t SET a = $1, b = $2 WHERE id = $3`, pg.rebind(q))
    assert.Equal(t, q, lite.rebind(q))
}

func TestCandidateLifecycle(t *testing.T) {
    ctx := context.Background()
    db := newTestDB(t)

    c := &Candidate{Name: "Asha Rao", Phone: "555-0101", Experience: "4 years"}
    require.NoError(t, db.CreateCandidate(ctx, c))
    require.NotZero(t, c.ID)
    assert.Equal(t, BookingPending, c.BookingStatus)

    got, err := db.GetCandidate(ctx, c.ID)
    require.NoError(t, err)
    assert.Equal(t, "Asha Rao", got.Name)
    assert.Equal(t, "4 years", got.Experience)
    assert.True(t, got.CreatedAt.Equal(c.CreatedAt), "created_at %v != %v", got.CreatedAt, c.CreatedAt)

    updated, err := db.UpdateCandidate(ctx, c.ID, CandidatePatch{
        CurrentCTC:   strPtr("8"),
        ExpectedCTC:  strPtr("12"),
        NoticePeriod: strPtr("30 days"),
    })
    require.NoError(t, err)
    assert.Equal(t, "8", updated.CurrentCTC)
    assert.Equal(t, "12", updated.ExpectedCTC)
    assert.Equal(t, "30 days", updated.NoticePeriod)
    assert.Equal(t, "555-0101", updated.Phone, "fields outside the patch are untouched")

    list, err := db.ListCandidates(ctx)
    require.NoError(t, err)
    require.Len(t, list, 1)

    require.NoError(t, db.DeleteCandidate(ctx, c.ID))
    _, err = db.GetCandidate(ctx, c.ID)
    require.ErrorIs(t, err, ErrNotFound)
    require.ErrorIs(t, db.DeleteCandidate(ctx, c.ID), ErrNotFound)
}

func TestCandidateRequiresName(t *testing.T) {
    db := newTestDB(t)
    err := db.CreateCandidate(context.Background(), &Candidate{Phone: "1"})
    require.ErrorIs(t, err, ErrConstraint)
}

func TestUpdateMissingRows(t *testing.T) {
    ctx := context.Background()
    db := newTestDB(t)

    _, err := db.UpdateCandidate(ctx, 42, CandidatePatch{Phone: strPtr("1")})
    require.ErrorIs(t, err, ErrNotFound)
    _, err = db.UpdateJob(ctx, 42, JobPatch{})
    require.ErrorIs(t, err, ErrNotFound)
}

func TestJobSlotsRoundTrip(t *testing.T) {
    ctx := context.Background()
    db := newTestDB(t)

    j := &Job{
        Title:          "Backend Engineer",
        Description:    "Build APIs",
        Requirements:   "Go, PostgreSQL",
        InterviewSlots: Slots{"2026-10-21": {"10:00", "14:30"}},
    }
    require.NoError(t, db.CreateJob(ctx, j))

    got, err := db.GetJob(ctx, j.ID)
    require.NoError(t, err)
    assert.Equal(t, []string{"10:00", "14:30"}, got.InterviewSlots["2026-10-21"])

    slots := Slots{"2026-10-22": {"09:00"}}
    updated, err := db.UpdateJob(ctx, j.ID, JobPatch{InterviewSlots: &slots})
    require.NoError(t, err)
    assert.Equal(t, slots, updated.InterviewSlots)
    assert.Equal(t, "Build APIs", updated.Description)
}

func TestAppointmentConstraints(t *testing.T) {
    ctx := context.Background()
    db := newTestDB(t)

    c := &Candidate{Name: "Ben"}
    require.NoError(t, db.CreateCandidate(ctx, c))
    j := &Job{Title: "SRE"}
    require.NoError(t, db.CreateJob(ctx, j))

    a := &Appointment{CandidateID: c.ID, JobID: j.ID, DateTime: "2026-10-21 15:00:00"}
    require.NoError(t, db.CreateAppointment(ctx, a))
    assert.Equal(t, AppointmentScheduled, a.Status)

    err := db.CreateAppointment(ctx, &Appointment{CandidateID: c.ID, JobID: j.ID, DateTime: "2026-10-21 15:00:00", Status: "maybe"})
    require.ErrorIs(t, err, ErrConstraint)

    err = db.CreateAppointment(ctx, &Appointment{CandidateID: 999, JobID: j.ID, DateTime: "2026-10-21 15:00:00"})
    require.ErrorIs(t, err, ErrConstraint)

    updated, err := db.UpdateAppointment(ctx, a.ID, AppointmentPatch{Status: strPtr(AppointmentCompleted)})
    require.NoError(t, err)
    assert.Equal(t, AppointmentCompleted, updated.Status)
    assert.Equal(t, "2026-10-21 15:00:00", updated.DateTime)

    byCandidate, err := db.ListAppointmentsByCandidate(ctx, c.ID)
    require.NoError(t, err)
    require.Len(t, byCandidate, 1)

    // Deleting the job cascades to its appointments.
    require.NoError(t, db.DeleteJob(ctx, j.ID))
    all, err := db.ListAppointments(ctx)
    require.NoError(t, err)
    assert.Empty(t, all)
}

func TestConversationEntitiesKeepNulls(t *testing.T) {
    ctx := context.Background()
    db := newTestDB(t)

    c := &Candidate{Name: "Chen"}
    require.NoError(t, db.CreateCandidate(ctx, c))

    conv := &Conversation{
        CandidateID: c.ID,
        Transcript:  "Q: Are you interested?\nA: yes",
        EntitiesExtracted: Entities{
            "interest":       strPtr("yes"),
            "interview_date": nil,
        },
    }
    require.NoError(t, db.CreateConversation(ctx, conv))

    got, err := db.GetConversation(ctx, conv.ID)
    require.NoError(t, err)
    require.Contains(t, got.EntitiesExtracted, "interview_date")
    assert.Nil(t, got.EntitiesExtracted["interview_date"])
    assert.Equal(t, "yes", got.EntitiesExtracted.Get("interest"))

    missing, err := db.ListCandidatesMissingTerms(ctx, 10)
    require.NoError(t, err)
    require.Len(t, missing, 1)
    assert.Equal(t, conv.ID, missing[0].Conversation.ID)
}
