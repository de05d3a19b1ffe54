package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/interview"
	"voice-agent/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.NewDB("sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func seed(t *testing.T, db *storage.DB, cand *storage.Candidate, conv *storage.Conversation) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.CreateCandidate(ctx, cand))
	conv.CandidateID = cand.ID
	require.NoError(t, db.CreateConversation(ctx, conv))
}

func TestBackfill(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Entities were lost, but the transcript still has the answers.
	fromTranscript := &storage.Candidate{Name: "Asha Rao"}
	seed(t, db, fromTranscript, &storage.Conversation{
		Transcript: interview.FormatTranscript([]interview.Turn{
			{Question: "Are you interested?", Answer: "yes"},
			{Question: "What is your notice period?", Answer: "I can join in 30 days"},
			{Question: "What are your current and expected CTC?", Answer: "eight lakhs expecting twelve"},
		}),
	})

	notice := "two months"
	fromEntities := &storage.Candidate{Name: "Ravi Kumar", CurrentCTC: "20"}
	seed(t, db, fromEntities, &storage.Conversation{
		Transcript:        "Q: Are you interested?\nA: yes",
		EntitiesExtracted: storage.Entities{interview.KeyNoticePeriod: &notice},
	})

	complete := &storage.Candidate{Name: "Complete", NoticePeriod: "1 week", CurrentCTC: "1", ExpectedCTC: "2"}
	seed(t, db, complete, &storage.Conversation{Transcript: "Q: x\nA: y"})

	n, err := backfill(ctx, db, 10, true, log)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	got, err := db.GetCandidate(ctx, fromTranscript.ID)
	require.NoError(t, err)
	assert.Empty(t, got.NoticePeriod, "dry run must not write")

	n, err = backfill(ctx, db, 10, false, log)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = db.GetCandidate(ctx, fromTranscript.ID)
	require.NoError(t, err)
	assert.Equal(t, "30 days", got.NoticePeriod)
	assert.Equal(t, "8", got.CurrentCTC)
	assert.Equal(t, "12", got.ExpectedCTC)

	got, err = db.GetCandidate(ctx, fromEntities.ID)
	require.NoError(t, err)
	assert.Equal(t, "two months", got.NoticePeriod)
	assert.Equal(t, "20", got.CurrentCTC, "filled fields are kept")
	assert.Empty(t, got.ExpectedCTC)
}
