// Command backfill_entities fills empty notice period and CTC fields of
// candidates from their stored interview conversations.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"voice-agent/internal/config"
	"voice-agent/internal/interview"
	"voice-agent/internal/observe"
	"voice-agent/internal/storage"
)

func main() {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", true, "If true, do not persist updates; just print changes")
	flag.IntVar(&limit, "limit", 200, "Max number of candidates to process in one run")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := observe.ParseLevel(cfg.LogLevel)
	logger, err := observe.NewLogger(level, cfg.LogFormat, os.Stderr)
	if err != nil {
		slog.Error("create logger", "error", err)
		os.Exit(1)
	}

	logger.Info("connecting to database")
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	updated, err := backfill(context.Background(), db, limit, dryRun, logger)
	if err != nil {
		logger.Error("backfill failed", "error", err)
		os.Exit(1)
	}
	logger.Info("backfill run complete", "updated", updated, "dry_run", dryRun)
}

// backfill updates up to limit candidates and returns how many were (or, in a
// dry run, would be) changed.
func backfill(ctx context.Context, db *storage.DB, limit int, dryRun bool, log *slog.Logger) (int, error) {
	pending, err := db.ListCandidatesMissingTerms(ctx, limit)
	if err != nil {
		return 0, err
	}
	log.Info("found candidates with missing terms", "count", len(pending), "limit", limit)

	updated := 0
	for _, p := range pending {
		answers := recoverAnswers(p.Conversation)
		patch, changes := fillMissing(p.Candidate, answers)
		if len(changes) == 0 {
			log.Info("nothing to recover", "candidate_id", p.Candidate.ID, "conversation_id", p.Conversation.ID)
			continue
		}

		if dryRun {
			log.Info("[dry-run] would update candidate", "candidate_id", p.Candidate.ID, "changes", changes)
			updated++
			continue
		}
		if _, err := db.UpdateCandidate(ctx, p.Candidate.ID, patch); err != nil {
			log.Warn("failed to update candidate", "candidate_id", p.Candidate.ID, "error", err)
			continue
		}
		log.Info("candidate updated", "candidate_id", p.Candidate.ID, "changes", changes)
		updated++
	}
	return updated, nil
}

// recoverAnswers prefers the stored entities and re-extracts the rest from the
// transcript, dating weekday answers from the conversation itself.
func recoverAnswers(conv *storage.Conversation) interview.Answers {
	answers := interview.Answers{}
	for _, turn := range interview.ParseTranscript(conv.Transcript) {
		if turn.Field == "" {
			continue
		}
		answers.Merge(interview.Extract(turn.Field, turn.Answer, conv.CreatedAt))
	}
	for _, key := range interview.KnownKeys {
		if v := conv.EntitiesExtracted.Get(key); v != "" {
			answers[key] = v
		}
	}
	return answers
}

// fillMissing patches only the fields the candidate has left empty.
func fillMissing(c *storage.Candidate, answers interview.Answers) (storage.CandidatePatch, map[string]string) {
	var patch storage.CandidatePatch
	changes := map[string]string{}
	set := func(current, key string, dst **string) {
		if current != "" {
			return
		}
		if v := answers[key]; v != "" {
			*dst = &v
			changes[key] = v
		}
	}
	set(c.NoticePeriod, interview.KeyNoticePeriod, &patch.NoticePeriod)
	set(c.CurrentCTC, interview.KeyCurrentCTC, &patch.CurrentCTC)
	set(c.ExpectedCTC, interview.KeyExpectedCTC, &patch.ExpectedCTC)
	return patch, changes
}
