package storage

import (
    "context"
    "fmt"
)

const conversationColumns = `id, candidate_id, transcript, entities_extracted, created_at`

func scanConversation(row rowScanner) (*Conversation, error) {
    c := &Conversation{}
    err := row.Scan(&c.ID, &c.CandidateID, &c.Transcript, &c.EntitiesExtracted, timestamp{&c.CreatedAt})
    if err != nil {
        return nil, err
    }
    return c, nil
}

func (db *DB) queryConversations(ctx context.Context, query string, args ...any) ([]*Conversation, error) {
    rows, err := db.connection.QueryContext(ctx, db.rebind(query), args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    res := []*Conversation{}
    for rows.Next() {
        c, err := scanConversation(rows)
        if err != nil {
            return nil, err
        }
        res = append(res, c)
    }
    return res, rows.Err()
}

// ListConversations returns every conversation ordered by id.
func (db *DB) ListConversations(ctx context.Context) ([]*Conversation, error) {
    return db.queryConversations(ctx, `SELECT `+conversationColumns+` FROM conversations ORDER BY id`)
}

// ListConversationsByCandidate returns one candidate's conversations, oldest first.
func (db *DB) ListConversationsByCandidate(ctx context.Context, candidateID int64) ([]*Conversation, error) {
    return db.queryConversations(ctx,
        `SELECT `+conversationColumns+` FROM conversations WHERE candidate_id = ? ORDER BY id`, candidateID)
}

// GetConversation returns the conversation with the given id or ErrNotFound.
func (db *DB) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
    row := db.connection.QueryRowContext(ctx,
        db.rebind(`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`), id)
    c, err := scanConversation(row)
    if err != nil {
        return nil, classify(err)
    }
    return c, nil
}

// CreateConversation inserts conversation and fills in its id and created_at.
func (db *DB) CreateConversation(ctx context.Context, conversation *Conversation) error {
    if conversation.EntitiesExtracted == nil {
        conversation.EntitiesExtracted = Entities{}
    }
    conversation.CreatedAt = now()

    query := `INSERT INTO conversations (candidate_id, transcript, entities_extracted, created_at)
              VALUES (?, ?, ?, ?)
              RETURNING id`
    err := db.connection.QueryRowContext(ctx, db.rebind(query),
        conversation.CandidateID, conversation.Transcript, conversation.EntitiesExtracted, conversation.CreatedAt,
    ).Scan(&conversation.ID)
    if err != nil {
        return fmt.Errorf("insert conversation: %w", classify(err))
    }
    return nil
}

// UpdateConversation writes the fields named in patch and returns the stored row.
func (db *DB) UpdateConversation(ctx context.Context, id int64, patch ConversationPatch) (*Conversation, error) {
    var set setClause
    if patch.CandidateID != nil {
        set.add("candidate_id", *patch.CandidateID)
    }
    if patch.Transcript != nil {
        set.add("transcript", *patch.Transcript)
    }
    if patch.EntitiesExtracted != nil {
        set.add("entities_extracted", *patch.EntitiesExtracted)
    }

    if err := db.updateByID(ctx, "conversations", id, &set); err != nil {
        return nil, fmt.Errorf("update conversation %d: %w", id, err)
    }
    return db.GetConversation(ctx, id)
}

// DeleteConversation removes one conversation.
func (db *DB) DeleteConversation(ctx context.Context, id int64) error {
    return db.deleteByID(ctx, "conversations", id)
}

// CandidateTerms is a candidate whose interview terms are incomplete, paired with
// the latest conversation that could fill them.
type CandidateTerms struct {
    Candidate    *Candidate
    Conversation *Conversation
}

// ListCandidatesMissingTerms returns up to limit candidates with an empty notice period
// or CTC field that have at least one stored conversation.
func (db *DB) ListCandidatesMissingTerms(ctx context.Context, limit int) ([]CandidateTerms, error) {
    query := `SELECT id FROM candidates c
              WHERE (c.notice_period = '' OR c.current_ctc = '' OR c.expected_ctc = '')
                AND EXISTS (SELECT 1 FROM conversations v WHERE v.candidate_id = c.id)
              ORDER BY c.id
              LIMIT ?`
    rows, err := db.connection.QueryContext(ctx, db.rebind(query), limit)
    if err != nil {
        return nil, err
    }
    var ids []int64
    for rows.Next() {
        var id int64
        if err := rows.Scan(&id); err != nil {
            rows.Close()
            return nil, err
        }
        ids = append(ids, id)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return nil, err
    }

    // Rows are drained before the follow-up queries: SQLite runs on a single connection.
    res := make([]CandidateTerms, 0, len(ids))
    for _, id := range ids {
        c, err := db.GetCandidate(ctx, id)
        if err != nil {
            return nil, err
        }
        convs, err := db.ListConversationsByCandidate(ctx, id)
        if err != nil {
            return nil, err
        }
        if len(convs) == 0 {
            continue
        }
        res = append(res, CandidateTerms{Candidate: c, Conversation: convs[len(convs)-1]})
    }
    return res, nil
}
