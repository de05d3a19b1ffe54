package storage

import (
    "context"
    "database/sql"
    "fmt"
)

const candidateColumns = `id, name, phone, experience, current_ctc, expected_ctc, notice_period,
    email, location, booking_status, created_at`

// BookingPending is the booking_status of a freshly created candidate.
const BookingPending = "pending"

type rowScanner interface {
    Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
    c := &Candidate{}
    err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Experience, &c.CurrentCTC, &c.ExpectedCTC,
        &c.NoticePeriod, &c.Email, &c.Location, &c.BookingStatus, timestamp{&c.CreatedAt})
    if err != nil {
        return nil, err
    }
    return c, nil
}

// ListCandidates returns every candidate ordered by id.
func (db *DB) ListCandidates(ctx context.Context) ([]*Candidate, error) {
    rows, err := db.connection.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY id`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    res := []*Candidate{}
    for rows.Next() {
        c, err := scanCandidate(rows)
        if err != nil {
            return nil, err
        }
        res = append(res, c)
    }
    return res, rows.Err()
}

// GetCandidate returns the candidate with the given id or ErrNotFound.
func (db *DB) GetCandidate(ctx context.Context, id int64) (*Candidate, error) {
    row := db.connection.QueryRowContext(ctx,
        db.rebind(`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`), id)
    c, err := scanCandidate(row)
    if err != nil {
        return nil, classify(err)
    }
    return c, nil
}

// CreateCandidate inserts candidate and fills in its generated id and created_at.
// An empty booking status defaults to pending; an empty name is rejected by the schema.
func (db *DB) CreateCandidate(ctx context.Context, candidate *Candidate) error {
    if candidate.BookingStatus == "" {
        candidate.BookingStatus = BookingPending
    }
    candidate.CreatedAt = now()

    query := `INSERT INTO candidates (name, phone, experience, current_ctc, expected_ctc, notice_period,
                  email, location, booking_status, created_at)
              VALUES (NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?)
              RETURNING id`
    err := db.connection.QueryRowContext(ctx, db.rebind(query),
        candidate.Name,
        candidate.Phone,
        candidate.Experience,
        candidate.CurrentCTC,
        candidate.ExpectedCTC,
        candidate.NoticePeriod,
        candidate.Email,
        candidate.Location,
        candidate.BookingStatus,
        candidate.CreatedAt,
    ).Scan(&candidate.ID)
    if err != nil {
        return fmt.Errorf("insert candidate: %w", classify(err))
    }
    return nil
}

// UpdateCandidate writes the fields named in patch and returns the stored row.
// An empty patch only checks that the candidate exists.
func (db *DB) UpdateCandidate(ctx context.Context, id int64, patch CandidatePatch) (*Candidate, error) {
    var set setClause
    if patch.Name != nil {
        set.add("name", sql.NullString{String: *patch.Name, Valid: *patch.Name != ""})
    }
    if patch.Phone != nil {
        set.add("phone", *patch.Phone)
    }
    if patch.Experience != nil {
        set.add("experience", *patch.Experience)
    }
    if patch.CurrentCTC != nil {
        set.add("current_ctc", *patch.CurrentCTC)
    }
    if patch.ExpectedCTC != nil {
        set.add("expected_ctc", *patch.ExpectedCTC)
    }
    if patch.NoticePeriod != nil {
        set.add("notice_period", *patch.NoticePeriod)
    }
    if patch.Email != nil {
        set.add("email", *patch.Email)
    }
    if patch.Location != nil {
        set.add("location", *patch.Location)
    }
    if patch.BookingStatus != nil {
        set.add("booking_status", *patch.BookingStatus)
    }

    if err := db.updateByID(ctx, "candidates", id, &set); err != nil {
        return nil, fmt.Errorf("update candidate %d: %w", id, err)
    }
    return db.GetCandidate(ctx, id)
}

// DeleteCandidate removes the candidate together with its appointments and conversations.
func (db *DB) DeleteCandidate(ctx context.Context, id int64) error {
    return db.deleteByID(ctx, "candidates", id)
}

// updateByID applies set to the row of table with the given id.
func (db *DB) updateByID(ctx context.Context, table string, id int64, set *setClause) error {
    if set.empty() {
        return db.exists(ctx, table, id)
    }
    args := append(set.args, id)
    res, err := db.connection.ExecContext(ctx,
        db.rebind(`UPDATE `+table+` SET `+set.String()+` WHERE id = ?`), args...)
    if err != nil {
        return classify(err)
    }
    return affected(res)
}

func (db *DB) deleteByID(ctx context.Context, table string, id int64) error {
    res, err := db.connection.ExecContext(ctx, db.rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
    if err != nil {
        return classify(err)
    }
    return affected(res)
}

func (db *DB) exists(ctx context.Context, table string, id int64) error {
    var found bool
    err := db.connection.QueryRowContext(ctx,
        db.rebind(`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`), id).Scan(&found)
    if err != nil {
        return classify(err)
    }
    if !found {
        return ErrNotFound
    }
    return nil
}

func affected(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
