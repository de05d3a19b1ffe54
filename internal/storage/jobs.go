package storage

import (
    "context"
    "database/sql"
    "fmt"
)

const jobColumns = `id, title, description, requirements, interview_slots, created_at`

func scanJob(row rowScanner) (*Job, error) {
    j := &Job{}
    err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Requirements, &j.InterviewSlots, timestamp{&j.CreatedAt})
    if err != nil {
        return nil, err
    }
    return j, nil
}

// ListJobs returns every job ordered by id.
func (db *DB) ListJobs(ctx context.Context) ([]*Job, error) {
    rows, err := db.connection.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    res := []*Job{}
    for rows.Next() {
        j, err := scanJob(rows)
        if err != nil {
            return nil, err
        }
        res = append(res, j)
    }
    return res, rows.Err()
}

// GetJob returns the job with the given id or ErrNotFound.
func (db *DB) GetJob(ctx context.Context, id int64) (*Job, error) {
    row := db.connection.QueryRowContext(ctx, db.rebind(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`), id)
    j, err := scanJob(row)
    if err != nil {
        return nil, classify(err)
    }
    return j, nil
}

// CreateJob inserts job and fills in its generated id and created_at.
func (db *DB) CreateJob(ctx context.Context, job *Job) error {
    if job.InterviewSlots == nil {
        job.InterviewSlots = Slots{}
    }
    job.CreatedAt = now()

    query := `INSERT INTO jobs (title, description, requirements, interview_slots, created_at)
              VALUES (NULLIF(?, ''), ?, ?, ?, ?)
              RETURNING id`
    err := db.connection.QueryRowContext(ctx, db.rebind(query),
        job.Title, job.Description, job.Requirements, job.InterviewSlots, job.CreatedAt,
    ).Scan(&job.ID)
    if err != nil {
        return fmt.Errorf("insert job: %w", classify(err))
    }
    return nil
}

// UpdateJob writes the fields named in patch and returns the stored row.
func (db *DB) UpdateJob(ctx context.Context, id int64, patch JobPatch) (*Job, error) {
    var set setClause
    if patch.Title != nil {
        set.add("title", sql.NullString{String: *patch.Title, Valid: *patch.Title != ""})
    }
    if patch.Description != nil {
        set.add("description", *patch.Description)
    }
    if patch.Requirements != nil {
        set.add("requirements", *patch.Requirements)
    }
    if patch.InterviewSlots != nil {
        set.add("interview_slots", *patch.InterviewSlots)
    }

    if err := db.updateByID(ctx, "jobs", id, &set); err != nil {
        return nil, fmt.Errorf("update job %d: %w", id, err)
    }
    return db.GetJob(ctx, id)
}

// DeleteJob removes the job together with its appointments.
func (db *DB) DeleteJob(ctx context.Context, id int64) error {
    return db.deleteByID(ctx, "jobs", id)
}
