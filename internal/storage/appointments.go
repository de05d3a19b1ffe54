package storage

import (
    "context"
    "fmt"
)

const appointmentColumns = `id, candidate_id, job_id, date_time, status`

func scanAppointment(row rowScanner) (*Appointment, error) {
    a := &Appointment{}
    if err := row.Scan(&a.ID, &a.CandidateID, &a.JobID, &a.DateTime, &a.Status); err != nil {
        return nil, err
    }
    return a, nil
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
    rows, err := db.connection.QueryContext(ctx, db.rebind(query), args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    res := []*Appointment{}
    for rows.Next() {
        a, err := scanAppointment(rows)
        if err != nil {
            return nil, err
        }
        res = append(res, a)
    }
    return res, rows.Err()
}

// ListAppointments returns every appointment ordered by id.
func (db *DB) ListAppointments(ctx context.Context) ([]*Appointment, error) {
    return db.queryAppointments(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY id`)
}

// ListAppointmentsByCandidate returns the appointments booked for one candidate.
func (db *DB) ListAppointmentsByCandidate(ctx context.Context, candidateID int64) ([]*Appointment, error) {
    return db.queryAppointments(ctx,
        `SELECT `+appointmentColumns+` FROM appointments WHERE candidate_id = ? ORDER BY date_time, id`, candidateID)
}

// GetAppointment returns the appointment with the given id or ErrNotFound.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
    row := db.connection.QueryRowContext(ctx,
        db.rebind(`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`), id)
    a, err := scanAppointment(row)
    if err != nil {
        return nil, classify(err)
    }
    return a, nil
}

// CreateAppointment inserts appointment and fills in its id.
// Status defaults to scheduled; unknown statuses and dangling ids fail with ErrConstraint.
func (db *DB) CreateAppointment(ctx context.Context, appointment *Appointment) error {
    if appointment.Status == "" {
        appointment.Status = AppointmentScheduled
    }
    query := `INSERT INTO appointments (candidate_id, job_id, date_time, status)
              VALUES (?, ?, NULLIF(?, ''), ?)
              RETURNING id`
    err := db.connection.QueryRowContext(ctx, db.rebind(query),
        appointment.CandidateID, appointment.JobID, appointment.DateTime, appointment.Status,
    ).Scan(&appointment.ID)
    if err != nil {
        return fmt.Errorf("insert appointment: %w", classify(err))
    }
    return nil
}

// UpdateAppointment writes the fields named in patch and returns the stored row.
func (db *DB) UpdateAppointment(ctx context.Context, id int64, patch AppointmentPatch) (*Appointment, error) {
    var set setClause
    if patch.CandidateID != nil {
        set.add("candidate_id", *patch.CandidateID)
    }
    if patch.JobID != nil {
        set.add("job_id", *patch.JobID)
    }
    if patch.DateTime != nil {
        set.add("date_time", *patch.DateTime)
    }
    if patch.Status != nil {
        set.add("status", *patch.Status)
    }

    if err := db.updateByID(ctx, "appointments", id, &set); err != nil {
        return nil, fmt.Errorf("update appointment %d: %w", id, err)
    }
    return db.GetAppointment(ctx, id)
}

// DeleteAppointment removes one appointment.
func (db *DB) DeleteAppointment(ctx context.Context, id int64) error {
    return db.deleteByID(ctx, "appointments", id)
}
