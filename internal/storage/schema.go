package storage

var sqliteSchema = []string{
    `CREATE TABLE IF NOT EXISTS jobs (
        id              INTEGER PRIMARY KEY AUTOINCREMENT,
        title           TEXT NOT NULL,
        description     TEXT NOT NULL DEFAULT '',
        requirements    TEXT NOT NULL DEFAULT '',
        interview_slots TEXT NOT NULL DEFAULT '{}',
        created_at      TIMESTAMP NOT NULL
    )`,
    `CREATE TABLE IF NOT EXISTS candidates (
        id             INTEGER PRIMARY KEY AUTOINCREMENT,
        name           TEXT NOT NULL,
        phone          TEXT NOT NULL DEFAULT '',
        experience     TEXT NOT NULL DEFAULT '',
        current_ctc    TEXT NOT NULL DEFAULT '',
        expected_ctc   TEXT NOT NULL DEFAULT '',
        notice_period  TEXT NOT NULL DEFAULT '',
        email          TEXT NOT NULL DEFAULT '',
        location       TEXT NOT NULL DEFAULT '',
        booking_status TEXT NOT NULL DEFAULT 'pending',
        created_at     TIMESTAMP NOT NULL
    )`,
    `CREATE TABLE IF NOT EXISTS appointments (
        id           INTEGER PRIMARY KEY AUTOINCREMENT,
        candidate_id INTEGER NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
        job_id       INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
        date_time    TEXT NOT NULL,
        status       TEXT NOT NULL DEFAULT 'scheduled'
                     CHECK (status IN ('scheduled', 'confirmed', 'completed', 'cancelled'))
    )`,
    `CREATE TABLE IF NOT EXISTS conversations (
        id                 INTEGER PRIMARY KEY AUTOINCREMENT,
        candidate_id       INTEGER NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
        transcript         TEXT NOT NULL DEFAULT '',
        entities_extracted TEXT NOT NULL DEFAULT '{}',
        created_at         TIMESTAMP NOT NULL
    )`,
    `CREATE INDEX IF NOT EXISTS idx_appointments_candidate ON appointments(candidate_id)`,
    `CREATE INDEX IF NOT EXISTS idx_conversations_candidate ON conversations(candidate_id)`,
}

var postgresSchema = []string{
    `CREATE TABLE IF NOT EXISTS jobs (
        id              BIGSERIAL PRIMARY KEY,
        title           TEXT NOT NULL,
        description     TEXT NOT NULL DEFAULT '',
        requirements    TEXT NOT NULL DEFAULT '',
        interview_slots TEXT NOT NULL DEFAULT '{}',
        created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
    `CREATE TABLE IF NOT EXISTS candidates (
        id             BIGSERIAL PRIMARY KEY,
        name           TEXT NOT NULL,
        phone          TEXT NOT NULL DEFAULT '',
        experience     TEXT NOT NULL DEFAULT '',
        current_ctc    TEXT NOT NULL DEFAULT '',
        expected_ctc   TEXT NOT NULL DEFAULT '',
        notice_period  TEXT NOT NULL DEFAULT '',
        email          TEXT NOT NULL DEFAULT '',
        location       TEXT NOT NULL DEFAULT '',
        booking_status TEXT NOT NULL DEFAULT 'pending',
        created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
    `CREATE TABLE IF NOT EXISTS appointments (
        id           BIGSERIAL PRIMARY KEY,
        candidate_id BIGINT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
        job_id       BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
        date_time    TEXT NOT NULL,
        status       TEXT NOT NULL DEFAULT 'scheduled'
                     CHECK (status IN ('scheduled', 'confirmed', 'completed', 'cancelled'))
    )`,
    `CREATE TABLE IF NOT EXISTS conversations (
        id                 BIGSERIAL PRIMARY KEY,
        candidate_id       BIGINT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
        transcript         TEXT NOT NULL DEFAULT '',
        entities_extracted TEXT NOT NULL DEFAULT '{}',
        created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
    `CREATE INDEX IF NOT EXISTS idx_appointments_candidate ON appointments(candidate_id)`,
    `CREATE INDEX IF NOT EXISTS idx_conversations_candidate ON conversations(candidate_id)`,
}
