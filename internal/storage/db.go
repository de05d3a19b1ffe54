package storage

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log/slog"
    "strconv"
    "strings"
    "time"

    "github.com/lib/pq" // PostgreSQL driver
    "modernc.org/sqlite"
    sqlite3 "modernc.org/sqlite/lib"
)

var (
    // ErrNotFound is returned when no row matches the requested id.
    ErrNotFound = errors.New("record not found")
    // ErrConstraint is returned when the database rejects a write
    // (NOT NULL, CHECK or foreign key violations).
    ErrConstraint = errors.New("constraint violation")
)

// Dialect selects the SQL flavour spoken to the database.
type Dialect string

const (
    DialectPostgres Dialect = "postgres"
    DialectSQLite   Dialect = "sqlite"
)

type DB struct {
    connection *sql.DB
    dialect    Dialect
}

// NewDB opens the database named by dataSourceName. postgres:// and postgresql://
// URLs (or key=value DSNs) use lib/pq; sqlite:, file: and *.db names use SQLite.
func NewDB(dataSourceName string) (*DB, error) {
    dialect, dsn := ParseDSN(dataSourceName)

    db, err := sql.Open(string(dialect), dsn)
    if err != nil {
        return nil, err
    }

    // Connection pool tuning
    switch dialect {
    case DialectSQLite:
        // A single connection keeps in-memory databases alive and serializes writers.
        db.SetMaxOpenConns(1)
        db.SetMaxIdleConns(1)
        db.SetConnMaxLifetime(0)
    default:
        db.SetMaxOpenConns(25)
        db.SetMaxIdleConns(10)
        db.SetConnMaxLifetime(5 * time.Minute)
    }

    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, err
    }

    return &DB{connection: db, dialect: dialect}, nil
}

// ParseDSN picks the dialect for dataSourceName and returns the driver DSN.
func ParseDSN(dataSourceName string) (Dialect, string) {
    s := strings.TrimSpace(dataSourceName)
    lower := strings.ToLower(s)
    switch {
    case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
        strings.Contains(lower, "host="):
        return DialectPostgres, s
    case strings.HasPrefix(lower, "sqlite://"):
        s = s[len("sqlite://"):]
    case strings.HasPrefix(lower, "sqlite:"):
        s = s[len("sqlite:"):]
    }

    memory := s == ":memory:" || strings.Contains(s, "mode=memory") || strings.HasPrefix(s, "file::memory:")
    if !strings.HasPrefix(s, "file:") {
        s = "file:" + s
    }
    pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
    if !memory {
        pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
    }
    sep := "?"
    if strings.Contains(s, "?") {
        sep = "&"
    }
    return DialectSQLite, s + sep + strings.Join(pragmas, "&")
}

func (db *DB) Close() {
    if err := db.connection.Close(); err != nil {
        slog.Error("closing the database connection", "component", "storage", "error", err)
    }
}

// Dialect reports which SQL flavour the connection speaks.
func (db *DB) Dialect() Dialect {
    return db.dialect
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
    return db.connection
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
    stmts := sqliteSchema
    if db.dialect == DialectPostgres {
        stmts = postgresSchema
    }
    for _, stmt := range stmts {
        if _, err := db.connection.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("apply schema: %w", err)
        }
    }
    return nil
}

// rebind rewrites ? placeholders into $N for PostgreSQL.
func (db *DB) rebind(query string) string {
    if db.dialect != DialectPostgres {
        return query
    }
    var b strings.Builder
    b.Grow(len(query) + 8)
    n := 0
    for _, r := range query {
        if r == '?' {
            n++
            b.WriteByte('$')
            b.WriteString(strconv.Itoa(n))
            continue
        }
        b.WriteRune(r)
    }
    return b.String()
}

// classify maps driver errors onto the package's sentinel errors.
func classify(err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    var pqErr *pq.Error
    if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
        return fmt.Errorf("%w: %s", ErrConstraint, pqErr.Message)
    }
    var liteErr *sqlite.Error
    if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
        return fmt.Errorf("%w: %v", ErrConstraint, liteErr)
    }
    return err
}

// now is the creation timestamp written by inserts, truncated to what PostgreSQL keeps.
func now() time.Time {
    return time.Now().UTC().Truncate(time.Microsecond)
}

// setClause collects "column = ?" assignments for partial updates.
type setClause struct {
    cols []string
    args []any
}

func (s *setClause) add(col string, v any) {
    s.cols = append(s.cols, col+" = ?")
    s.args = append(s.args, v)
}

func (s *setClause) empty() bool {
    return len(s.cols) == 0
}

func (s *setClause) String() string {
    return strings.Join(s.cols, ", ")
}
