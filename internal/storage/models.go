package storage

import (
    "bytes"
    "database/sql/driver"
    "encoding/json"
    "fmt"
    "time"
)

// Candidate is a person in the recruiting pipeline.
// CTC and notice period are free text because they are filled from spoken answers.
type Candidate struct {
    ID            int64     `json:"id"`
    Name          string    `json:"name"`
    Phone         string    `json:"phone"`
    Experience    string    `json:"experience"`
    CurrentCTC    string    `json:"current_ctc"`
    ExpectedCTC   string    `json:"expected_ctc"`
    NoticePeriod  string    `json:"notice_period"`
    Email         string    `json:"email"`
    Location      string    `json:"location"`
    BookingStatus string    `json:"booking_status"`
    CreatedAt     time.Time `json:"created_at"`
}

// CandidatePatch carries the fields named in an update. Nil fields are left untouched.
type CandidatePatch struct {
    Name          *string `json:"name,omitempty"`
    Phone         *string `json:"phone,omitempty"`
    Experience    *string `json:"experience,omitempty"`
    CurrentCTC    *string `json:"current_ctc,omitempty"`
    ExpectedCTC   *string `json:"expected_ctc,omitempty"`
    NoticePeriod  *string `json:"notice_period,omitempty"`
    Email         *string `json:"email,omitempty"`
    Location      *string `json:"location,omitempty"`
    BookingStatus *string `json:"booking_status,omitempty"`
}

// Job is an open position with the interview slots offered for it.
type Job struct {
    ID             int64     `json:"id"`
    Title          string    `json:"title"`
    Description    string    `json:"description"`
    Requirements   string    `json:"requirements"`
    InterviewSlots Slots     `json:"interview_slots" swaggertype:"object"`
    CreatedAt      time.Time `json:"created_at"`
}

// JobPatch carries the fields named in a job update.
type JobPatch struct {
    Title          *string `json:"title,omitempty"`
    Description    *string `json:"description,omitempty"`
    Requirements   *string `json:"requirements,omitempty"`
    InterviewSlots *Slots  `json:"interview_slots,omitempty" swaggertype:"object"`
}

// Appointment statuses accepted by the appointments CHECK constraint.
const (
    AppointmentScheduled = "scheduled"
    AppointmentConfirmed = "confirmed"
    AppointmentCompleted = "completed"
    AppointmentCancelled = "cancelled"
)

// DateTimeLayout is the wire and storage layout of Appointment.DateTime.
const DateTimeLayout = "2006-01-02 15:04:05"

// Appointment books a candidate onto a job interview.
type Appointment struct {
    ID          int64  `json:"id"`
    CandidateID int64  `json:"candidate_id"`
    JobID       int64  `json:"job_id"`
    DateTime    string `json:"date_time"`
    Status      string `json:"status"`
}

// AppointmentPatch carries the fields named in an appointment update.
type AppointmentPatch struct {
    CandidateID *int64  `json:"candidate_id,omitempty"`
    JobID       *int64  `json:"job_id,omitempty"`
    DateTime    *string `json:"date_time,omitempty"`
    Status      *string `json:"status,omitempty"`
}

// Conversation is the stored record of one completed interview run.
type Conversation struct {
    ID                int64     `json:"id"`
    CandidateID       int64     `json:"candidate_id"`
    Transcript        string    `json:"transcript"`
    EntitiesExtracted Entities  `json:"entities_extracted" swaggertype:"object"`
    CreatedAt         time.Time `json:"created_at"`
}

// ConversationPatch carries the fields named in a conversation update.
type ConversationPatch struct {
    CandidateID       *int64    `json:"candidate_id,omitempty"`
    Transcript        *string   `json:"transcript,omitempty"`
    EntitiesExtracted *Entities `json:"entities_extracted,omitempty" swaggertype:"object"`
}

// Slots maps an interview date to the times offered on that date.
// It is stored as serialized JSON text.
type Slots map[string][]string

// UnmarshalJSON accepts either a JSON object or a string holding one,
// since dashboard forms post the serialized text.
func (s *Slots) UnmarshalJSON(data []byte) error {
    m, err := decodeTextOrObject[map[string][]string](data)
    if err != nil {
        return fmt.Errorf("interview_slots: %w", err)
    }
    *s = m
    return nil
}

// Value implements driver.Valuer.
func (s Slots) Value() (driver.Value, error) {
    if s == nil {
        return "{}", nil
    }
    b, err := json.Marshal(map[string][]string(s))
    return string(b), err
}

// Scan implements sql.Scanner.
func (s *Slots) Scan(src any) error {
    m, err := scanJSONText[map[string][]string](src)
    if err != nil {
        return fmt.Errorf("scan interview_slots: %w", err)
    }
    *s = m
    return nil
}

// Entities is the serialized key/value map of extracted interview answers.
// A nil value is a known field the interview did not fill; it serializes as null.
type Entities map[string]*string

// UnmarshalJSON accepts either a JSON object or a string holding one.
func (e *Entities) UnmarshalJSON(data []byte) error {
    m, err := decodeTextOrObject[map[string]*string](data)
    if err != nil {
        return fmt.Errorf("entities_extracted: %w", err)
    }
    *e = m
    return nil
}

// Value implements driver.Valuer.
func (e Entities) Value() (driver.Value, error) {
    if e == nil {
        return "{}", nil
    }
    b, err := json.Marshal(map[string]*string(e))
    return string(b), err
}

// Scan implements sql.Scanner.
func (e *Entities) Scan(src any) error {
    m, err := scanJSONText[map[string]*string](src)
    if err != nil {
        return fmt.Errorf("scan entities_extracted: %w", err)
    }
    *e = m
    return nil
}

// Get returns the value stored under key, or "" when it is absent or null.
func (e Entities) Get(key string) string {
    if v := e[key]; v != nil {
        return *v
    }
    return ""
}

func decodeTextOrObject[M ~map[string]V, V any](data []byte) (M, error) {
    data = bytes.TrimSpace(data)
    if len(data) == 0 || bytes.Equal(data, []byte("null")) {
        return nil, nil
    }
    if data[0] == '"' {
        var text string
        if err := json.Unmarshal(data, &text); err != nil {
            return nil, err
        }
        if text == "" {
            return nil, nil
        }
        data = []byte(text)
    }
    var m M
    if err := json.Unmarshal(data, &m); err != nil {
        return nil, err
    }
    return m, nil
}

func scanJSONText[M ~map[string]V, V any](src any) (M, error) {
    var raw []byte
    switch v := src.(type) {
    case nil:
        return nil, nil
    case string:
        raw = []byte(v)
    case []byte:
        raw = v
    default:
        return nil, fmt.Errorf("unsupported type %T", src)
    }
    if len(bytes.TrimSpace(raw)) == 0 {
        return nil, nil
    }
    var m M
    if err := json.Unmarshal(raw, &m); err != nil {
        return nil, err
    }
    return m, nil
}

// timestamp scans created_at columns from either driver: lib/pq yields time.Time,
// SQLite may yield the stored text.
type timestamp struct {
    t *time.Time
}

var timestampLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02 15:04:05.999999999-07:00",
    "2006-01-02 15:04:05.999999999Z07:00",
    "2006-01-02 15:04:05.999999999",
    DateTimeLayout,
}

func (ts timestamp) Scan(src any) error {
    switch v := src.(type) {
    case nil:
        *ts.t = time.Time{}
        return nil
    case time.Time:
        *ts.t = v
        return nil
    case string:
        return ts.parse(v)
    case []byte:
        return ts.parse(string(v))
    }
    return fmt.Errorf("scan timestamp: unsupported type %T", src)
}

func (ts timestamp) parse(s string) error {
    for _, layout := range timestampLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            *ts.t = t
            return nil
        }
    }
    return fmt.Errorf("scan timestamp: unrecognized format %q", s)
}
