package interview

import (
	"context"
	"errors"
	"strings"

	"voice-agent/internal/storage"
)

// BookingBooked is the candidate booking status written when the candidate
// confirms the interview slot.
const BookingBooked = "booked"

// Recorder is the persistence surface the engine writes a finished run through.
// Both *storage.DB and the HTTP client in pkg/http implement it.
type Recorder interface {
	UpdateCandidate(ctx context.Context, id int64, patch storage.CandidatePatch) (*storage.Candidate, error)
	CreateConversation(ctx context.Context, conversation *storage.Conversation) error
	CreateAppointment(ctx context.Context, appointment *storage.Appointment) error
}

// SaveReport describes what the persistence step wrote.
type SaveReport struct {
	CandidateUpdated bool  `json:"candidate_updated"`
	ConversationID   int64 `json:"conversation_id,omitempty"`
	AppointmentID    int64 `json:"appointment_id,omitempty"`
	// Booked is true when the confirmation answer asked for an appointment.
	Booked bool `json:"booked"`
	// Err is nil when every attempted write succeeded.
	Err *SaveError `json:"-"`
}

// OK reports whether every attempted write succeeded.
func (r SaveReport) OK() bool { return r.Err == nil }

// SaveError collects the failures of the individual writes. Steps that
// succeeded, or were not attempted, are nil.
type SaveError struct {
	Candidate    error
	Conversation error
	Appointment  error
}

func (e *SaveError) Error() string {
	var parts []string
	if e.Candidate != nil {
		parts = append(parts, "update candidate: "+e.Candidate.Error())
	}
	if e.Conversation != nil {
		parts = append(parts, "create conversation: "+e.Conversation.Error())
	}
	if e.Appointment != nil {
		parts = append(parts, "create appointment: "+e.Appointment.Error())
	}
	return "interview: save failed: " + strings.Join(parts, "; ")
}

func (e *SaveError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Candidate, e.Conversation, e.Appointment} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

var errNoInterviewDate = errors.New("no interview date was extracted")

// Confirmed reports whether a confirmation answer accepts the proposed slot.
func Confirmed(answer string) bool {
	return strings.Contains(strings.ToLower(answer), "yes")
}

// Entities builds the stored answer map: every known key is present, and keys
// the run did not fill are null.
func (a Answers) Entities() storage.Entities {
	e := make(storage.Entities, len(KnownKeys))
	for _, k := range KnownKeys {
		if v, ok := a[k]; ok {
			e[k] = &v
		} else {
			e[k] = nil
		}
	}
	return e
}

// AppointmentDateTime composes the stored date_time of a booking.
func (a Answers) AppointmentDateTime() (string, error) {
	date := strings.TrimSpace(a[KeyInterviewDate])
	if date == "" {
		return "", errNoInterviewDate
	}
	return date + " " + To24Hour(a[KeyInterviewTime]), nil
}

// Save writes a finished run: the candidate's answers, the conversation record,
// and an appointment when the candidate confirmed. The writes are independent;
// one failing neither undoes nor skips the others.
func Save(ctx context.Context, rec Recorder, candidateID, jobID int64, turns []Turn, answers Answers) SaveReport {
	var (
		report SaveReport
		serr   SaveError
	)
	report.Booked = Confirmed(answers[KeyConfirmation])

	patch := storage.CandidatePatch{
		CurrentCTC:   stringPtr(answers[KeyCurrentCTC]),
		ExpectedCTC:  stringPtr(answers[KeyExpectedCTC]),
		NoticePeriod: stringPtr(answers[KeyNoticePeriod]),
	}
	if report.Booked {
		patch.BookingStatus = stringPtr(BookingBooked)
	}
	if _, err := rec.UpdateCandidate(ctx, candidateID, patch); err != nil {
		serr.Candidate = err
	} else {
		report.CandidateUpdated = true
	}

	conversation := &storage.Conversation{
		CandidateID:       candidateID,
		Transcript:        FormatTranscript(turns),
		EntitiesExtracted: answers.Entities(),
	}
	if err := rec.CreateConversation(ctx, conversation); err != nil {
		serr.Conversation = err
	} else {
		report.ConversationID = conversation.ID
	}

	if report.Booked {
		if dt, err := answers.AppointmentDateTime(); err != nil {
			serr.Appointment = err
		} else {
			appointment := &storage.Appointment{
				CandidateID: candidateID,
				JobID:       jobID,
				DateTime:    dt,
				Status:      storage.AppointmentConfirmed,
			}
			if err := rec.CreateAppointment(ctx, appointment); err != nil {
				serr.Appointment = err
			} else {
				report.AppointmentID = appointment.ID
			}
		}
	}

	if serr.Candidate != nil || serr.Conversation != nil || serr.Appointment != nil {
		report.Err = &serr
	}
	return report
}

func stringPtr(s string) *string { return &s }

// failedSteps names the writes that failed, for metrics.
func (e *SaveError) failedSteps() []string {
	var steps []string
	if e.Candidate != nil {
		steps = append(steps, "candidate")
	}
	if e.Conversation != nil {
		steps = append(steps, "conversation")
	}
	if e.Appointment != nil {
		steps = append(steps, "appointment")
	}
	return steps
}
