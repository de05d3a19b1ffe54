package interview

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Answer keys produced by extraction.
const (
	KeyInterest      = "interest"
	KeyNoticePeriod  = "notice_period"
	KeyCurrentCTC    = "current_ctc"
	KeyExpectedCTC   = "expected_ctc"
	KeyInterviewDate = "interview_date"
	KeyFormattedDate = "formatted_date"
	KeyInterviewTime = "interview_time"
	KeyConfirmation  = "confirmation"
)

// KnownKeys are the answer fields persisted with every conversation, filled or not.
var KnownKeys = []string{
	KeyInterest,
	KeyNoticePeriod,
	KeyCurrentCTC,
	KeyExpectedCTC,
	KeyInterviewDate,
	KeyInterviewTime,
	KeyConfirmation,
}

const (
	// DefaultInterviewTime is used when an availability answer names no time.
	DefaultInterviewTime = "10:00 AM"
	defaultClock         = "10:00:00"

	isoDate       = "2006-01-02"
	humanDate     = "Monday, January 2"
	fuzzyMinScore = 0.9
	fuzzyMinLen   = 5
)

var (
	noticeRegex  = regexp.MustCompile(`(?i)\b\d+\s*(?:day|week|month)s?\b`)
	numberRegex  = regexp.MustCompile(`\d+(?:,\d{2,3})*(?:\.\d+)?`)
	weekdayRegex = regexp.MustCompile(`(?i)\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)s?\b`)
	timeRegex    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*([ap])\.?\s?m\b\.?`)
	clockRegex   = regexp.MustCompile(`^(\d{1,2}):([0-5]\d)(?::[0-5]\d)?$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Answers accumulates extracted values over a run. Keys are only added or overwritten.
type Answers map[string]string

// Merge copies every key of other into a.
func (a Answers) Merge(other Answers) {
	for k, v := range other {
		a[k] = v
	}
}

// Extract derives answer keys from one spoken transcript. It has no side effects;
// availability answers are resolved relative to now.
func Extract(field Field, transcript string, now time.Time) Answers {
	switch field {
	case FieldInterest:
		return Answers{KeyInterest: transcript}
	case FieldConfirmation:
		return Answers{KeyConfirmation: transcript}
	case FieldNoticePeriod:
		return Answers{KeyNoticePeriod: extractNoticePeriod(transcript)}
	case FieldCTC:
		current, expected := extractCTC(transcript)
		return Answers{KeyCurrentCTC: current, KeyExpectedCTC: expected}
	case FieldAvailability:
		date := NextWeekday(now, matchWeekday(transcript))
		return Answers{
			KeyInterviewDate: date.Format(isoDate),
			KeyFormattedDate: date.Format(humanDate),
			KeyInterviewTime: extractTime(transcript),
		}
	default:
		return Answers{string(field): transcript}
	}
}

func extractNoticePeriod(transcript string) string {
	if m := noticeRegex.FindString(transcript); m != "" {
		return m
	}
	return transcript
}

// extractCTC returns the first two numbers spoken, spelled-out numbers included.
func extractCTC(transcript string) (current, expected string) {
	var nums []string
	for _, m := range numberRegex.FindAllString(SpokenNumbersToDigits(transcript), -1) {
		nums = append(nums, strings.ReplaceAll(m, ",", ""))
	}
	if len(nums) > 0 {
		current = nums[0]
	}
	if len(nums) > 1 {
		expected = nums[1]
	}
	return current, expected
}

// matchWeekday finds the earliest weekday named in transcript, falling back to a
// fuzzy match for misrecognized names, and to Monday when nothing matches.
func matchWeekday(transcript string) time.Weekday {
	if m := weekdayRegex.FindStringSubmatch(transcript); m != nil {
		return weekdays[strings.ToLower(m[1])]
	}

	best, bestScore := time.Monday, 0.0
	tokens := strings.FieldsFunc(strings.ToLower(transcript), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tok := range tokens {
		if len(tok) < fuzzyMinLen {
			continue
		}
		for day := time.Sunday; day <= time.Saturday; day++ {
			name := strings.ToLower(day.String())
			if score := matchr.JaroWinkler(tok, name, false); score >= fuzzyMinScore && score > bestScore {
				best, bestScore = day, score
			}
		}
	}
	return best
}

// NextWeekday returns the date of the next day after now that falls on day.
// Today never qualifies: the same weekday resolves to one week later.
func NextWeekday(now time.Time, day time.Weekday) time.Time {
	offset := int(day) - int(now.Weekday())
	if offset <= 0 {
		offset += 7
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, now.Location())
}

func extractTime(transcript string) string {
	if m := timeRegex.FindString(transcript); m != "" {
		return strings.TrimSpace(m)
	}
	return DefaultInterviewTime
}

// To24Hour converts a spoken time such as "3pm", "10:30 a.m." or "14:00" to
// HH:MM:SS. Anything unparseable becomes 10:00:00.
func To24Hour(spoken string) string {
	spoken = strings.TrimSpace(spoken)
	if m := timeRegex.FindStringSubmatch(spoken); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return defaultClock
		}
		pm := strings.EqualFold(m[3], "p")
		switch {
		case pm && hour < 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return fmt.Sprintf("%02d:%02d:00", hour, minute)
	}
	if m := clockRegex.FindStringSubmatch(spoken); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 {
			return defaultClock
		}
		return fmt.Sprintf("%02d:%02d:00", hour, minute)
	}
	return defaultClock
}
