package interview

import (
	"fmt"
	"strings"
)

// Turn is one asked question and the answer heard for it.
type Turn struct {
	QuestionIndex int    `json:"question_index"`
	Field         Field  `json:"field"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
}

// FormatTranscript renders turns as "Q: <q>\nA: <a>" blocks separated by blank lines.
func FormatTranscript(turns []Turn) string {
	blocks := make([]string, 0, len(turns))
	for _, t := range turns {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", t.Question, t.Answer))
	}
	return strings.Join(blocks, "\n\n")
}

// ParseTranscript reverses FormatTranscript. Fields are assigned from the fixed
// question order; blocks that are not Q/A pairs are skipped.
func ParseTranscript(transcript string) []Turn {
	var turns []Turn
	for _, block := range strings.Split(transcript, "\n\n") {
		block = strings.Trim(block, "\n")
		if !strings.HasPrefix(block, "Q: ") {
			continue
		}
		q, a, ok := strings.Cut(block[len("Q: "):], "\nA: ")
		if !ok {
			continue
		}
		t := Turn{QuestionIndex: len(turns), Question: q, Answer: a}
		if t.QuestionIndex < len(Fields) {
			t.Field = Fields[t.QuestionIndex]
		}
		turns = append(turns, t)
	}
	return turns
}
