package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptRoundTrip(t *testing.T) {
	turns := []Turn{
		{QuestionIndex: 0, Field: FieldInterest, Question: "Are you interested?", Answer: "yes"},
		{QuestionIndex: 1, Field: FieldNoticePeriod, Question: "Notice period?", Answer: ""},
		{QuestionIndex: 2, Field: FieldCTC, Question: "CTC?", Answer: "eight, expecting twelve"},
	}

	text := FormatTranscript(turns)
	assert.Equal(t, "Q: Are you interested?\nA: yes\n\nQ: Notice period?\nA: \n\nQ: CTC?\nA: eight, expecting twelve", text)
	assert.Equal(t, turns, ParseTranscript(text))
}

func TestParseTranscriptSkipsNoise(t *testing.T) {
	turns := ParseTranscript("intro line\n\nQ: What is your notice period?\nA: 30 days\n\nnot a block")
	require.Len(t, turns, 1)
	assert.Equal(t, "30 days", turns[0].Answer)
	assert.Equal(t, FieldInterest, turns[0].Field)
	assert.Empty(t, ParseTranscript(""))
}

func TestScriptRendering(t *testing.T) {
	s := DefaultScript()
	require.Equal(t, len(Fields), s.Len())

	greeting, err := s.renderGreeting(PromptData{CandidateName: "Asha", CompanyName: "Acme Talent", JobTitle: "Go Engineer"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Asha, this is the recruiting assistant from Acme Talent calling about the Go Engineer position.", greeting)

	confirm, err := s.renderQuestion(4, PromptData{FormattedDate: "Wednesday, October 21", InterviewTime: "3pm"})
	require.NoError(t, err)
	assert.Equal(t, "Shall I book your interview for Wednesday, October 21 at 3pm? Please say yes or no.", confirm)
}

func TestNewScriptOverrides(t *testing.T) {
	s, err := NewScript(ScriptConfig{
		RepeatPrompt: "Once more please.",
		Prompts:      map[Field]string{FieldNoticePeriod: "How long is your notice, {{.CandidateName}}?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Once more please.", s.repeat)
	assert.Equal(t, DefaultClosing, s.closing)

	q, err := s.renderQuestion(1, PromptData{CandidateName: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, "How long is your notice, Ravi?", q)

	_, err = NewScript(ScriptConfig{Prompts: map[Field]string{"salary": "?"}})
	assert.ErrorContains(t, err, "unknown interview field")

	_, err = NewScript(ScriptConfig{Greeting: "Hello {{.CandidateName"})
	assert.Error(t, err)

	// unknown keys fail at render time
	s, err = NewScript(ScriptConfig{Greeting: "Hello {{.Nickname}}"})
	require.NoError(t, err)
	_, err = s.renderGreeting(PromptData{CandidateName: "Ravi"})
	assert.ErrorContains(t, err, "Nickname")
}

func TestValidTransition(t *testing.T) {
	n := len(Fields)
	assert.True(t, validTransition(ready(), greeting(), n))
	assert.True(t, validTransition(greeting(), asking(0), n))
	assert.True(t, validTransition(asking(2), listening(2), n))
	assert.True(t, validTransition(listening(2), listening(2), n))
	assert.True(t, validTransition(processing(2), asking(3), n))
	assert.True(t, validTransition(processing(n-1), saving(n-1), n))
	assert.True(t, validTransition(saving(n-1), done(n-1), n))

	assert.False(t, validTransition(idle(), greeting(), n))
	assert.False(t, validTransition(processing(1), asking(1), n))
	assert.False(t, validTransition(processing(1), saving(1), n))
	assert.False(t, validTransition(processing(n-1), asking(n), n))
	assert.False(t, validTransition(asking(1), processing(1), n))

	assert.Equal(t, "listening(3)", listening(3).String())
	assert.Equal(t, "ready", ready().String())
}
