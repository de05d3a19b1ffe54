package interview

import (
	"bytes"
	"fmt"
	"text/template"
)

// Field tags one question of the interview and selects its extraction rule.
type Field string

const (
	FieldInterest     Field = "interest"
	FieldNoticePeriod Field = "notice_period"
	FieldCTC          Field = "ctc"
	FieldAvailability Field = "availability"
	FieldConfirmation Field = "confirmation"
)

// Fields is the fixed question order.
var Fields = []Field{FieldInterest, FieldNoticePeriod, FieldCTC, FieldAvailability, FieldConfirmation}

// Default utterances. Prompts are text/template strings rendered with PromptData.
const (
	DefaultGreeting     = `Hello {{.CandidateName}}, this is the recruiting assistant from {{.CompanyName}} calling about the {{.JobTitle}} position.`
	DefaultRepeatPrompt = `Sorry, I didn't catch that. Could you please repeat?`
	DefaultClosing      = `Thank you for your time. We have recorded your responses and will be in touch soon.`
)

// DefaultPrompts holds the question text for each field.
var DefaultPrompts = map[Field]string{
	FieldInterest:     `Are you interested in the {{.JobTitle}} role?`,
	FieldNoticePeriod: `What is your notice period?`,
	FieldCTC:          `What is your current CTC, and what CTC are you expecting?`,
	FieldAvailability: `Which day and time would suit you for an interview?`,
	FieldConfirmation: `Shall I book your interview for {{.FormattedDate}} at {{.InterviewTime}}? Please say yes or no.`,
}

// PromptData is what greeting and question templates can refer to.
type PromptData struct {
	CandidateName string
	CompanyName   string
	JobTitle      string
	InterviewDate string
	FormattedDate string
	InterviewTime string
}

// Script is the parsed set of utterances one run speaks.
type Script struct {
	greeting  *template.Template
	repeat    string
	closing   string
	questions []question
}

type question struct {
	field  Field
	prompt *template.Template
}

// ScriptConfig overrides the default utterances. Empty values keep the defaults.
type ScriptConfig struct {
	Greeting     string           `yaml:"greeting"`
	RepeatPrompt string           `yaml:"repeat_prompt"`
	Closing      string           `yaml:"closing"`
	Prompts      map[Field]string `yaml:"prompts"`
}

// NewScript parses cfg over the defaults.
func NewScript(cfg ScriptConfig) (*Script, error) {
	s := &Script{
		repeat:  orDefault(cfg.RepeatPrompt, DefaultRepeatPrompt),
		closing: orDefault(cfg.Closing, DefaultClosing),
	}
	var err error
	if s.greeting, err = template.New("greeting").Parse(orDefault(cfg.Greeting, DefaultGreeting)); err != nil {
		return nil, fmt.Errorf("parse greeting: %w", err)
	}
	for f := range cfg.Prompts {
		if _, ok := DefaultPrompts[f]; !ok {
			return nil, fmt.Errorf("unknown interview field %q", f)
		}
	}
	for _, f := range Fields {
		tmpl, err := template.New(string(f)).Parse(orDefault(cfg.Prompts[f], DefaultPrompts[f]))
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt: %w", f, err)
		}
		s.questions = append(s.questions, question{field: f, prompt: tmpl})
	}
	return s, nil
}

// DefaultScript returns the built-in script.
func DefaultScript() *Script {
	s, err := NewScript(ScriptConfig{})
	if err != nil {
		panic(err)
	}
	return s
}

// Len is the number of questions.
func (s *Script) Len() int { return len(s.questions) }

// Field returns the field asked by question i.
func (s *Script) Field(i int) Field { return s.questions[i].field }

func (s *Script) renderGreeting(d PromptData) (string, error) {
	return render(s.greeting, d)
}

func (s *Script) renderQuestion(i int, d PromptData) (string, error) {
	return render(s.questions[i].prompt, d)
}

func render(t *template.Template, d PromptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
