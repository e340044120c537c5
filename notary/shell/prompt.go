package shell

import (
	"errors"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrQuit is returned by a Prompter when the user aborts input (Ctrl-C or EOF).
var ErrQuit = errors.New("input aborted")

// Prompter collects user input.
type Prompter interface {
	// Select returns the index of the chosen option.
	Select(message string, options []string) (int, error)
	// Input returns a free-text answer.
	Input(message string) (string, error)
}

type surveyPrompter struct {
	opts []survey.AskOpt
}

// NewSurveyPrompter returns a terminal Prompter backed by survey.
func NewSurveyPrompter(opts ...survey.AskOpt) Prompter {
	return &surveyPrompter{opts: opts}
}

func (p *surveyPrompter) Select(message string, options []string) (int, error) {
	var idx int
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &idx, p.opts...); err != nil {
		return 0, mapPromptErr(err)
	}
	return idx, nil
}

func (p *surveyPrompter) Input(message string) (string, error) {
	var answer string
	prompt := &survey.Input{
		Message: message,
	}
	if err := survey.AskOne(prompt, &answer, p.opts...); err != nil {
		return "", mapPromptErr(err)
	}
	return answer, nil
}

func mapPromptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
		return ErrQuit
	}
	return err
}
