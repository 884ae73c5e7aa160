package internal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Prompter supplies values that no other source could provide.
type Prompter interface {
	// Ask returns a value for a variable that has neither an existing value
	// nor a default.
	Ask(def VariableDef) (string, error)
	// Choose returns one of options.
	Choose(label string, options []string) (string, error)
}

func promptMessage(def VariableDef) string {
	if def.Prompt != "" {
		return fmt.Sprintf("%s (%s)", def.Prompt, def.Name)
	}
	return fmt.Sprintf("Variable %s missing - value?", def.Name)
}

// LinePrompter writes a prompt to Out and reads one line from In per
// question. It works without a terminal.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{In: in, Out: out}
}

func (p *LinePrompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		if err == io.EOF {
			return "", fmt.Errorf("unexpected end of input")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *LinePrompter) Ask(def VariableDef) (string, error) {
	fmt.Fprintf(p.Out, "%s ", promptMessage(def))
	return p.readLine()
}

// Choose lists options and accepts either an option's number or its name.
func (p *LinePrompter) Choose(label string, options []string) (string, error) {
	fmt.Fprintln(p.Out, label)
	for i, o := range options {
		fmt.Fprintf(p.Out, "  %d) %s\n", i+1, o)
	}
	fmt.Fprint(p.Out, "? ")
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], nil
	}
	for _, o := range options {
		if o == answer {
			return o, nil
		}
	}
	return "", fmt.Errorf("invalid choice %q", answer)
}

// SurveyPrompter asks through survey; it requires a terminal.
type SurveyPrompter struct {
	Stdio terminal.Stdio
}

func (p SurveyPrompter) Ask(def VariableDef) (string, error) {
	var answer string
	q := &survey.Input{Message: promptMessage(def)}
	if err := survey.AskOne(q, &answer, survey.WithStdio(p.Stdio.In, p.Stdio.Out, p.Stdio.Err)); err != nil {
		return "", err
	}
	return answer, nil
}

func (p SurveyPrompter) Choose(label string, options []string) (string, error) {
	var answer string
	q := &survey.Select{Message: label, Options: options}
	if err := survey.AskOne(q, &answer, survey.WithStdio(p.Stdio.In, p.Stdio.Out, p.Stdio.Err)); err != nil {
		return "", err
	}
	return answer, nil
}

// ScriptedPrompter answers from fixed values and records what was asked.
type ScriptedPrompter struct {
	Answers map[string]string
	Choice  string

	Asked []string
}

func (p *ScriptedPrompter) Ask(def VariableDef) (string, error) {
	p.Asked = append(p.Asked, def.Name)
	v, ok := p.Answers[def.Name]
	if !ok {
		return "", fmt.Errorf("no scripted answer for %s", def.Name)
	}
	return v, nil
}

func (p *ScriptedPrompter) Choose(label string, options []string) (string, error) {
	for _, o := range options {
		if o == p.Choice {
			return o, nil
		}
	}
	return "", fmt.Errorf("scripted choice %q is not one of %v", p.Choice, options)
}
