// Package prompt provides the yes/no decisions kpm asks the operator for.
package prompt

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/obentoo/kpm/internal/common/terminal"
)

var (
	// ErrInterrupted is returned when the operator aborts a prompt with Ctrl+C
	ErrInterrupted = errors.New("prompt interrupted")
)

// Prompter answers a yes/no question. def is the answer used when the
// operator just presses enter or no terminal is available.
type Prompter interface {
	Confirm(title string, def bool) (bool, error)
}

// HuhPrompter implements Prompter using charmbracelet/huh.
type HuhPrompter struct {
	isTerminal func() bool
	runForm    func(form *huh.Form) error
}

// NewHuhPrompter creates a HuhPrompter using the default terminal check
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{
		isTerminal: terminal.IsInteractive,
		runForm:    func(form *huh.Form) error { return form.Run() },
	}
}

// Confirm renders a yes/no prompt preset to def. Without an interactive
// terminal the default is returned unchanged.
func (p *HuhPrompter) Confirm(title string, def bool) (bool, error) {
	if p.isTerminal == nil || !p.isTerminal() {
		return def, nil
	}

	value := def
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&value),
		),
	)

	if err := p.runForm(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrInterrupted
		}
		return false, fmt.Errorf("prompt %q: %w", title, err)
	}
	return value, nil
}

// RiskyConfirmer is implemented by prompters that do not answer dangerous
// questions the way they answer routine ones
type RiskyConfirmer interface {
	ConfirmRisky(title string, def bool) (bool, error)
}

// ConfirmRisky asks a question whose wrong answer can damage the system.
// Prompters without special handling ask it like any other question.
func ConfirmRisky(p Prompter, title string, def bool) (bool, error) {
	if r, ok := p.(RiskyConfirmer); ok {
		return r.ConfirmRisky(title, def)
	}
	return p.Confirm(title, def)
}

// AssumePrompter answers every question without asking. A nil Answer
// returns each question's default. Risky questions never take Answer:
// they go to Risky when set, otherwise they get their default.
type AssumePrompter struct {
	Answer *bool
	Risky  Prompter
}

// AssumeYes returns a Prompter that accepts everything (--yes)
func AssumeYes() *AssumePrompter {
	yes := true
	return &AssumePrompter{Answer: &yes}
}

// Confirm returns the fixed answer or the default
func (p *AssumePrompter) Confirm(title string, def bool) (bool, error) {
	if p.Answer != nil {
		return *p.Answer, nil
	}
	return def, nil
}

// ConfirmRisky forwards to Risky or returns the default
func (p *AssumePrompter) ConfirmRisky(title string, def bool) (bool, error) {
	if p.Risky != nil {
		return p.Risky.Confirm(title, def)
	}
	return def, nil
}

// ScriptedPrompter replays queued answers and records every title asked.
// When the queue is empty the question's default is used.
type ScriptedPrompter struct {
	Answers []bool
	Err     error
	Asked   []string
}

// Confirm pops the next scripted answer
func (p *ScriptedPrompter) Confirm(title string, def bool) (bool, error) {
	p.Asked = append(p.Asked, title)
	if p.Err != nil {
		return false, p.Err
	}
	if len(p.Answers) == 0 {
		return def, nil
	}
	answer := p.Answers[0]
	p.Answers = p.Answers[1:]
	return answer, nil
}

var (
	_ Prompter = (*HuhPrompter)(nil)
	_ Prompter = (*AssumePrompter)(nil)
	_ Prompter = (*ScriptedPrompter)(nil)

	_ RiskyConfirmer = (*AssumePrompter)(nil)
)
