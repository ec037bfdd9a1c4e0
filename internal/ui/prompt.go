package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("operation cancelled by user")

// Prompter asks the user to confirm an action
type Prompter interface {
	Confirm(label string) (bool, error)
}

// TerminalPrompter prompts through promptui on the given streams.
// Nil streams fall back to the process stdin and stdout.
type TerminalPrompter struct {
	In  io.ReadCloser
	Out io.WriteCloser
}

// Confirm implements Prompter
func (p TerminalPrompter) Confirm(label string) (bool, error) {
	return ConfirmPrompt(label, p.In, p.Out)
}

// ConfirmPrompt asks a yes/no confirmation question
func ConfirmPrompt(label string, in io.ReadCloser, out io.WriteCloser) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, ErrCancelled
		}
		// promptui reports a "no" answer as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}

	return result == "y" || result == "Y", nil
}

// StaticPrompter answers every confirmation with Answer
type StaticPrompter struct {
	Answer bool
	Err    error
	Labels []string
}

// Confirm implements Prompter
func (p *StaticPrompter) Confirm(label string) (bool, error) {
	p.Labels = append(p.Labels, label)
	return p.Answer, p.Err
}

// ConfirmDangerousAction warns about what is about to happen, then asks
func ConfirmDangerousAction(w io.Writer, p Prompter, action string, targets []string) (bool, error) {
	PrintWarning(w, "You are about to %s:", action)
	PrintList(w, targets)

	return p.Confirm(fmt.Sprintf("Are you sure you want to %s", action))
}
