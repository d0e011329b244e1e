// Package interact asks the operator for values and confirmations.
package interact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Provider prompts for free-form values and yes/no confirmations.
type Provider interface {
	// Prompt returns the operator's answer, or def if they give none.
	Prompt(message, def string) string
	// Confirm returns the operator's decision, or defYes if they give none.
	Confirm(message string, defYes bool) bool
}

// Terminal reads answers line by line. End of input falls back to defaults.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a provider reading from in and writing prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Prompt implements Provider.
func (t *Terminal) Prompt(message, def string) string {
	suffix := ""
	if def != "" {
		suffix = fmt.Sprintf(" [%s]", def)
	}
	fmt.Fprintf(t.out, "%s%s: ", message, suffix)

	if value := t.readLine(); value != "" {
		return value
	}
	return def
}

// Confirm implements Provider. Unrecognized answers count as the default.
func (t *Terminal) Confirm(message string, defYes bool) bool {
	token := "y/N"
	if defYes {
		token = "Y/n"
	}
	fmt.Fprintf(t.out, "%s [%s]: ", message, token)

	switch strings.ToLower(t.readLine()) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return defYes
}

func (t *Terminal) readLine() string {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

// NonInteractive answers every prompt with its default.
type NonInteractive struct{}

// Prompt implements Provider.
func (NonInteractive) Prompt(_, def string) string { return def }

// Confirm implements Provider.
func (NonInteractive) Confirm(_ string, defYes bool) bool { return defYes }

// ForMode returns a terminal provider on stdin/stdout when interactive is
// true, otherwise a provider that always takes defaults.
func ForMode(interactive bool) Provider {
	if interactive {
		return NewTerminal(os.Stdin, os.Stdout)
	}
	return NonInteractive{}
}
