package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// CommandRunner runs the external installer tools. Tests substitute
// MockCommandRunner.
type CommandRunner interface {
	// CommandExists reports whether name resolves through PATH
	CommandExists(name string) bool

	// RequireCommand returns an error when name does not resolve
	RequireCommand(name string) error

	// RunCommandWithOutput runs name and returns what it wrote to stdout and stderr.
	// A non-zero exit is an error; GetExitCode recovers the status from it.
	RunCommandWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

	// GetExitCode returns the exit status carried by a RunCommandWithOutput error:
	// 0 for nil, -1 when the process never produced one
	GetExitCode(err error) int
}

// Command is a configured tool invocation such as "msiexec" or "wine msiexec"
type Command struct {
	Name string
	Args []string // leading arguments placed before every call's own
}

// ParseCommand splits a configured command line on whitespace. An empty line
// yields fallback.
func ParseCommand(line, fallback string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Name: fallback}
	}
	return Command{Name: fields[0], Args: fields[1:]}
}

// With returns the full argument vector for one call
func (c Command) With(args ...string) []string {
	out := make([]string, 0, len(c.Args)+len(args))
	out = append(out, c.Args...)
	return append(out, args...)
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandLine joins name and args into one Windows command line. An argument
// that already holds a double quote is written unchanged so properties such as
// KEY="a b" reach the installer verbatim. Empty arguments and arguments with
// whitespace are wrapped in quotes.
func CommandLine(name string, args ...string) string {
	var b strings.Builder
	b.WriteString(quoteArg(name))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(quoteArg(a))
	}
	return b.String()
}

func quoteArg(s string) string {
	switch {
	case strings.Contains(s, `"`):
		return s
	case s == "":
		return `""`
	case !strings.ContainsAny(s, " \t"):
		return s
	}
	// backslashes before the closing quote are doubled
	trailing := len(s) - len(strings.TrimRight(s, `\`))
	return `"` + s + strings.Repeat(`\`, trailing) + `"`
}

// waitDelay bounds how long a cancelled tool may keep its output pipes open
const waitDelay = 5 * time.Second

// OSCommandRunner runs commands with os/exec. PATH lookups are cached.
type OSCommandRunner struct {
	lookups sync.Map // name -> bool
}

// NewOSCommandRunner creates an OSCommandRunner
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// CommandExists implements CommandRunner
func (r *OSCommandRunner) CommandExists(name string) bool {
	if found, ok := r.lookups.Load(name); ok {
		return found.(bool)
	}

	_, err := exec.LookPath(name)
	r.lookups.Store(name, err == nil)
	return err == nil
}

// RequireCommand implements CommandRunner
func (r *OSCommandRunner) RequireCommand(name string) error {
	if r.CommandExists(name) {
		return nil
	}
	return fmt.Errorf("required command %q not found in PATH", name)
}

// RunCommandWithOutput implements CommandRunner. Arguments are passed as a
// vector and never through a shell; on Windows they are joined by CommandLine.
func (r *OSCommandRunner) RunCommandWithOutput(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	setCommandLine(cmd, name, args)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return stdout.String(), stderr.String(), fmt.Errorf("command %q failed: %w", name, err)
	}
	return stdout.String(), stderr.String(), nil
}

// GetExitCode implements CommandRunner
func (r *OSCommandRunner) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return exitErr.ExitCode()
	}
	return -1
}
