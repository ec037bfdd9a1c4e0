package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/rs/zerolog"
)

// DefaultMsiexec is the installer command line front end
const DefaultMsiexec = "msiexec"

// Msiexec runs installer actions through the msiexec command
type Msiexec struct {
	runner  helpers.CommandRunner
	command helpers.Command
	logger  *zerolog.Logger

	mu      sync.Mutex
	logMode string
	logPath string
	reboot  bool
}

// NewMsiexec creates an Executor. command may carry leading arguments, e.g.
// "wine msiexec"; an empty command selects DefaultMsiexec.
func NewMsiexec(runner helpers.CommandRunner, command string, log *zerolog.Logger) *Msiexec {
	return &Msiexec{
		runner:  runner,
		command: helpers.ParseCommand(command, DefaultMsiexec),
		logger:  log,
	}
}

// InstallProduct implements Executor
func (m *Msiexec) InstallProduct(ctx context.Context, path, properties string) error {
	return m.run(ctx, "install product", properties, "/i", path)
}

// ApplyPatch implements Executor
func (m *Msiexec) ApplyPatch(ctx context.Context, path, properties string) error {
	return m.run(ctx, "apply patch", properties, "/update", path)
}

// RemoveProduct implements Executor
func (m *Msiexec) RemoveProduct(ctx context.Context, path, properties string) error {
	return m.run(ctx, "remove product", properties, "/x", path)
}

// RemovePatches implements Executor
func (m *Msiexec) RemovePatches(ctx context.Context, patches []string, productCode, properties string) error {
	return m.run(ctx, "remove patches", properties, "/i", productCode, "MSIPATCHREMOVE="+strings.Join(patches, ";"))
}

// EnableLog implements Executor
func (m *Msiexec) EnableLog(mode, path string) {
	if mode == "" {
		mode = DefaultLogMode
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logMode = mode
	m.logPath = path
}

// DisableLog implements Executor
func (m *Msiexec) DisableLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logMode = ""
	m.logPath = ""
}

// LogPath returns the active installer log, or "" when logging is disabled
func (m *Msiexec) LogPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logPath
}

// RebootPending implements Executor
func (m *Msiexec) RebootPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reboot
}

// Args builds the full argument vector for an action
func (m *Msiexec) Args(properties string, action ...string) []string {
	args := m.command.With(action...)
	args = append(args, "/qn", "/norestart")

	m.mu.Lock()
	if m.logPath != "" {
		args = append(args, "/l"+m.logMode, m.logPath)
	}
	m.mu.Unlock()

	return append(args, SplitProperties(properties)...)
}

func (m *Msiexec) run(ctx context.Context, action, properties string, target ...string) error {
	args := m.Args(properties, target...)

	m.logger.Debug().
		Str("action", action).
		Strs("args", args).
		Msg("running installer")

	stdout, stderr, err := m.runner.RunCommandWithOutput(ctx, m.command.Name, args...)
	code := m.runner.GetExitCode(err)

	switch code {
	case ExitSuccess:
		return nil
	case ExitRebootRequired, ExitRebootInitiated:
		m.mu.Lock()
		m.reboot = true
		m.mu.Unlock()
		m.logger.Info().
			Str("action", action).
			Int("exit_code", code).
			Msg("installer requested a restart")
		return nil
	}

	output := strings.TrimSpace(stderr)
	if output == "" {
		output = strings.TrimSpace(stdout)
	}
	return &ExitError{Action: action, Code: code, Output: output, Err: err}
}

// SplitProperties splits a property string on whitespace outside double quotes.
// Quotes are kept so the installer sees KEY="value with spaces" verbatim and
// backslashes in Windows paths are left untouched.
func SplitProperties(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}
