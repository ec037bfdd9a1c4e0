package msidb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultMsiinfo is the msitools binary used to read installer databases
const DefaultMsiinfo = "msiinfo"

// MsiinfoReader opens installer databases through the msitools msiinfo command
type MsiinfoReader struct {
	fs      afero.Fs
	runner  helpers.CommandRunner
	command helpers.Command
	logger  *zerolog.Logger
}

// NewMsiinfoReader creates a reader. An empty command selects DefaultMsiinfo.
func NewMsiinfoReader(fs afero.Fs, runner helpers.CommandRunner, command string, log *zerolog.Logger) *MsiinfoReader {
	return &MsiinfoReader{
		fs:      fs,
		runner:  runner,
		command: helpers.ParseCommand(command, DefaultMsiinfo),
		logger:  log,
	}
}

// Open checks the compound file signature, lists the tables and returns a
// database handle. Table contents are exported lazily, once per table.
func (r *MsiinfoReader) Open(ctx context.Context, path string) (Database, error) {
	fileType, err := helpers.DetectFileType(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if fileType == helpers.FileTypeUnknown {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotInstallerDatabase)
	}

	if err := r.runner.RequireCommand(r.command.Name); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	stdout, stderr, err := r.runner.RunCommandWithOutput(ctx, r.command.Name, r.command.With("tables", path)...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %s", path, err, strings.TrimSpace(stderr))
	}

	tables := make(map[string]struct{})
	var order []string
	for _, line := range strings.Split(stdout, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		if _, seen := tables[name]; !seen {
			tables[name] = struct{}{}
			order = append(order, name)
		}
	}

	r.logger.Debug().
		Str("path", path).
		Int("tables", len(order)).
		Msg("installer database opened")

	return &msiinfoDatabase{
		reader: r,
		path:   path,
		tables: tables,
		order:  order,
		cache:  make(map[string]*View),
	}, nil
}

type msiinfoDatabase struct {
	reader *MsiinfoReader
	path   string
	tables map[string]struct{}
	order  []string

	mu     sync.Mutex
	cache  map[string]*View
	closed bool
}

func (d *msiinfoDatabase) Path() string {
	return d.path
}

func (d *msiinfoDatabase) Tables(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return append([]string(nil), d.order...), nil
}

func (d *msiinfoDatabase) Query(ctx context.Context, q Query) (*View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if _, ok := d.tables[q.Table]; !ok {
		return nil, fmt.Errorf("%s: %w", q.Table, ErrTableNotFound)
	}

	table, ok := d.cache[q.Table]
	if !ok {
		var err error
		table, err = d.export(ctx, q.Table)
		if err != nil {
			return nil, err
		}
		d.cache[q.Table] = table
	}

	d.reader.logger.Trace().
		Str("path", d.path).
		Str("query", q.String()).
		Msg("installer database query")

	return Select(table, q)
}

func (d *msiinfoDatabase) export(ctx context.Context, table string) (*View, error) {
	stdout, stderr, err := d.reader.runner.RunCommandWithOutput(ctx, d.reader.command.Name, d.reader.command.With("export", d.path, table)...)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w: %s", table, err, strings.TrimSpace(stderr))
	}

	view, err := ParseIDT(stdout)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", table, err)
	}
	return view, nil
}

func (d *msiinfoDatabase) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cache = nil
	return nil
}
