package paths

import (
	"os"
	"path/filepath"

	"github.com/quantmind-br/msipkg/internal/config"
)

// Resolver centralizes the default msipkg locations. Configured paths win;
// anything left empty falls back to a directory under HOME.
type Resolver struct {
	homeDir string
	cfg     *config.Config
}

// NewResolver creates a Resolver using the current user's HOME
func NewResolver(cfg *config.Config) *Resolver {
	homeDir, _ := os.UserHomeDir()
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// NewResolverWithHome creates a Resolver with an explicit homeDir (useful for tests)
func NewResolverWithHome(cfg *config.Config, homeDir string) *Resolver {
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// HomeDir returns the resolved HOME directory
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// DataDir returns cfg.Paths.DataDir, or ~/.local/share/msipkg
func (r *Resolver) DataDir() string {
	if r.cfg != nil && r.cfg.Paths.DataDir != "" {
		return r.cfg.Paths.DataDir
	}
	return filepath.Join(r.homeDir, ".local", "share", "msipkg")
}

// JournalFile returns the operation journal database path
func (r *Resolver) JournalFile() string {
	if r.cfg != nil && r.cfg.Paths.JournalFile != "" {
		return r.cfg.Paths.JournalFile
	}
	return filepath.Join(r.DataDir(), "journal.db")
}

// LogFile returns the application log path
func (r *Resolver) LogFile() string {
	if r.cfg != nil && r.cfg.Paths.LogFile != "" {
		return r.cfg.Paths.LogFile
	}
	return filepath.Join(r.DataDir(), "msipkg.log")
}

// EngineLogDir returns the directory that receives one installer log per install
func (r *Resolver) EngineLogDir() string {
	if r.cfg != nil && r.cfg.Paths.LogDir != "" {
		return r.cfg.Paths.LogDir
	}
	return filepath.Join(r.DataDir(), "logs")
}
