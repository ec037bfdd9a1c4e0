package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/msipkg/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewResolver(t *testing.T) {
	resolver := NewResolver(&config.Config{})

	homeDir, _ := os.UserHomeDir()
	assert.Equal(t, homeDir, resolver.HomeDir())
}

func TestResolverDefaults(t *testing.T) {
	t.Parallel()

	resolver := NewResolverWithHome(&config.Config{}, "/home/user")
	dataDir := filepath.Join("/home/user", ".local", "share", "msipkg")

	assert.Equal(t, "/home/user", resolver.HomeDir())
	assert.Equal(t, dataDir, resolver.DataDir())
	assert.Equal(t, filepath.Join(dataDir, "journal.db"), resolver.JournalFile())
	assert.Equal(t, filepath.Join(dataDir, "msipkg.log"), resolver.LogFile())
	assert.Equal(t, filepath.Join(dataDir, "logs"), resolver.EngineLogDir())
}

func TestResolverNilConfig(t *testing.T) {
	t.Parallel()

	resolver := NewResolverWithHome(nil, "/home/user")
	assert.Equal(t, filepath.Join("/home/user", ".local", "share", "msipkg", "logs"), resolver.EngineLogDir())
}

func TestResolverConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		paths   config.PathsConfig
		journal string
		logDir  string
	}{
		{
			name:    "data dir only",
			paths:   config.PathsConfig{DataDir: "/srv/msipkg"},
			journal: "/srv/msipkg/journal.db",
			logDir:  "/srv/msipkg/logs",
		},
		{
			name:    "explicit files",
			paths:   config.PathsConfig{DataDir: "/srv/msipkg", JournalFile: "/var/db/ops.db", LogDir: "/var/log/msi"},
			journal: "/var/db/ops.db",
			logDir:  "/var/log/msi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolverWithHome(&config.Config{Paths: tt.paths}, "/home/user")
			assert.Equal(t, tt.journal, resolver.JournalFile())
			assert.Equal(t, tt.logDir, resolver.EngineLogDir())
		})
	}
}
