package engine

import (
	"context"
	"sync"
)

// Call is one recorded MockExecutor invocation
type Call struct {
	Action      string
	Path        string
	Patches     []string
	ProductCode string
	Properties  string
	LogPath     string // log path active during the call
}

// MockExecutor records installer actions for tests
type MockExecutor struct {
	// Fail returns the error for an action, or nil for success
	Fail func(call Call) error
	// Reboot marks a restart as pending after every successful action
	Reboot bool

	mu      sync.Mutex
	Calls   []Call
	logPath string
	logs    int
	reboot  bool
}

func (m *MockExecutor) do(call Call) error {
	m.mu.Lock()
	call.LogPath = m.logPath
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()

	if m.Fail != nil {
		if err := m.Fail(call); err != nil {
			return err
		}
	}

	if m.Reboot {
		m.mu.Lock()
		m.reboot = true
		m.mu.Unlock()
	}
	return nil
}

// InstallProduct implements Executor
func (m *MockExecutor) InstallProduct(_ context.Context, path, properties string) error {
	return m.do(Call{Action: "install", Path: path, Properties: properties})
}

// ApplyPatch implements Executor
func (m *MockExecutor) ApplyPatch(_ context.Context, path, properties string) error {
	return m.do(Call{Action: "patch", Path: path, Properties: properties})
}

// RemoveProduct implements Executor
func (m *MockExecutor) RemoveProduct(_ context.Context, path, properties string) error {
	return m.do(Call{Action: "remove", Path: path, Properties: properties})
}

// RemovePatches implements Executor
func (m *MockExecutor) RemovePatches(_ context.Context, patches []string, productCode, properties string) error {
	return m.do(Call{Action: "remove-patches", Patches: patches, ProductCode: productCode, Properties: properties})
}

// EnableLog implements Executor
func (m *MockExecutor) EnableLog(_, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logPath = path
	m.logs++
}

// DisableLog implements Executor
func (m *MockExecutor) DisableLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logPath = ""
}

// LogEnabled reports whether logging is currently on
func (m *MockExecutor) LogEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logPath != ""
}

// LogCount returns how many times logging was enabled
func (m *MockExecutor) LogCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs
}

// RebootPending implements Executor
func (m *MockExecutor) RebootPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reboot
}
