package inventory

import (
	"context"
	"testing"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/registry"
	"github.com/quantmind-br/msipkg/internal/registry/mockregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsiexecProductCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"remove", "MsiExec.exe /X{12345678-abcd-ef01-2345-6789abcdef01}", widgetCode},
		{"modify", "MsiExec.exe /I{12345678-ABCD-EF01-2345-6789ABCDEF01}", widgetCode},
		{"quoted path", `"C:\Windows\System32\msiexec.exe" /x {12345678-ABCD-EF01-2345-6789ABCDEF01}`, widgetCode},
		{"other installer", `"C:\Program Files\Widget\uninstall.exe" /S`, ""},
		{"msiexec on a file", `msiexec /x C:\setup.msi`, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MsiexecProductCode(tt.input))
		})
	}
}

func TestARPSource(t *testing.T) {
	t.Parallel()

	reg := mockregistry.New()
	reg.Add(registry.Join(UninstallKey, widgetCode), map[string]any{
		"DisplayName":     "Widget",
		"DisplayVersion":  "2.0",
		"UninstallString": "MsiExec.exe /X" + widgetCode,
	})
	reg.Add(registry.Join(UninstallKeys[1], widgetCode), map[string]any{
		"DisplayName":     "Widget (x86)",
		"UninstallString": "MsiExec.exe /X" + widgetCode,
	})
	reg.Add(registry.Join(UninstallKey, "Notepad++"), map[string]any{
		"DisplayName":     "Notepad++",
		"UninstallString": `C:\Program Files\Notepad++\uninstall.exe`,
	})
	reg.Add(registry.Join(UninstallKeys[1], systemCode), map[string]any{
		"DisplayName":     "Runtime",
		"UninstallString": "MsiExec.exe /I" + systemCode,
		"SystemComponent": 1,
	})

	enum := NewEnumerator(NewARPSource(mockregistry.NewOpener(reg), testLogger()), testLogger())

	pkgs := collect(t, enum.Products(context.Background(), false))
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Widget", pkgs[0].Name)
	assert.Equal(t, widgetCode, pkgs[0].Metadata[core.KeyProductCode])
	assert.Nil(t, pkgs[0].Source)

	assert.Len(t, collect(t, enum.Products(context.Background(), true)), 2)
	assert.Empty(t, collect(t, enum.Patches(context.Background())))
}
