package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"unix path", "/pkgs/setup.msi", false},
		{"windows path", `C:\Installers\Widget 2.0.msi`, false},
		{"empty", "", true},
		{"null byte", "/pkgs/set\x00up.msi", true},
		{"too long", "/" + strings.Repeat("a", 4096), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "Widget", false},
		{"with spaces", "Microsoft Visual C++ 2015 Redistributable", false},
		{"wildcard", "Widget*", false},
		{"blank", "   ", true},
		{"newline", "Widget\nEvil", true},
		{"null byte", "Wid\x00get", true},
		{"too long", strings.Repeat("w", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProperty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		property string
		wantErr  string
	}{
		{"simple", "ALLUSERS=1", ""},
		{"empty value", "ARPNOREPAIR=", ""},
		{"quoted path", `INSTALLDIR="C:\Program Files\Widget"`, ""},
		{"dotted name", "MSIFASTINSTALL.X=7", ""},
		{"missing equals", "ALLUSERS", "expected NAME=value"},
		{"private property", "installdir=C:\\w", "public property"},
		{"leading digit", "1ST=yes", "public property"},
		{"newline value", "TARGET=a\nb", "control character"},
		{"unbalanced quotes", `TARGET="C:\w`, "unbalanced quotes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProperty(tt.property)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProperties(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateProperties(nil))
	require.NoError(t, ValidateProperties([]string{"ALLUSERS=1", "REBOOT=ReallySuppress"}))

	err := ValidateProperties([]string{"ALLUSERS=1", "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}
