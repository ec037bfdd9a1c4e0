package helpers

import (
	"strings"
	"time"
)

// maxLogBase bounds the name part of an installer log file
const maxLogBase = 64

// NormalizeFilename turns a product or patch display name into a file name
// part: lowercase ASCII letters, digits, '.', '+' and single dashes.
func NormalizeFilename(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '+':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '_' || r == '(' || r == ')':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-.")
	if len(out) > maxLogBase {
		out = strings.TrimRight(out[:maxLogBase], "-.")
	}
	return out
}

// logTimestamp sorts lexically and is valid in Windows file names
const logTimestamp = "20060102-150405"

// LogFileName returns the installer log file name for an artifact, e.g.
// "widget-pro-20240101-120000.log"
func LogFileName(name string, now time.Time) string {
	base := NormalizeFilename(name)
	if base == "" {
		base = "package"
	}
	return base + "-" + now.Format(logTimestamp) + ".log"
}
