package inventory

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	packedPattern = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)
	guidPattern   = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)
)

// group lengths of a GUID; the first three are stored reversed, the last
// eight bytes are stored nibble-swapped
var guidGroups = []int{8, 4, 4}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func swapPairs(s string) string {
	b := []byte(s)
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
	return string(b)
}

// UnpackGUID converts a 32-character packed code, as stored in installer
// registry key names, into its {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX} form
func UnpackGUID(packed string) (string, error) {
	if !packedPattern.MatchString(packed) {
		return "", fmt.Errorf("invalid packed guid %q", packed)
	}
	packed = strings.ToUpper(packed)

	var parts []string
	offset := 0
	for _, n := range guidGroups {
		parts = append(parts, reverse(packed[offset:offset+n]))
		offset += n
	}
	tail := swapPairs(packed[offset:])
	parts = append(parts, tail[:4], tail[4:])

	return "{" + strings.Join(parts, "-") + "}", nil
}

// PackGUID is the inverse of UnpackGUID
func PackGUID(guid string) (string, error) {
	if !guidPattern.MatchString(guid) {
		return "", fmt.Errorf("invalid guid %q", guid)
	}
	hex := strings.ToUpper(strings.ReplaceAll(strings.Trim(guid, "{}"), "-", ""))

	var b strings.Builder
	offset := 0
	for _, n := range guidGroups {
		b.WriteString(reverse(hex[offset : offset+n]))
		offset += n
	}
	b.WriteString(swapPairs(hex[offset:]))
	return b.String(), nil
}

// IsGUID reports whether s is a braced GUID
func IsGUID(s string) bool {
	return guidPattern.MatchString(s)
}
