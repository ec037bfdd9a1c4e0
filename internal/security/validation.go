package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// PublicPropertyRegex matches installer public property names: upper case
	// letters, digits, underscore and dot, not starting with a digit
	PublicPropertyRegex = regexp.MustCompile(`^[A-Z_][A-Z0-9_.]*$`)

	// controlChars must never reach the installer command line
	controlChars = []string{"\x00", "\n", "\r"}
)

// ValidatePath performs general path validation
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null bytes: %q", path)
	}

	if len(path) > 4096 {
		return fmt.Errorf("path too long: %d characters", len(path))
	}

	return nil
}

// ValidateName validates a package name or name pattern given by the user
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("package name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("package name too long (max 255 characters)")
	}

	for _, c := range controlChars {
		if strings.Contains(name, c) {
			return fmt.Errorf("package name contains control character %q", c)
		}
	}

	return nil
}

// ValidateProperty validates a NAME=value installer property. Only public
// properties can be set from the command line.
func ValidateProperty(property string) error {
	name, value, ok := strings.Cut(property, "=")
	if !ok {
		return fmt.Errorf("invalid property %q: expected NAME=value", property)
	}

	if !PublicPropertyRegex.MatchString(name) {
		return fmt.Errorf("invalid property name %q: must be an upper case public property", name)
	}

	for _, c := range controlChars {
		if strings.Contains(value, c) {
			return fmt.Errorf("property %s contains control character %q", name, c)
		}
	}

	if strings.Count(value, `"`)%2 != 0 {
		return fmt.Errorf("property %s has unbalanced quotes", name)
	}

	return nil
}

// ValidateProperties validates every property and stops at the first failure
func ValidateProperties(properties []string) error {
	for _, p := range properties {
		if err := ValidateProperty(p); err != nil {
			return err
		}
	}
	return nil
}
