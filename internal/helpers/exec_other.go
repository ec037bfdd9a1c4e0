//go:build !windows

package helpers

import "os/exec"

// setCommandLine is a no-op where arguments reach the child as a vector
func setCommandLine(*exec.Cmd, string, []string) {}
