//go:build windows

package helpers

import (
	"os/exec"
	"syscall"
)

// setCommandLine hands the child a preformatted command line, bypassing the
// os/exec escaping that would turn KEY="a b" into KEY=\"a b\"
func setCommandLine(cmd *exec.Cmd, name string, args []string) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: CommandLine(name, args...)}
}
