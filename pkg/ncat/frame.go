package ncat

import "fmt"

const (
	// SentinelSuccess is echoed by the peer after a successful command.
	SentinelSuccess = "SUCCESS"
	// SentinelFail is echoed by the peer after a failed command.
	SentinelFail = "FAIL"
)

// Frame compiles the wire form of a command. The command is
// wrapped in a subshell so that the stderr redirection applies
// to the whole pipeline. The trailing newline makes the shell of
// the peer execute the line instead of waiting for more input.
func Frame(cmd string) string {
	return fmt.Sprintf("(%s) 2>&1 && echo -n %s || echo -n %s\n", cmd, SentinelSuccess, SentinelFail)
}
