package rexec

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nicklasfrahm/ncexec/pkg/ncat"
)

// Cmd describes a command to be executed on the remote host.
type Cmd struct {
	Cmd   string
	Env   map[string]string
	Shell bool
	// Stdout receives the output of a successful command.
	Stdout io.Writer
	// Stderr receives the output of a failed command.
	Stderr io.Writer
	// IgnoreError returns normally if the command failed.
	IgnoreError bool
	// Timeout overrides the command timeout of the runner.
	Timeout time.Duration
}

// String compiles the command to be executed.
func (c *Cmd) String() string {
	cmd := c.Cmd

	// Note that we also need to wrap the command in a
	// shell if we want to inject environment variables.
	if c.Shell || len(c.Env) > 0 {
		cmd = fmt.Sprintf("sh -c '%s'", c.Cmd)
	}

	if len(c.Env) > 0 {
		// Sort the variables to keep the command reproducible.
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		vars := make([]string, 0, len(keys))
		for _, k := range keys {
			vars = append(vars, fmt.Sprintf("%s='%s'", k, c.Env[k]))
		}

		cmd = fmt.Sprintf("env %s %s", strings.Join(vars, " "), cmd)
	}

	return cmd
}

// ncat converts the command for the plaintext protocol.
func (c *Cmd) ncat() *ncat.Cmd {
	return &ncat.Cmd{
		Cmd:         c.String(),
		Stdout:      c.Stdout,
		Stderr:      c.Stderr,
		IgnoreError: c.IgnoreError,
		Timeout:     c.Timeout,
	}
}
