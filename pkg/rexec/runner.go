// Package rexec provides APIs to execute commands on remote machines.
package rexec

// ServerType selects the transport used to reach a host.
type ServerType string

const (
	// ServerTypePlaintext uses the unauthenticated sentinel protocol.
	ServerTypePlaintext ServerType = "plaintext"
	// ServerTypeSSH uses an SSH session per command.
	ServerTypeSSH ServerType = "ssh"
)

// Config describes the connection configuration of a host.
type Config struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	KeyFile     string `yaml:"key-file"`
	Key         string `yaml:"key"`
	Passphrase  string `yaml:"passphrase"`
	Fingerprint string `yaml:"fingerprint"`
}

// Runner is the interface for running commands. This
// can be for example via an SSH session or a plaintext
// connection to a listening shell.
type Runner interface {
	// Connect establishes a connection to the execution
	// environment.
	Connect() error
	// Run runs a command and waits for it to complete.
	Run(cmd *Cmd) error
	// PutFile copies a local file to the execution environment.
	PutFile(sourcePath, destPath string) error
	// Disconnect closes the connection to the execution
	// environment.
	Disconnect() error
}

// NewRunner returns the runner for the server type. Every type
// other than plaintext is reached via SSH.
func NewRunner(serverType ServerType, target *Config, options ...Option) (Runner, error) {
	if serverType == ServerTypePlaintext {
		return NewPlaintext(target, options...)
	}
	return NewSSH(target, options...)
}
