package rexec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/nicklasfrahm/ncexec/pkg/ncat"
)

// SSH is a runner that executes commands on a remote host via SSH.
type SSH struct {
	Logger         *zerolog.Logger
	Proxy          *Config
	Target         *Config
	Timeout        time.Duration
	CommandTimeout time.Duration
	TimeoutPolicy  ncat.TimeoutPolicy

	proxyClient  *ssh.Client
	targetClient *ssh.Client
}

// NewSSH returns a new SSH-based runner.
func NewSSH(target *Config, options ...Option) (*SSH, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	if target.Port == 0 {
		target.Port = 22
	}

	proxy := opts.SSHProxy
	if proxy != nil {
		if proxy.Port == 0 {
			proxy.Port = 22
		}
	}

	return &SSH{
		Logger:         opts.Logger,
		Proxy:          proxy,
		Target:         target,
		Timeout:        opts.Timeout,
		CommandTimeout: opts.CommandTimeout,
		TimeoutPolicy:  opts.TimeoutPolicy,
	}, nil
}

// NewClientConfig creates a new client config that is compatible with
// the `golang.org/x/crypto/ssh` package.
func (runner *SSH) NewClientConfig(config *Config) (*ssh.ClientConfig, error) {
	// Set default values.
	username := config.User
	if username == "" {
		username = "root"
	}

	// Load the private key. A key that is specified directly takes
	// precedence over a key file.
	key := config.Key
	if key == "" && config.KeyFile != "" {
		// Resolve the home directory if necessary.
		if config.KeyFile[0] == '~' {
			userInfo, err := user.Current()
			if err != nil {
				return nil, err
			}
			config.KeyFile = userInfo.HomeDir + config.KeyFile[1:]
		}

		keyBytes, err := os.ReadFile(config.KeyFile)
		if err != nil {
			return nil, err
		}
		key = string(keyBytes)
	}

	var authMethod ssh.AuthMethod
	if key != "" {
		// Use passphrase to decrypt the private key.
		if config.Passphrase != "" {
			signer, err := ssh.ParsePrivateKeyWithPassphrase([]byte(key), []byte(config.Passphrase))
			if err != nil {
				return nil, err
			}
			authMethod = ssh.PublicKeys(signer)
		} else {
			signer, err := ssh.ParsePrivateKey([]byte(key))
			if err != nil {
				return nil, err
			}
			authMethod = ssh.PublicKeys(signer)
		}
	} else if config.Password != "" {
		// Fall back to password authentication.
		authMethod = ssh.Password(config.Password)
		runner.Logger.Warn().Msg("Using password authentication is insecure!")
		runner.Logger.Warn().Msg("Please consider using public key authentication!")
	} else {
		return nil, errors.New("no authentication method specified")
	}

	var hostKeyCallback ssh.HostKeyCallback
	if config.Fingerprint != "" {
		// Configure host key verification.
		hostKeyCallback = func(hostname string, remote net.Addr, pubKey ssh.PublicKey) error {
			fingerprint := ssh.FingerprintSHA256(pubKey)
			if config.Fingerprint != fingerprint {
				return fmt.Errorf("fingerprint mismatch: server fingerprint: %s", fingerprint)
			}
			return nil
		}
	} else {
		runner.Logger.Warn().Msg("Skipping host key verification is insecure!")
		runner.Logger.Warn().Msg("This allows for person-in-the-middle attacks!")
		runner.Logger.Warn().Msg("Please consider using fingerprint verification!")
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	return &ssh.ClientConfig{
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: hostKeyCallback,
		User:            username,
		Timeout:         runner.Timeout,
	}, nil
}

// Connect establishes a connection to the SSH host.
func (runner *SSH) Connect() error {
	targetAddress := net.JoinHostPort(runner.Target.Host, fmt.Sprint(runner.Target.Port))
	targetConfig, err := runner.NewClientConfig(runner.Target)
	if err != nil {
		return err
	}

	if runner.Proxy != nil {
		proxyAddress := net.JoinHostPort(runner.Proxy.Host, fmt.Sprint(runner.Proxy.Port))
		proxyConfig, err := runner.NewClientConfig(runner.Proxy)
		if err != nil {
			return err
		}

		runner.proxyClient, err = ssh.Dial("tcp", proxyAddress, proxyConfig)
		if err != nil {
			return &ncat.ConnectionError{Address: proxyAddress, Err: err}
		}

		// Create a TCP connection to from the proxy host to the target.
		netConn, err := runner.proxyClient.Dial("tcp", targetAddress)
		if err != nil {
			return &ncat.ConnectionError{Address: targetAddress, Err: err}
		}

		targetConn, channel, req, err := ssh.NewClientConn(netConn, targetAddress, targetConfig)
		if err != nil {
			return &ncat.ConnectionError{Address: targetAddress, Err: err}
		}

		runner.targetClient = ssh.NewClient(targetConn, channel, req)
	} else {
		if runner.targetClient, err = ssh.Dial("tcp", targetAddress, targetConfig); err != nil {
			return &ncat.ConnectionError{Address: targetAddress, Err: err}
		}
	}

	return nil
}

// Run runs the command in a new SSH session. Standard output and
// standard error are combined to match the plaintext protocol.
func (runner *SSH) Run(cmd *Cmd) error {
	if runner.targetClient == nil {
		return ErrNotConnected
	}

	session, err := runner.targetClient.NewSession()
	if err != nil {
		return &ncat.TransportError{Op: "session", Err: err}
	}
	defer session.Close()

	// Both streams are copied by separate goroutines.
	output := &combinedWriter{}
	session.Stdout = output
	session.Stderr = output

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = runner.CommandTimeout
	}

	runner.Logger.Info().Str("cmd", cmd.Cmd).Msg("Sending command")
	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd.String())
	}()

	select {
	case err = <-done:
	case <-time.After(timeout):
		runner.Logger.Warn().Str("cmd", cmd.Cmd).Dur("timeout", timeout).Msg("Command timed out, killing session")
		session.Signal(ssh.SIGKILL)

		// The output buffer may still be written to, so it is not
		// part of the error.
		if runner.TimeoutPolicy == ncat.TimeoutFail {
			return &ncat.TimeoutError{Command: cmd.Cmd, Timeout: timeout}
		}
		return nil
	}

	out := output.String()
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return &ncat.TransportError{Op: "run", Err: err}
		}

		if cmd.Stderr != nil {
			if _, err := io.WriteString(cmd.Stderr, out); err != nil {
				return err
			}
		}
		if !cmd.IgnoreError {
			return &ncat.RemoteCommandError{Command: cmd.Cmd, Output: out}
		}
		return nil
	}

	if cmd.Stdout != nil {
		if _, err := io.WriteString(cmd.Stdout, out); err != nil {
			return err
		}
	}

	return nil
}

// combinedWriter collects standard output and standard error
// in a single buffer.
type combinedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *combinedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.Write(p)
}

func (w *combinedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.String()
}

// PutFile uploads the file via SFTP and creates missing parent
// directories of the destination.
func (runner *SSH) PutFile(sourcePath, destPath string) error {
	if runner.targetClient == nil {
		return ErrNotConnected
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	client, err := sftp.NewClient(runner.targetClient)
	if err != nil {
		return &ncat.TransportError{Op: "sftp", Err: err}
	}
	defer client.Close()

	if err := client.MkdirAll(path.Dir(destPath)); err != nil {
		return err
	}

	dest, err := client.Create(destPath)
	if err != nil {
		return err
	}

	runner.Logger.Info().Str("source", sourcePath).Str("dest", destPath).Msg("Uploading file")
	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return err
	}

	return dest.Close()
}

// Disconnect closes the SSH connections in reverse order to how they were opened.
func (runner *SSH) Disconnect() error {
	if runner.targetClient != nil {
		if err := runner.targetClient.Close(); err != nil {
			return err
		}
		runner.targetClient = nil
	}

	if runner.proxyClient != nil {
		if err := runner.proxyClient.Close(); err != nil {
			return err
		}
		runner.proxyClient = nil
	}

	return nil
}
