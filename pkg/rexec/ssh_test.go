package rexec

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/nicklasfrahm/ncexec/pkg/ncat"
)

type sshResponse struct {
	output string
	stderr string
	status uint32
	delay  time.Duration
}

// startSSHServer starts an SSH server that answers exec requests
// from a script and serves SFTP on the local file system.
func startSSHServer(t *testing.T, responses map[string]sshResponse) *Config {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, p []byte) (*ssh.Permissions, error) {
			if c.User() == "ncexec" && string(p) == "secret" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				sconn, chans, reqs, err := ssh.NewServerConn(c, cfg)
				if err != nil {
					return
				}
				defer sconn.Close()
				go ssh.DiscardRequests(reqs)

				for newChan := range chans {
					if newChan.ChannelType() != "session" {
						newChan.Reject(ssh.UnknownChannelType, "only sessions are supported")
						continue
					}
					ch, chReqs, err := newChan.Accept()
					if err != nil {
						return
					}
					go serveSSHSession(ch, chReqs, responses)
				}
			}(conn)
		}
	}()

	return &Config{
		Host:        "127.0.0.1",
		Port:        ln.Addr().(*net.TCPAddr).Port,
		User:        "ncexec",
		Password:    "secret",
		Fingerprint: ssh.FingerprintSHA256(signer.PublicKey()),
	}
}

func serveSSHSession(ch ssh.Channel, reqs <-chan *ssh.Request, responses map[string]sshResponse) {
	defer ch.Close()

	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				req.Reply(false, nil)
				return
			}
			req.Reply(true, nil)

			resp, ok := responses[payload.Command]
			if !ok {
				resp = sshResponse{output: "command not found\n", status: 127}
			}
			time.Sleep(resp.delay)

			// Write both streams at once like a real process would.
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				io.WriteString(ch, resp.output)
			}()
			go func() {
				defer wg.Done()
				io.WriteString(ch.Stderr(), resp.stderr)
			}()
			wg.Wait()

			ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{resp.status}))
			return

		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				req.Reply(false, nil)
				continue
			}
			req.Reply(true, nil)

			server, err := sftp.NewServer(ch)
			if err != nil {
				return
			}
			server.Serve()
			return

		default:
			req.Reply(false, nil)
		}
	}
}

func connectSSH(t *testing.T, target *Config, options ...Option) *SSH {
	t.Helper()

	runner, err := NewSSH(target, options...)
	require.NoError(t, err)
	require.NoError(t, runner.Connect())
	t.Cleanup(func() { runner.Disconnect() })

	return runner
}

func TestSSHRun(t *testing.T) {
	target := startSSHServer(t, map[string]sshResponse{
		"echo hello": {output: "hello\n"},
	})
	runner := connectSSH(t, target)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	require.NoError(t, runner.Run(&Cmd{Cmd: "echo hello", Stdout: stdout, Stderr: stderr}))

	assert.Equal(t, "hello\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestSSHRunFailure(t *testing.T) {
	target := startSSHServer(t, map[string]sshResponse{
		"false": {output: "oops\n", status: 1},
	})
	runner := connectSSH(t, target)

	stderr := new(bytes.Buffer)
	err := runner.Run(&Cmd{Cmd: "false", Stderr: stderr})

	var cmdErr *ncat.RemoteCommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "oops\n", cmdErr.Output)
	assert.Equal(t, "oops\n", stderr.String())

	require.NoError(t, runner.Run(&Cmd{Cmd: "false", IgnoreError: true}))
}

func TestSSHRunCombinesOutput(t *testing.T) {
	stdout := strings.Repeat("out\n", 2000)
	stderr := strings.Repeat("err\n", 2000)
	target := startSSHServer(t, map[string]sshResponse{
		"noisy": {output: stdout, stderr: stderr},
	})
	runner := connectSSH(t, target)

	sink := new(bytes.Buffer)
	require.NoError(t, runner.Run(&Cmd{Cmd: "noisy", Stdout: sink}))

	assert.Equal(t, 4000, strings.Count(sink.String(), "\n"))
	assert.Len(t, sink.String(), len(stdout)+len(stderr))
}

func TestSSHRunFailureIncludesStderr(t *testing.T) {
	target := startSSHServer(t, map[string]sshResponse{
		"broken": {output: "partial\n", stderr: "fatal\n", status: 2},
	})
	runner := connectSSH(t, target)

	err := runner.Run(&Cmd{Cmd: "broken"})

	var cmdErr *ncat.RemoteCommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Contains(t, cmdErr.Output, "partial\n")
	assert.Contains(t, cmdErr.Output, "fatal\n")
}

func TestSSHRunWithEnv(t *testing.T) {
	target := startSSHServer(t, map[string]sshResponse{
		"env A='1' B='2' sh -c 'echo $A$B'": {output: "12\n"},
	})
	runner := connectSSH(t, target)

	stdout := new(bytes.Buffer)
	require.NoError(t, runner.Run(&Cmd{
		Cmd:    "echo $A$B",
		Env:    map[string]string{"B": "2", "A": "1"},
		Stdout: stdout,
	}))
	assert.Equal(t, "12\n", stdout.String())
}

func TestSSHRunTimeout(t *testing.T) {
	target := startSSHServer(t, map[string]sshResponse{
		"sleep 60": {delay: time.Second},
	})
	runner := connectSSH(t, target, WithTimeoutPolicy(ncat.TimeoutFail))

	start := time.Now()
	err := runner.Run(&Cmd{Cmd: "sleep 60", Timeout: 100 * time.Millisecond})

	var timeoutErr *ncat.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSSHFingerprintMismatch(t *testing.T) {
	target := startSSHServer(t, nil)
	target.Fingerprint = "SHA256:invalid"

	runner, err := NewSSH(target)
	require.NoError(t, err)

	err = runner.Connect()
	var connErr *ncat.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Contains(t, err.Error(), "fingerprint mismatch")
}

func TestSSHNoAuthMethod(t *testing.T) {
	runner, err := NewSSH(&Config{Host: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, 22, runner.Target.Port)
	assert.EqualError(t, runner.Connect(), "no authentication method specified")
}

func TestSSHPutFile(t *testing.T) {
	target := startSSHServer(t, nil)
	runner := connectSSH(t, target)

	dir := t.TempDir()
	source := filepath.Join(dir, "source.txt")
	dest := filepath.Join(dir, "nested", "dest.txt")
	content := "first \"quoted\" line\n$(not executed)\n"
	require.NoError(t, os.WriteFile(source, []byte(content), 0o644))

	require.NoError(t, runner.PutFile(source, dest))

	uploaded, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, string(uploaded))
}

func TestSSHNotConnected(t *testing.T) {
	runner, err := NewSSH(&Config{Host: "127.0.0.1", Password: "secret"})
	require.NoError(t, err)

	assert.ErrorIs(t, runner.Run(&Cmd{Cmd: "true"}), ErrNotConnected)
	assert.ErrorIs(t, runner.PutFile("a", "b"), ErrNotConnected)
	assert.NoError(t, runner.Disconnect())
}
