package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/nicklasfrahm/ncexec/pkg/rexec"
)

var (
	// ServerTypes is a list of the supported transports.
	ServerTypes = []rexec.ServerType{rexec.ServerTypePlaintext, rexec.ServerTypeSSH}
)

// Config describes the hosts commands are executed on.
type Config struct {
	// Timeout is the default timeout of a command. It defaults
	// to one hour to allow for long-running provisioning steps.
	Timeout time.Duration `yaml:"timeout"`

	// Defaults is merged into every target. Fields that are
	// set on the target take precedence.
	Defaults Target `yaml:"defaults"`

	// Targets is a list of hosts. It stores both, connection
	// information and the placement of the sandbox.
	Targets []Target `yaml:"targets"`

	// SSHProxy describes the SSH connection configuration
	// for an SSH proxy, often also referred to as bastion
	// host or jumpbox.
	SSHProxy rexec.Config `yaml:"ssh-proxy"`
}

// Verify verifies the configuration file.
func (c *Config) Verify() error {
	if c == nil {
		return errors.New("configuration empty")
	}

	if len(c.Targets) == 0 {
		return errors.New("no targets specified")
	}

	names := make(map[string]bool, len(c.Targets))
	for i, target := range c.Targets {
		if target.Name == "" {
			return fmt.Errorf("target %d: name missing", i)
		}
		if names[target.Name] {
			return fmt.Errorf("target %s: duplicate name", target.Name)
		}
		names[target.Name] = true

		if target.Connection.Host == "" {
			return fmt.Errorf("target %s: host missing", target.Name)
		}

		known := false
		for _, serverType := range ServerTypes {
			if target.ServerType == serverType {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("target %s: unsupported server type %q", target.Name, target.ServerType)
		}
	}

	return nil
}

// applyDefaults merges the defaults into every target.
func (c *Config) applyDefaults() error {
	for i := 0; i < len(c.Targets); i++ {
		if err := mergo.Merge(&c.Targets[i], c.Defaults); err != nil {
			return fmt.Errorf("target %s: %w", c.Targets[i].Name, err)
		}
	}

	return nil
}

// LoadConfig sets up the configuration parser and loads
// the configuration file.
func LoadConfig(configFile string) (*Config, error) {
	configBytes, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	return ParseConfig(configBytes)
}

// ParseConfig parses a YAML configuration and applies the defaults.
func ParseConfig(configBytes []byte) (*Config, error) {
	config := new(Config)
	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return nil, err
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	return config, nil
}
