package ops

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "NCEXEC"

// Settings are read from the environment, e.g. NCEXEC_LOG_LEVEL.
type Settings struct {
	ConfigPath string        `envconfig:"CONFIG" default:""`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"0s"`
}

// LoadSettings reads the settings from the environment.
func LoadSettings() (*Settings, error) {
	settings := new(Settings)
	if err := envconfig.Process(EnvPrefix, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Level returns the configured log level.
func (s *Settings) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(s.LogLevel)
}
