// Package config loads the chat client configuration from the environment.
package config

import (
	"net/url"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds the chat client settings. Command-line flags override the
// values read from the environment.
type Config struct {
	PageURL   string `env:"CHAT_PAGE_URL,default=http://localhost:8000" validate:"required,http_url"`
	Debug     bool   `env:"CHAT_DEBUG,default=false"`
	RoomID    string `env:"CHAT_ROOM_ID,default=1"`
	ChatPort  int    `env:"CHAT_PORT,default=8001" validate:"min=1,max=65535"`
	SessionID string `env:"CHAT_SESSION_ID"`
	LogLevel  string `env:"CHAT_LOG_LEVEL,default=warn" validate:"oneof=trace debug info warn error disabled"`
}

var validate = validator.New()

// Load reads .env files if present, then the environment.
func Load(files ...string) (Config, error) {
	// a missing .env is not an error
	_ = godotenv.Load(files...)

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config error")
	}
	return cfg, nil
}

// Validate checks field formats. The room id is opaque and not checked.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// Page returns the parsed page URL.
func (c Config) Page() (*url.URL, error) {
	u, err := url.Parse(c.PageURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid page url")
	}
	return u, nil
}

// Level returns the zerolog level of LogLevel.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}
