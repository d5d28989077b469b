package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/w3s-cli/w3s/internal/constants"
)

// Settings holds the environment-driven runtime settings.
type Settings struct {
	APIURL              string `env:"W3S_API_URL,default=https://api.web3.storage"`
	GatewayURL          string `env:"W3S_GATEWAY_URL,default=https://w3s.link/ipfs/"`
	PartSize            int64  `env:"W3S_PART_SIZE,default=10485760"`
	DownloadConcurrency int    `env:"W3S_DOWNLOAD_CONCURRENCY,default=4"`
	RetryMax            int    `env:"W3S_RETRY_MAX,default=5"`
	RateLimit           int64  `env:"W3S_RATE_LIMIT,default=0"` // bytes per second, 0 = unlimited
	LogLevel            string `env:"W3S_LOG_LEVEL,default=info"`
}

// DefaultSettings returns the settings used when the environment is empty.
func DefaultSettings() Settings {
	return Settings{
		APIURL:              constants.DefaultAPIURL,
		GatewayURL:          constants.DefaultGatewayURL,
		PartSize:            constants.DefaultPartSize,
		DownloadConcurrency: constants.DefaultDownloadConcurrency,
		RetryMax:            constants.DefaultRetryMax,
		LogLevel:            "info",
	}
}

// LoadSettings reads an optional .env file from dotenvPath (skipped when it
// does not exist) and then decodes the process environment.
func LoadSettings(dotenvPath string) (Settings, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	var s Settings
	if _, err := env.UnmarshalFromEnviron(&s); err != nil {
		return Settings{}, fmt.Errorf("config error: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s.normalized(), nil
}

// Validate checks the settings for values the transfer client cannot use.
func (s Settings) Validate() error {
	if s.APIURL == "" {
		return fmt.Errorf("config error: W3S_API_URL must not be empty")
	}
	if s.GatewayURL == "" {
		return fmt.Errorf("config error: W3S_GATEWAY_URL must not be empty")
	}
	if s.PartSize < constants.MinPartSize {
		return fmt.Errorf("config error: W3S_PART_SIZE must be at least %d, got %d", constants.MinPartSize, s.PartSize)
	}
	if s.DownloadConcurrency < 1 {
		return fmt.Errorf("config error: W3S_DOWNLOAD_CONCURRENCY must be positive, got %d", s.DownloadConcurrency)
	}
	if s.RetryMax < 0 {
		return fmt.Errorf("config error: W3S_RETRY_MAX must not be negative, got %d", s.RetryMax)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("config error: W3S_RATE_LIMIT must not be negative, got %d", s.RateLimit)
	}
	return nil
}

func (s Settings) normalized() Settings {
	s.APIURL = strings.TrimRight(s.APIURL, "/")
	if !strings.HasSuffix(s.GatewayURL, "/") {
		s.GatewayURL += "/"
	}
	return s
}
