// Package config holds the settings of the HiAnime client and loads them from the environment
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL          = "https://hianime.to"
	DefaultKeyURL           = "https://raw.githubusercontent.com/enimax-anime/key/e6/key.txt"
	DefaultExtractorReferer = "https://rapid-cloud.ru/"
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0"
)

// Config is the runtime configuration of the scraper
type Config struct {
	// BaseURL is the site origin every relative link is resolved against
	BaseURL string `env:"HIANIME_BASE_URL" envDefault:"https://hianime.to"`
	// KeyURL serves the plaintext key used by the decrypting extractor
	KeyURL string `env:"HIANIME_KEY_URL" envDefault:"https://raw.githubusercontent.com/enimax-anime/key/e6/key.txt"`
	// ExtractorReferer is sent to the generic extractors
	ExtractorReferer string        `env:"HIANIME_EXTRACTOR_REFERER" envDefault:"https://rapid-cloud.ru/"`
	UserAgent        string        `env:"HIANIME_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0"`
	Timeout          time.Duration `env:"HIANIME_TIMEOUT" envDefault:"30s"`

	// SessionTTL and SessionSize bound the SID store of one playback
	SessionTTL  time.Duration `env:"HIANIME_SESSION_TTL" envDefault:"30m"`
	SessionSize int           `env:"HIANIME_SESSION_SIZE" envDefault:"256"`

	// SegmentWorkers is the number of concurrent segment downloads
	SegmentWorkers int  `env:"HIANIME_SEGMENT_WORKERS" envDefault:"8"`
	Debug          bool `env:"HIANIME_DEBUG" envDefault:"false"`
}

// Default returns the built-in configuration without reading the environment
func Default() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		KeyURL:           DefaultKeyURL,
		ExtractorReferer: DefaultExtractorReferer,
		UserAgent:        DefaultUserAgent,
		Timeout:          30 * time.Second,
		SessionTTL:       30 * time.Minute,
		SessionSize:      256,
		SegmentWorkers:   8,
	}
}

// Load reads the configuration from HIANIME_* environment variables
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that would make the client unusable
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL must not be empty")
	}
	if c.SessionSize <= 0 {
		return errors.Errorf("session size must be positive, got %d", c.SessionSize)
	}
	if c.SegmentWorkers <= 0 {
		return errors.Errorf("segment workers must be positive, got %d", c.SegmentWorkers)
	}
	return nil
}
