package util

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const Name = "deckhand"
const ConfigFileName = "config.yaml"
const EnvPrefix = "DECKHAND_"

// Bounds for the activity log ring buffer.
const (
	MinLogCapacity = 50
	MaxLogCapacity = 100
)

const DefaultNotifyTimeout = 2 * time.Second

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host          string        `yaml:"host" env:"HOST"`
		SshPort       int           `yaml:"sshPort" env:"SSHPORT"`
		HttpPort      int           `yaml:"httpPort" env:"HTTPPORT"`
		AdvertiseAddr string        `yaml:"advertiseAddr" env:"ADVERTISE_ADDR"`
		DbDriver      string        `yaml:"dbDriver" env:"DB_DRIVER"`
		DbPath        string        `yaml:"dbPath" env:"DB_PATH"`
		WithJournald  bool          `yaml:"withJournald" env:"WITH_JOURNALD"`
		LogCapacity   int           `yaml:"logCapacity" env:"LOG_CAPACITY"`
		NotifyTimeout time.Duration `yaml:"notifyTimeout" env:"NOTIFY_TIMEOUT"`
		AlertsEnabled bool          `yaml:"alertsEnabled" env:"ALERTS_ENABLED"`
		PushURL       string        `yaml:"pushURL" env:"PUSH_URL"`
		PushToken     string        `yaml:"pushToken" env:"PUSH_TOKEN"`
		PushRate      float64       `yaml:"pushRate" env:"PUSH_RATE"`
		OpenAIAPIKey  string        `yaml:"openaiAPIKey" env:"OPENAI_API_KEY"`
		OpenAIModel   string        `yaml:"openaiModel" env:"OPENAI_MODEL"`
		OpenAIBaseURL string        `yaml:"openaiBaseURL" env:"OPENAI_BASE_URL"`
		AllowedKeys   []string      `yaml:"allowedKeys" env:"ALLOWED_KEYS" envSeparator:";"`
	}
}

// AdvertisedAddr is the host:port peers dial to reach this node's data channel.
func (c *AppConfig) AdvertisedAddr() string {
	if c.Conf.AdvertiseAddr != "" {
		return c.Conf.AdvertiseAddr
	}
	return fmt.Sprintf("%s:%d", c.Conf.Host, c.Conf.HttpPort)
}

func ReadConf() (*AppConfig, error) {
	configPath := ResolveFilePath(ConfigFileName)

	buf, err := os.ReadFile(configPath)
	if err != nil {
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := filepath.Join(configDir, ConfigFileName)
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	return parseConf(buf)
}

// parseConf decodes yaml, applies the DECKHAND_* environment overlay and
// normalizes out-of-range values.
func parseConf(buf []byte) (*AppConfig, error) {
	c := &AppConfig{}

	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	if err := env.ParseWithOptions(&c.Conf, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("in environment: %w", err)
	}

	c.normalize()
	return c, nil
}

func (c *AppConfig) normalize() {
	if c.Conf.LogCapacity == 0 {
		c.Conf.LogCapacity = MinLogCapacity
	} else if c.Conf.LogCapacity > MaxLogCapacity {
		log.Printf("logCapacity value %d exceeds maximum of %d, capping at %d", c.Conf.LogCapacity, MaxLogCapacity, MaxLogCapacity)
		c.Conf.LogCapacity = MaxLogCapacity
	} else if c.Conf.LogCapacity < MinLogCapacity {
		log.Printf("logCapacity value %d is less than minimum of %d, raising to %d", c.Conf.LogCapacity, MinLogCapacity, MinLogCapacity)
		c.Conf.LogCapacity = MinLogCapacity
	}

	if c.Conf.NotifyTimeout <= 0 {
		c.Conf.NotifyTimeout = DefaultNotifyTimeout
	}

	if c.Conf.DbDriver == "" {
		c.Conf.DbDriver = "sqlite"
	}
	if c.Conf.DbPath == "" {
		c.Conf.DbPath = "database.db"
	}
	if c.Conf.OpenAIModel == "" {
		c.Conf.OpenAIModel = "gpt-4o-mini"
	}
	if c.Conf.PushRate <= 0 {
		c.Conf.PushRate = 1
	}
}

// GetConfigDir returns ~/.config/deckhand, creating it when missing.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ResolveFilePath prefers a file in the working directory and falls back to
// the user config directory.
func ResolveFilePath(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	dir, err := GetConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}
