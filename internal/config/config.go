package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aryankumar/netdiscover/internal/session"
	"github.com/aryankumar/netdiscover/internal/util"
)

const (
	// EnvConfigFile names the configuration file when --config is not given
	EnvConfigFile = "NETDISCOVER_CONFIG_FILE"

	// EnvPrefix is prepended to every key for environment overrides
	EnvPrefix = "NETDISCOVER"

	defaultConfigDir  = ".config/netdiscover"
	defaultConfigFile = "config.json"

	defaultPort           = 22
	defaultConnectTimeout = 10 * time.Second
	defaultCommandTimeout = 30 * time.Second
)

var keys = []string{
	"username",
	"password",
	"private_key_file",
	"passphrase",
	"port",
	"connect_timeout",
	"command_timeout",
	"drain_timeout",
}

// Manager handles netdiscover configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager. configPath is the value
// of --config and may be empty.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
}

// ResolvePath picks the configuration file location.
// It checks sources in the following order:
// 1. Explicit path (--config flag)
// 2. NETDISCOVER_CONFIG_FILE environment variable
// 3. Default ~/.config/netdiscover/config.json
func ResolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return expandPath(explicitPath)
	}

	if envPath := strings.TrimSpace(os.Getenv(EnvConfigFile)); envPath != "" {
		return expandPath(envPath)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigDir, defaultConfigFile), nil
}

// Load reads, validates and returns the configuration. Every failure is a
// *util.ConfigError.
func (m *Manager) Load() (*Config, error) {
	path, err := ResolvePath(m.configPath)
	if err != nil {
		return nil, util.NewConfigError(err)
	}
	m.configPath = path

	m.viper.SetConfigFile(path)
	m.viper.SetConfigType("json")

	// Set environment variable support
	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	m.viper.AutomaticEnv()
	for _, key := range keys {
		if err := m.viper.BindEnv(key); err != nil {
			return nil, util.NewConfigError(err)
		}
	}

	if err := m.viper.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, util.NewConfigError(fmt.Errorf("config file %s not found", path))
		}
		return nil, util.NewConfigError(fmt.Errorf("unable to parse configuration file %s: %w", path, err))
	}

	m.config = &Config{}
	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, util.NewConfigError(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, util.NewConfigError(err)
	}

	return m.config, nil
}

// Path returns the configuration file location; resolved after Load
func (m *Manager) Path() string {
	return m.configPath
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// applyDefaults sets default values for configuration
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	if m.config.Port == 0 {
		m.config.Port = defaultPort
	}
	if m.config.ConnectTimeout == 0 {
		m.config.ConnectTimeout = defaultConnectTimeout
	}
	if m.config.CommandTimeout == 0 {
		m.config.CommandTimeout = defaultCommandTimeout
	}
	if m.config.PrivateKeyFile != "" {
		if expanded, err := expandPath(m.config.PrivateKeyFile); err == nil {
			m.config.PrivateKeyFile = expanded
		}
	}
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs util.MultiError

	if strings.TrimSpace(c.Username) == "" {
		errs.Add(errors.New("username is required"))
	}
	if c.Password == "" && c.PrivateKeyFile == "" {
		errs.Add(errors.New("password or private_key_file is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs.Add(fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ConnectTimeout < 0 {
		errs.Add(errors.New("connect_timeout must not be negative"))
	}
	if c.CommandTimeout < 0 {
		errs.Add(errors.New("command_timeout must not be negative"))
	}
	if c.DrainTimeout < 0 {
		errs.Add(errors.New("drain_timeout must not be negative"))
	}

	return errs.ErrorOrNil()
}

// Credentials builds the session credentials, reading the private key
// file when one is configured
func (c *Config) Credentials() (session.Credentials, error) {
	creds := session.Credentials{
		Username:   c.Username,
		Password:   c.Password,
		Passphrase: c.Passphrase,
	}

	if c.PrivateKeyFile != "" {
		key, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return session.Credentials{}, util.NewConfigError(util.WrapErrorf(err, "failed to read private_key_file %s", c.PrivateKeyFile))
		}
		creds.PrivateKey = key
	}

	return creds, nil
}

// SSHConfig returns the transport settings for the SSH client
func (c *Config) SSHConfig() session.SSHConfig {
	cfg := session.DefaultSSHConfig()
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.ConnectTimeout != 0 {
		cfg.ConnectTimeout = c.ConnectTimeout
	}
	return cfg
}

// expandPath expands ~ to home directory and evaluates environment variables
func expandPath(path string) (string, error) {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Clean(path), nil
}
