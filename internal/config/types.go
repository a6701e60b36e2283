package config

import (
	"log/slog"
	"time"
)

// Config represents the netdiscover configuration file
type Config struct {
	// Username used to log in to every device
	Username string `mapstructure:"username" json:"username" yaml:"username"`

	// Password for password and keyboard-interactive authentication
	Password string `mapstructure:"password" json:"password,omitempty" yaml:"password,omitempty"`

	// PrivateKeyFile is a PEM encoded SSH key, tried before the password
	PrivateKeyFile string `mapstructure:"private_key_file" json:"private_key_file,omitempty" yaml:"private_key_file,omitempty"`

	// Passphrase decrypts PrivateKeyFile
	Passphrase string `mapstructure:"passphrase" json:"passphrase,omitempty" yaml:"passphrase,omitempty"`

	// Port is the SSH port used when a device name carries none
	Port int `mapstructure:"port" json:"port,omitempty" yaml:"port,omitempty"`

	// ConnectTimeout bounds TCP dial and SSH handshake
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`

	// CommandTimeout bounds one whole session call
	CommandTimeout time.Duration `mapstructure:"command_timeout" json:"command_timeout,omitempty" yaml:"command_timeout,omitempty"`

	// DrainTimeout bounds the whole run; zero disables it
	DrainTimeout time.Duration `mapstructure:"drain_timeout" json:"drain_timeout,omitempty" yaml:"drain_timeout,omitempty"`
}

// LogValue implements slog.LogValuer; secrets are never logged
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", redact(c.Password)),
		slog.String("private_key_file", c.PrivateKeyFile),
		slog.Int("port", c.Port),
		slog.Duration("connect_timeout", c.ConnectTimeout),
		slog.Duration("command_timeout", c.CommandTimeout),
		slog.Duration("drain_timeout", c.DrainTimeout),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
