// Package session runs a single command on a network device.
//
// The Client interface is what the worker pool depends on. SSHClient is the
// production implementation; every Run dials its own connection, opens one
// session, and tears both down before returning.
package session

import (
	"context"
	"strings"
)

// DefaultCommand is the diagnostic command issued to every device
const DefaultCommand = "show version"

// Credentials are shared by every device in a run
type Credentials struct {
	Username string
	Password string

	// PrivateKey is a PEM encoded key, used in addition to Password when set
	PrivateKey []byte

	// Passphrase decrypts PrivateKey
	Passphrase string
}

// Client runs one command against one host and returns its output lines
type Client interface {
	Run(ctx context.Context, host string, creds Credentials, command string) ([]string, error)
}

// ClientFunc adapts a function to the Client interface
type ClientFunc func(ctx context.Context, host string, creds Credentials, command string) ([]string, error)

// Run calls f(ctx, host, creds, command)
func (f ClientFunc) Run(ctx context.Context, host string, creds Credentials, command string) ([]string, error) {
	return f(ctx, host, creds, command)
}

// SplitLines breaks raw command output into lines. Carriage returns are
// stripped and trailing blank lines dropped; output with no content yields nil.
func SplitLines(output string) []string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	lines := strings.Split(output, "\n")

	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}

	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end == 0 {
		return nil
	}
	return lines[:end]
}
