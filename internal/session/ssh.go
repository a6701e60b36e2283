package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/aryankumar/netdiscover/internal/util"
	"golang.org/x/crypto/ssh"
)

// Older IOS and JunOS releases only offer these key exchanges and ciphers,
// so they are appended to the modern defaults.
var (
	keyExchanges = []string{
		"curve25519-sha256",
		"curve25519-sha256@libssh.org",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group-exchange-sha256",
		"diffie-hellman-group-exchange-sha1",
		"diffie-hellman-group1-sha1",
	}

	ciphers = []string{
		"aes128-gcm@openssh.com",
		"aes256-gcm@openssh.com",
		"chacha20-poly1305@openssh.com",
		"aes128-ctr",
		"aes192-ctr",
		"aes256-ctr",
		"aes128-cbc",
		"3des-cbc",
	}
)

// SSHConfig holds configuration for the SSH client
type SSHConfig struct {
	// Port is used when the device identifier carries no port
	Port int

	// ConnectTimeout bounds TCP dial plus SSH handshake
	ConnectTimeout time.Duration

	// ClientVersion is sent as the SSH identification string
	ClientVersion string

	// HostKeyCallback verifies device host keys; nil accepts any key
	HostKeyCallback ssh.HostKeyCallback
}

// DefaultSSHConfig returns sensible defaults
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		Port:           22,
		ConnectTimeout: 10 * time.Second,
	}
}

// SSHClient runs commands over SSH exec channels
type SSHClient struct {
	cfg SSHConfig
}

// NewSSHClient creates a new SSH session client
func NewSSHClient(cfg SSHConfig) *SSHClient {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return &SSHClient{cfg: cfg}
}

// Run dials host, executes command and returns its combined output as lines.
// A non-zero exit status is not an error; network devices rarely set one
// and the banner is still wanted.
func (c *SSHClient) Run(ctx context.Context, host string, creds Credentials, command string) ([]string, error) {
	addr, err := util.HostAddress(host, c.cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrConnectionFailed, err)
	}

	config, err := c.clientConfig(creds)
	if err != nil {
		return nil, err
	}

	client, err := c.connect(ctx, addr, config)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	// Closing the client unblocks a session stuck on a dead device
	stop := context.AfterFunc(ctx, func() {
		client.Close()
	})
	defer stop()

	ContextTrace(ctx).connected(host)

	output, err := runCommand(client, command)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, contextError(ctxErr)
	}
	if err != nil {
		return nil, err
	}

	return SplitLines(output), nil
}

// connect establishes an SSH connection to addr
func (c *SSHClient) connect(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := &net.Dialer{
		Timeout: c.cfg.ConnectTimeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		return nil, fmt.Errorf("%w: failed to dial %s: %w", util.ErrConnectionFailed, addr, err)
	}

	// Handshake deadline; cleared once the client is up
	deadline := time.Now().Add(c.cfg.ConnectTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("%w: %w", util.ErrAuthFailed, err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: ssh handshake with %s: %w", util.ErrTimeout, addr, err)
		}
		return nil, fmt.Errorf("%w: failed to establish SSH connection: %w", util.ErrConnectionFailed, err)
	}

	conn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// clientConfig builds the ssh.ClientConfig for the pool-wide credentials
func (c *SSHClient) clientConfig(creds Credentials) (*ssh.ClientConfig, error) {
	if creds.Username == "" {
		return nil, fmt.Errorf("%w: username is required", util.ErrAuthFailed)
	}

	var auth []ssh.AuthMethod

	if len(creds.PrivateKey) > 0 {
		var (
			signer ssh.Signer
			err    error
		)
		if creds.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(creds.PrivateKey, []byte(creds.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(creds.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if creds.Password != "" {
		password := creds.Password
		auth = append(auth,
			ssh.Password(password),
			// Many network OSes only offer keyboard-interactive
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	if len(auth) == 0 {
		return nil, fmt.Errorf("%w: no password or private key configured", util.ErrAuthFailed)
	}

	config := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: c.cfg.HostKeyCallback,
		Timeout:         c.cfg.ConnectTimeout,
		ClientVersion:   c.cfg.ClientVersion,
	}
	config.KeyExchanges = keyExchanges
	config.Ciphers = ciphers

	return config, nil
}

// runCommand executes cmd on a fresh session and returns its output
func runCommand(client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: failed to create session: %w", util.ErrCommandFailed, err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(cmd)
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return string(output), nil
		}
		return "", fmt.Errorf("%w: %q: %w", util.ErrCommandFailed, cmd, err)
	}

	return string(output), nil
}

// contextError tags a context error with the matching sentinel
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", util.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", util.ErrCancelled, err)
}
