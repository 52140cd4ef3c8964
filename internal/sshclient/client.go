package sshclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type Client struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.InsecureSkipHostKey && cfg.KnownHostsPath == "" {
		return nil, fmt.Errorf("no known_hosts file configured and host key checking is enabled")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg, log: log}, nil
}

// Session is one authenticated SSH connection. Every Run opens its own exec
// channel on it. Close releases the connection and must always be called.
type Session struct {
	addr    string
	client  *ssh.Client
	timeout time.Duration
	log     *zap.Logger
}

// Dial connects and authenticates to t. The handshake is bounded by ctx and
// Config.Timeout; once established the connection has no deadline.
func (c *Client) Dial(ctx context.Context, t Target) (*Session, error) {
	if t.User == "" {
		return nil, fmt.Errorf("ssh user is empty")
	}
	if t.Auth.empty() {
		return nil, fmt.Errorf("ssh credential is empty")
	}

	addr := t.Addr(c.cfg.Port)

	hk, err := c.hostKeyCallback(addr)
	if err != nil {
		return nil, err
	}
	auth, err := authMethods(t.Auth)
	if err != nil {
		return nil, err
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.User,
		HostKeyCallback: hk,
		Timeout:         c.cfg.Timeout,
		Auth:            auth,
	}

	// Dial with context so it won't hang forever.
	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// ssh handshake can hang without a deadline on the raw conn.
	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	cconn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return &Session{
		addr:    addr,
		client:  ssh.NewClient(cconn, chans, reqs),
		timeout: c.cfg.CommandTimeout,
		log:     c.log,
	}, nil
}

// Execute dials t, runs one command and closes the connection.
func (c *Client) Execute(ctx context.Context, t Target, cmd string) (string, error) {
	s, err := c.Dial(ctx, t)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Run(ctx, cmd)
}

func (c *Client) hostKeyCallback(addr string) (ssh.HostKeyCallback, error) {
	if c.cfg.InsecureSkipHostKey {
		c.log.Warn("host key verification disabled", zap.String("addr", addr))
		return ssh.InsecureIgnoreHostKey(), nil
	}
	hk, err := knownhosts.New(c.cfg.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}
	return hk, nil
}

func authMethods(cred Credential) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if len(cred.PrivateKey) > 0 {
		var (
			signer ssh.Signer
			err    error
		)
		if cred.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(cred.PrivateKey, []byte(cred.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(cred.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if cred.Password != "" {
		password := cred.Password
		methods = append(methods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_user, _instruction string, questions []string, _echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	return methods, nil
}

// Run executes cmd on a fresh exec channel and returns its standard output.
// A non-zero exit status that still produced output is not an error: df
// exits 1 when a single mount is unreadable but the table is still usable.
func (s *Session) Run(ctx context.Context, cmd string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return "", err
	}
	defer sess.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)

	go func() {
		out, err := sess.Output(cmd)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		// Best-effort terminate session.
		_ = sess.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case r := <-done:
		var exitErr *ssh.ExitError
		if errors.As(r.err, &exitErr) && len(r.out) > 0 {
			s.log.Debug("command exited non-zero",
				zap.String("addr", s.addr),
				zap.String("cmd", cmd),
				zap.Int("status", exitErr.ExitStatus()))
			return string(r.out), nil
		}
		if r.err != nil {
			return string(r.out), r.err
		}
		return string(r.out), nil
	}
}

func (s *Session) Close() error {
	return s.client.Close()
}
