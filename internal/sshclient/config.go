package sshclient

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultTimeout is used when Config.Timeout is not positive.
const DefaultTimeout = 5 * time.Second

type Config struct {
	// Timeout bounds dialing plus the SSH handshake.
	Timeout time.Duration
	// CommandTimeout bounds each command run on an open session. Zero means
	// only the caller's context applies.
	CommandTimeout time.Duration
	Port           int

	// KnownHostsPath is the known_hosts file used to verify host keys.
	KnownHostsPath string
	// InsecureSkipHostKey disables host key verification entirely. It must be
	// requested explicitly and is logged on every dial.
	InsecureSkipHostKey bool
}

// LoadConfig reads the transport settings from the environment.
func LoadConfig() Config {
	timeout := DefaultTimeout
	if v := os.Getenv("SSH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	var cmdTimeout time.Duration
	if v := os.Getenv("SSH_COMMAND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cmdTimeout = time.Duration(n) * time.Second
		}
	}

	port := 22
	if v := os.Getenv("SSH_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			port = n
		}
	}

	knownHosts := os.Getenv("SSH_KNOWN_HOSTS")
	if knownHosts == "" {
		if home, err := os.UserHomeDir(); err == nil {
			knownHosts = filepath.Join(home, ".ssh", "known_hosts")
		}
	}

	insecure, _ := strconv.ParseBool(os.Getenv("SSH_INSECURE_SKIP_HOST_KEY"))

	return Config{
		Timeout:             timeout,
		CommandTimeout:      cmdTimeout,
		Port:                port,
		KnownHostsPath:      knownHosts,
		InsecureSkipHostKey: insecure,
	}
}
