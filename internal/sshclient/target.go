package sshclient

import (
	"net"
	"strconv"
)

// Credential authenticates one login. Either Password or PrivateKey is set;
// with both, the key is offered first.
type Credential struct {
	Password   string
	PrivateKey []byte
	Passphrase string
}

func (c Credential) empty() bool {
	return c.Password == "" && len(c.PrivateKey) == 0
}

// Target is a host to collect from. Port 0 means Config.Port.
type Target struct {
	Host string
	Port int
	User string
	Auth Credential
}

func (t Target) Addr(defaultPort int) string {
	port := t.Port
	if port <= 0 {
		port = defaultPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}
