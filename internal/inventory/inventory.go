package inventory

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tastythames/ssh-probe/internal/sshclient"
)

const (
	AuthPasswordEnv  = "password_env"
	AuthPasswordFile = "password_file"
	AuthKey          = "key"
)

type Inventory struct {
	Targets []Target `yaml:"targets"`
}

type Target struct {
	Name    string            `yaml:"name"`
	Address string            `yaml:"address"`
	Port    int               `yaml:"port"`
	Mode    string            `yaml:"mode"` // "ssh" or "local"
	Labels  map[string]string `yaml:"labels"`
	SSH     SSHConfig         `yaml:"ssh"`
}

type SSHConfig struct {
	User string     `yaml:"user"`
	Auth AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Mode          string `yaml:"mode"`
	PasswordEnv   string `yaml:"password_env"` // e.g. SSH_PASS_ECS1
	PasswordFile  string `yaml:"password_file"`
	KeyPath       string `yaml:"key_path"`
	PassphraseEnv string `yaml:"passphrase_env"`
}

func Load(path string) (*Inventory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(b, &inv); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	// normalize defaults
	for i := range inv.Targets {
		t := &inv.Targets[i]
		if t.Address == "" && t.Mode != "local" {
			return nil, fmt.Errorf("target %d (%q): address is required", i, t.Name)
		}
		if t.Name == "" {
			t.Name = t.Address
		}
		if t.Name == "" {
			t.Name = "localhost"
		}
		if t.Mode == "" {
			t.Mode = "ssh"
		}
		if t.Labels == nil {
			t.Labels = map[string]string{}
		}
		if t.SSH.User == "" {
			t.SSH.User = "root"
		}
		if t.SSH.Auth.Mode == "" {
			t.SSH.Auth.Mode = AuthPasswordEnv
		}
	}

	return &inv, nil
}

// Credential resolves the secret the auth block points at. Secrets are read
// at collection time and never stored in the inventory.
func (a AuthConfig) Credential() (sshclient.Credential, error) {
	switch a.Mode {
	case AuthPasswordEnv:
		if a.PasswordEnv == "" {
			return sshclient.Credential{}, fmt.Errorf("missing password_env in inventory")
		}
		pw := os.Getenv(a.PasswordEnv)
		if pw == "" {
			return sshclient.Credential{}, fmt.Errorf("empty env var: %s", a.PasswordEnv)
		}
		return sshclient.Credential{Password: pw}, nil

	case AuthPasswordFile:
		if a.PasswordFile == "" {
			return sshclient.Credential{}, fmt.Errorf("missing password_file in inventory")
		}
		b, err := os.ReadFile(a.PasswordFile)
		if err != nil {
			return sshclient.Credential{}, fmt.Errorf("read password file: %w", err)
		}
		pw := strings.TrimRight(string(b), "\r\n")
		if pw == "" {
			return sshclient.Credential{}, fmt.Errorf("empty password file: %s", a.PasswordFile)
		}
		return sshclient.Credential{Password: pw}, nil

	case AuthKey:
		if a.KeyPath == "" {
			return sshclient.Credential{}, fmt.Errorf("missing key_path in inventory")
		}
		key, err := os.ReadFile(a.KeyPath)
		if err != nil {
			return sshclient.Credential{}, fmt.Errorf("read private key: %w", err)
		}
		cred := sshclient.Credential{PrivateKey: key}
		if a.PassphraseEnv != "" {
			cred.Passphrase = os.Getenv(a.PassphraseEnv)
		}
		return cred, nil

	default:
		return sshclient.Credential{}, fmt.Errorf("unsupported auth mode: %s", a.Mode)
	}
}

// SSHTarget builds the transport target, resolving the credential.
func (t Target) SSHTarget() (sshclient.Target, error) {
	cred, err := t.SSH.Auth.Credential()
	if err != nil {
		return sshclient.Target{}, fmt.Errorf("target %s: %w", t.Name, err)
	}
	return sshclient.Target{
		Host: t.Address,
		Port: t.Port,
		User: t.SSH.User,
		Auth: cred,
	}, nil
}
