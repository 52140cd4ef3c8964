package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tastythames/ssh-probe/internal/cache"
	"github.com/tastythames/ssh-probe/internal/collector"
	"github.com/tastythames/ssh-probe/internal/metrics"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

type collectOptions struct {
	host          string
	user          string
	password      string
	keyPath       string
	passphraseEnv string
	runTimeout    time.Duration
}

func (o collectOptions) credential() (sshclient.Credential, error) {
	cred := sshclient.Credential{Password: o.password}
	if cred.Password == "" {
		cred.Password = os.Getenv("SSH_PASSWORD")
	}
	if o.keyPath != "" {
		key, err := os.ReadFile(o.keyPath)
		if err != nil {
			return cred, fmt.Errorf("read private key: %w", err)
		}
		cred.PrivateKey = key
		if o.passphraseEnv != "" {
			cred.Passphrase = os.Getenv(o.passphraseEnv)
		}
	}
	return cred, nil
}

func newCollectCmd(root *rootOptions) *cobra.Command {
	var o collectOptions

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect metrics from a single host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cred, err := o.credential()
			if err != nil {
				return err
			}

			cli, err := sshclient.New(root.sshConfig(cmd), root.log)
			if err != nil {
				return err
			}
			col := collector.New(collector.SSHDialer{Client: cli}, root.log)

			ctx, cancel := context.WithTimeout(cmd.Context(), o.runTimeout)
			defer cancel()

			rep, err := col.Collect(ctx, sshclient.Target{Host: o.host, User: o.user, Auth: cred})
			if err != nil {
				return err
			}

			metrics.WriteResult(cmd.OutOrStdout(), o.host, cache.Result{At: rep.StartedAt, Report: rep}, true)
			return emptyRunErr(rep)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.host, "host", "", "Host to collect from")
	f.StringVarP(&o.user, "user", "u", "root", "SSH user")
	f.StringVarP(&o.password, "password", "p", "", "SSH password (env SSH_PASSWORD)")
	f.StringVarP(&o.keyPath, "key", "i", "", "Private key file")
	f.StringVar(&o.passphraseEnv, "passphrase-env", "", "Env var holding the private key passphrase")
	f.DurationVar(&o.runTimeout, "run-timeout", 30*time.Second, "Upper bound for the whole run")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

// emptyRunErr fails a run that produced no metric line, so scripts can tell a
// dead sample from a degraded one. Partial reports still exit 0.
func emptyRunErr(rep *collector.Report) error {
	if len(rep.Lines()) > 0 {
		return nil
	}
	if err := rep.Err(); err != nil {
		return fmt.Errorf("no metrics collected from %s: %w", rep.Target, err)
	}
	return fmt.Errorf("no metrics collected from %s", rep.Target)
}
