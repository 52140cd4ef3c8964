package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tastythames/ssh-probe/internal/logging"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

func getenv(k, fb string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fb
}

type rootOptions struct {
	logLevel  string
	logFormat string

	port                int
	timeout             time.Duration
	commandTimeout      time.Duration
	knownHosts          string
	insecureSkipHostKey bool

	log *zap.Logger
}

// sshConfig starts from the environment and applies any flag the user set.
func (o *rootOptions) sshConfig(cmd *cobra.Command) sshclient.Config {
	cfg := sshclient.LoadConfig()
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("command-timeout") {
		cfg.CommandTimeout = o.commandTimeout
	}
	if flags.Changed("known-hosts") {
		cfg.KnownHostsPath = o.knownHosts
	}
	if flags.Changed("insecure-skip-host-key") {
		cfg.InsecureSkipHostKey = o.insecureSkipHostKey
	}
	return cfg
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ssh-probe",
		Short: "Agentless CPU, memory and disk sampling over SSH",
		Long: `ssh-probe logs into hosts over SSH, runs "top -b -n 1" and "df -hl",
and reduces their output to three metrics: CPU user load, memory usage and
total/used/free disk in gigabytes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", getenv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", getenv("LOG_FORMAT", "console"), "Log format (console, json)")
	pf.IntVar(&opts.port, "port", 22, "Default SSH port (env SSH_PORT)")
	pf.DurationVar(&opts.timeout, "timeout", 5*time.Second, "Dial and handshake timeout, 0 for the default (env SSH_TIMEOUT_SECONDS)")
	pf.DurationVar(&opts.commandTimeout, "command-timeout", 0, "Per-command timeout, 0 for none (env SSH_COMMAND_TIMEOUT_SECONDS)")
	pf.StringVar(&opts.knownHosts, "known-hosts", "", "known_hosts file (env SSH_KNOWN_HOSTS, default ~/.ssh/known_hosts)")
	pf.BoolVar(&opts.insecureSkipHostKey, "insecure-skip-host-key", false,
		"Do not verify host keys (env SSH_INSECURE_SKIP_HOST_KEY). Only for lab networks.")

	root.AddCommand(newCollectCmd(opts), newLocalCmd(opts), newFleetCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
