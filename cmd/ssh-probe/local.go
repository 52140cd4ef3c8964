package main

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tastythames/ssh-probe/internal/cache"
	"github.com/tastythames/ssh-probe/internal/collector"
	"github.com/tastythames/ssh-probe/internal/metrics"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

func newLocalCmd(root *rootOptions) *cobra.Command {
	var runTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run the same collection against this machine, without SSH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := "localhost"
			labels := map[string]string{}
			if info, err := host.Info(); err == nil {
				name = info.Hostname
				labels["platform"] = info.Platform
				labels["os"] = info.OS
			} else {
				root.log.Debug("host info", zap.Error(err))
			}

			col := collector.New(collector.LocalDialer{}, root.log)

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			rep, err := col.Collect(ctx, sshclient.Target{Host: name})
			if err != nil {
				return err
			}

			metrics.WriteResult(cmd.OutOrStdout(), name, cache.Result{At: rep.StartedAt, Labels: labels, Report: rep}, true)
			return emptyRunErr(rep)
		},
	}
	cmd.Flags().DurationVar(&runTimeout, "run-timeout", 30*time.Second, "Upper bound for the whole run")
	return cmd
}
