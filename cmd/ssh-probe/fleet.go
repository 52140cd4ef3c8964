package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tastythames/ssh-probe/internal/cache"
	"github.com/tastythames/ssh-probe/internal/collector"
	"github.com/tastythames/ssh-probe/internal/inventory"
	"github.com/tastythames/ssh-probe/internal/metrics"
	"github.com/tastythames/ssh-probe/internal/scheduler"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

type fleetOptions struct {
	inventory  string
	workers    int
	interval   time.Duration
	jitter     time.Duration
	runTimeout time.Duration
	fields     bool
}

func newFleetCmd(root *rootOptions) *cobra.Command {
	var o fleetOptions

	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Collect from every host of an inventory, concurrently",
		Long: `fleet loads a YAML inventory and collects from each target on a worker
pool. Without --interval it collects once and prints the results; with it,
it keeps collecting and prints the latest results every interval until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := root.log
			log.Info("config", zap.String("inventory", o.inventory), zap.Int("workers", o.workers))

			inv, err := inventory.Load(o.inventory)
			if err != nil {
				return err
			}
			jobs := scheduler.JobsFromInventory(inv)

			cli, err := sshclient.New(root.sshConfig(cmd), log)
			if err != nil {
				return err
			}

			c := cache.NewMemCache()
			jobCh := make(chan scheduler.Job, 100)
			wg := scheduler.StartPool(o.workers, jobCh, scheduler.WorkerDeps{
				Remote:  collector.New(collector.SSHDialer{Client: cli}, log),
				Local:   collector.New(collector.LocalDialer{}, log),
				Cache:   c,
				Timeout: o.runTimeout,
				Log:     log,
			})

			r := metrics.NewRenderer(c)
			r.Fields = o.fields

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := scheduler.NewScheduler(scheduler.Options{
				Interval: o.interval,
				Jitter:   o.jitter,
				JobCh:    jobCh,
				Log:      log,
			})

			if o.interval <= 0 {
				sched.Once(ctx, jobs)
				close(jobCh)
				wg.Wait()
				r.Write(cmd.OutOrStdout())
				return nil
			}

			schedDone := make(chan struct{})
			go func() {
				defer close(schedDone)
				sched.Run(ctx, jobs)
			}()
			watch(ctx, o.interval, func() { r.Write(cmd.OutOrStdout()) })

			log.Info("shutdown...")
			<-schedDone
			close(jobCh)
			wg.Wait()
			enq, dropped := sched.Stats()
			log.Info("stopped", zap.Uint64("enqueued", enq), zap.Uint64("dropped", dropped))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.inventory, "inventory", getenv("INVENTORY_FILE", "deploy/targets.example.yaml"), "Inventory YAML (env INVENTORY_FILE)")
	f.IntVarP(&o.workers, "workers", "w", 5, "Concurrent hosts")
	f.DurationVar(&o.interval, "interval", 0, "Repeat every interval; 0 collects once")
	f.DurationVar(&o.jitter, "jitter", 2*time.Second, "Random delay added to each cycle")
	f.DurationVar(&o.runTimeout, "run-timeout", 30*time.Second, "Upper bound for one host's run")
	f.BoolVar(&o.fields, "fields", false, "Print the named fields under each report")

	return cmd
}

// watch calls render every interval until ctx is done.
func watch(ctx context.Context, interval time.Duration, render func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			render()
		}
	}
}
