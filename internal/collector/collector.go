package collector

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tastythames/ssh-probe/internal/parse"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

// Session runs commands over one established connection.
type Session interface {
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Dialer opens the session a run uses for all of its commands.
type Dialer interface {
	Dial(ctx context.Context, t sshclient.Target) (Session, error)
}

// SSHDialer adapts an sshclient.Client to Dialer.
type SSHDialer struct {
	Client *sshclient.Client
}

func (d SSHDialer) Dial(ctx context.Context, t sshclient.Target) (Session, error) {
	s, err := d.Client.Dial(ctx, t)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LocalDialer ignores the target and runs everything on this machine.
type LocalDialer struct{}

func (LocalDialer) Dial(context.Context, sshclient.Target) (Session, error) {
	return sshclient.NewLocalExecutor(), nil
}

// ResultSet maps a command line to its pre-filtered output for one run. A
// command that failed has no key at all.
type ResultSet map[string]string

type Collector struct {
	dialer   Dialer
	commands []sshclient.AllowedCommand
	log      *zap.Logger
}

func New(d Dialer, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		dialer:   d,
		commands: sshclient.Commands(),
		log:      log,
	}
}

// Collect runs the command set against t on a single session and parses the
// results. A failed dial is returned as *ConnectionError with a nil report.
// Failed commands do not fail the run: they are listed in
// Report.CommandErrors and their metrics are marked unavailable.
func (c *Collector) Collect(ctx context.Context, t sshclient.Target) (*Report, error) {
	start := time.Now()
	rep := &Report{
		RunID:     uuid.New(),
		Target:    t.Host,
		StartedAt: start,
	}
	log := c.log.With(zap.String("run_id", rep.RunID.String()), zap.String("target", t.Host))

	sess, err := c.dialer.Dial(ctx, t)
	if err != nil {
		log.Error("session failed", zap.Error(err))
		return nil, &ConnectionError{Target: t.Host, Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Debug("close session", zap.Error(err))
		}
	}()

	results := make(ResultSet, len(c.commands))
	for _, cmd := range c.commands {
		out, err := sess.Run(ctx, cmd.String())
		if err != nil {
			cerr := &CommandExecutionError{Command: cmd.String(), Err: err}
			rep.CommandErrors = append(rep.CommandErrors, cerr)
			log.Warn("command failed", zap.String("cmd", cmd.String()), zap.Error(err))
			continue
		}
		results[cmd.String()] = TruncateAtPID(out)
	}

	c.assemble(rep, results, log)
	rep.Duration = time.Since(start)

	log.Info("collected",
		zap.Duration("duration", rep.Duration),
		zap.String("cpu", rep.CPULoad.Status.String()),
		zap.String("mem", rep.MemUsage.Status.String()),
		zap.String("disk", rep.DiskStatus.Status.String()))
	return rep, nil
}

// assemble routes each command's output to its parser in command order and
// fills every field of rep.
func (c *Collector) assemble(rep *Report, results ResultSet, log *zap.Logger) {
	rep.CPULoad = unavailable(FieldCPULoad, nil)
	rep.MemUsage = unavailable(FieldMemUsage, nil)
	rep.DiskStatus = unavailable(FieldDiskStatus, nil)

	for _, cmd := range c.commands {
		out, ok := results[cmd.String()]
		if !ok {
			err := c.commandError(rep, cmd)
			switch cmd {
			case sshclient.CmdProcessSnapshot():
				rep.CPULoad.Err, rep.MemUsage.Err = err, err
			case sshclient.CmdDiskUsage():
				rep.DiskStatus.Err = err
			}
			continue
		}

		switch cmd {
		case sshclient.CmdProcessSnapshot():
			c.processFields(rep, out, log)
		case sshclient.CmdDiskUsage():
			c.diskField(rep, out, log)
		default:
			log.Warn("no parser for command", zap.Error(sshclient.ErrUnsupported(cmd)))
		}
	}
}

func (c *Collector) processFields(rep *Report, out string, log *zap.Logger) {
	sum, err := parse.ProcessSnapshot(out)
	if err != nil {
		log.Warn("process snapshot has no summary lines", zap.Error(err))
		rep.CPULoad.Err, rep.MemUsage.Err = err, err
		return
	}

	if sum.HasCPU() {
		rep.CPULoad = metricField(FieldCPULoad, sum.CPU, sum.CPUErr)
		rep.lines = append(rep.lines, sum.CPU)
	} else {
		rep.CPULoad.Err = &parse.ParseError{Field: "cpu", Err: parse.ErrNoSummary}
	}
	if sum.HasMemory() {
		rep.MemUsage = metricField(FieldMemUsage, sum.Memory, sum.MemoryErr)
		rep.lines = append(rep.lines, sum.Memory)
	} else {
		rep.MemUsage.Err = &parse.ParseError{Field: "memory", Err: parse.ErrNoSummary}
	}

	for _, ferr := range []error{sum.CPUErr, sum.MemoryErr} {
		if ferr != nil {
			log.Warn("summary line degraded", zap.Error(ferr))
		}
	}
}

func (c *Collector) diskField(rep *Report, out string, log *zap.Logger) {
	sum, err := parse.DiskTable(out)
	for _, rerr := range sum.RowErrors {
		log.Debug("disk row contributed 0", zap.Error(rerr))
	}
	if err != nil {
		log.Warn("disk table has no rows", zap.Error(err))
	}
	rep.DiskStatus = metricField(FieldDiskStatus, sum.String(), err)
	rep.lines = append(rep.lines, FieldDiskStatus+":"+sum.String())
}

func (c *Collector) commandError(rep *Report, cmd sshclient.AllowedCommand) error {
	var cerr *CommandExecutionError
	for _, e := range rep.CommandErrors {
		if errors.As(e, &cerr) && cerr.Command == cmd.String() {
			return cerr
		}
	}
	return &CommandExecutionError{Command: cmd.String(), Err: errors.New("no result")}
}

func metricField(name, value string, err error) Field {
	if err != nil {
		return Field{Name: name, Value: value, Status: StatusDegraded, Err: err}
	}
	return Field{Name: name, Value: value, Status: StatusOK}
}
