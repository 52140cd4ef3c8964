package collector

import (
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LineSeparator joins report lines, the native one for this host.
var LineSeparator = nativeLineSeparator()

func nativeLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

const (
	FieldCPULoad    = "CPU_Load"
	FieldMemUsage   = "Mem_Usage"
	FieldDiskStatus = "Disk_Status"

	// Unavailable is the value of a field whose source command did not run
	// or whose summary line was never printed.
	Unavailable = "Unavailable"
)

type Status int

const (
	StatusOK Status = iota
	// StatusDegraded: the line was found but parsed with a soft error; Value
	// holds a sentinel or partial result.
	StatusDegraded
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type Field struct {
	Name   string
	Value  string
	Status Status
	Err    error
}

func (f Field) Available() bool { return f.Status != StatusUnavailable }

func unavailable(name string, err error) Field {
	return Field{Name: name, Value: Unavailable, Status: StatusUnavailable, Err: err}
}

// Report is the result of one collection run. Every run builds a new Report;
// nothing carries over between runs.
type Report struct {
	RunID     uuid.UUID
	Target    string
	StartedAt time.Time
	Duration  time.Duration

	CPULoad    Field
	MemUsage   Field
	DiskStatus Field

	// CommandErrors holds one *CommandExecutionError per failed command.
	CommandErrors []error

	lines []string
}

// Lines returns one line per metric whose command produced output.
func (r *Report) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// String is the combined report, lines joined by LineSeparator.
func (r *Report) String() string {
	return strings.Join(r.lines, LineSeparator)
}

// Fields returns the three named metrics in report order.
func (r *Report) Fields() []Field {
	return []Field{r.CPULoad, r.MemUsage, r.DiskStatus}
}

// Err joins the command failures of the run, nil when every command ran.
func (r *Report) Err() error {
	return errors.Join(r.CommandErrors...)
}
