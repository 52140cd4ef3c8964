package collector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tastythames/ssh-probe/internal/parse"
	"github.com/tastythames/ssh-probe/internal/sshclient"
)

const topOutput = `top - 10:02:11 up 41 days,  3:12,  2 users,  load average: 0.08, 0.05, 0.01
Tasks: 187 total,   1 running, 186 sleeping,   0 stopped,   0 zombie
Cpu(s): 10.8%us,  0.9%sy,  0.0%ni, 87.6%id,  0.7%wa,  0.0%hi,  0.0%si,  0.0%st
Mem:   3924688k total,  1690092k used,  2234596k free,   181212k buffers
Swap:  4194296k total,        0k used,  4194296k free,   901328k cached

  PID USER      PR  NI  VIRT  RES  SHR S %CPU %MEM    TIME+  COMMAND
    1 root      20   0 19364 1536 1228 S  0.0  0.0   0:01.80 init
Mem: 1k total, 1k used, 0k free, 0k buffers
`

const dfOutput = `Filesystem            Size  Used Avail Use% Mounted on
/dev/sda3             442G  327G   93G  78% /
/dev/sda1             788M   60M  689M   8% /boot
`

type fakeSession struct {
	outputs map[string]string
	fail    map[string]error

	mu     sync.Mutex
	ran    []string
	closed bool
}

func (s *fakeSession) Run(_ context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran = append(s.ran, cmd)
	if err, ok := s.fail[cmd]; ok {
		return "", err
	}
	return s.outputs[cmd], nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeDialer struct {
	sess  *fakeSession
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context, sshclient.Target) (Session, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.sess, nil
}

func newFake() *fakeSession {
	return &fakeSession{
		outputs: map[string]string{
			sshclient.CmdProcessSnapshot().String(): topOutput,
			sshclient.CmdDiskUsage().String():       dfOutput,
		},
		fail: map[string]error{},
	}
}

var target = sshclient.Target{Host: "10.0.0.5", User: "root", Auth: sshclient.Credential{Password: "x"}}

func TestCollect(t *testing.T) {
	sess := newFake()
	d := &fakeDialer{sess: sess}

	rep, err := New(d, nil).Collect(context.Background(), target)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if d.dials != 1 {
		t.Errorf("dials = %d; want 1 session per run", d.dials)
	}
	if !sess.closed {
		t.Error("session not closed")
	}
	wantOrder := []string{"top -b -n 1", "df -hl"}
	if strings.Join(sess.ran, "|") != strings.Join(wantOrder, "|") {
		t.Errorf("ran %v; want %v", sess.ran, wantOrder)
	}

	if rep.CPULoad.Value != "CPU_User_Usage:10.8%" || rep.CPULoad.Status != StatusOK {
		t.Errorf("CPULoad = %+v", rep.CPULoad)
	}
	// The second Mem line sits below the PID header and must be ignored.
	if rep.MemUsage.Value != "Memory_Usage:3924688kTotal.1690092kUsed.2234596kFree.181212kBuffers." {
		t.Errorf("MemUsage = %+v", rep.MemUsage)
	}
	if rep.DiskStatus.Value != "442GTotal.327GUsed.115GFree" {
		t.Errorf("DiskStatus = %+v", rep.DiskStatus)
	}

	want := strings.Join([]string{
		"CPU_User_Usage:10.8%",
		"Memory_Usage:3924688kTotal.1690092kUsed.2234596kFree.181212kBuffers.",
		"Disk_Status:442GTotal.327GUsed.115GFree",
	}, LineSeparator)
	if rep.String() != want {
		t.Errorf("String() =\n%q\nwant\n%q", rep.String(), want)
	}
	if rep.Err() != nil {
		t.Errorf("Err() = %v", rep.Err())
	}
	if rep.Target != "10.0.0.5" {
		t.Errorf("Target = %q", rep.Target)
	}
}

func TestCollect_DiskCommandFails(t *testing.T) {
	sess := newFake()
	boom := errors.New("channel closed")
	sess.fail["df -hl"] = boom

	rep, err := New(&fakeDialer{sess: sess}, nil).Collect(context.Background(), target)
	if err != nil {
		t.Fatalf("a failed command must not fail the run: %v", err)
	}
	if !rep.CPULoad.Available() || rep.CPULoad.Value == "" {
		t.Errorf("CPULoad = %+v", rep.CPULoad)
	}
	if !rep.MemUsage.Available() || rep.MemUsage.Value == "" {
		t.Errorf("MemUsage = %+v", rep.MemUsage)
	}
	if rep.DiskStatus.Available() || rep.DiskStatus.Value != Unavailable {
		t.Errorf("DiskStatus = %+v; want unavailable", rep.DiskStatus)
	}

	var cerr *CommandExecutionError
	if !errors.As(rep.DiskStatus.Err, &cerr) || cerr.Command != "df -hl" {
		t.Errorf("DiskStatus.Err = %v; want *CommandExecutionError for df", rep.DiskStatus.Err)
	}
	if !errors.Is(rep.Err(), boom) {
		t.Errorf("Err() = %v; want it to wrap %v", rep.Err(), boom)
	}
	if len(rep.Lines()) != 2 {
		t.Errorf("Lines() = %v; want cpu and memory only", rep.Lines())
	}
	if !sess.closed {
		t.Error("session not closed")
	}
}

func TestCollect_ProcessCommandFails(t *testing.T) {
	sess := newFake()
	sess.fail["top -b -n 1"] = errors.New("exit 127")

	rep, err := New(&fakeDialer{sess: sess}, nil).Collect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if rep.CPULoad.Available() || rep.MemUsage.Available() {
		t.Errorf("cpu/mem should be unavailable: %+v %+v", rep.CPULoad, rep.MemUsage)
	}
	if rep.DiskStatus.Status != StatusOK {
		t.Errorf("DiskStatus = %+v", rep.DiskStatus)
	}
	if got := rep.Lines(); len(got) != 1 || got[0] != "Disk_Status:442GTotal.327GUsed.115GFree" {
		t.Errorf("Lines() = %v", got)
	}
}

func TestCollect_ConnectionError(t *testing.T) {
	d := &fakeDialer{err: errors.New("auth failed")}

	rep, err := New(d, nil).Collect(context.Background(), target)
	if rep != nil {
		t.Errorf("report = %+v; want nil on connection failure", rep)
	}
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v; want *ConnectionError", err)
	}
	if cerr.Target != "10.0.0.5" {
		t.Errorf("Target = %q", cerr.Target)
	}
}

func TestCollect_NoSummaryIsSoft(t *testing.T) {
	sess := newFake()
	sess.outputs["top -b -n 1"] = "Tasks: 1 total\n"

	rep, err := New(&fakeDialer{sess: sess}, nil).Collect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if rep.CPULoad.Available() || rep.MemUsage.Available() {
		t.Errorf("cpu/mem should be unavailable")
	}
	if !errors.Is(rep.CPULoad.Err, parse.ErrNoSummary) {
		t.Errorf("CPULoad.Err = %v; want ErrNoSummary", rep.CPULoad.Err)
	}
	if rep.Err() != nil {
		t.Errorf("parse failures are not command failures: %v", rep.Err())
	}
	if len(rep.Lines()) != 1 {
		t.Errorf("Lines() = %v", rep.Lines())
	}
}

func TestCollect_MalformedLinesDegrade(t *testing.T) {
	sess := newFake()
	sess.outputs["top -b -n 1"] = "Cpu(s):\nMem: 1k total, 1k used\n"

	rep, err := New(&fakeDialer{sess: sess}, nil).Collect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if rep.CPULoad.Status != StatusDegraded || rep.CPULoad.Value != "CPU_User_Usage: Process Error! " {
		t.Errorf("CPULoad = %+v", rep.CPULoad)
	}
	if rep.MemUsage.Status != StatusOK {
		t.Errorf("MemUsage = %+v", rep.MemUsage)
	}
	if rep.Lines()[0] != "CPU_User_Usage: Process Error! " {
		t.Errorf("Lines()[0] = %q", rep.Lines()[0])
	}
}

func TestCollect_FreshReportPerRun(t *testing.T) {
	sess := newFake()
	c := New(&fakeDialer{sess: sess}, nil)

	first, err := c.Collect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	sess.fail["df -hl"] = errors.New("gone")
	second, err := c.Collect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}

	if first.RunID == second.RunID {
		t.Error("run ids must differ")
	}
	if second.DiskStatus.Available() {
		t.Errorf("stale disk value carried over: %+v", second.DiskStatus)
	}
	if first.DiskStatus.Value != "442GTotal.327GUsed.115GFree" {
		t.Errorf("first report mutated: %+v", first.DiskStatus)
	}
}

func TestTruncateAtPID(t *testing.T) {
	raw := "  a  \r\nb\nPID USER\nc\n"
	if got := TruncateAtPID(raw); got != "a\nb\n" {
		t.Errorf("TruncateAtPID = %q", got)
	}
	if got := TruncateAtPID("no table"); got != "no table\n" {
		t.Errorf("TruncateAtPID = %q", got)
	}
}

func TestLocalDialer(t *testing.T) {
	s, err := LocalDialer{}.Dial(context.Background(), sshclient.Target{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
