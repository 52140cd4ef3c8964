package parse

import (
	"regexp"
	"strings"
)

const (
	CPUPrefix    = "CPU_User_Usage:"
	MemoryPrefix = "Memory_Usage:"

	// ProcessError is appended to a metric prefix when its summary line was
	// found but could not be split into fields.
	ProcessError = " Process Error! "
)

type lineKind int

const (
	lineIgnored lineKind = iota
	lineCPU
	lineMemory
)

type linePattern struct {
	prefix string
	kind   lineKind
}

// Matched against the upper-cased, trimmed line. The "%CPU(S):" and
// "<unit> MEM" forms are what procps-ng top prints.
var summaryPatterns = []linePattern{
	{prefix: "CPU(S):", kind: lineCPU},
	{prefix: "%CPU(S):", kind: lineCPU},
	{prefix: "MEM", kind: lineMemory},
	{prefix: "KIB MEM", kind: lineMemory},
	{prefix: "MIB MEM", kind: lineMemory},
	{prefix: "GIB MEM", kind: lineMemory},
}

var memoryLabels = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\btotal\b`), "Total."},
	{regexp.MustCompile(`(?i)\bused\b`), "Used."},
	{regexp.MustCompile(`(?i)\bfree\b`), "Free."},
	{regexp.MustCompile(`(?i)\bbuffers\b`), "Buffers."},
}

// ProcessSummary holds the normalized CPU and memory strings of one top
// snapshot. A field whose line was never seen is empty; a field whose line
// was malformed carries the ProcessError sentinel and a matching error.
type ProcessSummary struct {
	CPU    string
	Memory string

	CPUErr    error
	MemoryErr error
}

func (s ProcessSummary) HasCPU() bool    { return s.CPU != "" }
func (s ProcessSummary) HasMemory() bool { return s.Memory != "" }

// ProcessSnapshot scans "top -b -n 1" output for the CPU and memory
// summary lines. All other lines are ignored. If neither line exists the
// summary is empty and ErrNoSummary is returned as a *ParseError.
func ProcessSnapshot(raw string) (ProcessSummary, error) {
	var sum ProcessSummary

	for _, line := range splitLines(raw) {
		line = strings.TrimSpace(line)

		switch classifyLine(line) {
		case lineCPU:
			v, err := cpuUsage(line)
			if err != nil {
				sum.CPU, sum.CPUErr = CPUPrefix+ProcessError, err
				continue
			}
			sum.CPU, sum.CPUErr = CPUPrefix+v, nil
		case lineMemory:
			v, err := memoryUsage(line)
			if err != nil {
				sum.Memory, sum.MemoryErr = MemoryPrefix+ProcessError, err
				continue
			}
			sum.Memory, sum.MemoryErr = MemoryPrefix+v, nil
		}
	}

	if !sum.HasCPU() && !sum.HasMemory() {
		return sum, &ParseError{Field: "process snapshot", Input: raw, Err: ErrNoSummary}
	}
	return sum, nil
}

func classifyLine(line string) lineKind {
	upper := strings.ToUpper(line)
	for _, p := range summaryPatterns {
		if strings.HasPrefix(upper, p.prefix) {
			return p.kind
		}
	}
	return lineIgnored
}

// cpuUsage takes the user share, the text between the first ':' and the
// first ',' with the "us" label and spaces removed.
func cpuUsage(line string) (string, error) {
	_, body, ok := strings.Cut(strings.ToUpper(line), ":")
	if !ok || strings.TrimSpace(body) == "" {
		return "", &ParseError{Field: "cpu", Input: line, Err: ErrMalformedLine}
	}
	user, _, _ := strings.Cut(body, ",")
	user = strings.ReplaceAll(user, "US", "")
	user = strings.ReplaceAll(user, " ", "")
	if user == "" {
		return "", &ParseError{Field: "cpu", Input: line, Err: ErrMalformedLine}
	}
	return user, nil
}

// memoryUsage relabels the fields after the first ':' and squeezes out
// spaces and commas. Units keep the case they were printed in.
func memoryUsage(line string) (string, error) {
	_, body, ok := strings.Cut(line, ":")
	if !ok || strings.TrimSpace(body) == "" {
		return "", &ParseError{Field: "memory", Input: line, Err: ErrMalformedLine}
	}
	for _, l := range memoryLabels {
		body = l.re.ReplaceAllString(body, l.repl)
	}
	body = strings.ReplaceAll(body, " ", "")
	body = strings.ReplaceAll(body, ",", "")
	return body, nil
}
