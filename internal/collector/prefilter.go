package collector

import "strings"

// TruncateAtPID keeps the lines before the first one containing "PID", each
// trimmed, joined with "\n". It drops top's per-process table.
func TruncateAtPID(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, "PID") {
			break
		}
		b.WriteString(strings.TrimSpace(line))
		b.WriteString("\n")
	}
	return b.String()
}
