package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/tastythames/ssh-probe/internal/cache"
	"github.com/tastythames/ssh-probe/internal/collector"
)

var (
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.Bold)
)

type Renderer struct {
	Cache cache.Cache
	// Fields adds the three named fields below each report.
	Fields bool
}

func NewRenderer(c cache.Cache) *Renderer {
	return &Renderer{Cache: c}
}

// Write renders every cached target, sorted by name.
func (r *Renderer) Write(w io.Writer) {
	for _, e := range r.Cache.Snapshot() {
		WriteResult(w, e.Target, e.Result, r.Fields)
	}
}

// WriteResult renders one target: header, report lines, optional named
// fields and any errors.
func WriteResult(w io.Writer, target string, res cache.Result, fields bool) {
	nl := collector.LineSeparator

	labels := map[string]string{"target": target}
	for k, v := range res.Labels {
		labels[k] = v
	}

	// ---------------------------------------------------
	// header
	// ---------------------------------------------------
	header := MarkerHeader + target + formatLabels(labels)
	if rep := res.Report; rep != nil {
		header += fmt.Sprintf(" run=%s %.3fs", rep.RunID, rep.Duration.Seconds())
	}
	headColor.Fprint(w, header, nl)

	if res.Report == nil {
		if res.Err != nil {
			errColor.Fprint(w, MarkerError, res.Err.Error(), nl)
		}
		return
	}

	// ---------------------------------------------------
	// report lines
	// ---------------------------------------------------
	for _, line := range res.Report.Lines() {
		fmt.Fprint(w, line, nl)
	}

	if fields {
		for _, f := range res.Report.Fields() {
			line := fmt.Sprintf("%s%s: %s (%s)", MarkerField, f.Name, f.Value, f.Status)
			switch f.Status {
			case collector.StatusOK:
				fmt.Fprint(w, line, nl)
			case collector.StatusDegraded:
				warnColor.Fprint(w, line, nl)
			default:
				errColor.Fprint(w, line, nl)
			}
		}
	}

	for _, err := range res.Report.CommandErrors {
		errColor.Fprint(w, MarkerError, err.Error(), nl)
	}
}

func formatLabels(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `%s=%q`, k, m[k])
	}
	b.WriteString("}")
	return b.String()
}
