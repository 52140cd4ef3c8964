package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// gluedColumn splits columns that df printed without a separating space,
// e.g. "93G78%" -> "93G", "78%".
var gluedColumn = regexp.MustCompile(`([A-Za-z%])(\d)`)

// DiskSummary is the accumulated capacity of every filesystem row of a df
// listing, in whole gigabytes.
type DiskSummary struct {
	Size int64
	Used int64
	// RowErrors holds the soft failures of rows that contributed 0.
	RowErrors []error
}

func (s DiskSummary) Free() int64 { return s.Size - s.Used }

// String renders the summary as "{size}GTotal.{used}GUsed.{free}GFree".
func (s DiskSummary) String() string {
	out := fmt.Sprintf("%dGTotal.%dGUsed.%dGFree", s.Size, s.Used, s.Free())
	return strings.ReplaceAll(out, " ", "")
}

// DiskTable sums the size and used columns of "df -hl" style output.
// The first line is the column header. A device name too long for its column
// is printed alone and its figures follow on the next line; the two lines form
// one row. A row that cannot be parsed adds 0 and is recorded in RowErrors; the
// table itself is never rejected. The only error returned is ErrNoRows,
// alongside a zero summary.
func DiskTable(raw string) (DiskSummary, error) {
	var (
		sum     DiskSummary
		rows    int
		pending string
	)

	malformed := func(line string) {
		sum.RowErrors = append(sum.RowErrors, &ParseError{Field: "disk row", Input: line, Err: ErrMalformedLine})
	}

	for i, line := range splitLines(raw) {
		if i == 0 {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(strings.Fields(line)) == 1 {
			if pending != "" {
				rows++
				malformed(pending)
			}
			pending = strings.TrimSpace(line)
			continue
		}
		if pending != "" {
			line = pending + " " + line
			pending = ""
		}

		rows++

		tokens := diskTokens(line)
		if len(tokens) < 3 {
			malformed(line)
			continue
		}

		size, err := NormalizeToGB(tokens[1])
		if err != nil {
			sum.RowErrors = append(sum.RowErrors, err)
		}
		used, err := NormalizeToGB(tokens[2])
		if err != nil {
			sum.RowErrors = append(sum.RowErrors, err)
		}
		sum.Size += size
		sum.Used += used
	}

	if pending != "" {
		rows++
		malformed(pending)
	}

	if rows == 0 {
		return sum, &ParseError{Field: "disk table", Input: raw, Err: ErrNoRows}
	}
	return sum, nil
}

// diskTokens returns the device followed by the remaining columns. Only the
// columns after the device are unglued, device names like sda3 stay intact.
func diskTokens(line string) []string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fields
	}
	rest := gluedColumn.ReplaceAllString(strings.Join(fields[1:], " "), "$1 $2")
	return append(fields[:1], strings.Fields(rest)...)
}

// splitLines splits on "\n" and drops a trailing "\r", so output captured on
// either side of a Windows/Unix boundary parses the same.
func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
