package parse

import (
	"strconv"
	"strings"
)

// NormalizeToGB converts a size token such as "442G", "788M" or "1T" to whole
// gigabytes. Division truncates: "1048575K" is 0 and so is any megabyte value
// below 1024. That loss of precision is intentional and kept as is.
//
// On an unknown suffix or a non-integer magnitude it returns 0 together with a
// *ParseError; callers add the 0 and carry on.
func NormalizeToGB(token string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(token))

	var unit string
	switch {
	case strings.HasSuffix(s, "KB"):
		unit = "KB"
	case len(s) > 0:
		unit = s[len(s)-1:]
	}
	num := strings.TrimSuffix(s, unit)

	n, err := strconv.ParseUint(num, 10, 52)
	if err != nil {
		return 0, &ParseError{Field: "size", Input: token, Err: ErrBadMagnitude}
	}
	v := int64(n)

	switch unit {
	case "G":
		return v, nil
	case "T":
		return v * 1024, nil
	case "M":
		return v / 1024, nil
	case "K", "KB":
		return v / (1024 * 1024), nil
	default:
		return 0, &ParseError{Field: "size", Input: token, Err: ErrUnknownUnit}
	}
}
