package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateRange checks the syntax of a Range header value. An empty value is
// valid (no range requested). Satisfiability against the object size is left
// to the origin.
//
// Accepted forms per range-spec: "start-end", "start-", "-suffix", joined by
// commas, all under the "bytes" unit.
func ValidateRange(header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}

	unit, set, ok := strings.Cut(header, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return fmt.Errorf("%w: unsupported unit in %q", ErrInvalidRange, header)
	}

	specs := strings.Split(set, ",")
	for _, spec := range specs {
		if err := validateSpec(strings.TrimSpace(spec)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
	}
	return nil
}

func validateSpec(spec string) error {
	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return fmt.Errorf("missing '-' in %q", spec)
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if first == "" {
		if last == "" {
			return fmt.Errorf("empty range %q", spec)
		}
		if _, err := parsePosition(last); err != nil {
			return fmt.Errorf("suffix length %q: %v", last, err)
		}
		return nil
	}

	start, err := parsePosition(first)
	if err != nil {
		return fmt.Errorf("first position %q: %v", first, err)
	}
	if last == "" {
		return nil
	}
	end, err := parsePosition(last)
	if err != nil {
		return fmt.Errorf("last position %q: %v", last, err)
	}
	if start > end {
		return fmt.Errorf("first position %d after last position %d", start, end)
	}
	return nil
}

func parsePosition(s string) (int64, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a decimal position")
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
