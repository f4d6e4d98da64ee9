package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeout parses a workflow duration string.
//
// Accepted forms:
//   - Go duration syntax: "1h30m", "250ms"
//   - trailing-unit shorthand: "<int>" followed by s, m, h or d
//   - colon form: "HH:MM" or "HH:MM:SS"
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ParseError{Msg: "empty duration"}
	}

	if strings.Contains(s, ":") {
		return parseColonForm(s)
	}

	// Shorthand first: "2d" is not valid Go syntax, and "30m"/"90s" mean
	// the same thing either way.
	if d, ok := parseShorthand(s); ok {
		return d, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &ParseError{Msg: fmt.Sprintf("invalid duration %q", s)}
	}
	return d, nil
}

func parseShorthand(s string) (time.Duration, bool) {
	if len(s) < 2 {
		return 0, false
	}
	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, true
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	}
	return 0, false
}

func parseColonForm(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &ParseError{Msg: fmt.Sprintf("invalid duration %q", s)}
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, &ParseError{Msg: fmt.Sprintf("invalid duration %q", s)}
		}
		nums[i] = n
	}
	d := time.Duration(nums[0])*time.Hour + time.Duration(nums[1])*time.Minute
	if len(nums) == 3 {
		d += time.Duration(nums[2]) * time.Second
	}
	return d, nil
}
