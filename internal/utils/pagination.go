// Package utils provides small helpers shared across layers that carry no
// domain logic of their own.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a decimal int, returning def when s is empty or
// malformed. Surrounding whitespace is tolerated since query parameters
// often arrive padded.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
