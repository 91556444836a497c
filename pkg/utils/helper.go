package utils

import (
	"strconv"
	"strings"
)

// ParseInt reads a positive integer query value; blanks, junk and values
// below one yield def.
func ParseInt(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return def
	}
	return n
}
