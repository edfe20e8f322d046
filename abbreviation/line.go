package astiabbreviation

import (
	"strconv"
	"strings"
)

func formatTime(v float64) string {
	// Shortest representation that round trips
	s := strconv.FormatFloat(v, 'f', -1, 64)

	// Keep exactly one fractional digit, without rounding
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return s + ".0"
	}
	return s[:i+2]
}

func line(tag string, startTime, endTime float64) string {
	return "At " + formatTime(startTime) + "-" + formatTime(endTime) + "s, [" + tag + "] was detected"
}

func appendLine(output, l string) string {
	if output == "" {
		return l
	}
	return output + "\n" + l
}
