package ical

import "strings"

// UnfoldLines applies RFC 5545 line unfolding: a line starting with a space
// or tab continues the previous logical line, with the continuation prefix
// removed.
func UnfoldLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if len(lines) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			// A continuation consumes exactly one leading whitespace char.
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Unfold returns the payload as a single unfolded string.
func Unfold(raw string) string {
	return strings.Join(UnfoldLines(raw), "\n")
}

// ScrubControl drops control characters that some servers leak into
// calendar-data and that strict parsers reject. Newlines and tabs survive.
func ScrubControl(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
}
