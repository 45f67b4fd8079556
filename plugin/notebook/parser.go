package notebook

import (
	"regexp"
	"strings"
	"time"
)

var lineBreakPattern = regexp.MustCompile(`\r?\n`)

// Parser parses notebook text into wall-clock instants.
type Parser struct {
	timezone *time.Location
}

// NewParser creates a new notebook parser with the given timezone.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.Local
	}
	return &Parser{timezone: timezone}
}

// Location returns the wall-clock location used to build instants.
func (p *Parser) Location() *time.Location {
	return p.timezone
}

// ParseNotebook scans text line by line and returns one instant per line that
// carries a time token, in line order. A date token sets the date used by the
// following time-only lines; ref is the date used before any date token.
func (p *Parser) ParseNotebook(text string, ref CalendarDate) []time.Time {
	out := make([]time.Time, 0)
	cursor := ref
	for _, line := range SplitLines(text) {
		var (
			t  time.Time
			ok bool
		)
		cursor, t, ok = p.step(cursor, line)
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// ParseLine parses a single line against ref and returns the resulting
// cursor date together with the instant, if any.
func (p *Parser) ParseLine(line string, ref CalendarDate) (CalendarDate, time.Time, bool) {
	return p.step(ref, strings.TrimSpace(line))
}

// step folds one line into the cursor. Lines without a time token only move
// the cursor; lines without either token leave it unchanged.
func (p *Parser) step(cursor CalendarDate, line string) (CalendarDate, time.Time, bool) {
	rest := line
	if d, remainder, ok := matchDate(line, cursor.Year); ok {
		cursor = d
		rest = remainder
	}

	tod, ok := ParseTime(rest)
	if !ok {
		return cursor, time.Time{}, false
	}
	return cursor, cursor.At(tod, p.timezone), true
}

// SplitLines splits text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := lineBreakPattern.Split(text, -1)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// ParseNotebook parses text in the local timezone.
func ParseNotebook(text string, ref CalendarDate) []time.Time {
	return NewParser(time.Local).ParseNotebook(text, ref)
}
