package notebook

import (
	"regexp"
	"strconv"
	"strings"
)

// Patterns for date parsing. "10月30日" is rewritten to "10/30/" before
// matching, so the month-day form is covered by monthDayPattern.
var (
	dateMarkReplacer = strings.NewReplacer("年", "/", "月", "/", "日", "")

	fullDatePattern = regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`)
	monthDayPattern = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`)
)

// dateRule is one grammar of the ordered date grammar list.
type dateRule struct {
	pattern *regexp.Regexp
	extract func(m []string, referenceYear int) CalendarDate
}

var dateRules = []dateRule{
	{
		pattern: fullDatePattern,
		extract: func(m []string, _ int) CalendarDate {
			return CalendarDate{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
		},
	},
	{
		pattern: monthDayPattern,
		extract: func(m []string, referenceYear int) CalendarDate {
			return CalendarDate{Year: referenceYear, Month: atoi(m[1]), Day: atoi(m[2])}
		},
	},
}

// ParseDate extracts a calendar date from one line fragment.
// Month/day forms take their year from referenceYear.
func ParseDate(fragment string, referenceYear int) (CalendarDate, bool) {
	d, _, ok := matchDate(fragment, referenceYear)
	return d, ok
}

// matchDate returns the date token and the normalized fragment with the token
// blanked out, so the remainder can be scanned for a time token.
// Candidates overlapping a colon time such as "8:30-9:00" are not dates.
func matchDate(fragment string, referenceYear int) (CalendarDate, string, bool) {
	s := dateMarkReplacer.Replace(normalize(fragment))
	clocks := colonPattern.FindAllStringIndex(s, -1)
	for _, rule := range dateRules {
		for _, loc := range rule.pattern.FindAllStringSubmatchIndex(s, -1) {
			if overlapsAny(loc[0], loc[1], clocks) {
				continue
			}
			m := make([]string, len(loc)/2)
			for i := range m {
				if loc[2*i] >= 0 {
					m[i] = s[loc[2*i]:loc[2*i+1]]
				}
			}
			rest := s[:loc[0]] + " " + s[loc[1]:]
			return rule.extract(m, referenceYear), strings.TrimSpace(rest), true
		}
	}
	return CalendarDate{}, s, false
}

func overlapsAny(start, end int, spans [][]int) bool {
	for _, sp := range spans {
		if start < sp[1] && sp[0] < end {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
