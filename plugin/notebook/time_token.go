package notebook

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Patterns for time parsing.
var (
	dotVariantPattern = regexp.MustCompile(`[．。•·‧]`)
	spacePattern      = regexp.MustCompile(`[\s\p{Zs}]+`)

	meridiemPattern = regexp.MustCompile(`(?i)上午|下午|晚上|早上|清晨|凌晨|am|pm`)

	colonPattern    = regexp.MustCompile(`(\d{1,2})\s*:\s*(\d{1,2})`)
	halfPastPattern = regexp.MustCompile(`(\d{1,2})\s*[.:]?\s*半`)
	decimalPattern  = regexp.MustCompile(`\b(\d{1,2})\.(\d+)\b`)
	zhClockPattern  = regexp.MustCompile(`(上午|下午|晚上|早上|清晨|凌晨)?\s*([零〇○一二兩三四五六七八九十]{1,3})[點点](?:(半)|([零〇○一二兩三四五六七八九十]{1,3})分?)?`)
	bareHourPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)?\b`)
)

// meridiem is an AM/PM signal detected in a fragment.
type meridiem int

const (
	meridiemNone meridiem = iota
	meridiemAM
	meridiemPM
)

// meridiemOf classifies a meridiem word or suffix.
func meridiemOf(word string) meridiem {
	switch strings.ToLower(word) {
	case "下午", "晚上", "pm":
		return meridiemPM
	case "上午", "早上", "清晨", "凌晨", "am":
		return meridiemAM
	}
	return meridiemNone
}

// apply converts a 12-hour clock hour according to the signal.
// Hours other than 1-11 under PM and 12 under AM are left untouched.
func (m meridiem) apply(hour int) int {
	switch {
	case m == meridiemPM && hour < 12:
		return hour + 12
	case m == meridiemAM && hour == 12:
		return 0
	}
	return hour
}

// timeMatch is the raw result of one grammar rule before normalization.
type timeMatch struct {
	hour   int
	minute int
	signal meridiem
}

// timeRule is one grammar of the ordered time grammar list.
type timeRule struct {
	name  string
	match func(s string, hint meridiem) (timeMatch, bool)
}

// timeRules are tried in order; the first rule that matches decides the result.
// The colon form must come before the bare hour form, and the half-past form
// before the decimal form, otherwise "15.半" or "8:30" would be misread.
var timeRules = []timeRule{
	{name: "colon", match: matchColon},
	{name: "half-past", match: matchHalfPast},
	{name: "decimal", match: matchDecimal},
	{name: "zh-clock", match: matchZhClock},
	{name: "bare-hour", match: matchBareHour},
}

// normalize unifies punctuation and whitespace of a raw fragment.
func normalize(raw string) string {
	s := strings.ReplaceAll(raw, "：", ":")
	s = dotVariantPattern.ReplaceAllString(s, ".")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// detectMeridiem returns the first meridiem word or suffix found in s.
func detectMeridiem(s string) meridiem {
	return meridiemOf(meridiemPattern.FindString(s))
}

// ParseTime extracts a time of day from one line fragment.
// It reports false if no grammar matches or the result is not a valid hour.
func ParseTime(fragment string) (TimeOfDay, bool) {
	s := normalize(fragment)
	if s == "" {
		return TimeOfDay{}, false
	}
	hint := detectMeridiem(s)

	for _, rule := range timeRules {
		m, ok := rule.match(s, hint)
		if !ok {
			continue
		}
		hour := m.signal.apply(m.hour)
		if hour < 0 || hour > 23 {
			return TimeOfDay{}, false
		}
		return TimeOfDay{Hour: hour, Minute: clampMinute(m.minute)}, true
	}
	return TimeOfDay{}, false
}

func matchColon(s string, hint meridiem) (timeMatch, bool) {
	m := colonPattern.FindStringSubmatch(s)
	if m == nil {
		return timeMatch{}, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if strings.Contains(s, "半") {
		mm = 30
	}
	return timeMatch{hour: h, minute: mm, signal: hint}, true
}

func matchHalfPast(s string, hint meridiem) (timeMatch, bool) {
	m := halfPastPattern.FindStringSubmatch(s)
	if m == nil {
		return timeMatch{}, false
	}
	h, _ := strconv.Atoi(m[1])
	return timeMatch{hour: h, minute: 30, signal: hint}, true
}

func matchDecimal(s string, hint meridiem) (timeMatch, bool) {
	m := decimalPattern.FindStringSubmatch(s)
	if m == nil {
		return timeMatch{}, false
	}
	h, _ := strconv.Atoi(m[1])
	frac := m[2]

	var mm int
	if len(frac) >= 2 {
		mm, _ = strconv.Atoi(frac[:2])
	} else {
		f, _ := strconv.ParseFloat("0."+frac, 64)
		mm = int(math.Round(f * 60))
	}
	if strings.Contains(s, "半") {
		mm = 30
	}
	return timeMatch{hour: h, minute: mm, signal: hint}, true
}

func matchZhClock(s string, hint meridiem) (timeMatch, bool) {
	m := zhClockPattern.FindStringSubmatch(s)
	if m == nil {
		return timeMatch{}, false
	}
	h, ok := ConvertNumeral(m[2])
	if !ok {
		h = 0
	}

	mm := 0
	switch {
	case m[3] != "":
		mm = 30
	case m[4] != "":
		if v, ok := ConvertNumeral(m[4]); ok {
			mm = v
		}
	}

	signal := hint
	if word := meridiemOf(m[1]); word != meridiemNone {
		signal = word
	}
	return timeMatch{hour: h, minute: mm, signal: signal}, true
}

// matchBareHour reads "9", "9pm" or "9 am". A trailing suffix overrides any
// meridiem word found elsewhere in the fragment.
func matchBareHour(s string, hint meridiem) (timeMatch, bool) {
	m := bareHourPattern.FindStringSubmatch(s)
	if m == nil {
		return timeMatch{}, false
	}
	h, _ := strconv.Atoi(m[1])

	signal := hint
	if suffix := meridiemOf(m[2]); suffix != meridiemNone {
		signal = suffix
	}
	return timeMatch{hour: h, signal: signal}, true
}

func clampMinute(m int) int {
	if m < 0 {
		return 0
	}
	if m > 59 {
		return 59
	}
	return m
}
