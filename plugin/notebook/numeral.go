package notebook

import "strings"

// zhDigits maps every recognized Chinese numeral character to its value.
var zhDigits = map[rune]int{
	'零': 0,
	'〇': 0,
	'○': 0,
	'一': 1,
	'二': 2,
	'兩': 2,
	'三': 3,
	'四': 4,
	'五': 5,
	'六': 6,
	'七': 7,
	'八': 8,
	'九': 9,
	'十': 10,
}

// ConvertNumeral converts a short Chinese numeral (0-99) to an integer.
// It reports false when s is empty or contains an unrecognized character.
//
//	"七" -> 7, "十五" -> 15, "二十" -> 20, "三十五" -> 35, "零五" -> 5
func ConvertNumeral(s string) (int, bool) {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0, false
	}
	if len(runes) == 1 {
		v, ok := zhDigits[runes[0]]
		return v, ok
	}

	if idx := strings.IndexRune(s, '十'); idx >= 0 {
		left, right := s[:idx], s[idx+len("十"):]
		tens, ones := 1, 0
		if left != "" {
			v, ok := digitValue(left)
			if !ok {
				return 0, false
			}
			tens = v
		}
		if right != "" {
			v, ok := digitValue(right)
			if !ok {
				return 0, false
			}
			ones = v
		}
		return tens*10 + ones, true
	}

	n := 0
	for _, r := range runes {
		v, ok := zhDigits[r]
		if !ok || v > 9 {
			return 0, false
		}
		n = n*10 + v
	}
	return n, true
}

// digitValue converts exactly one non-ten numeral character.
func digitValue(s string) (int, bool) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, false
	}
	v, ok := zhDigits[runes[0]]
	if !ok || v > 9 {
		return 0, false
	}
	return v, true
}
