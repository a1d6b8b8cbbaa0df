package nlu

import "strings"

var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
}

// Utterance carries one finalized phrase in the three shapes the matcher needs.
// Raw and Lower are byte-aligned whenever lowercasing does not change lengths.
type Utterance struct {
	Raw        string // single-spaced, trailing punctuation dropped, original case
	Lower      string // Raw lowercased
	Normalized string // Lower with number words replaced by digits
}

// trailingPunct is what recognizers append to a finished sentence.
const trailingPunct = ".,!?;: "

func Parse(raw string) Utterance {
	trimmed := strings.TrimRight(strings.Join(strings.Fields(raw), " "), trailingPunct)
	lower := strings.ToLower(trimmed)
	return Utterance{
		Raw:        trimmed,
		Lower:      lower,
		Normalized: DigitsFromWords(lower),
	}
}

// Normalize collapses whitespace, drops trailing punctuation, lowercases and
// replaces the number words zero..ten with digits.
func Normalize(raw string) string {
	return Parse(raw).Normalized
}

// DigitsFromWords replaces whole number words (zero..ten, any case) with digits.
// Other tokens are left untouched; runs of whitespace collapse to one space.
func DigitsFromWords(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if d, ok := numberWords[strings.ToLower(f)]; ok {
			fields[i] = d
		}
	}
	return strings.Join(fields, " ")
}
