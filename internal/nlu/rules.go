package nlu

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"handsfree/internal/state"
)

var (
	photoRe      = regexp.MustCompile(`\b(?:take|takes|taking|took)\s+(?:a\s+|(\d+)\s+)?(?:picture|photo)s?\b`)
	photoTimerRe = regexp.MustCompile(`^(?:set\s+)?(?:a\s+)?photo timer\b`)
	durationRe   = regexp.MustCompile(`(?:for\s)?(\d+)`)
)

const (
	// maxSeconds bounds spoken durations and delays. Longer values count as not given.
	maxSeconds = 24 * 60 * 60
	maxPhotos  = 100
)

var (
	contactFields      = []string{"name", "phone", "email", "details"}
	confirmationFields = []string{"type", "name", "number"}
	stopAudioPhrases   = []string{"stop audio recording", "stop recording audio", "stop recording sound", "stop sound recording"}
)

type navRoute struct {
	prefixes []string
	intent   Intent
}

var navRoutes = []navRoute{
	{[]string{"show contacts"}, IntentShowContacts},
	{[]string{"open camera", "open media"}, IntentOpenMedia},
	{[]string{"show calendar", "open calendar"}, IntentShowCalendar},
	{[]string{"return to main", "close camera", "close contacts", "close calendar"}, IntentReturnMain},
	{[]string{"capture contact"}, IntentCaptureContact},
	{[]string{"capture confirmation"}, IntentCaptureConfirmation},
}

type rule struct {
	name  string
	match func(u Utterance, mode state.CaptureMode) (Action, bool)
}

// RuleMatcher is the deterministic command table. Rules run in priority order
// and the first hit wins.
type RuleMatcher struct {
	rules []rule
}

func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{rules: []rule{
		{"meta", matchMeta},
		{"media", matchMedia},
		{"contact-field", matchContactField},
		{"confirmation-field", matchConfirmationField},
		{"save-cancel", matchSaveCancel},
		{"navigation", matchNavigation},
	}}
}

func (m *RuleMatcher) Match(_ context.Context, u Utterance, mode state.CaptureMode) (Action, error) {
	return m.MatchRule(u, mode), nil
}

// MatchRule is Match without the context plumbing; it never fails.
func (m *RuleMatcher) MatchRule(u Utterance, mode state.CaptureMode) Action {
	for _, r := range m.rules {
		if a, ok := r.match(u, mode); ok {
			a.Raw = u.Raw
			return a
		}
	}
	return Unknown(u.Raw)
}

func matchMeta(u Utterance, _ state.CaptureMode) (Action, bool) {
	switch u.Lower {
	case "commands list":
		return Action{Intent: IntentShowCommands}, true
	case "close list", "hide commands":
		return Action{Intent: IntentHideCommands}, true
	}
	return Action{}, false
}

func matchMedia(u Utterance, _ state.CaptureMode) (Action, bool) {
	text := u.Normalized

	for _, p := range stopAudioPhrases {
		if strings.Contains(text, p) {
			return MediaAction(state.StopAudioRecording(), u.Raw), true
		}
	}
	if strings.Contains(text, "stop recording") {
		return MediaAction(state.StopRecording(), u.Raw), true
	}

	if strings.Contains(text, "record video") {
		return MediaAction(state.RecordVideo(ExtractDuration(text)), u.Raw), true
	}
	if strings.Contains(text, "record sound") {
		return MediaAction(state.RecordAudio(ExtractDuration(text)), u.Raw), true
	}

	if m := photoRe.FindStringSubmatchIndex(text); m != nil {
		rest := text[m[1]:]
		if m[2] >= 0 {
			// "take 3 photos" puts the count before the noun.
			rest = text[m[2]:m[3]] + " " + rest
		}
		count, delay := ParsePhotoParams(rest)
		return MediaAction(state.TakePhotos(count, delay), u.Raw), true
	}
	if loc := photoTimerRe.FindStringIndex(text); loc != nil {
		if secs := ExtractDuration(text[loc[1]:]); secs > 0 {
			return MediaAction(state.TakePhotoTimer(secs), u.Raw), true
		}
	}

	if text == "switch camera" {
		return MediaAction(state.SwitchCamera(), u.Raw), true
	}
	return Action{}, false
}

// ParsePhotoParams scans the words after a photo trigger: a leading integer is
// the photo count (default 1) and "timer N" is the delay in seconds (default 0).
func ParsePhotoParams(rest string) (count, delay int) {
	count, delay = 1, 0
	parts := strings.Fields(DigitsFromWords(rest))

	if len(parts) > 0 {
		if n, ok := leadingInt(parts[0]); ok && n > 0 && n <= maxPhotos {
			count = n
		}
	}
	for i, p := range parts {
		if p != "timer" {
			continue
		}
		if i+1 < len(parts) {
			if n, ok := leadingInt(parts[i+1]); ok {
				delay = boundSeconds(n)
			}
		}
		break
	}
	return count, delay
}

// ExtractDuration returns the first number in text as seconds, scaled by 60 when
// the text mentions minutes. Zero means no duration was given.
func ExtractDuration(text string) int {
	text = DigitsFromWords(text)
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > maxSeconds {
		return 0
	}
	if strings.Contains(text, "minute") {
		n *= 60
	}
	return boundSeconds(n)
}

func boundSeconds(n int) int {
	if n < 0 || n > maxSeconds {
		return 0
	}
	return n
}

// leadingInt parses the decimal digits at the start of s, ignoring anything after.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func matchContactField(u Utterance, mode state.CaptureMode) (Action, bool) {
	if mode != state.CaptureContact {
		return Action{}, false
	}
	end := strings.IndexFunc(u.Raw, unicode.IsSpace)
	if end < 0 {
		end = len(u.Raw)
	}
	field := strings.ToLower(u.Raw[:end])
	for _, f := range contactFields {
		if field == f {
			value := strings.TrimSpace(u.Raw[end:])
			return Action{Intent: IntentSetContactField, Field: f, Value: value}, true
		}
	}
	return Action{}, false
}

func matchConfirmationField(u Utterance, mode state.CaptureMode) (Action, bool) {
	if mode != state.CaptureConfirmation {
		return Action{}, false
	}

	field, at := "", -1
	for _, kw := range confirmationFields {
		if i := strings.Index(u.Lower, kw); i >= 0 && (at < 0 || i < at) {
			field, at = kw, i
		}
	}
	if at < 0 {
		return Action{}, false
	}

	src := u.Raw
	if len(src) != len(u.Lower) {
		src = u.Lower
	}
	value := strings.TrimSpace(src[at+len(field):])
	if field == "number" {
		value = stripSpace(DigitsFromWords(value))
	}
	return Action{Intent: IntentSetConfirmField, Field: field, Value: value}, true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func matchSaveCancel(u Utterance, _ state.CaptureMode) (Action, bool) {
	switch u.Lower {
	case "save contact":
		return Action{Intent: IntentSaveContact}, true
	case "cancel contact":
		return Action{Intent: IntentCancelContact}, true
	case "save confirmation":
		return Action{Intent: IntentSaveConfirmation}, true
	case "cancel confirmation":
		return Action{Intent: IntentCancelConfirmation}, true
	}
	return Action{}, false
}

func matchNavigation(u Utterance, _ state.CaptureMode) (Action, bool) {
	for _, r := range navRoutes {
		for _, p := range r.prefixes {
			if strings.HasPrefix(u.Lower, p) {
				return Action{Intent: r.intent}, true
			}
		}
	}
	return Action{}, false
}
