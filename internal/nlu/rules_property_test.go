package nlu

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"handsfree/internal/state"
)

var wordGen = rapid.StringMatching(`[A-Za-z][a-z]{0,8}`)

// TestPropertyContactFieldValueVerbatim verifies that a contact field command
// stores exactly the text after the keyword and nothing else changes.
func TestPropertyContactFieldValueVerbatim(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		field := rapid.SampledFrom(contactFields).Draw(rt, "field")
		words := rapid.SliceOfN(wordGen, 1, 5).Draw(rt, "words")
		value := strings.Join(words, " ")
		text := field + " " + value

		a := NewRuleMatcher().MatchRule(Parse(text), state.CaptureContact)
		if a.Intent == IntentMedia || a.Intent == IntentShowCommands || a.Intent == IntentHideCommands {
			rt.Skip("value triggered a higher priority rule")
		}

		st := state.New()
		st.UI = state.UIContacts
		st.Capture = state.CaptureContact
		st.Contact = state.DraftContact{Name: "n", Phone: "p", Email: "e", Details: "d"}
		want := st.Contact
		want.Set(field, value)

		newTestDispatcher().Dispatch(a, st)
		if st.Contact != want {
			rt.Fatalf("draft = %+v, want %+v", st.Contact, want)
		}
	})
}

// TestPropertyPhotoParams verifies count and delay survive any ordering of
// spoken or written numbers.
func TestPropertyPhotoParams(t *testing.T) {
	words := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		delay := rapid.IntRange(0, 10).Draw(rt, "delay")
		spoken := rapid.Bool().Draw(rt, "spoken")

		c, d := fmt.Sprint(count), fmt.Sprint(delay)
		if spoken {
			c, d = words[count], words[delay]
		}
		trigger := rapid.SampledFrom([]string{"take a picture", "take a photo", "taking a photo"}).Draw(rt, "trigger")
		text := fmt.Sprintf("%s %s timer %s", trigger, c, d)

		a := NewRuleMatcher().MatchRule(Parse(text), state.CaptureGeneral)
		if a.Media == nil {
			rt.Fatalf("%q: no media command", text)
		}
		if a.Media.Count != count || a.Media.Delay != delay {
			rt.Fatalf("%q: got count=%d delay=%d", text, a.Media.Count, a.Media.Delay)
		}
	})
}

// TestPropertyDurationUnits verifies minutes are converted to seconds.
func TestPropertyDurationUnits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 600).Draw(rt, "n")
		minutes := rapid.Bool().Draw(rt, "minutes")
		kind := rapid.SampledFrom([]string{"video", "sound"}).Draw(rt, "kind")

		unit, want := "seconds", n
		if minutes {
			unit, want = "minutes", n*60
		}
		text := fmt.Sprintf("record %s for %d %s", kind, n, unit)

		a := NewRuleMatcher().MatchRule(Parse(text), state.CaptureGeneral)
		if a.Media == nil || a.Media.Duration != want {
			rt.Fatalf("%q: got %+v, want duration %d", text, a.Media, want)
		}
	})
}

// TestPropertyDispatchKeepsCaptureInvariant verifies that capture is only ever
// active on the contacts panel and only one draft kind is in use at a time.
func TestPropertyDispatchKeepsCaptureInvariant(t *testing.T) {
	phrases := []string{
		"capture contact", "capture confirmation", "name Jane", "phone 555",
		"type flight", "number one two", "save contact", "cancel contact",
		"save confirmation", "cancel confirmation", "show contacts", "open camera",
		"open calendar", "return to main", "take a picture", "stop recording",
		"commands list", "hello there",
	}

	rapid.Check(t, func(rt *rapid.T) {
		d := newTestDispatcher()
		st := state.New()
		steps := rapid.SliceOfN(rapid.SampledFrom(phrases), 1, 40).Draw(rt, "steps")

		for _, text := range steps {
			say(d, st, text)

			if st.Capture != state.CaptureGeneral && st.UI != state.UIContacts {
				rt.Fatalf("after %q: capture %s outside contacts (%s)", text, st.Capture, st.UI)
			}
			if st.Capture != state.CaptureContact && !st.Contact.Empty() {
				rt.Fatalf("after %q: stale contact draft %+v", text, st.Contact)
			}
			if st.Capture != state.CaptureConfirmation && !st.Confirmation.Empty() {
				rt.Fatalf("after %q: stale confirmation draft %+v", text, st.Confirmation)
			}
		}
	})
}
