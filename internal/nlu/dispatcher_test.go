package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree/internal/state"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestDispatcher() *Dispatcher {
	n := 0
	return &Dispatcher{
		NewID: func() string {
			n++
			return "id-" + string(rune('0'+n))
		},
		Now: func() time.Time { return fixedNow },
	}
}

// say runs text through the rule table and the dispatcher.
func say(d *Dispatcher, st *state.AppState, text string) Effects {
	a := NewRuleMatcher().MatchRule(Parse(text), st.Capture)
	return d.Dispatch(a, st)
}

func TestDispatchContactCapture(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	eff := say(d, st, "capture contact")
	assert.True(t, eff.Navigated)
	assert.Equal(t, state.UIContacts, st.UI)
	assert.Equal(t, state.CaptureContact, st.Capture)

	say(d, st, "name Jane")
	say(d, st, "phone 555 123 4567")
	eff = say(d, st, "email jane@example.com")
	assert.Equal(t, `Set email to "jane@example.com"`, eff.Status)
	assert.Equal(t, state.DraftContact{Name: "Jane", Phone: "555 123 4567", Email: "jane@example.com"}, st.Contact)

	eff = say(d, st, "save contact")
	require.NotNil(t, eff.Contact)
	assert.Equal(t, state.Contact{
		ID:     "id-1",
		Name:   "Jane",
		Phone:  "555 123 4567",
		Email:  "jane@example.com",
		Status: state.StatusOffline,
	}, *eff.Contact)
	assert.Equal(t, `Contact "Jane" saved.`, eff.Status)
	assert.Equal(t, state.CaptureGeneral, st.Capture)
	assert.True(t, st.Contact.Empty())
	assert.Equal(t, eff.Status, st.Status)
}

func TestDispatchFieldLeavesOthersUntouched(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")
	st.Contact = state.DraftContact{Name: "A", Phone: "B", Email: "C", Details: "D"}

	say(d, st, "details Met at the Mars conference")
	assert.Equal(t, state.DraftContact{Name: "A", Phone: "B", Email: "C", Details: "Met at the Mars conference"}, st.Contact)
}

func TestDispatchSaveContactWithoutName(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")
	say(d, st, "phone 555")

	eff := say(d, st, "save contact")
	assert.Nil(t, eff.Contact)
	assert.Equal(t, "Cannot save contact without a name.", eff.Status)
	assert.Equal(t, state.CaptureContact, st.Capture)
	assert.Equal(t, "555", st.Contact.Phone)
}

func TestDispatchSaveContactBlankName(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")
	st.Contact.Name = "   "

	eff := say(d, st, "save contact")
	assert.Nil(t, eff.Contact)
	assert.Equal(t, state.CaptureContact, st.Capture)
}

func TestDispatchSaveContactOutsideCapture(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	eff := say(d, st, "save contact")
	assert.Nil(t, eff.Contact)
	assert.Equal(t, "No contact capture in progress.", eff.Status)
}

func TestDispatchConfirmationCapture(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	eff := say(d, st, "capture confirmation")
	assert.Equal(t, state.CaptureConfirmation, st.Capture)
	assert.Equal(t, state.UIContacts, st.UI)
	assert.Contains(t, eff.Status, "Ready to capture confirmation")

	eff = say(d, st, "save confirmation")
	assert.Nil(t, eff.Confirmation)
	assert.Equal(t, "Cannot save confirmation without a number.", eff.Status)

	say(d, st, "type flight")
	say(d, st, "name Delta")
	eff = say(d, st, "number one two three")
	assert.Equal(t, `Set confirmation number to "123"`, eff.Status)

	eff = say(d, st, "save confirmation")
	require.NotNil(t, eff.Confirmation)
	assert.Equal(t, state.Confirmation{
		ID:        "id-1",
		Type:      "flight",
		Name:      "Delta",
		Number:    "123",
		CreatedAt: fixedNow,
	}, *eff.Confirmation)
	assert.Equal(t, state.CaptureGeneral, st.Capture)
	assert.True(t, st.Confirmation.Empty())
}

func TestDispatchCancelContactTwice(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")
	say(d, st, "name Jane")

	eff := say(d, st, "cancel contact")
	assert.Equal(t, "Contact capture cancelled.", eff.Status)
	assert.Equal(t, state.CaptureGeneral, st.Capture)
	assert.True(t, st.Contact.Empty())

	before := *st
	eff = say(d, st, "cancel contact")
	assert.True(t, eff.Empty())
	assert.Equal(t, before.Capture, st.Capture)
	assert.Equal(t, before.Contact, st.Contact)
	assert.Equal(t, before.Status, st.Status)
}

func TestDispatchCancelConfirmation(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture confirmation")
	say(d, st, "number 42")

	eff := say(d, st, "cancel confirmation")
	assert.Equal(t, "Confirmation capture cancelled.", eff.Status)
	assert.Equal(t, state.CaptureGeneral, st.Capture)
	assert.True(t, st.Confirmation.Empty())
}

func TestDispatchNoDirectCaptureSwitch(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")
	say(d, st, "name Jane")

	eff := say(d, st, "capture confirmation")
	assert.Equal(t, "Save or cancel the current contact first.", eff.Status)
	assert.Equal(t, state.CaptureContact, st.Capture)
	assert.Equal(t, "Jane", st.Contact.Name)

	say(d, st, "cancel contact")
	say(d, st, "capture confirmation")
	eff = say(d, st, "capture contact")
	assert.Equal(t, "Save or cancel the current confirmation first.", eff.Status)
	assert.Equal(t, state.CaptureConfirmation, st.Capture)
}

func TestDispatchCaptureClearsStaleDraft(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	st.Contact = state.DraftContact{Name: "stale"}

	say(d, st, "capture contact")
	assert.True(t, st.Contact.Empty())

	say(d, st, "name Fresh")
	say(d, st, "capture contact")
	assert.True(t, st.Contact.Empty())
	assert.Equal(t, state.CaptureContact, st.Capture)
}

func TestDispatchMediaForcesMediaView(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")
	say(d, st, "name Jane")

	eff := say(d, st, "take a picture 5 timer 3")
	assert.True(t, eff.Navigated)
	assert.Equal(t, state.UIMedia, st.UI)
	assert.Equal(t, state.CaptureGeneral, st.Capture)
	assert.True(t, st.Contact.Empty())

	require.NotNil(t, eff.Media)
	assert.Equal(t, uint64(1), eff.Media.ID)
	assert.Equal(t, state.MediaTakePhotos, eff.Media.Kind)
	assert.Equal(t, "Taking 5 photo(s) with a 3s delay.", eff.Status)
	assert.Equal(t, eff.Media, st.PendingMedia)
}

func TestDispatchStopRecordingFromMain(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	eff := say(d, st, "stop recording")
	assert.Equal(t, state.UIMedia, st.UI)
	require.NotNil(t, eff.Media)
	assert.Equal(t, state.MediaStopRecording, eff.Media.Kind)
	assert.Equal(t, "Stopping recording.", eff.Status)
}

func TestDispatchGenericStopKeepsAudio(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	st.Recording = state.RecordingAudio

	eff := say(d, st, "stop recording")
	require.NotNil(t, eff.Media)
	assert.Equal(t, state.MediaStopRecording, eff.Media.Kind)
	assert.Contains(t, eff.Status, "Audio recording continues")

	eff = say(d, st, "stop audio recording")
	assert.Equal(t, state.MediaStopAudioRecording, eff.Media.Kind)
}

func TestDispatchNewMediaReplacesPending(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	first := say(d, st, "record video")
	second := say(d, st, "switch camera")
	assert.NotEqual(t, first.Media.ID, second.Media.ID)
	assert.False(t, st.CompleteMedia(first.Media.ID))
	assert.True(t, st.CompleteMedia(second.Media.ID))
	assert.Nil(t, st.PendingMedia)
}

func TestDispatchNavigation(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	eff := say(d, st, "show contacts")
	assert.True(t, eff.Navigated)
	assert.Equal(t, state.UIContacts, st.UI)

	eff = say(d, st, "show contacts")
	assert.False(t, eff.Navigated)

	say(d, st, "open calendar")
	assert.Equal(t, state.UICalendar, st.UI)
	say(d, st, "open camera")
	assert.Equal(t, state.UIMedia, st.UI)
	say(d, st, "return to main")
	assert.Equal(t, state.UIMain, st.UI)
}

func TestDispatchLeavingContactsEndsCapture(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture confirmation")
	say(d, st, "number 9")

	say(d, st, "return to main")
	assert.Equal(t, state.CaptureGeneral, st.Capture)
	assert.True(t, st.Confirmation.Empty())
}

func TestDispatchCommandsPanel(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")

	say(d, st, "commands list")
	assert.True(t, st.CommandsVisible)
	assert.Equal(t, state.CaptureContact, st.Capture)

	say(d, st, "hide commands")
	assert.False(t, st.CommandsVisible)
}

func TestDispatchUnknown(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	before := *st

	eff := say(d, st, "make me a sandwich")
	assert.Equal(t, `Unrecognized command: "make me a sandwich"`, eff.Status)
	assert.Equal(t, before.UI, st.UI)
	assert.Equal(t, before.Capture, st.Capture)
	assert.Nil(t, eff.Media)
	assert.Nil(t, eff.Contact)
}

func TestDispatchFieldOutsideCapture(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()

	eff := d.Dispatch(Action{Intent: IntentSetContactField, Field: "name", Value: "Jane"}, st)
	assert.Equal(t, "No contact capture in progress.", eff.Status)
	assert.True(t, st.Contact.Empty())

	eff = d.Dispatch(Action{Intent: IntentSetConfirmField, Field: "number", Value: "1"}, st)
	assert.Equal(t, "No confirmation capture in progress.", eff.Status)
}

func TestDispatchUnknownField(t *testing.T) {
	d := newTestDispatcher()
	st := state.New()
	say(d, st, "capture contact")

	eff := d.Dispatch(Action{Intent: IntentSetContactField, Field: "address", Value: "x", Raw: "address x"}, st)
	assert.Equal(t, `Unrecognized command: "address x"`, eff.Status)
	assert.True(t, st.Contact.Empty())
}
