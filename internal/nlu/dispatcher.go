package nlu

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"handsfree/internal/state"
)

// Effects reports what a dispatch changed beyond AppState itself, for the
// collaborators that act on it.
type Effects struct {
	Status       string
	Navigated    bool
	Media        *state.MediaCommand
	Contact      *state.Contact
	Confirmation *state.Confirmation
}

func (e Effects) Empty() bool {
	return e == Effects{}
}

type Dispatcher struct {
	NewID func() string
	Now   func() time.Time
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

// Dispatch applies a to st. It never fails: user mistakes become status messages
// and leave the drafts as they were.
func (d *Dispatcher) Dispatch(a Action, st *state.AppState) Effects {
	var eff Effects

	switch a.Intent {
	case IntentShowCommands:
		st.CommandsVisible = true
	case IntentHideCommands:
		st.CommandsVisible = false

	case IntentMedia:
		if a.Media == nil {
			eff.Status = unknownStatus(a.Raw)
			break
		}
		eff.Navigated = st.Navigate(state.UIMedia)
		cmd := st.QueueMedia(*a.Media)
		eff.Media = &cmd
		eff.Status = cmd.Describe()
		if cmd.Kind == state.MediaStopRecording && st.Recording == state.RecordingAudio {
			eff.Status = `Audio recording continues. Say "stop audio recording" to end it.`
		}

	case IntentSetContactField:
		if st.Capture != state.CaptureContact {
			eff.Status = "No contact capture in progress."
			break
		}
		if !st.Contact.Set(a.Field, a.Value) {
			eff.Status = unknownStatus(a.Raw)
			break
		}
		eff.Status = fmt.Sprintf("Set %s to %q", a.Field, a.Value)

	case IntentSetConfirmField:
		if st.Capture != state.CaptureConfirmation {
			eff.Status = "No confirmation capture in progress."
			break
		}
		if !st.Confirmation.Set(a.Field, a.Value) {
			eff.Status = unknownStatus(a.Raw)
			break
		}
		eff.Status = fmt.Sprintf("Set confirmation %s to %q", a.Field, a.Value)

	case IntentSaveContact:
		eff = d.saveContact(st)
	case IntentSaveConfirmation:
		eff = d.saveConfirmation(st)

	case IntentCancelContact:
		if st.Capture != state.CaptureContact && st.Contact.Empty() {
			break
		}
		st.Contact = state.DraftContact{}
		if st.Capture == state.CaptureContact {
			st.Capture = state.CaptureGeneral
		}
		eff.Status = "Contact capture cancelled."
	case IntentCancelConfirmation:
		if st.Capture != state.CaptureConfirmation && st.Confirmation.Empty() {
			break
		}
		st.Confirmation = state.DraftConfirmation{}
		if st.Capture == state.CaptureConfirmation {
			st.Capture = state.CaptureGeneral
		}
		eff.Status = "Confirmation capture cancelled."

	case IntentShowContacts:
		eff.Navigated = st.Navigate(state.UIContacts)
		st.ResetCapture()
	case IntentOpenMedia:
		eff.Navigated = st.Navigate(state.UIMedia)
	case IntentShowCalendar:
		eff.Navigated = st.Navigate(state.UICalendar)
	case IntentReturnMain:
		eff.Navigated = st.Navigate(state.UIMain)

	case IntentCaptureContact:
		if st.Capture == state.CaptureConfirmation {
			eff.Status = "Save or cancel the current confirmation first."
			break
		}
		eff.Navigated = st.Navigate(state.UIContacts)
		st.Capture = state.CaptureContact
		st.Contact = state.DraftContact{}
		eff.Status = `Ready to capture contact. Say "name", "phone", etc.`
	case IntentCaptureConfirmation:
		if st.Capture == state.CaptureContact {
			eff.Status = "Save or cancel the current contact first."
			break
		}
		eff.Navigated = st.Navigate(state.UIContacts)
		st.Capture = state.CaptureConfirmation
		st.Confirmation = state.DraftConfirmation{}
		eff.Status = `Ready to capture confirmation. Say "type", "name", or "number".`

	default:
		eff.Status = unknownStatus(a.Raw)
	}

	if eff.Status != "" {
		st.Status = eff.Status
	}
	return eff
}

func (d *Dispatcher) saveContact(st *state.AppState) Effects {
	if st.Capture != state.CaptureContact {
		return Effects{Status: "No contact capture in progress."}
	}
	name := strings.TrimSpace(st.Contact.Name)
	if name == "" {
		return Effects{Status: "Cannot save contact without a name."}
	}

	c := state.Contact{
		ID:      d.NewID(),
		Name:    name,
		Phone:   st.Contact.Phone,
		Email:   st.Contact.Email,
		Details: st.Contact.Details,
		Status:  state.StatusOffline,
	}
	st.Capture = state.CaptureGeneral
	st.Contact = state.DraftContact{}

	return Effects{
		Status:  fmt.Sprintf("Contact %q saved.", c.Name),
		Contact: &c,
	}
}

func (d *Dispatcher) saveConfirmation(st *state.AppState) Effects {
	if st.Capture != state.CaptureConfirmation {
		return Effects{Status: "No confirmation capture in progress."}
	}
	if st.Confirmation.Number == "" {
		return Effects{Status: "Cannot save confirmation without a number."}
	}

	c := state.Confirmation{
		ID:        d.NewID(),
		Type:      st.Confirmation.Type,
		Name:      st.Confirmation.Name,
		Number:    st.Confirmation.Number,
		CreatedAt: d.Now(),
	}
	st.Capture = state.CaptureGeneral
	st.Confirmation = state.DraftConfirmation{}

	return Effects{
		Status:       fmt.Sprintf("Confirmation %q saved.", c.Number),
		Confirmation: &c,
	}
}

func unknownStatus(raw string) string {
	return fmt.Sprintf("Unrecognized command: %q", raw)
}
