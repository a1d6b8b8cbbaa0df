package nlu

import (
	"context"

	"handsfree/internal/state"
)

type Intent string

const (
	IntentUnknown             Intent = "unknown"
	IntentShowCommands        Intent = "show_commands"
	IntentHideCommands        Intent = "hide_commands"
	IntentMedia               Intent = "media"
	IntentSetContactField     Intent = "set_contact_field"
	IntentSetConfirmField     Intent = "set_confirmation_field"
	IntentSaveContact         Intent = "save_contact"
	IntentCancelContact       Intent = "cancel_contact"
	IntentSaveConfirmation    Intent = "save_confirmation"
	IntentCancelConfirmation  Intent = "cancel_confirmation"
	IntentShowContacts        Intent = "show_contacts"
	IntentOpenMedia           Intent = "open_media"
	IntentShowCalendar        Intent = "show_calendar"
	IntentReturnMain          Intent = "return_main"
	IntentCaptureContact      Intent = "capture_contact"
	IntentCaptureConfirmation Intent = "capture_confirmation"
)

// Action is the interpreted intent of one utterance.
type Action struct {
	Intent Intent
	Field  string              // IntentSetContactField, IntentSetConfirmField
	Value  string              // field value, verbatim
	Media  *state.MediaCommand // IntentMedia
	Raw    string              // the utterance as heard
}

func Unknown(raw string) Action {
	return Action{Intent: IntentUnknown, Raw: raw}
}

func MediaAction(cmd state.MediaCommand, raw string) Action {
	return Action{Intent: IntentMedia, Media: &cmd, Raw: raw}
}

// Matcher turns an utterance into an Action. The rule table is the default;
// an LLM-backed matcher may replace it.
type Matcher interface {
	Match(ctx context.Context, u Utterance, mode state.CaptureMode) (Action, error)
}
