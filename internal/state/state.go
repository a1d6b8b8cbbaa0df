package state

import "time"

type UIMode string

const (
	UIMain     UIMode = "main"
	UIContacts UIMode = "contacts"
	UIMedia    UIMode = "media"
	UICalendar UIMode = "calendar"
)

type CaptureMode string

const (
	CaptureGeneral      CaptureMode = "general"
	CaptureContact      CaptureMode = "contact"
	CaptureConfirmation CaptureMode = "confirmation"
)

type ContactStatus string

const (
	StatusOnline  ContactStatus = "online"
	StatusOffline ContactStatus = "offline"
)

// DraftContact is a contact being dictated. Empty strings are unset fields.
type DraftContact struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Details string `json:"details,omitempty"`
}

func (d DraftContact) Empty() bool {
	return d == DraftContact{}
}

// Set assigns one of name, phone, email or details. It reports false for any other field.
func (d *DraftContact) Set(field, value string) bool {
	switch field {
	case "name":
		d.Name = value
	case "phone":
		d.Phone = value
	case "email":
		d.Email = value
	case "details":
		d.Details = value
	default:
		return false
	}
	return true
}

type DraftConfirmation struct {
	Type   string `json:"type,omitempty"`
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
}

func (d DraftConfirmation) Empty() bool {
	return d == DraftConfirmation{}
}

func (d *DraftConfirmation) Set(field, value string) bool {
	switch field {
	case "type":
		d.Type = value
	case "name":
		d.Name = value
	case "number":
		d.Number = value
	default:
		return false
	}
	return true
}

type Contact struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Phone   string        `json:"phone,omitempty"`
	Email   string        `json:"email,omitempty"`
	Details string        `json:"details,omitempty"`
	Status  ContactStatus `json:"status"`
}

type Confirmation struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"timestamp"`
}

// AppState is the session state mutated by the dispatcher. It is not safe for
// concurrent use; callers serialize access.
type AppState struct {
	UI              UIMode            `json:"ui"`
	Capture         CaptureMode       `json:"capture"`
	Contact         DraftContact      `json:"draft_contact"`
	Confirmation    DraftConfirmation `json:"draft_confirmation"`
	PendingMedia    *MediaCommand     `json:"pending_media,omitempty"`
	Recording       RecordingKind     `json:"recording,omitempty"`
	CommandsVisible bool              `json:"commands_visible"`
	Status          string            `json:"status"`
	Transcript      Transcript        `json:"-"`

	mediaSeq uint64
}

func New() *AppState {
	return &AppState{
		UI:      UIMain,
		Capture: CaptureGeneral,
		Status:  "Ready to start.",
	}
}

// Navigate switches the active panel. Leaving the contacts panel ends any capture
// in progress and discards its draft.
func (s *AppState) Navigate(mode UIMode) bool {
	changed := s.UI != mode
	s.UI = mode
	if mode != UIContacts {
		s.ResetCapture()
	}
	return changed
}

// ResetCapture returns to General capture and discards both drafts.
func (s *AppState) ResetCapture() {
	s.Capture = CaptureGeneral
	s.Contact = DraftContact{}
	s.Confirmation = DraftConfirmation{}
}

// CaptureDraft is the capture mode together with both drafts.
type CaptureDraft struct {
	Mode         CaptureMode
	Contact      DraftContact
	Confirmation DraftConfirmation
}

func (s *AppState) CaptureDraft() CaptureDraft {
	return CaptureDraft{Mode: s.Capture, Contact: s.Contact, Confirmation: s.Confirmation}
}

// RestoreCapture puts back a capture taken with CaptureDraft, so a save that
// could not be stored can be retried.
func (s *AppState) RestoreCapture(d CaptureDraft) {
	s.Capture = d.Mode
	s.Contact = d.Contact
	s.Confirmation = d.Confirmation
}

// QueueMedia replaces the pending media command and stamps it with a fresh id.
func (s *AppState) QueueMedia(cmd MediaCommand) MediaCommand {
	s.mediaSeq++
	cmd.ID = s.mediaSeq
	s.PendingMedia = &cmd
	return cmd
}

// CompleteMedia clears the pending command if id still refers to it.
func (s *AppState) CompleteMedia(id uint64) bool {
	if s.PendingMedia == nil || s.PendingMedia.ID != id {
		return false
	}
	s.PendingMedia = nil
	return true
}

func (s *AppState) ModeLabel() string {
	if s.Recording != RecordingNone {
		return "RECORDING " + s.Recording.Label()
	}
	switch s.UI {
	case UIContacts:
		switch s.Capture {
		case CaptureContact:
			return "CONTACT CAPTURE"
		case CaptureConfirmation:
			return "CONFIRMATION CAPTURE"
		}
		return "CONTACTS VIEW"
	case UIMedia:
		return "MEDIA VIEW"
	case UICalendar:
		return "CALENDAR VIEW"
	}
	return "GENERAL LISTENING"
}

// Snapshot is a read-only copy of AppState for observers outside the dispatch loop.
type Snapshot struct {
	UI              UIMode            `json:"ui"`
	Capture         CaptureMode       `json:"capture"`
	Mode            string            `json:"mode"`
	Contact         DraftContact      `json:"draft_contact"`
	Confirmation    DraftConfirmation `json:"draft_confirmation"`
	PendingMedia    *MediaCommand     `json:"pending_media,omitempty"`
	Recording       RecordingKind     `json:"recording,omitempty"`
	CommandsVisible bool              `json:"commands_visible"`
	Status          string            `json:"status"`
	Interim         string            `json:"interim,omitempty"`
}

func (s *AppState) Snapshot() Snapshot {
	snap := Snapshot{
		UI:              s.UI,
		Capture:         s.Capture,
		Mode:            s.ModeLabel(),
		Contact:         s.Contact,
		Confirmation:    s.Confirmation,
		Recording:       s.Recording,
		CommandsVisible: s.CommandsVisible,
		Status:          s.Status,
	}
	if s.PendingMedia != nil {
		cmd := *s.PendingMedia
		snap.PendingMedia = &cmd
	}
	return snap
}
