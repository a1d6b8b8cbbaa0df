package state

import "time"

type Origin string

const (
	OriginUser   Origin = "user"
	OriginSystem Origin = "system"
	OriginModel  Origin = "model"
)

type TranscriptEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Origin    Origin    `json:"origin"`
}

// Transcript is an append-only log of finalized utterances and status messages.
type Transcript struct {
	entries []TranscriptEntry
}

func (t *Transcript) Append(e TranscriptEntry) {
	t.entries = append(t.entries, e)
}

// Entries returns a copy of the log in arrival order.
func (t *Transcript) Entries() []TranscriptEntry {
	return append([]TranscriptEntry(nil), t.entries...)
}

func (t *Transcript) Len() int { return len(t.entries) }
