package main

import (
	"handsfree/internal/state"
	"handsfree/internal/tts"
)

// voice speaks every system transcript entry.
type voice struct {
	spk *tts.Speaker
}

func (v voice) OnState(state.Snapshot) {}

func (v voice) OnInterim(string) {}

func (v voice) OnTranscript(e state.TranscriptEntry) {
	if e.Origin == state.OriginSystem {
		v.spk.Say(e.Text)
	}
}
