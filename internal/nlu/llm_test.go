package nlu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree/internal/state"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestLLMMatcherSendsModeAndRawText(t *testing.T) {
	llm := &fakeCompleter{reply: `{"intent":"save_contact","entities":{},"query":"Save Contact"}`}
	m := NewLLMMatcher(llm)

	a, err := m.Match(context.Background(), Parse("Save Contact"), state.CaptureContact)
	require.NoError(t, err)
	assert.Equal(t, IntentSaveContact, a.Intent)
	assert.Equal(t, "Save Contact", a.Raw)
	assert.Equal(t, "mode: contact\nSave Contact", llm.user)
	assert.True(t, strings.Contains(llm.system, "set_confirmation_field"))
}

func TestLLMMatcherFencedReply(t *testing.T) {
	llm := &fakeCompleter{reply: "```json\n{\"intent\":\"take_photos\",\"entities\":{\"count\":3,\"delay\":2}}\n```"}

	a, err := NewLLMMatcher(llm).Match(context.Background(), Parse("take three pictures in two seconds"), state.CaptureGeneral)
	require.NoError(t, err)
	require.NotNil(t, a.Media)
	assert.Equal(t, state.TakePhotos(3, 2), *a.Media)
}

func TestLLMMatcherErrors(t *testing.T) {
	boom := errors.New("boom")
	a, err := NewLLMMatcher(&fakeCompleter{err: boom}).Match(context.Background(), Parse("hi"), state.CaptureGeneral)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, IntentUnknown, a.Intent)

	a, err = NewLLMMatcher(&fakeCompleter{reply: "not json"}).Match(context.Background(), Parse("hi"), state.CaptureGeneral)
	assert.Error(t, err)
	assert.Equal(t, Unknown("hi"), a)
}

func TestResultAction(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   Action
	}{
		{
			name:   "navigation",
			result: Result{Intent: "show_calendar"},
			want:   Action{Intent: IntentShowCalendar, Raw: "raw"},
		},
		{
			name:   "contact field keeps case",
			result: Result{Intent: "set_contact_field", Entities: map[string]any{"field": "Name", "value": "Jane Doe"}},
			want:   Action{Intent: IntentSetContactField, Field: "name", Value: "Jane Doe", Raw: "raw"},
		},
		{
			name:   "confirmation number is compacted",
			result: Result{Intent: "set_confirmation_field", Entities: map[string]any{"field": "number", "value": "one two 3"}},
			want:   Action{Intent: IntentSetConfirmField, Field: "number", Value: "123", Raw: "raw"},
		},
		{
			name:   "photo count defaults to one",
			result: Result{Intent: "take_photos", Entities: map[string]any{"count": float64(0)}},
			want:   MediaAction(state.TakePhotos(1, 0), "raw"),
		},
		{
			name:   "photo timer",
			result: Result{Intent: "take_photo_timer", Entities: map[string]any{"duration": float64(10)}},
			want:   MediaAction(state.TakePhotoTimer(10), "raw"),
		},
		{
			name:   "photo timer without duration",
			result: Result{Intent: "take_photo_timer"},
			want:   Unknown("raw"),
		},
		{
			name:   "audio with string duration",
			result: Result{Intent: "record_audio", Entities: map[string]any{"duration": "30"}},
			want:   MediaAction(state.RecordAudio(30), "raw"),
		},
		{
			name:   "video open ended",
			result: Result{Intent: "record_video"},
			want:   MediaAction(state.RecordVideo(0), "raw"),
		},
		{
			name:   "huge video duration is unset",
			result: Result{Intent: "record_video", Entities: map[string]any{"duration": float64(1e12)}},
			want:   MediaAction(state.RecordVideo(0), "raw"),
		},
		{
			name:   "negative audio duration is unset",
			result: Result{Intent: "record_audio", Entities: map[string]any{"duration": float64(-5)}},
			want:   MediaAction(state.RecordAudio(0), "raw"),
		},
		{
			name:   "huge photo count and delay fall back",
			result: Result{Intent: "take_photos", Entities: map[string]any{"count": float64(1e9), "delay": "99999999"}},
			want:   MediaAction(state.TakePhotos(1, 0), "raw"),
		},
		{
			name:   "stop audio",
			result: Result{Intent: "stop_audio_recording"},
			want:   MediaAction(state.StopAudioRecording(), "raw"),
		},
		{
			name:   "unknown intent",
			result: Result{Intent: "order_pizza"},
			want:   Unknown("raw"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Action("raw"))
		})
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFence(`  {"a":1} `))
}
