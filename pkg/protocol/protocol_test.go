package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Frame
		err  string
	}{
		{name: "hello", in: `{"kind":"hello","text":"ui"}`, want: Frame{Kind: KindHello, Text: RoleUI}},
		{name: "final result", in: `{"kind":"result","text":"show contacts","final":true}`, want: Frame{Kind: KindResult, Text: "show contacts", Final: true}},
		{name: "empty interim", in: `{"kind":"interim"}`, want: Frame{Kind: KindInterim}},
		{name: "media done", in: `{"kind":"media_done","id":4}`, want: Frame{Kind: KindMediaDone, ID: 4}},
		{name: "recording stopped", in: `{"kind":"recording","text":""}`, want: Frame{Kind: KindRecording}},
		{name: "blank", in: "  ", err: "empty message"},
		{name: "not json", in: "take a photo", err: "invalid frame"},
		{name: "no kind", in: `{"text":"x"}`, err: "missing kind"},
		{name: "unknown kind", in: `{"kind":"shout"}`, err: `unknown kind: "shout"`},
		{name: "bad role", in: `{"kind":"hello","text":"admin"}`, err: `invalid role: "admin"`},
		{name: "error without code", in: `{"kind":"error"}`, err: "error frame without code"},
		{name: "media done without id", in: `{"kind":"media_done"}`, err: "without id"},
		{name: "bad recording", in: `{"kind":"recording","text":"photo"}`, err: "invalid recording kind"},
		{name: "state without payload", in: `{"kind":"state"}`, err: "state frame without payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.in))
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *f)
		})
	}
}

func TestNewFrameDecode(t *testing.T) {
	type payload struct {
		Kind  string `json:"kind"`
		Count int    `json:"count"`
	}

	f, err := NewFrame(KindMedia, payload{Kind: "take_photos", Count: 3})
	require.NoError(t, err)

	data, err := f.Encode()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)

	var got payload
	require.NoError(t, parsed.Decode(&got))
	assert.Equal(t, payload{Kind: "take_photos", Count: 3}, got)
}

func TestNewFrameUnmarshalable(t *testing.T) {
	_, err := NewFrame(KindState, make(chan int))
	assert.Error(t, err)
}

func TestDecodeWithoutPayload(t *testing.T) {
	err := Frame{Kind: KindInterim}.Decode(&struct{}{})
	assert.EqualError(t, err, "interim frame has no payload")
}

func TestEncodeRejectsInvalid(t *testing.T) {
	_, err := Frame{Kind: KindError}.Encode()
	assert.Error(t, err)
}
