package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

// Client to daemon.
const (
	KindHello     Kind = "hello"      // Text: client role
	KindResult    Kind = "result"     // Text, Final
	KindError     Kind = "error"      // Code: recognizer error code
	KindMediaDone Kind = "media_done" // ID
	KindRecording Kind = "recording"  // Text: "video", "audio" or ""
)

// Daemon to client.
const (
	KindState      Kind = "state"      // Payload: state snapshot
	KindMedia      Kind = "media"      // Payload: media command
	KindTranscript Kind = "transcript" // Payload: transcript entry
	KindInterim    Kind = "interim"    // Text
)

const (
	RoleUI         = "ui"
	RoleRecognizer = "recognizer"
)

// Frame is one JSON websocket message.
type Frame struct {
	Kind    Kind            `json:"kind"`
	Text    string          `json:"text,omitempty"`
	Final   bool            `json:"final,omitempty"`
	Code    string          `json:"code,omitempty"`
	ID      uint64          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewFrame(kind Kind, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return Frame{Kind: kind, Payload: data}, nil
}

func (f Frame) Encode() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Decode unmarshals the payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%s frame has no payload", f.Kind)
	}
	return json.Unmarshal(f.Payload, v)
}

func Parse(data []byte) (*Frame, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("empty message")
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f Frame) Validate() error {
	switch f.Kind {
	case KindHello:
		if f.Text != RoleUI && f.Text != RoleRecognizer {
			return fmt.Errorf("invalid role: %q", f.Text)
		}
	case KindResult, KindInterim:
	case KindError:
		if f.Code == "" {
			return errors.New("error frame without code")
		}
	case KindMediaDone:
		if f.ID == 0 {
			return errors.New("media_done frame without id")
		}
	case KindRecording:
		switch f.Text {
		case "", "video", "audio":
		default:
			return fmt.Errorf("invalid recording kind: %q", f.Text)
		}
	case KindState, KindMedia, KindTranscript:
		if len(f.Payload) == 0 {
			return fmt.Errorf("%s frame without payload", f.Kind)
		}
	case "":
		return errors.New("missing kind")
	default:
		return fmt.Errorf("unknown kind: %q", f.Kind)
	}
	return nil
}
