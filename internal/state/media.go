package state

import "fmt"

type MediaKind string

const (
	MediaTakePhotos         MediaKind = "take_photos"
	MediaTakePhotoTimer     MediaKind = "take_photo_timer"
	MediaRecordVideo        MediaKind = "record_video"
	MediaRecordAudio        MediaKind = "record_audio"
	MediaStopRecording      MediaKind = "stop_recording"
	MediaStopAudioRecording MediaKind = "stop_audio_recording"
	MediaSwitchCamera       MediaKind = "switch_camera"
)

// MediaCommand is one instruction for the media collaborator. Which fields are
// meaningful depends on Kind:
//
//	TakePhotos      Count, Delay
//	TakePhotoTimer  Duration
//	RecordVideo     Duration (0 = until stopped)
//	RecordAudio     Duration (0 = until stopped)
//
// Delay and Duration are in seconds.
type MediaCommand struct {
	ID       uint64    `json:"id"`
	Kind     MediaKind `json:"kind"`
	Count    int       `json:"count,omitempty"`
	Delay    int       `json:"delay,omitempty"`
	Duration int       `json:"duration,omitempty"`
}

func TakePhotos(count, delay int) MediaCommand {
	return MediaCommand{Kind: MediaTakePhotos, Count: count, Delay: delay}
}

func TakePhotoTimer(seconds int) MediaCommand {
	return MediaCommand{Kind: MediaTakePhotoTimer, Duration: seconds}
}

func RecordVideo(seconds int) MediaCommand {
	return MediaCommand{Kind: MediaRecordVideo, Duration: seconds}
}

func RecordAudio(seconds int) MediaCommand {
	return MediaCommand{Kind: MediaRecordAudio, Duration: seconds}
}

func StopRecording() MediaCommand      { return MediaCommand{Kind: MediaStopRecording} }
func StopAudioRecording() MediaCommand { return MediaCommand{Kind: MediaStopAudioRecording} }
func SwitchCamera() MediaCommand       { return MediaCommand{Kind: MediaSwitchCamera} }

// Describe renders the user-facing status line for a freshly queued command.
func (c MediaCommand) Describe() string {
	switch c.Kind {
	case MediaTakePhotos:
		return fmt.Sprintf("Taking %d photo(s) with a %ds delay.", c.Count, c.Delay)
	case MediaTakePhotoTimer:
		return fmt.Sprintf("Photo timer set for %d seconds.", c.Duration)
	case MediaRecordVideo, MediaRecordAudio:
		what := "Video"
		if c.Kind == MediaRecordAudio {
			what = "Audio"
		}
		if c.Duration > 0 {
			return fmt.Sprintf("Recording %s for %d seconds.", what, c.Duration)
		}
		return fmt.Sprintf("Started %s recording.", what)
	case MediaStopRecording:
		return "Stopping recording."
	case MediaStopAudioRecording:
		return "Stopping audio recording."
	case MediaSwitchCamera:
		return "Switching camera."
	}
	return string(c.Kind)
}

type RecordingKind string

const (
	RecordingNone  RecordingKind = ""
	RecordingVideo RecordingKind = "video"
	RecordingAudio RecordingKind = "audio"
)

func (k RecordingKind) Label() string {
	switch k {
	case RecordingVideo:
		return "VIDEO"
	case RecordingAudio:
		return "AUDIO"
	}
	return ""
}
