package recognition

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"handsfree/pkg/stt"
)

type Capturer interface {
	RecordAuto() ([]float32, error)
}

type Transcriber interface {
	TranscribePCM(ctx context.Context, pcm16k []float32, opt stt.Options) (stt.Result, error)
}

// MicSource listens on the local microphone, one utterance at a time, and
// transcribes each with whisper. Every transcription is a final result.
type MicSource struct {
	rec   Capturer
	tr    Transcriber
	opts  stt.Options
	onCue func()
}

func NewMicSource(rec Capturer, tr Transcriber, opts stt.Options) *MicSource {
	return &MicSource{rec: rec, tr: tr, opts: opts}
}

// OnCue sets a callback run right before each capture starts.
func (m *MicSource) OnCue(f func()) {
	m.onCue = f
}

func (m *MicSource) Listen(ctx context.Context, emit func(Result)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.onCue != nil {
			m.onCue()
		}

		pcm, err := m.rec.RecordAuto()
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
		if len(pcm) == 0 {
			return ErrNoSpeech
		}

		res, err := m.tr.TranscribePCM(ctx, pcm, m.opts)
		if err != nil {
			return fmt.Errorf("transcribe: %w", err)
		}

		text := CleanTranscript(res.Text)
		if text == "" {
			continue
		}
		emit(Result{Text: text, Final: true})
	}
}

var (
	annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// CleanTranscript drops whisper annotations such as [BLANK_AUDIO] and the
// sentence punctuation that would keep exact-phrase commands from matching.
func CleanTranscript(s string) string {
	s = annotationRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ".,!?;: ")
}
