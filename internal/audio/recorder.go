package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const SampleRate = 16000

var ErrNoAudio = errors.New("no audio recorded")

// Recorder captures mono 16 kHz float32 PCM from the default input device.
type Recorder struct {
	SilenceRMS     float64       // frames below this are silence
	SilenceTimeout time.Duration // trailing silence that ends an utterance
	MaxUtterance   time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		SilenceRMS:     0.015,
		SilenceTimeout: 600 * time.Millisecond,
		MaxUtterance:   10 * time.Second,
	}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto waits for speech and returns it once trailing silence exceeds
// SilenceTimeout, or MaxUtterance passes. Returns an empty slice when nobody spoke.
func (r *Recorder) RecordAuto() ([]float32, error) {
	const frameSize = 320 // 20ms

	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking      bool
		silenceFrames int
	)

	frameDur := time.Second * frameSize / SampleRate
	maxFrames := int(r.MaxUtterance / frameDur)
	silenceLimit := int(r.SilenceTimeout / frameDur)

	for i := 0; i < maxFrames; i++ {
		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > r.SilenceRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
			continue
		}
		if speaking {
			silenceFrames++
			if silenceFrames >= silenceLimit {
				break
			}
			out = append(out, buf...)
		}
	}

	return out, nil
}

// RecordUntil captures until ctx is done or maxDur elapses. maxDur <= 0 means
// no limit besides ctx.
func (r *Recorder) RecordUntil(ctx context.Context, maxDur time.Duration) ([]float32, error) {
	const frameSize = 1024

	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var deadline time.Time
	if maxDur > 0 {
		deadline = time.Now().Add(maxDur)
	}
	out := make([]float32, 0, SampleRate*4)

	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
