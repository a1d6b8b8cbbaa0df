package media

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"handsfree/internal/audio"
	"handsfree/internal/state"
)

// Reporter receives completion and recording updates. The assistant implements it.
type Reporter interface {
	MediaDone(ctx context.Context, id uint64) error
	RecordingChanged(ctx context.Context, kind state.RecordingKind) error
	Status(ctx context.Context, msg string) error
}

type AudioSource interface {
	RecordUntil(ctx context.Context, maxDur time.Duration) ([]float32, error)
}

type Ducker interface {
	Duck(ctx context.Context, factor float64) error
	Restore(ctx context.Context) error
}

type Cue int

const (
	CueRecordStart Cue = iota
	CueRecordStop
)

// Local executes media commands on a host with a microphone and no camera.
// Audio recordings are written as WAV files into dir.
type Local struct {
	ctx    context.Context
	rec    AudioSource
	report Reporter
	dir    string

	Ducker Ducker
	Cue    func(Cue)
	Now    func() time.Time

	wake chan struct{}

	mu        sync.Mutex
	pending   *state.MediaCommand
	stopAudio context.CancelFunc
	wg        sync.WaitGroup
}

func NewLocal(ctx context.Context, rec AudioSource, report Reporter, dir string) *Local {
	return &Local{
		ctx:    ctx,
		rec:    rec,
		report: report,
		dir:    dir,
		Now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
}

// Execute hands cmd to the worker. A command that has not started yet is
// replaced, never queued behind.
func (l *Local) Execute(cmd state.MediaCommand) {
	l.mu.Lock()
	l.pending = &cmd
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes commands until ctx is cancelled. Recordings count as carried
// out once they start.
func (l *Local) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		l.mu.Lock()
		cmd := l.pending
		l.pending = nil
		l.mu.Unlock()
		if cmd == nil {
			continue
		}

		l.execute(*cmd)
		if err := l.report.MediaDone(l.ctx, cmd.ID); err != nil {
			log.Warn("Failed to report media completion", "id", cmd.ID, "err", err)
		}
	}
}

func (l *Local) execute(cmd state.MediaCommand) {
	log.Debug("Executing media command", "id", cmd.ID, "kind", cmd.Kind)

	switch cmd.Kind {
	case state.MediaRecordAudio:
		l.startAudio(cmd)
	case state.MediaStopAudioRecording:
		if !l.stopAudioRecording() {
			l.status("No audio recording in progress.")
		}
	case state.MediaStopRecording:
		l.status("No video recording in progress.")
	default:
		l.status("Camera is not available on this host.")
	}
}

// Wait blocks until running recordings have been saved.
func (l *Local) Wait() {
	l.wg.Wait()
}

func (l *Local) startAudio(cmd state.MediaCommand) {
	l.mu.Lock()
	if l.stopAudio != nil {
		l.mu.Unlock()
		l.status("Already recording audio.")
		return
	}
	ctx, cancel := context.WithCancel(l.ctx)
	l.stopAudio = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer l.clearAudio(cancel)
		l.recordAudio(ctx, time.Duration(cmd.Duration)*time.Second)
	}()
}

func (l *Local) stopAudioRecording() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopAudio == nil {
		return false
	}
	l.stopAudio()
	return true
}

func (l *Local) clearAudio(cancel context.CancelFunc) {
	cancel()
	l.mu.Lock()
	l.stopAudio = nil
	l.mu.Unlock()
}

func (l *Local) recordAudio(ctx context.Context, maxDur time.Duration) {
	_ = l.report.RecordingChanged(l.ctx, state.RecordingAudio)
	defer func() { _ = l.report.RecordingChanged(l.ctx, state.RecordingNone) }()

	if l.Ducker != nil {
		if err := l.Ducker.Duck(ctx, 0.2); err != nil {
			log.Warn("Failed to duck playback", "err", err)
		}
		defer func() {
			if err := l.Ducker.Restore(l.ctx); err != nil {
				log.Warn("Failed to restore playback", "err", err)
			}
		}()
	}

	l.cue(CueRecordStart)
	started := l.Now()
	pcm, err := l.rec.RecordUntil(ctx, maxDur)
	l.cue(CueRecordStop)
	if err != nil {
		log.Error("Audio recording failed", "err", err)
		l.status("Audio recording failed.")
		return
	}

	elapsed := int(l.Now().Sub(started).Seconds())
	name := fmt.Sprintf("audio-%s_%ds.wav", started.UTC().Format("20060102T150405Z"), elapsed)
	path, err := l.save(name, pcm)
	if err != nil {
		log.Error("Failed to save recording", "err", err)
		l.status("Failed to save audio recording.")
		return
	}

	log.Info("Saved recording", "path", path, "samples", len(pcm))
	l.status(fmt.Sprintf("Saved audio recording %s.", name))
}

func (l *Local) save(name string, pcm []float32) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := audio.WriteWAV(f, pcm, audio.SampleRate); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (l *Local) cue(c Cue) {
	if l.Cue != nil {
		l.Cue(c)
	}
}

func (l *Local) status(msg string) {
	if err := l.report.Status(l.ctx, msg); err != nil {
		log.Warn("Failed to report status", "msg", msg, "err", err)
	}
}
