package recognition

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoSpeech     = errors.New("no-speech")
	ErrAborted      = errors.New("aborted")
	ErrNotAllowed   = errors.New("not-allowed")
	ErrDisconnected = errors.New("source disconnected")
	ErrListening    = errors.New("already listening")
)

// Result is one recognition hypothesis. Only Final results are commands.
type Result struct {
	Text  string
	Final bool
}

// Source produces recognition results until it ends or ctx is cancelled.
// emit must be called from a single goroutine, in recognition order.
type Source interface {
	Listen(ctx context.Context, emit func(Result)) error
}

// Sink consumes what the session hears.
type Sink interface {
	Submit(ctx context.Context, text string) error
	Interim(text string)
	Status(ctx context.Context, msg string) error
}

// CodeError maps a recognizer error code onto the sentinel errors.
func CodeError(code string) error {
	switch strings.TrimSpace(code) {
	case "no-speech":
		return ErrNoSpeech
	case "aborted":
		return ErrAborted
	case "not-allowed", "service-not-allowed":
		return ErrNotAllowed
	case "":
		return nil
	}
	return fmt.Errorf("speech recognition error: %s", code)
}

func transient(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrAborted) || errors.Is(err, ErrDisconnected)
}

// Session keeps a Source running while listening is on, restarting it when it
// ends. Final results go to the sink one at a time; interim text only updates
// the display.
type Session struct {
	src          Source
	sink         Sink
	restartDelay time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(src Source, sink Sink) *Session {
	return &Session{
		src:          src,
		sink:         sink,
		restartDelay: 300 * time.Millisecond,
	}
}

func (s *Session) SetRestartDelay(d time.Duration) {
	s.restartDelay = d
}

func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start begins listening in the background.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrListening
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx, s.done)
	return nil
}

// Stop ends listening and waits for the source to return. Safe to call when idle.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.sink.Interim("")

	emit := func(r Result) {
		text := strings.TrimSpace(r.Text)
		if !r.Final {
			s.sink.Interim(text)
			return
		}
		s.sink.Interim("")
		if text == "" {
			return
		}
		if err := s.sink.Submit(ctx, text); err != nil {
			log.Warn("Dropped utterance", "text", text, "err", err)
		}
	}

	for {
		err := s.src.Listen(ctx, emit)
		if ctx.Err() != nil {
			return
		}

		switch {
		case err == nil, transient(err):
			if err != nil {
				log.Debug("Recognition ended", "err", err)
			}
		case errors.Is(err, ErrNotAllowed):
			log.Error("Recognition not permitted", "err", err)
			_ = s.sink.Status(ctx, "Could not start listening. Please ensure microphone permissions are granted.")
			s.detach(done)
			return
		default:
			log.Warn("Recognition failed", "err", err)
			_ = s.sink.Status(ctx, err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.restartDelay):
		}
	}
}

// detach clears the running state after the session gave up on its own.
func (s *Session) detach(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == done {
		s.cancel()
		s.cancel, s.done = nil, nil
	}
}
