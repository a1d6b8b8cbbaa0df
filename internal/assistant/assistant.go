package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"handsfree/internal/nlu"
	"handsfree/internal/state"
	"handsfree/internal/store"
)

var ErrStopped = errors.New("assistant stopped")

// MediaSink executes media commands. It must report completion through
// Assistant.MediaDone with the command's ID.
type MediaSink interface {
	Execute(cmd state.MediaCommand)
}

// Observer is told about every visible change. Calls happen on the dispatch
// goroutine, except OnInterim which may come from any goroutine.
type Observer interface {
	OnState(snap state.Snapshot)
	OnTranscript(e state.TranscriptEntry)
	OnInterim(text string)
}

type Config struct {
	Matcher    nlu.Matcher
	Dispatcher *nlu.Dispatcher
	Store      store.Store
	Media      MediaSink
	State      *state.AppState
	Now        func() time.Time
	NewID      func() string
}

// Assistant owns AppState and applies one event at a time. Utterances,
// media completions and recording changes are queued and handled in arrival
// order by Run; the Handle* methods do the same work synchronously.
type Assistant struct {
	matcher    nlu.Matcher
	dispatcher *nlu.Dispatcher
	store      store.Store
	state      *state.AppState
	now        func() time.Time
	newID      func() string

	events chan event
	done   chan struct{}

	obsMu     sync.RWMutex
	observers []Observer

	mediaMu sync.Mutex
	media   MediaSink

	interimMu sync.Mutex
	interim   string
}

type eventKind int

const (
	evUtterance eventKind = iota
	evMediaDone
	evRecording
	evStatus
	evSnapshot
)

type event struct {
	kind      eventKind
	text      string
	mediaID   uint64
	recording state.RecordingKind
	reply     chan state.Snapshot
}

func New(cfg Config) *Assistant {
	a := &Assistant{
		matcher:    cfg.Matcher,
		dispatcher: cfg.Dispatcher,
		store:      cfg.Store,
		media:      cfg.Media,
		state:      cfg.State,
		now:        cfg.Now,
		newID:      cfg.NewID,
		events:     make(chan event, 64),
		done:       make(chan struct{}),
	}
	if a.matcher == nil {
		a.matcher = nlu.NewRuleMatcher()
	}
	if a.dispatcher == nil {
		a.dispatcher = nlu.NewDispatcher()
	}
	if a.store == nil {
		a.store = store.NewMemory()
	}
	if a.state == nil {
		a.state = state.New()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	return a
}

func (a *Assistant) AddObserver(o Observer) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.observers = append(a.observers, o)
}

// SetMedia replaces the media executor. It may be called while Run is active.
func (a *Assistant) SetMedia(m MediaSink) {
	a.mediaMu.Lock()
	a.media = m
	a.mediaMu.Unlock()
}

func (a *Assistant) mediaSink() MediaSink {
	a.mediaMu.Lock()
	defer a.mediaMu.Unlock()
	return a.media
}

// Run drains queued events until ctx is cancelled.
func (a *Assistant) Run(ctx context.Context) error {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-a.events:
			a.apply(ctx, ev)
		}
	}
}

func (a *Assistant) apply(ctx context.Context, ev event) {
	switch ev.kind {
	case evUtterance:
		a.HandleUtterance(ctx, ev.text)
	case evMediaDone:
		a.HandleMediaDone(ev.mediaID)
	case evRecording:
		a.HandleRecording(ev.recording)
	case evStatus:
		a.HandleStatus(ctx, ev.text)
	case evSnapshot:
		ev.reply <- a.snapshot()
	}
}

func (a *Assistant) enqueue(ctx context.Context, ev event) error {
	select {
	case <-a.done:
		return ErrStopped
	default:
	}
	select {
	case a.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrStopped
	}
}

// Submit queues a finalized utterance. Blocks while the queue is full so
// arrival order is preserved.
func (a *Assistant) Submit(ctx context.Context, text string) error {
	return a.enqueue(ctx, event{kind: evUtterance, text: text})
}

// MediaDone reports that the media collaborator finished command id.
func (a *Assistant) MediaDone(ctx context.Context, id uint64) error {
	return a.enqueue(ctx, event{kind: evMediaDone, mediaID: id})
}

// RecordingChanged reports which recording, if any, is now running.
func (a *Assistant) RecordingChanged(ctx context.Context, kind state.RecordingKind) error {
	return a.enqueue(ctx, event{kind: evRecording, recording: kind})
}

// Status posts a collaborator message (recognition errors and the like).
func (a *Assistant) Status(ctx context.Context, msg string) error {
	return a.enqueue(ctx, event{kind: evStatus, text: msg})
}

// Snapshot returns the current state as seen by the dispatch loop.
func (a *Assistant) Snapshot(ctx context.Context) (state.Snapshot, error) {
	reply := make(chan state.Snapshot, 1)
	if err := a.enqueue(ctx, event{kind: evSnapshot, reply: reply}); err != nil {
		return state.Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return state.Snapshot{}, ctx.Err()
	}
}

// Interim updates the live display text. It never reaches the matcher or the log.
func (a *Assistant) Interim(text string) {
	a.interimMu.Lock()
	a.interim = text
	a.interimMu.Unlock()

	for _, o := range a.observerList() {
		o.OnInterim(text)
	}
}

func (a *Assistant) InterimText() string {
	a.interimMu.Lock()
	defer a.interimMu.Unlock()
	return a.interim
}

// HandleUtterance interprets one finalized utterance and applies its effects.
func (a *Assistant) HandleUtterance(ctx context.Context, text string) nlu.Effects {
	u := nlu.Parse(text)
	if u.Raw == "" {
		return nlu.Effects{}
	}

	a.record(ctx, u.Raw, state.OriginUser)

	action, err := a.matcher.Match(ctx, u, a.state.Capture)
	if err != nil {
		log.Warn("Matcher failed", "text", u.Raw, "err", err)
		action = nlu.Unknown(u.Raw)
	}

	log.Debug("Matched", "text", u.Raw, "intent", action.Intent, "field", action.Field)

	before := a.state.CaptureDraft()
	eff := a.dispatcher.Dispatch(action, a.state)

	// A record the store rejects keeps its capture open for another save.
	if eff.Contact != nil {
		if err := a.store.AddContact(ctx, *eff.Contact); err != nil {
			log.Error("Failed to save contact", "id", eff.Contact.ID, "err", err)
			a.state.RestoreCapture(before)
			eff.Contact = nil
			eff.Status = "Failed to save contact."
			a.state.Status = eff.Status
		}
	}
	if eff.Confirmation != nil {
		if err := a.store.AddConfirmation(ctx, *eff.Confirmation); err != nil {
			log.Error("Failed to save confirmation", "id", eff.Confirmation.ID, "err", err)
			a.state.RestoreCapture(before)
			eff.Confirmation = nil
			eff.Status = "Failed to save confirmation."
			a.state.Status = eff.Status
		}
	}

	if eff.Status != "" {
		a.record(ctx, eff.Status, state.OriginSystem)
	}

	if m := a.mediaSink(); eff.Media != nil && m != nil {
		m.Execute(*eff.Media)
	}

	a.publishState()
	return eff
}

func (a *Assistant) HandleMediaDone(id uint64) {
	if a.state.CompleteMedia(id) {
		log.Debug("Media command complete", "id", id)
		a.publishState()
	}
}

func (a *Assistant) HandleRecording(kind state.RecordingKind) {
	if a.state.Recording == kind {
		return
	}
	a.state.Recording = kind
	a.publishState()
}

func (a *Assistant) HandleStatus(ctx context.Context, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	a.state.Status = msg
	a.record(ctx, msg, state.OriginSystem)
	a.publishState()
}

// Transcript returns the in-memory log in arrival order.
func (a *Assistant) Transcript() []state.TranscriptEntry {
	return a.state.Transcript.Entries()
}

// State exposes the owned state for synchronous callers such as tests.
func (a *Assistant) State() *state.AppState {
	return a.state
}

func (a *Assistant) record(ctx context.Context, text string, origin state.Origin) {
	e := state.TranscriptEntry{
		ID:        a.newID(),
		Text:      text,
		Timestamp: a.now(),
		Origin:    origin,
	}
	a.state.Transcript.Append(e)
	if err := a.store.AppendTranscript(ctx, e); err != nil {
		log.Warn("Failed to persist transcript", "err", err)
	}
	for _, o := range a.observerList() {
		o.OnTranscript(e)
	}
}

func (a *Assistant) snapshot() state.Snapshot {
	snap := a.state.Snapshot()
	snap.Interim = a.InterimText()
	return snap
}

func (a *Assistant) publishState() {
	obs := a.observerList()
	if len(obs) == 0 {
		return
	}
	snap := a.snapshot()
	for _, o := range obs {
		o.OnState(snap)
	}
}

func (a *Assistant) observerList() []Observer {
	a.obsMu.RLock()
	defer a.obsMu.RUnlock()
	return append([]Observer(nil), a.observers...)
}
