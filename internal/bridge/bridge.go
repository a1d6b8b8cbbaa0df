package bridge

import (
	"context"
	log "log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"handsfree/internal/recognition"
	"handsfree/internal/state"
	"handsfree/internal/store"
	"handsfree/pkg/protocol"
)

// Core is the part of the assistant the bridge talks to.
type Core interface {
	Submit(ctx context.Context, text string) error
	Interim(text string)
	Status(ctx context.Context, msg string) error
	MediaDone(ctx context.Context, id uint64) error
	RecordingChanged(ctx context.Context, kind state.RecordingKind) error
	Snapshot(ctx context.Context) (state.Snapshot, error)
}

type inbound struct {
	result recognition.Result
	err    error
}

// Bridge connects browser pages to the assistant. Pages send recognition
// results and media completions; they receive state, transcript and media
// commands.
type Bridge struct {
	core  Core
	store store.Store
	ctx   context.Context

	upgrader websocket.Upgrader
	router   *mux.Router

	mu      sync.Mutex
	clients map[*client]struct{}

	results   chan inbound
	listeners atomic.Int32
}

func New(ctx context.Context, core Core, st store.Store) *Bridge {
	b := &Bridge{
		core:    core,
		store:   st,
		ctx:     ctx,
		clients: make(map[*client]struct{}),
		results: make(chan inbound, 32),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	b.router = b.routes()
	return b
}

func (b *Bridge) Handler() http.Handler {
	return b.router
}

// Listen makes the bridge a recognition.Source: results from connected pages
// are emitted while a session is listening and dropped otherwise.
func (b *Bridge) Listen(ctx context.Context, emit func(recognition.Result)) error {
	b.listeners.Add(1)
	defer b.listeners.Add(-1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-b.results:
			if in.err != nil {
				return in.err
			}
			emit(in.result)
		}
	}
}

func (b *Bridge) push(in inbound) {
	if b.listeners.Load() == 0 {
		return
	}
	select {
	case b.results <- in:
	default:
		log.Warn("Recognition backlog full, dropping result")
	}
}

// Execute forwards a media command to the connected pages. Without a page the
// command cannot run, so it is completed immediately with a status message.
func (b *Bridge) Execute(cmd state.MediaCommand) {
	f, err := protocol.NewFrame(protocol.KindMedia, cmd)
	if err != nil {
		log.Error("Failed to encode media command", "err", err)
		return
	}
	if b.broadcast(f, true) > 0 {
		return
	}

	go func() {
		_ = b.core.Status(b.ctx, "No media client connected.")
		_ = b.core.MediaDone(b.ctx, cmd.ID)
	}()
}

func (b *Bridge) OnState(snap state.Snapshot) {
	if f, err := protocol.NewFrame(protocol.KindState, snap); err == nil {
		b.broadcast(f, false)
	}
}

func (b *Bridge) OnTranscript(e state.TranscriptEntry) {
	if f, err := protocol.NewFrame(protocol.KindTranscript, e); err == nil {
		b.broadcast(f, false)
	}
}

func (b *Bridge) OnInterim(text string) {
	b.broadcast(protocol.Frame{Kind: protocol.KindInterim, Text: text}, false)
}

// broadcast sends f to every client, or only to UI clients when uiOnly is set.
// It returns the number of clients the frame was queued for.
func (b *Bridge) broadcast(f protocol.Frame, uiOnly bool) int {
	data, err := f.Encode()
	if err != nil {
		log.Error("Failed to encode frame", "kind", f.Kind, "err", err)
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for c := range b.clients {
		if uiOnly && c.Role() != protocol.RoleUI {
			continue
		}
		if c.enqueue(data) {
			n++
		}
	}
	return n
}

func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Bridge) register(c *client) {
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
}

func (b *Bridge) unregister(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()
	if ok {
		c.close()
	}
}

func (b *Bridge) handleFrame(c *client, f *protocol.Frame) {
	ctx := b.ctx
	switch f.Kind {
	case protocol.KindHello:
		c.setRole(f.Text)
	case protocol.KindResult:
		b.push(inbound{result: recognition.Result{Text: f.Text, Final: f.Final}})
	case protocol.KindError:
		b.push(inbound{err: recognition.CodeError(f.Code)})
	case protocol.KindMediaDone:
		if err := b.core.MediaDone(ctx, f.ID); err != nil {
			log.Warn("Failed to forward media completion", "err", err)
		}
	case protocol.KindRecording:
		if err := b.core.RecordingChanged(ctx, state.RecordingKind(f.Text)); err != nil {
			log.Warn("Failed to forward recording state", "err", err)
		}
	default:
		log.Debug("Ignoring frame", "kind", f.Kind)
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	role   string
	closed bool
}

func (c *client) Role() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *client) setRole(role string) {
	c.mu.Lock()
	c.role = role
	c.mu.Unlock()
}

// enqueue drops the frame when the client is not keeping up.
func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		log.Warn("Client too slow, dropping frame")
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (b *Bridge) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64), role: protocol.RoleUI}
	b.register(c)
	log.Info("Client connected", "remote", r.RemoteAddr)

	go c.writePump()

	if snap, err := b.core.Snapshot(r.Context()); err == nil {
		if f, err := protocol.NewFrame(protocol.KindState, snap); err == nil {
			if data, err := f.Encode(); err == nil {
				c.enqueue(data)
			}
		}
	}

	b.readPump(c)
}

func (b *Bridge) readPump(c *client) {
	defer func() {
		b.unregister(c)
		c.conn.Close()
		if c.Role() == protocol.RoleRecognizer {
			b.push(inbound{err: recognition.ErrDisconnected})
		}
		log.Info("Client disconnected")
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !protocol.IsClosed(err) {
				log.Debug("Read ws", "err", err)
			}
			return
		}
		f, err := protocol.Parse(msg)
		if err != nil {
			log.Warn("Failed to parse", "msg", string(msg), "err", err)
			continue
		}
		b.handleFrame(c, f)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
