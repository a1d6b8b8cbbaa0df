package protocol

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// Client is a daemon connection that redials when the link drops.
type Client struct {
	url    string
	reconn time.Duration
	hello  Frame

	mu   sync.Mutex
	conn *ws.Conn
}

// Dial connects to url and introduces itself with role.
func Dial(ctx context.Context, url, role string, reconn time.Duration) (*Client, error) {
	log.Debug("Dialing daemon", "url", url)

	c := &Client{
		url:    url,
		reconn: reconn,
		hello:  Frame{Kind: KindHello, Text: role},
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := ws.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	data, err := c.hello.Encode()
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Send writes f, redialing once if the write fails.
func (c *Client) Send(ctx context.Context, f Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}

	err = c.write(data)
	if err == nil {
		return nil
	}

	log.Warn("Trying to reconnect on", "url", c.url, "err", err)
	if err := c.Reconnect(ctx); err != nil {
		return err
	}
	return c.write(data)
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug("Write ws", "msg", string(data))
	return c.conn.WriteMessage(ws.TextMessage, data)
}

// Read returns the next frame. Unparseable frames are skipped.
func (c *Client) Read() (*Frame, error) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		f, err := Parse(msg)
		if err != nil {
			log.Warn("Failed to parse", "msg", string(msg), "err", err)
			continue
		}
		return f, nil
	}
}

// Reconnect redials until it succeeds or ctx is done.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	for {
		if err := c.connect(ctx); err == nil {
			log.Info("Successfully reconnected")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconn):
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return c.conn.Close()
}

func IsClosed(err error) bool {
	if err == ws.ErrCloseSent {
		return true
	}
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
