package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/sailboard/dashboard/pkg/streaming"
)

const (
	outboxSize   = 1_000
	maxReconnect = 10
	baseBackoff  = time.Second
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

var (
	errClosed       = errors.New("websocket: connection closed")
	errDisconnected = errors.New("websocket: reconnect failed")
	errSendFull     = errors.New("websocket: send queue full")
)

type linkState int

const (
	linkDown linkState = iota
	linkUp
	linkReconnecting
	linkFailed
	linkClosed
)

// connection owns one dashboard link. Writes go through a single outbox
// so frames keep their order across reconnects.
type connection struct {
	mu      sync.Mutex
	conn    *ws.Conn
	state   linkState
	waiters map[string][]chan struct{}
	// start_export of the open snapshot, resent after every reconnect
	replay []byte

	outbox chan []byte
	done   chan struct{}

	target string
	dialer *ws.Dialer
	logger *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		waiters: make(map[string][]chan struct{}),
		outbox:  make(chan []byte, outboxSize),
		done:    make(chan struct{}),
		dialer:  &ws.Dialer{HandshakeTimeout: writeWait},
		logger:  logger,
	}
}

// dial resolves the dashboard URL, authenticating with the secret as a
// query parameter, and brings the link up.
func (c *connection) dial(rawURL, secret string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()
	c.target = u.String()

	conn, _, err := c.dialer.Dial(c.target, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	c.attach(conn)
	return nil
}

// attach makes conn the live link and starts loops bound to it.
func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.state = linkUp
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)
}

func (c *connection) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.outbox:
			err := conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err == nil {
				err = conn.WriteMessage(ws.TextMessage, data)
			}
			if err != nil {
				c.lost(conn, err)
				return
			}
		}
	}
}

func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.lost(conn, err)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			c.logger.Debug("Ignoring dashboard message", "raw", string(message))
			continue
		}
		c.resolve(ack.For)
	}
}

// lost retires conn after an I/O error. Only the first loop to notice
// starts a reconnect; a loop on an already replaced conn is ignored.
func (c *connection) lost(conn *ws.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn || c.state != linkUp {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = linkReconnecting
	c.mu.Unlock()

	_ = conn.Close()
	c.logger.Warn("Dashboard link lost", "error", err)
	go c.reconnect()
}

// backoff doubles from baseBackoff up to maxBackoff.
func backoff(attempt int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func (c *connection) reconnect() {
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		wait := backoff(attempt)
		c.logger.Info("Reconnecting to dashboard", "attempt", attempt, "backoff", wait)

		timer := time.NewTimer(wait)
		select {
		case <-c.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		conn, _, err := c.dialer.Dial(c.target, nil)
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			err := conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err == nil {
				err = conn.WriteMessage(ws.TextMessage, replay)
			}
			if err != nil {
				c.logger.Warn("Failed to replay start_export", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.logger.Info("Dashboard link restored", "attempt", attempt)
		c.attach(conn)
		return
	}

	c.logger.Error("Giving up on dashboard link", "maxAttempts", maxReconnect)
	c.mu.Lock()
	if c.state != linkClosed {
		c.state = linkFailed
	}
	c.mu.Unlock()
}

// setReplay remembers the frame to resend after a reconnect; nil clears it.
func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

// send queues data without blocking. Frames queued while reconnecting go
// out once the link is back.
func (c *connection) send(data []byte) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case linkClosed:
		return errClosed
	case linkFailed:
		return errDisconnected
	}

	select {
	case c.outbox <- data:
		return nil
	default:
		c.logger.Warn("Dashboard outbox full, dropping frame")
		return errSendFull
	}
}

// sendAndWait sends data and blocks until the server acks ackFor.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	ch := c.expect(ackFor)
	defer c.forget(ackFor, ch)

	if err := c.send(data); err != nil {
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return fmt.Errorf("timeout waiting for ack of %q", ackFor)
	case <-c.done:
		return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
	}
}

func (c *connection) expect(ackFor string) chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.waiters[ackFor] = append(c.waiters[ackFor], ch)
	c.mu.Unlock()
	return ch
}

func (c *connection) forget(ackFor string, ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := slices.DeleteFunc(c.waiters[ackFor], func(w chan struct{}) bool { return w == ch })
	if len(list) == 0 {
		delete(c.waiters, ackFor)
		return
	}
	c.waiters[ackFor] = list
}

// resolve wakes the oldest waiter for ackFor. Unexpected acks are dropped.
func (c *connection) resolve(ackFor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.waiters[ackFor]
	if len(list) == 0 {
		c.logger.Debug("Unexpected ack", "for", ackFor)
		return
	}
	list[0] <- struct{}{}
	c.waiters[ackFor] = list[1:]
}

// close sends a close frame and stops every loop.
func (c *connection) close() error {
	c.mu.Lock()
	if c.state == linkClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = linkClosed
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return conn.Close()
}
