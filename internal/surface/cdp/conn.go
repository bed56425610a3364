// Package cdp drives a live browser page over the Chrome DevTools Protocol
// and implements surface.Surface on top of it.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/tvbatch/pkg/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// ErrClosed is returned by Call once the connection is gone
var ErrClosed = errors.New("cdp: connection closed")

// Caller issues one protocol command and decodes its result into result
type Caller interface {
	Call(ctx context.Context, method string, params interface{}, result interface{}) error
}

// ProtocolError is an error reply from the browser
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *ProtocolError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

type request struct {
	ID     int64       `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// message is either a reply (ID set) or an event (Method set)
type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ProtocolError  `json:"error,omitempty"`
}

// Conn is one DevTools websocket session. Calls may be issued concurrently;
// replies are matched by id.
// ⭐ SSOT: DevTools 웹소켓 연결은 이 타입으로만 관리
type Conn struct {
	ws     *websocket.Conn
	logger *logger.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan message
	err     error

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// Dial opens a session to a target's webSocketDebuggerUrl
func Dial(ctx context.Context, wsURL string, log *logger.Logger) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	ws, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial devtools: %w", err)
	}

	c := &Conn{
		ws:      ws,
		logger:  log,
		pending: make(map[int64]chan message),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go c.readLoop()
	go c.pingLoop()

	log.WithField("url", wsURL).Debug("Connected to DevTools")
	return c, nil
}

// Call implements Caller
func (c *Conn) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	id := c.nextID.Add(1)
	ch := make(chan message, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.ws.WriteJSON(request{ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.doneCh:
		return c.closeErr()
	case msg := <-ch:
		if msg.Error != nil {
			return fmt.Errorf("%s: %w", method, msg.Error)
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

// Close ends the session and waits for the read loop
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stopCh)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	<-c.doneCh
	return err
}

// Done is closed when the session ends
func (c *Conn) Done() <-chan struct{} {
	return c.doneCh
}

func (c *Conn) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}

// readLoop dispatches replies to their callers; events are dropped
func (c *Conn) readLoop() {
	defer close(c.doneCh)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = fmt.Errorf("%w: %v", ErrClosed, err)
			c.mu.Unlock()

			select {
			case <-c.stopCh:
			default:
				c.logger.WithError(err).Warn("DevTools connection lost")
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.WithError(err).Warn("Failed to decode DevTools message")
			continue
		}

		if msg.ID == 0 {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}

// pingLoop keeps idle sessions alive between batch runs
func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-c.doneCh:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.WithError(err).Warn("Failed to send ping")
			}
		}
	}
}
