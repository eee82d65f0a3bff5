// ABOUTME: WebSocket client for the player control surface
// ABOUTME: Sends get/set requests and waits for the matching state reply
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a request when the context has no deadline
const DefaultTimeout = 5 * time.Second

// Client is a control connection to one player. Requests are serialised.
type Client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// Dial connects to a player. addr is either a ws:// URL or host:port, in
// which case the default control path is used.
func Dial(ctx context.Context, addr string) (*Client, error) {
	target := addr
	if !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://") {
		u := url.URL{Scheme: "ws", Host: addr, Path: DefaultPath}
		target = u.String()
	}

	logrus.WithField("url", target).Debug("Connecting to player")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Get returns the player's current state
func (c *Client) Get(ctx context.Context) (Message, error) {
	return c.request(ctx, Message{Type: TypeGet})
}

// Set sends a partial update and returns the state the player applied
func (c *Client) Set(ctx context.Context, update Message) (Message, error) {
	update.Type = TypeSet
	return c.request(ctx, update)
}

func (c *Client) request(ctx context.Context, msg Message) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Message{}, ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)
	defer c.conn.SetReadDeadline(time.Time{})

	msg.ID = uuid.New().String()
	if err := c.conn.WriteJSON(msg); err != nil {
		return Message{}, fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}

	for {
		var reply Message
		if err := c.conn.ReadJSON(&reply); err != nil {
			return Message{}, fmt.Errorf("failed to read reply: %w", err)
		}

		// broadcasts from other clients carry no ID
		if reply.ID != msg.ID {
			continue
		}
		if reply.Type == TypeError {
			return reply, fmt.Errorf("%w: %s", ErrRemote, reply.Error)
		}
		return reply, nil
	}
}

// Watch calls fn for every state message until ctx is done or the
// connection fails
func (c *Client) Watch(ctx context.Context, fn func(Message)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("watch failed: %w", err)
		}
		if msg.Type == TypeState {
			fn(msg)
		}
	}
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
