package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// LogNotification is a logsSubscribe message for a transaction mentioning
// the subscribed address.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	WriteTimeout      time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSClient subscribes to transaction logs mentioning a single address.
// The monitor uses it as a wakeup signal so the poll loop does not have to
// wait out its full interval when activity happens.
type WSClient struct {
	endpoint string
	config   WSClientConfig
	mentions string

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	notifications chan LogNotification
	done          chan struct{}
	wg            sync.WaitGroup
}

// NewWSClient connects and subscribes to logs mentioning the given
// address. Notifications are delivered on Notifications(); the channel is
// closed when the client shuts down.
func NewWSClient(ctx context.Context, endpoint, mentions string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint:      endpoint,
		config:        cfg,
		mentions:      mentions,
		notifications: make(chan LogNotification, 64),
		done:          make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// Notifications returns the delivery channel.
func (c *WSClient) Notifications() <-chan LogNotification {
	return c.notifications
}

// Close shuts the client down and closes the notification channel.
func (c *WSClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}

	c.wg.Wait()
	close(c.notifications)
	return nil
}

func (c *WSClient) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}

	sub := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      c.requestID.Add(1),
		"method":  "logsSubscribe",
		"params": []interface{}{
			map[string]interface{}{"mentions": []string{c.mentions}},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("send subscription: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// wsMessage covers both subscription confirmations and notifications.
type wsMessage struct {
	Method string `json:"method"`
	Params *struct {
		Result struct {
			Context struct {
				Slot int64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string      `json:"signature"`
				Logs      []string    `json:"logs"`
				Err       interface{} `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// readLoop reads notifications and reconnects with backoff on failure.
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	delay := c.config.ReconnectDelay

	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			select {
			case <-c.done:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			if err := c.connect(context.Background()); err != nil {
				continue
			}
			delay = c.config.ReconnectDelay
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Method != "logsNotification" || msg.Params == nil {
			continue
		}

		n := LogNotification{
			Signature: msg.Params.Result.Value.Signature,
			Slot:      msg.Params.Result.Context.Slot,
			Logs:      msg.Params.Result.Value.Logs,
			Err:       msg.Params.Result.Value.Err,
		}

		select {
		case c.notifications <- n:
		case <-c.done:
			return
		default:
			// Drop when the consumer is behind; the poller will catch up.
		}
	}
}
