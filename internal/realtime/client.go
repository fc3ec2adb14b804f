package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"haul/internal/logging"
)

// ErrNotConnected is returned by Emit while the channel is degraded.
var ErrNotConnected = errors.New("realtime channel not connected")

const (
	defaultReconnectAttempts = 5
	defaultReconnectDelay    = time.Second
	writeWait                = 10 * time.Second
)

// TokenSource supplies the bearer token sent with the handshake.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Handler receives the raw payload of an event.
// Handlers run on the read goroutine and must not block.
type Handler func(data json.RawMessage)

// Options tunes reconnection. Zero values select the defaults.
type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// Client is the WebSocket connection to the backend. It is the single
// authority on the channel mode: every consumer reads Mode or subscribes
// with OnModeChange instead of tracking connectivity itself.
type Client struct {
	url    string
	tokens TokenSource
	dialer *websocket.Dialer
	log    *slog.Logger
	opts   Options

	mu       sync.Mutex
	conn     *websocket.Conn
	mode     Mode
	handlers map[Event]map[uint64]Handler
	watchers map[uint64]func(Mode)
	nextID   uint64
	cancel   context.CancelFunc
	ctx      context.Context
	wg       sync.WaitGroup

	writeMu sync.Mutex
}

// NewClient creates a new Client for the given ws:// or wss:// URL.
func NewClient(url string, tokens TokenSource, log *slog.Logger, opts Options) *Client {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = defaultReconnectAttempts
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	return &Client{
		url:      url,
		tokens:   tokens,
		dialer:   websocket.DefaultDialer,
		log:      log,
		opts:     opts,
		mode:     ModeDegraded,
		handlers: make(map[Event]map[uint64]Handler),
		watchers: make(map[uint64]func(Mode)),
	}
}

// Mode returns the current channel mode.
func (c *Client) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// OnModeChange registers fn to be called on every mode transition.
// The returned function removes the registration.
func (c *Client) OnModeChange(fn func(Mode)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.watchers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers, id)
	}
}

// On subscribes h to event. The returned function unsubscribes.
func (c *Client) On(event Event, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// Connect opens the channel. When the first dial fails the client stays
// DEGRADED, schedules reconnection and returns the dial error.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	if c.ctx == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	sessCtx := c.ctx
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		logging.Warn(ctx, c.log, "realtime_connect", "dial failed, reconnecting", err)
		c.startReconnect(sessCtx)
		return err
	}
	c.install(sessCtx, conn)
	return nil
}

// Disconnect closes the channel and stops reconnection. Subscriptions are
// kept so a later Connect resumes delivery.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.cancel = nil
	c.ctx = nil
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	c.wg.Wait()
	c.setMode(ModeDegraded)
}

// Emit sends one event to the backend.
func (c *Client) Emit(event Event, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(Envelope{Event: event, Data: payload})
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// install makes conn current unless the session was torn down meanwhile.
func (c *Client) install(sessCtx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	if sessCtx.Err() != nil || c.ctx != sessCtx || c.conn != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.wg.Add(1)
	c.mu.Unlock()

	c.setMode(ModeConnected)
	logging.Info(sessCtx, c.log, "realtime_connect", "channel connected")
	go c.readLoop(sessCtx, conn)
}

func (c *Client) readLoop(sessCtx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			current := c.conn == conn
			if current {
				c.conn = nil
			}
			c.mu.Unlock()

			if !current || sessCtx.Err() != nil {
				return
			}
			_ = conn.Close()
			logging.Warn(sessCtx, c.log, "realtime_read", "channel lost", err)
			c.setMode(ModeDegraded)
			c.startReconnect(sessCtx)
			return
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env Envelope) {
	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers[env.Event]))
	for _, h := range c.handlers[env.Event] {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(env.Data)
	}
}

func (c *Client) startReconnect(sessCtx context.Context) {
	c.mu.Lock()
	if sessCtx.Err() != nil || c.ctx != sessCtx {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.reconnect(sessCtx)
	}()
}

func (c *Client) reconnect(sessCtx context.Context) {
	timer := time.NewTimer(c.opts.ReconnectDelay)
	defer timer.Stop()

	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		select {
		case <-sessCtx.Done():
			return
		case <-timer.C:
		}

		conn, err := c.dial(sessCtx)
		if err == nil {
			c.install(sessCtx, conn)
			return
		}
		logging.Warn(sessCtx, c.log, "realtime_reconnect", "reconnect attempt failed", err, "attempt", attempt)
		timer.Reset(c.opts.ReconnectDelay)
	}

	logging.Error(sessCtx, c.log, "realtime_reconnect", "giving up on realtime channel", nil,
		"attempts", c.opts.ReconnectAttempts)
}

func (c *Client) setMode(m Mode) {
	c.mu.Lock()
	if c.mode == m {
		c.mu.Unlock()
		return
	}
	c.mode = m
	ws := make([]func(Mode), 0, len(c.watchers))
	for _, fn := range c.watchers {
		ws = append(ws, fn)
	}
	c.mu.Unlock()

	for _, fn := range ws {
		fn(m)
	}
}
