package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// EventKind identifies what happened on the channel.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventLog
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventLog:
		return "log"
	default:
		return "unknown"
	}
}

// Event is delivered for every channel lifecycle change and every log
// fragment, in arrival order.
type Event struct {
	Kind     EventKind
	Fragment string
	Err      error
}

// State is the connection state of the channel.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

const (
	defaultLogEvent   = "consolelog"
	defaultBufferSize = 256
	handshakeTimeout  = 10 * time.Second
	writeTimeout      = 5 * time.Second
)

// Channel is a receive-oriented Socket.IO client. Fragments pushed while it
// is disconnected are lost; nothing is replayed on reconnect.
type Channel struct {
	endpoint   string
	logEvent   string
	dialer     *websocket.Dialer
	header     http.Header
	newBackOff func() backoff.BackOff

	events chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	pending [][]byte
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogEvent sets the Socket.IO event name carrying log fragments.
func WithLogEvent(name string) Option {
	return func(c *Channel) {
		if strings.TrimSpace(name) != "" {
			c.logEvent = name
		}
	}
}

// WithBackOff replaces the reconnect policy.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Channel) { c.newBackOff = fn }
}

// WithHeader adds headers to the websocket handshake.
func WithHeader(h http.Header) Option {
	return func(c *Channel) { c.header = h.Clone() }
}

// New builds a Channel for the server at base (http or https URL).
func New(base *url.URL, opts ...Option) (*Channel, error) {
	if base == nil || base.Host == "" {
		return nil, fmt.Errorf("socketio: server url required")
	}
	c := &Channel{
		endpoint:   endpointFor(base),
		logEvent:   defaultLogEvent,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		newBackOff: DefaultBackOff,
		events:     make(chan Event, defaultBufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DefaultBackOff reconnects after 1s, doubling up to 30s, forever.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func endpointFor(base *url.URL) string {
	u := *base
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/socket.io/"
	u.RawPath = ""
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	u.Fragment = ""
	return u.String()
}

// Events returns the event stream. It is closed when Run returns.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// State reports the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Emit sends an event to the server, or queues it while disconnected. The
// queue is discarded on every (re)connect.
func (c *Channel) Emit(event string, args ...any) error {
	payload, err := encodeEvent(event, args...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Connected || c.conn == nil {
		c.pending = append(c.pending, payload)
		return nil
	}
	return c.writeLocked(payload)
}

// Pending reports how many outbound packets are queued.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Run connects and keeps reconnecting until ctx is cancelled. It always
// returns ctx.Err() and closes the event stream on the way out.
func (c *Channel) Run(ctx context.Context) error {
	defer close(c.events)

	policy := backoff.WithContext(c.newBackOff(), ctx)
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.emit(ctx, Event{Kind: EventDisconnected, Err: err})
		if connected {
			policy.Reset()
		}
		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			return ctx.Err()
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one websocket connection to completion. connected reports
// whether the Socket.IO handshake finished.
func (c *Channel) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.state = Disconnected
		c.mu.Unlock()
		_ = conn.Close()
	}()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return connected, fmt.Errorf("read: %w", err)
		}
		pkt, err := parsePacket(data)
		if err != nil {
			continue
		}
		switch pkt.engine {
		case engineOpen:
			if err := c.write(packetConnect); err != nil {
				return connected, err
			}
		case enginePing:
			if err := c.write(packetPong); err != nil {
				return connected, err
			}
		case engineClose:
			return connected, errors.New("server closed engine session")
		case engineMessage:
			switch pkt.socket {
			case socketConnect:
				c.mu.Lock()
				c.state = Connected
				c.pending = nil
				c.mu.Unlock()
				connected = true
				c.emit(ctx, Event{Kind: EventConnected})
			case socketDisconnect:
				return connected, errors.New("server disconnected namespace")
			case socketConnectError:
				return connected, fmt.Errorf("connect refused: %s", pkt.data)
			case socketEvent:
				name, fragment, ok := pkt.event()
				if ok && name == c.logEvent {
					c.emit(ctx, Event{Kind: EventLog, Fragment: fragment})
				}
			}
		}
	}
}

func (c *Channel) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Channel) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(payload)
}

func (c *Channel) writeLocked(payload []byte) error {
	if c.conn == nil {
		return errors.New("socketio: not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func encodeEvent(event string, args ...any) ([]byte, error) {
	body := make([]any, 0, len(args)+1)
	body = append(body, event)
	body = append(body, args...)
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode event %q: %w", event, err)
	}
	return append([]byte{engineMessage, socketEvent}, data...), nil
}
