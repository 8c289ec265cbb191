package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeTimeout        = 10 * time.Second
	pongTimeout         = 60 * time.Second
	handshakeTimeout    = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	wsPath              = "/api/v1/pvp/ws"
)

var (
	ErrAlreadyConnecting = errors.New("already connecting")
	ErrMissingCredential = errors.New("no access token available for websocket connection")
	ErrConnectFailed     = errors.New("websocket connect failed")
)

// State is the connector lifecycle state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Disconnect describes why a connection closed. Requested is true when the
// close was initiated by WSClient.Disconnect; Err is set otherwise.
type Disconnect struct {
	Err       error
	Requested bool
}

// Handlers receive connector events. Any field may be nil. Callbacks run on
// connector goroutines and must not block.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func(Disconnect)
	OnError      func(error)
	OnMessage    func(Message)
}

type wsConn struct {
	*websocket.Conn
	requested atomic.Bool
	stopPing  context.CancelFunc
}

// WSClient owns at most one WebSocket connection to the PvP endpoint.
type WSClient struct {
	baseURL      string
	handlers     Handlers
	dialer       *websocket.Dialer
	pingInterval time.Duration
	log          zerolog.Logger

	mu         sync.Mutex
	writeMu    sync.Mutex // serialises all conn writes (ping, send, close)
	state      State
	conn       *wsConn
	cancelDial context.CancelFunc
	dialSeq    uint64
}

// WSOption configures a WSClient.
type WSOption func(*WSClient)

// WithPingInterval sets the keepalive period. Zero disables keepalive.
func WithPingInterval(d time.Duration) WSOption {
	return func(c *WSClient) { c.pingInterval = d }
}

// WithLogger sets the logger used for dropped frames and write failures.
func WithLogger(l zerolog.Logger) WSOption {
	return func(c *WSClient) { c.log = l }
}

// NewWSClient creates a connector for the given WebSocket base URL
// (e.g. "ws://localhost:8081").
func NewWSClient(baseURL string, h Handlers, opts ...WSOption) *WSClient {
	c := &WSClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		handlers:     h,
		dialer:       &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		pingInterval: defaultPingInterval,
		log:          zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the endpoint URL with the token attached as a query parameter.
// The protocol has no in-band auth handshake.
func (c *WSClient) URL(token string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + wsPath
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// State returns the current lifecycle state.
func (c *WSClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the endpoint and returns once the connection is open. It is a
// no-op when already open.
func (c *WSClient) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	switch c.state {
	case StateOpen:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		c.mu.Unlock()
		return ErrAlreadyConnecting
	}
	if token == "" {
		c.mu.Unlock()
		return ErrMissingCredential
	}
	dialCtx, cancel := context.WithCancel(ctx)
	c.dialSeq++
	seq := c.dialSeq
	c.state = StateConnecting
	c.cancelDial = cancel
	c.mu.Unlock()
	defer cancel()

	target, err := c.URL(token)
	var conn *websocket.Conn
	if err == nil {
		conn, _, err = c.dialer.DialContext(dialCtx, target, nil)
	}

	c.mu.Lock()
	current := c.dialSeq == seq
	if current {
		c.cancelDial = nil
	}
	if err == nil && (!current || c.state != StateConnecting) {
		// Disconnect was called while the handshake was in flight.
		err = errors.New("disconnected during handshake")
		conn.Close()
	}
	if err != nil {
		if current {
			c.state = StateClosed
		}
		c.mu.Unlock()
		err = fmt.Errorf("%w: %w", ErrConnectFailed, err)
		c.log.Warn().Err(err).Msg("ws dial failed")
		if c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
		return err
	}

	pingCtx, stopPing := context.WithCancel(context.Background())
	wc := &wsConn{Conn: conn, stopPing: stopPing}
	c.conn = wc
	c.state = StateOpen
	c.mu.Unlock()

	c.log.Info().Str("url", c.baseURL+wsPath).Msg("ws connected")
	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect()
	}

	go c.readLoop(wc)
	if c.pingInterval > 0 {
		go c.pingLoop(pingCtx, wc)
	}
	return nil
}

// Disconnect closes the connection if one is open or cancels an in-flight
// dial. It is safe to call at any time and always leaves the state closed.
func (c *WSClient) Disconnect() {
	c.mu.Lock()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.dialSeq++
	wc := c.conn
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()

	if wc == nil {
		return
	}
	wc.requested.Store(true)
	c.writeMu.Lock()
	wc.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = wc.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	wc.Close()
}

// Send serialises {type, data, timestamp} and writes it if the connection is
// open. Frames are dropped when it is not; the return value reports whether
// the frame was written.
func (c *WSClient) Send(msgType MessageType, data any) bool {
	c.mu.Lock()
	wc := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()
	if wc == nil || !open {
		c.log.Debug().Str("type", string(msgType)).Msg("ws not open, dropping frame")
		return false
	}

	payload, err := json.Marshal(outbound{Type: msgType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		c.log.Error().Err(err).Str("type", string(msgType)).Msg("ws marshal failed")
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	wc.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := wc.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn().Err(err).Str("type", string(msgType)).Msg("ws write failed")
		return false
	}
	return true
}

func (c *WSClient) readLoop(wc *wsConn) {
	wc.SetPongHandler(func(string) error {
		wc.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	wc.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := wc.ReadMessage()
		if err != nil {
			c.closed(wc, err)
			return
		}
		wc.SetReadDeadline(time.Now().Add(pongTimeout))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed ws frame")
			continue
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}
	}
}

// closed runs once per connection, from its read loop.
func (c *WSClient) closed(wc *wsConn, err error) {
	c.mu.Lock()
	if c.conn == wc {
		c.conn = nil
		c.state = StateClosed
	}
	c.mu.Unlock()
	wc.stopPing()
	wc.Close()

	d := Disconnect{Requested: wc.requested.Load()}
	if !d.Requested {
		d.Err = err
		c.log.Warn().Err(err).Msg("ws closed by remote")
	} else {
		c.log.Info().Msg("ws closed")
	}
	if c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect(d)
	}
}

// pingLoop sends a control ping and an application ping on every tick until
// the connection closes.
func (c *WSClient) pingLoop(ctx context.Context, wc *wsConn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := wc.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
			c.Send(MsgPing, nil)
		}
	}
}
