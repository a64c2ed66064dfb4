package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Transport write/read tuning.
const (
	transportWriteTimeout = 10 * time.Second
	transportReadLimit    = 64 * 1024
)

// Transport is a persistent message-oriented connection to the controller.
// ReadMessage blocks until a frame arrives or the connection fails.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	WriteBinary(data []byte) error
	Ping() error
	Close() error
}

// Dialer establishes transports. The channel owns reconnection policy;
// a dialer only performs a single connection attempt.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// WSDialerConfig locates the controller's websocket endpoint.
type WSDialerConfig struct {
	Host string
	Port int
	Path string
	TLS  bool
}

// WSDialer dials the controller over websocket.
type WSDialer struct {
	cfg WSDialerConfig
}

// NewWSDialer creates a websocket dialer for the given endpoint.
func NewWSDialer(cfg WSDialerConfig) *WSDialer {
	return &WSDialer{cfg: cfg}
}

// URL returns the endpoint the dialer connects to.
func (d *WSDialer) URL() string {
	scheme := "ws"
	if d.cfg.TLS {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port),
		Path:   d.cfg.Path,
	}
	return u.String()
}

// Dial performs one connection attempt.
func (d *WSDialer) Dial(ctx context.Context) (Transport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial %s: %w", d.URL(), err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	conn.SetReadLimit(transportReadLimit)
	return &wsTransport{conn: conn}, nil
}

// wsTransport adapts a gorilla websocket connection to Transport.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	//nolint:errcheck // Best-effort deadline; write error caught below
	t.conn.SetWriteDeadline(time.Now().Add(transportWriteTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) WriteBinary(data []byte) error {
	//nolint:errcheck // Best-effort deadline; write error caught below
	t.conn.SetWriteDeadline(time.Now().Add(transportWriteTimeout))
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *wsTransport) Ping() error {
	//nolint:errcheck // Best-effort deadline; ping error caught below
	t.conn.SetWriteDeadline(time.Now().Add(transportWriteTimeout))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *wsTransport) Close() error {
	//nolint:errcheck // Best-effort close notification
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}
