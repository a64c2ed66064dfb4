package telemetry

import (
	"context"
	"encoding/json"
	"time"
)

// Channel tuning defaults.
const (
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultPingInterval         = 30 * time.Second

	// inboundBufferSize bounds messages queued between the read pump and
	// the control loop's Poll.
	inboundBufferSize = 32
)

// ConnectionState is the channel's protocol position.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
	StateAuthenticated
)

// String returns the state name for logs.
func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// EventHandler receives a dispatched server event. Data is the raw event
// payload for the handler to decode.
type EventHandler func(eventType string, data json.RawMessage)

// subscription pairs an event type with its handler. An empty event type
// is the wildcard and matches every event.
type subscription struct {
	eventType string
	handler   EventHandler
}

// Config holds channel tuning parameters.
type Config struct {
	Token                string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	PingInterval         time.Duration
}

// Channel owns the controller connection: the connect → authenticate →
// subscribe protocol, keepalive pings, and capped fixed-interval
// reconnection.
//
// # State Machine
//
//	Disconnected ──connect──▶ Connected ──auth_ok──▶ Authenticated
//	      ▲                       │                        │
//	      └──────── transport loss or auth_invalid ────────┘
//
// Subscriptions live for the whole process: they survive disconnects and
// are re-registered with the controller after every successful
// authentication. An auth_invalid response freezes the channel — no
// automatic reconnection until the token is replaced or Connect is called
// explicitly.
//
// Thread Safety: all Channel methods run on the control loop. Only the
// internal read pump is concurrent, and it communicates exclusively
// through channels drained by Poll.
type Channel struct {
	dialer Dialer
	logger Logger

	token                string
	reconnectInterval    time.Duration
	maxReconnectAttempts int
	pingInterval         time.Duration

	state     ConnectionState
	transport Transport

	inbound chan []byte
	lost    chan struct{}
	stop    chan struct{}

	subs   []subscription
	nextID uint64

	lastPing          time.Time
	lastPong          time.Time
	lastReconnect     time.Time
	reconnectAttempts int
	exhausted         bool
	frozen            bool

	onExhausted func(attempts int)

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a channel that dials the controller through the given dialer.
func New(dialer Dialer, cfg Config) (*Channel, error) {
	if dialer == nil {
		return nil, ErrNoDialer
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.MaxReconnectAttempts < 1 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}

	return &Channel{
		dialer:               dialer,
		logger:               noopLogger{},
		token:                cfg.Token,
		reconnectInterval:    cfg.ReconnectInterval,
		maxReconnectAttempts: cfg.MaxReconnectAttempts,
		pingInterval:         cfg.PingInterval,
		nextID:               1,
		now:                  time.Now,
	}, nil
}

// SetLogger sets the logger for the channel.
func (c *Channel) SetLogger(logger Logger) {
	c.logger = logger
}

// SetOnReconnectExhausted registers a callback fired once when the
// reconnect-attempt cap is reached without an intervening success.
func (c *Channel) SetOnReconnectExhausted(fn func(attempts int)) {
	c.onExhausted = fn
}

// Connect establishes the transport explicitly. It clears any auth freeze:
// an operator-triggered connect is the sanctioned recovery from rejected
// credentials. Connecting without a token is refused with ErrNoToken —
// the controller would only reject the session.
func (c *Channel) Connect(ctx context.Context) error {
	if c.state != StateDisconnected {
		return nil
	}
	if c.token == "" {
		return ErrNoToken
	}
	c.frozen = false
	c.reconnectAttempts = 0
	c.exhausted = false
	return c.dial(ctx)
}

// Disconnect tears down the transport and returns the channel to
// Disconnected. Subscriptions are retained for the next session.
func (c *Channel) Disconnect() {
	c.dropTransport(true)
}

// dial performs one connection attempt and, on success, resets the
// reconnect counter and starts the read pump.
func (c *Channel) dial(ctx context.Context) error {
	t, err := c.dialer.Dial(ctx)
	if err != nil {
		return err
	}

	c.transport = t
	c.state = StateConnected
	c.reconnectAttempts = 0
	c.exhausted = false
	c.lastPing = c.now()
	c.inbound = make(chan []byte, inboundBufferSize)
	c.lost = make(chan struct{})
	c.stop = make(chan struct{})

	go readPump(t, c.inbound, c.lost, c.stop)

	c.logger.Info("transport connected")
	return nil
}

// readPump is the only concurrent part of the channel. It moves frames
// from the blocking transport read into the inbound queue until the
// transport fails or the channel stops it.
func readPump(t Transport, inbound chan<- []byte, lost chan<- struct{}, stop <-chan struct{}) {
	defer close(lost)
	for {
		data, err := t.ReadMessage()
		if err != nil {
			return
		}
		select {
		case inbound <- data:
		case <-stop:
			return
		}
	}
}

// dropTransport closes the transport and resets session state. Reconnect
// attempts reset only on a deliberate disconnect; a transport-level loss
// keeps the counter so the cap spans the outage.
func (c *Channel) dropTransport(resetAttempts bool) {
	if c.transport != nil {
		close(c.stop)
		//nolint:errcheck // Best-effort close on teardown
		c.transport.Close()
		c.transport = nil
	}
	c.inbound = nil
	c.lost = nil
	c.stop = nil
	c.state = StateDisconnected
	c.lastPing = time.Time{}
	if resetAttempts {
		c.reconnectAttempts = 0
	}
}

// Poll drains inbound messages and runs connection maintenance. The
// control loop calls this every tick; nothing in it blocks.
func (c *Channel) Poll(ctx context.Context) {
	c.drainInbound()
	c.maintain(ctx)
}

func (c *Channel) drainInbound() {
	for c.transport != nil {
		select {
		case data := <-c.inbound:
			c.handleMessage(data)
		case <-c.lost:
			c.logger.Warn("connection lost")
			c.dropTransport(false)
			return
		default:
			return
		}
	}
}

// maintain sends keepalive pings while connected and drives capped
// fixed-interval reconnection while disconnected.
func (c *Channel) maintain(ctx context.Context) {
	now := c.now()

	if c.state >= StateConnected {
		if now.Sub(c.lastPing) > c.pingInterval {
			c.lastPing = now
			if err := c.transport.Ping(); err != nil {
				c.logger.Warn("keepalive ping failed", "error", err)
			}
		}
		return
	}

	if c.frozen {
		return
	}
	if c.reconnectAttempts >= c.maxReconnectAttempts {
		if !c.exhausted {
			c.exhausted = true
			c.logger.Error("reconnect attempts exhausted",
				"attempts", c.reconnectAttempts)
			if c.onExhausted != nil {
				c.onExhausted(c.reconnectAttempts)
			}
		}
		return
	}
	if now.Sub(c.lastReconnect) > c.reconnectInterval {
		c.lastReconnect = now
		c.reconnectAttempts++
		c.logger.Info("reconnecting",
			"attempt", c.reconnectAttempts,
			"max", c.maxReconnectAttempts)
		if err := c.dial(ctx); err != nil {
			c.logger.Warn("reconnect failed", "error", err)
		}
	}
}

// handleMessage routes one inbound frame. Malformed JSON is dropped, the
// connection stays up.
func (c *Channel) handleMessage(data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("malformed message dropped", "error", err)
		return
	}

	switch ParseType(msg.Type) {
	case TypeAuthRequired:
		c.sendAuth()
	case TypeAuthOK:
		c.handleAuthOK()
	case TypeAuthInvalid:
		c.handleAuthInvalid()
	case TypeEvent:
		c.dispatchEvent(msg.Event)
	case TypePing:
		c.answerPing(msg.ID)
	case TypePong:
		// Recorded but not acted on; liveness is the transport's problem.
		c.lastPong = c.now()
	default:
		c.logger.Debug("unhandled message", "type", msg.Type)
	}
}

// answerPing replies to a controller-initiated ping, echoing its id.
func (c *Channel) answerPing(id uint64) {
	data, err := json.Marshal(pongMessage{Type: TypePong.String(), ID: id})
	if err != nil {
		return
	}
	if err := c.write(data); err != nil {
		c.logger.Warn("pong send failed", "error", err)
	}
}

func (c *Channel) sendAuth() {
	if c.token == "" {
		c.logger.Error("controller requested auth but no token is configured")
		return
	}
	data, err := json.Marshal(authMessage{
		Type:        TypeAuth.String(),
		AccessToken: c.token,
	})
	if err != nil {
		c.logger.Error("auth message marshal failed", "error", err)
		return
	}
	if err := c.write(data); err != nil {
		c.logger.Error("auth send failed", "error", err)
	}
}

// handleAuthOK promotes the session and re-registers every held
// subscription with the controller.
func (c *Channel) handleAuthOK() {
	c.state = StateAuthenticated
	c.logger.Info("authenticated")

	for _, sub := range c.subs {
		if err := c.sendSubscribe(sub.eventType); err != nil {
			c.logger.Warn("resubscribe failed",
				"event_type", sub.eventType, "error", err)
		}
	}
}

// handleAuthInvalid freezes the channel: rejected credentials are not
// retried automatically. SetToken or an explicit Connect lifts the freeze.
func (c *Channel) handleAuthInvalid() {
	c.logger.Error("authentication rejected")
	c.frozen = true
	c.dropTransport(true)
}

// dispatchEvent fans an event out to every subscriber whose event type
// matches exactly or is the wildcard.
func (c *Channel) dispatchEvent(ev *eventPayload) {
	if ev == nil || ev.EventType == "" {
		return
	}
	for _, sub := range c.subs {
		if sub.eventType == ev.EventType || sub.eventType == "" {
			sub.handler(ev.EventType, ev.Data)
		}
	}
}

// Subscribe registers a handler for an event type; an empty event type
// subscribes to everything. Handlers are unique per event type — a second
// Subscribe for the same type replaces the handler.
//
// Registration before authentication is accepted and deferred; the
// subscription is sent to the controller once the session authenticates.
func (c *Channel) Subscribe(eventType string, handler EventHandler) error {
	replaced := false
	for i := range c.subs {
		if c.subs[i].eventType == eventType {
			c.subs[i].handler = handler
			replaced = true
			break
		}
	}
	if !replaced {
		c.subs = append(c.subs, subscription{eventType: eventType, handler: handler})
	}

	if c.state == StateAuthenticated {
		return c.sendSubscribe(eventType)
	}
	return nil
}

// Unsubscribe removes a local subscription. It reports whether a
// subscription for the event type existed.
func (c *Channel) Unsubscribe(eventType string) bool {
	for i := range c.subs {
		if c.subs[i].eventType == eventType {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return true
		}
	}
	return false
}

// sendSubscribe emits a subscribe_events message. Callers guarantee the
// session is Authenticated; the id comes from the session-monotonic
// counter.
func (c *Channel) sendSubscribe(eventType string) error {
	data, err := json.Marshal(subscribeMessage{
		Type:      TypeSubscribeEvents.String(),
		ID:        c.nextMessageID(),
		EventType: eventType,
	})
	if err != nil {
		return err
	}
	return c.write(data)
}

// nextMessageID returns the next outbound message id. Ids start at 1 and
// never repeat for the lifetime of the channel.
func (c *Channel) nextMessageID() uint64 {
	id := c.nextID
	c.nextID++
	return id
}

// write sends raw bytes if a transport is up, failing fast otherwise.
func (c *Channel) write(data []byte) error {
	if c.state < StateConnected || c.transport == nil {
		return ErrNotConnected
	}
	return c.transport.WriteMessage(data)
}

// Send marshals and transmits an arbitrary outbound message.
func (c *Channel) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

// SendStatus reports node status to the controller.
func (c *Channel) SendStatus(status, message string) error {
	return c.Send(statusMessage{
		Type:    "status",
		ID:      c.nextMessageID(),
		Status:  status,
		Message: message,
	})
}

// SendError reports a node-side failure to the controller.
func (c *Channel) SendError(errText string) error {
	return c.Send(errorMessage{Type: "error", Error: errText})
}

// SendBinary transmits a raw binary frame, failing fast when disconnected.
func (c *Channel) SendBinary(data []byte) error {
	if c.state < StateConnected || c.transport == nil {
		return ErrNotConnected
	}
	return c.transport.WriteBinary(data)
}

// SendFaceDetection transmits face telemetry.
func (c *Channel) SendFaceDetection(msg FaceDetectionMessage) error {
	msg.Type = "face_detection"
	return c.Send(msg)
}

// SendMotion transmits motion telemetry.
func (c *Channel) SendMotion(msg MotionMessage) error {
	msg.Type = "motion"
	return c.Send(msg)
}

// SendVoice transmits voice-activity telemetry.
func (c *Channel) SendVoice(msg VoiceMessage) error {
	msg.Type = "voice"
	return c.Send(msg)
}

// SetToken replaces the access token and lifts any auth freeze so the
// reconnect timer can try the new credentials.
func (c *Channel) SetToken(token string) {
	c.token = token
	c.frozen = false
	c.reconnectAttempts = 0
	c.exhausted = false
}

// SetDialer replaces the endpoint dialer. The caller is expected to
// Disconnect first so the next (re)connect uses the new endpoint.
func (c *Channel) SetDialer(d Dialer) {
	if d != nil {
		c.dialer = d
	}
}

// State returns the current protocol state.
func (c *Channel) State() ConnectionState { return c.state }

// Connected reports whether a transport is established.
func (c *Channel) Connected() bool { return c.state >= StateConnected }

// Authenticated reports whether the session has authenticated.
func (c *Channel) Authenticated() bool { return c.state == StateAuthenticated }

// ReconnectAttempts returns the attempts made since the last success.
func (c *Channel) ReconnectAttempts() int { return c.reconnectAttempts }
