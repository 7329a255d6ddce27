package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"huddle/internal/core/contracts"
	"huddle/internal/core/domain"
	"huddle/internal/platform/metrics"
	"huddle/pkg/logging"
)

var tracer = otel.Tracer("huddle-services")

// ChannelManagerOptions tunes connection behavior. Zero values fall back
// to defaults: 10s authorization timeout, no automatic reconnect.
type ChannelManagerOptions struct {
	AuthTimeout  time.Duration
	Reconnect    bool
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// ChannelManager owns the single live connection to the push service,
// scoped to the signed-in identity, and routes inbound envelopes to local
// subscribers. All methods are safe to call from any goroutine.
type ChannelManager struct {
	log       *slog.Logger
	transport contracts.Transport
	auth      contracts.ChannelAuthorizer

	authTimeout time.Duration
	reconnect   bool
	backoff     *Backoff

	listeners *listenerRegistry

	mu        sync.Mutex
	epoch     uint64
	conn      contracts.Conn
	identity  domain.Identity
	channel   string
	state     domain.ConnectionState
	nextWatch uint64
	watchers  map[uint64]func(domain.ConnectionState)
}

func NewChannelManager(
	log *slog.Logger,
	transport contracts.Transport,
	auth contracts.ChannelAuthorizer,
	opts ChannelManagerOptions,
) *ChannelManager {
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 10 * time.Second
	}
	return &ChannelManager{
		log:         log,
		transport:   transport,
		auth:        auth,
		authTimeout: opts.AuthTimeout,
		reconnect:   opts.Reconnect,
		backoff:     NewBackoff(opts.ReconnectMin, opts.ReconnectMax),
		listeners:   newListenerRegistry(),
		watchers:    make(map[uint64]func(domain.ConnectionState)),
	}
}

// Connect establishes the private channel for identity. It is idempotent
// for the currently connected identity; a different identity triggers a
// full disconnect first. Authorization and transport failures return
// false with the cause and are never retried here; the caller (or the
// optional reconnect loop) decides.
func (m *ChannelManager) Connect(ctx context.Context, identity domain.Identity) (bool, error) {
	ctx, span := tracer.Start(ctx, "ChannelManager.Connect", trace.WithAttributes(
		attribute.Int64("identity", int64(identity)),
	))
	defer span.End()
	metrics.ConnectAttempts.Inc()

	m.mu.Lock()
	if m.conn != nil {
		if m.identity == identity {
			m.mu.Unlock()
			m.log.InfoContext(ctx, "realtime - connect - already connected", logging.Identity(int64(identity)))
			return true, nil
		}
		oldConn, oldChannel, ws := m.disconnectLocked()
		m.mu.Unlock()
		_ = oldConn.Unsubscribe(oldChannel)
		_ = oldConn.Close()
		m.notify(ws, domain.StateDisconnected)
		m.log.InfoContext(ctx, "realtime - connect - previous identity released", logging.Channel(oldChannel))
		m.mu.Lock()
	}
	if m.identity != identity {
		// Recovery after a drop may leave the old identity's listeners
		// behind; an identity switch must never re-deliver to them.
		m.listeners.Clear()
	}
	m.identity = identity
	m.epoch++
	epoch := m.epoch
	ws := m.setStateLocked(domain.StateConnecting)
	m.mu.Unlock()
	m.notify(ws, domain.StateConnecting)

	hooks := contracts.Hooks{
		OnEnvelope:    func(env domain.EventEnvelope) { m.deliver(epoch, env) },
		OnStateChange: func(s domain.ConnectionState) { m.transportState(epoch, s) },
	}
	conn, err := m.transport.Dial(ctx, hooks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		m.fail(epoch)
		m.log.ErrorContext(ctx, "realtime - connect - dial failed", logging.Identity(int64(identity)), logging.Err(err))
		return false, fmt.Errorf("dial push service: %w", err)
	}

	channel := domain.ChannelFor(identity)
	authCtx, cancel := context.WithTimeout(ctx, m.authTimeout)
	grant, err := m.auth.Authorize(authCtx, conn.SocketID(), channel)
	cancel()
	if err != nil {
		metrics.AuthFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorization failed")
		_ = conn.Close()
		m.fail(epoch)
		m.log.ErrorContext(ctx, "realtime - connect - authorization failed",
			logging.Channel(channel), logging.Socket(conn.SocketID()), logging.Err(err))
		return false, err
	}

	// A Disconnect (or competing Connect) may have landed while the
	// authorization exchange was in flight; its grant must not be used.
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		_ = conn.Close()
		m.log.InfoContext(ctx, "realtime - connect - stale authorization discarded", logging.Channel(channel))
		return false, domain.ErrNotConnected
	}
	m.mu.Unlock()

	if err := conn.Subscribe(ctx, channel, grant); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscribe failed")
		_ = conn.Close()
		m.fail(epoch)
		m.log.ErrorContext(ctx, "realtime - connect - subscribe failed", logging.Channel(channel), logging.Err(err))
		return false, fmt.Errorf("%w: %s", domain.ErrSubscriptionFailed, channel)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		_ = conn.Unsubscribe(channel)
		_ = conn.Close()
		return false, domain.ErrNotConnected
	}
	m.conn = conn
	m.channel = channel
	ws = m.setStateLocked(domain.StateConnected)
	m.mu.Unlock()
	m.notify(ws, domain.StateConnected)
	m.backoff.Reset()

	span.SetStatus(codes.Ok, "connected")
	m.log.InfoContext(ctx, "realtime - connect - channel subscribed",
		logging.Identity(int64(identity)), logging.Channel(channel), logging.Socket(conn.SocketID()))
	return true, nil
}

// Disconnect releases the active channel, closes the transport, clears
// every registered listener and forgets the identity. Calling it while
// already disconnected is a no-op.
func (m *ChannelManager) Disconnect() {
	m.mu.Lock()
	conn, channel, ws := m.disconnectLocked()
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Unsubscribe(channel)
		_ = conn.Close()
	}
	m.notify(ws, domain.StateDisconnected)
	if conn != nil {
		m.log.Info("realtime - disconnect - connection released", logging.Channel(channel))
	}
}

// disconnectLocked invalidates the current epoch and resets all connection
// state. The caller closes the returned conn outside the lock.
func (m *ChannelManager) disconnectLocked() (contracts.Conn, string, []func(domain.ConnectionState)) {
	m.epoch++
	conn, channel := m.conn, m.channel
	m.conn = nil
	m.identity = 0
	m.channel = ""
	m.listeners.Clear()
	var ws []func(domain.ConnectionState)
	if m.state != domain.StateDisconnected {
		ws = m.setStateLocked(domain.StateDisconnected)
	}
	return conn, channel, ws
}

// Subscribe registers handler for envelopes of the given event type and
// returns the capability that removes exactly this registration. The same
// handler may be registered multiple times; each registration receives
// every matching envelope once.
func (m *ChannelManager) Subscribe(eventType string, handler domain.EventHandler) func() {
	m.log.Debug("realtime - subscribe - listener registered", logging.Event(eventType))
	return m.listeners.Add(eventType, handler)
}

// State reports the current connection state.
func (m *ChannelManager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers a watcher for state transitions and returns its
// removal capability. Watchers run outside the manager's lock.
func (m *ChannelManager) OnStateChange(fn func(domain.ConnectionState)) func() {
	m.mu.Lock()
	m.nextWatch++
	id := m.nextWatch
	m.watchers[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

func (m *ChannelManager) setStateLocked(s domain.ConnectionState) []func(domain.ConnectionState) {
	m.state = s
	metrics.ConnectionState.Set(float64(s))
	ws := make([]func(domain.ConnectionState), 0, len(m.watchers))
	for _, w := range m.watchers {
		ws = append(ws, w)
	}
	return ws
}

func (m *ChannelManager) notify(ws []func(domain.ConnectionState), s domain.ConnectionState) {
	for _, w := range ws {
		w(s)
	}
}

// fail flags the errored state unless the attempt was already superseded.
func (m *ChannelManager) fail(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	ws := m.setStateLocked(domain.StateErrored)
	m.mu.Unlock()
	m.notify(ws, domain.StateErrored)
}

// deliver routes one inbound envelope to the registered listeners, dropping
// it if the connection that produced it is no longer current.
func (m *ChannelManager) deliver(epoch uint64, env domain.EventEnvelope) {
	m.mu.Lock()
	current := m.epoch == epoch
	m.mu.Unlock()
	if !current {
		return
	}
	if n := m.listeners.Dispatch(env); n == 0 {
		metrics.EventsDropped.Inc()
		m.log.Debug("realtime - deliver - no listener for event", logging.Event(env.EventType))
		return
	}
	metrics.EventsDelivered.WithLabelValues(env.EventType).Inc()
}

// transportState reacts to transport-driven transitions. An unexpected
// drop marks the link errored and, when enabled, starts the backoff
// reconnect loop for the still-remembered identity.
func (m *ChannelManager) transportState(epoch uint64, s domain.ConnectionState) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	if s != domain.StateErrored {
		m.mu.Unlock()
		return
	}
	identity := m.identity
	m.conn = nil
	m.channel = ""
	m.epoch++
	ws := m.setStateLocked(domain.StateErrored)
	m.mu.Unlock()
	m.notify(ws, domain.StateErrored)
	m.log.Warn("realtime - transport - connection dropped", logging.Identity(int64(identity)))

	if m.reconnect && identity != 0 {
		go m.reconnectLoop(identity)
	}
}

func (m *ChannelManager) reconnectLoop(identity domain.Identity) {
	for {
		time.Sleep(m.backoff.Next())
		m.mu.Lock()
		stale := m.identity != identity || m.conn != nil
		m.mu.Unlock()
		if stale {
			return
		}
		ok, err := m.Connect(context.Background(), identity)
		if ok {
			return
		}
		m.log.Warn("realtime - reconnect - attempt failed", logging.Identity(int64(identity)), logging.Err(err))
	}
}
