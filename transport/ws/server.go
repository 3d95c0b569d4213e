// Package ws pushes a tenant's committed events to websocket clients. Each
// connection is bound to the tenant of the token it presented and receives
// frames {type, payload, ts} in commit order. There is no replay: a client
// that reconnects must re-query current state.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gastroflow/ledger/auth"
	"github.com/gastroflow/ledger/event"
)

// FrameConnected is the type of the first frame on every connection.
const FrameConnected = "connected"

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
)

// Subscriber hands out per-tenant event subscriptions. *ledger.Ledger
// satisfies it.
type Subscriber interface {
	Subscribe(tenantID string, buffer int) *event.Subscription
}

// Verifier checks a bearer token.
type Verifier interface {
	Verify(token string) (auth.Principal, error)
}

// Hello is the payload of the connected frame.
type Hello struct {
	ConnectionID string `json:"connection_id"`
	TenantID     string `json:"tenant_id"`
}

type helloFrame struct {
	Type    string `json:"type"`
	Payload Hello  `json:"payload"`
	TS      int64  `json:"ts"`
}

// Server upgrades HTTP requests to event streams.
type Server struct {
	events   Subscriber
	tokens   Verifier
	upgrader websocket.Upgrader
	logger   *slog.Logger

	buffer       int
	pingInterval time.Duration
	active       atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the connection logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAllowedOrigins restricts the Origin header. "*" or an empty list
// allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return len(origins) == 0
		}
	}
}

// WithBuffer sets the per-connection event queue length.
func WithBuffer(n int) Option {
	return func(s *Server) { s.buffer = n }
}

// WithPingInterval sets how often the server pings idle clients.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

// NewServer creates a Server.
func NewServer(events Subscriber, tokens Verifier, opts ...Option) *Server {
	s := &Server{
		events: events,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024 * 16,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:       slog.Default(),
		buffer:       event.DefaultBuffer,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Active returns the number of open connections.
func (s *Server) Active() int64 { return s.active.Load() }

// ServeHTTP authenticates the request and streams events until the client
// goes away or the subscription ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := s.tokens.Verify(token(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	s.active.Add(1)
	defer s.active.Add(-1)

	log := s.logger.With("connection_id", connID, "tenant_id", p.TenantID, "user_id", p.UserID.String())
	log.Info("ws: connected")
	defer log.Info("ws: disconnected")

	sub := s.events.Subscribe(p.TenantID, s.buffer)
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(conn, cancel)

	hello := helloFrame{
		Type:    FrameConnected,
		Payload: Hello{ConnectionID: connID, TenantID: p.TenantID},
		TS:      time.Now().UnixMilli(),
	}
	if err := write(conn, hello); err != nil {
		return
	}

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case env, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := write(conn, env); err != nil {
				log.Debug("ws: write failed", "error", err)
				return
			}
		}
	}
}

func write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// readPump drains client frames so control messages are processed, and
// cancels the stream when the client goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// token reads the bearer token from the Authorization header or, for
// browsers, the access_token query parameter.
func token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return r.URL.Query().Get("access_token")
}
