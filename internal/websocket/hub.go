// internal/websocket/hub.go
package websocket

import (
	"context"
	"strings"
	"sync"

	"gym-admin-service/internal/domain/event"
	wstypes "gym-admin-service/internal/domain/websocket"
	"gym-admin-service/internal/pkg/jwt"
	"gym-admin-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

const sinkWebSocket = "websocket"

// TokenVerifier checks dashboard access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// MessageHandler answers client requests for the event types it supports.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// Hub fans committed lifecycle events out to connected staff dashboards.
type Hub struct {
	// Registered clients by identity ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	handlers map[wstypes.EventType]MessageHandler

	verifier TokenVerifier
	logger   *zap.Logger
}

type BroadcastMessage struct {
	IdentityIDs []int64
	Channel     wstypes.ChannelType
	Message     *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		handlers:   make(map[wstypes.EventType]MessageHandler),
		verifier:   verifier,
		logger:     logger,
	}
}

// AuthenticateClient validates the JWT token and requires a staff role.
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	if h.verifier == nil {
		return nil, ErrUnauthorized
	}
	claims, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsStaff() {
		return nil, ErrForbidden
	}

	return &ClientAuth{
		IdentityID: claims.IdentityID,
		SessionID:  claims.ID,
		Roles:      claims.Roles,
	}, nil
}

// RegisterHandler registers a handler for its supported events. Call before Run.
func (h *Hub) RegisterHandler(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		h.handlers[eventType] = handler
	}
}

// HandleClientMessage delegates to a registered handler. It reports false
// when no handler claims the message type.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlers[msg.Type]
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// Publish implements event.Publisher. Events are queued for the Run loop;
// a full queue drops the event.
func (h *Hub) Publish(_ context.Context, e event.Event) {
	msg := &BroadcastMessage{
		Channel: channelFor(e.Type),
		Message: wstypes.NewMessage(wstypes.EventTypeLifecycle, e),
	}

	select {
	case h.broadcast <- msg:
		metrics.EventsPublished.WithLabelValues(sinkWebSocket, "ok").Inc()
	default:
		metrics.EventsPublished.WithLabelValues(sinkWebSocket, "dropped").Inc()
		h.logger.Warn("websocket broadcast queue full, dropping event",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.Type)),
		)
	}
}

func channelFor(t event.Type) wstypes.ChannelType {
	if strings.HasPrefix(string(t), "payment.") {
		return wstypes.ChannelPayments
	}
	return wstypes.ChannelSubscriptions
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.Int64("identity_id", client.identityID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"identity_id": client.identityID,
		"session_id":  client.sessionID,
		"roles":       client.roles,
		"channels":    client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.identityID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.identityID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("identity_id", client.identityID),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.IdentityIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
		return
	}

	for _, identityID := range msg.IdentityIDs {
		for client := range h.clients[identityID] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
