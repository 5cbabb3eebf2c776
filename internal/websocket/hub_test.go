package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gym-admin-service/internal/domain/event"
	wstypes "gym-admin-service/internal/domain/websocket"
	"gym-admin-service/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct {
	claims *jwt.Claims
	err    error
}

func (v stubVerifier) VerifyAccessToken(string) (*jwt.Claims, error) {
	return v.claims, v.err
}

func newTestClient(h *Hub, identityID int64, roles ...string) *Client {
	return NewClient(h, nil, &ClientAuth{IdentityID: identityID, SessionID: "s", Roles: roles})
}

func readMessage(t *testing.T, c *Client) wstypes.WSMessage {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg wstypes.WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return wstypes.WSMessage{}
	}
}

func TestAuthenticateClientRequiresStaffRole(t *testing.T) {
	staff := &jwt.Claims{IdentityID: 4, Roles: []string{jwt.RoleFrontDesk}}
	auth, err := NewHub(stubVerifier{claims: staff}, zap.NewNop()).AuthenticateClient("t")
	require.NoError(t, err)
	assert.EqualValues(t, 4, auth.IdentityID)

	member := &jwt.Claims{IdentityID: 5, Roles: []string{"member"}}
	_, err = NewHub(stubVerifier{claims: member}, zap.NewNop()).AuthenticateClient("t")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = NewHub(stubVerifier{err: errors.New("expired")}, zap.NewNop()).AuthenticateClient("t")
	assert.Error(t, err)

	_, err = NewHub(nil, zap.NewNop()).AuthenticateClient("t")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPublishRoutesEventsByChannel(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	both := newTestClient(hub, 1, jwt.RoleAdmin)
	subsOnly := newTestClient(hub, 2, jwt.RoleFrontDesk)
	subsOnly.Unsubscribe(wstypes.ChannelPayments)

	hub.Register <- both
	hub.Register <- subsOnly
	assert.Equal(t, wstypes.EventTypeConnected, readMessage(t, both).Type)
	assert.Equal(t, wstypes.EventTypeConnected, readMessage(t, subsOnly).Type)

	hub.Publish(ctx, event.New(event.PaymentFailed, nil, nil))
	hub.Publish(ctx, event.New(event.SubscriptionExtended, nil, nil))

	first := readMessage(t, both)
	assert.Equal(t, wstypes.EventTypeLifecycle, first.Type)
	assert.Equal(t, "payment.failed", first.Data.(map[string]interface{})["type"])
	assert.Equal(t, "subscription.extended", readMessage(t, both).Data.(map[string]interface{})["type"])

	only := readMessage(t, subsOnly)
	assert.Equal(t, "subscription.extended", only.Data.(map[string]interface{})["type"])

	assert.Eventually(t, func() bool { return hub.TotalClients() == 2 }, time.Second, 10*time.Millisecond)
}

func TestSubscribeSystemChannelNeedsAdmin(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	desk := newTestClient(hub, 1, jwt.RoleFrontDesk)
	assert.False(t, desk.Subscribe(wstypes.ChannelSystem))
	assert.False(t, desk.Subscribe("unknown"))

	admin := newTestClient(hub, 2, jwt.RoleSuperAdmin)
	assert.True(t, admin.Subscribe(wstypes.ChannelSystem))
	assert.Equal(t, []wstypes.ChannelType{wstypes.ChannelPayments, wstypes.ChannelSubscriptions, wstypes.ChannelSystem}, admin.Channels())
}

func TestClientMessageHandling(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	client := newTestClient(hub, 1, jwt.RoleAdmin)

	client.handleMessage([]byte(`{"type":"ping"}`))
	assert.Equal(t, wstypes.EventTypePong, readMessage(t, client).Type)

	client.handleMessage([]byte(`{"type":"unsubscribe","data":{"channels":["payments"]}}`))
	assert.Equal(t, wstypes.EventTypeUnsubscribe, readMessage(t, client).Type)
	assert.False(t, client.IsSubscribed(wstypes.ChannelPayments))

	client.handleMessage([]byte(`not json`))
	assert.Equal(t, wstypes.EventTypeError, readMessage(t, client).Type)
}

func TestClosedClientDropsMessages(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	client := newTestClient(hub, 1)
	client.Close()
	client.Close()

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))
	assert.Len(t, client.send, 0)
}
