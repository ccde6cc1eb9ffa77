package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

type stubSessions struct{}

func (stubSessions) Resolve(r *http.Request) (*auth.Session, error) {
	if auth.BearerToken(r) != "valid" {
		return nil, nil
	}
	return &auth.Session{Identity: auth.Identity{Subject: "sub-1"}}, nil
}

type stubUsers struct{}

func (stubUsers) ResolveUser(_ context.Context, identity auth.Identity, provision bool) (*repository.User, error) {
	if provision {
		return nil, errors.New("websocket must not provision users")
	}
	return &repository.User{ID: "user-1", AuthSubject: identity.Subject}, nil
}

type stubOrgs struct{}

func (stubOrgs) List(context.Context, string) ([]*repository.Organization, error) {
	return []*repository.Organization{{ID: "org-1"}}, nil
}

// stubAuthority admits user-1 to org-1 and org-3 only.
type stubAuthority struct{}

func (stubAuthority) Authorize(_ context.Context, userID, organizationID string, _ ...types.Role) (*repository.OrganizationMember, error) {
	if userID == "user-1" && (organizationID == "org-1" || organizationID == "org-3") {
		return &repository.OrganizationMember{UserID: userID, OrganizationID: organizationID}, nil
	}
	return nil, errors.New("not a member")
}

func newSocketServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	handler := NewHandler(hub, stubSessions{}, stubUsers{}, stubOrgs{}, stubAuthority{}, []string{"*"})
	r := gin.New()
	r.GET("/ws", handler.HandleWebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type != MessagePing {
			return msg
		}
	}
}

func TestHandleWebSocket_RejectsAnonymous(t *testing.T) {
	_, srv := newSocketServer(t)

	_, resp, err := dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocket_DeliversOrganizationEvents(t *testing.T) {
	hub, srv := newSocketServer(t)

	conn, _, err := dial(t, srv, "valid")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetRoomClients(OrganizationRoom("org-1")) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsUserOnline("user-1"))

	events := NewBroadcaster(hub)
	events.PublishToOrganization("org-2", "course_created", map[string]interface{}{"courseId": "c-other"})
	events.PublishToOrganization("org-1", "course_created", map[string]interface{}{"courseId": "c-1"})

	msg := readMessage(t, conn)
	assert.Equal(t, MessageType("course_created"), msg.Type)
	assert.Equal(t, "c-1", msg.Payload["courseId"])

	events.PublishToUser("user-1", "progress_updated", map[string]interface{}{"progress": float64(50)})
	msg = readMessage(t, conn)
	assert.Equal(t, MessageType("progress_updated"), msg.Type)
}

func TestHandleWebSocket_JoinIsChecked(t *testing.T) {
	hub, srv := newSocketServer(t)

	conn, _, err := dial(t, srv, "valid")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "join", Room: OrganizationRoom("org-2")}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageAck, msg.Type)
	assert.Equal(t, "denied", msg.Payload["action"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "join", Room: OrganizationRoom("org-3")}))
	msg = readMessage(t, conn)
	assert.Equal(t, "joined", msg.Payload["action"])
	assert.Equal(t, 1, hub.GetRoomClients(OrganizationRoom("org-3")))
	assert.Zero(t, hub.GetRoomClients(OrganizationRoom("org-2")))
}

func TestHub_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := NewClient(hub, "user-1", nil, nil)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.GetConnectedClientsCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	_, open := <-client.Send
	assert.False(t, open)
	assert.Zero(t, hub.GetConnectedClientsCount())

	// Sending after shutdown must not block.
	hub.SendToUser("user-1", MessageAck, nil)
}
