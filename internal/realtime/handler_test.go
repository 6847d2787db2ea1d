package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/config"
)

const handlerTestSecret = "realtime-test-secret"

func signIdentityToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := models.IdentityClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(handlerTestSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T) (*httptest.Server, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := service.NewAuthService(config.JWTConfig{Secret: handlerTestSecret}, nil)
	registry := NewRegistry(nil)
	handler := NewHandler(config.RealtimeConfig{
		AuthDeadline: 2 * time.Second,
		WriteTimeout: time.Second,
	}, auth, registry, nil, nil)

	router := gin.New()
	router.GET("/ws", handler.Serve)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, registry
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendEvent(t *testing.T, ws *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Envelope{Event: event, Data: raw}))
}

func readEvent(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func TestHandshakeAuthenticates(t *testing.T) {
	server, registry := newTestServer(t)
	ws := dial(t, server)

	sendEvent(t, ws, EventAuthenticate, AuthPayload{
		UserID: "user-1",
		Token:  signIdentityToken(t, "user-1", "student"),
	})

	env := readEvent(t, ws)
	assert.Equal(t, EventAuthenticated, env.Event)

	var payload AuthedPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "user-1", payload.UserID)

	require.Eventually(t, func() bool {
		return registry.Get("user-1") != nil
	}, time.Second, 10*time.Millisecond)
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	server, registry := newTestServer(t)
	ws := dial(t, server)

	sendEvent(t, ws, EventAuthenticate, AuthPayload{UserID: "user-1", Token: "not-a-token"})

	env := readEvent(t, ws)
	assert.Equal(t, EventError, env.Event)
	assert.Nil(t, registry.Get("user-1"))
}

func TestHandshakeRejectsSubjectMismatch(t *testing.T) {
	server, registry := newTestServer(t)
	ws := dial(t, server)

	sendEvent(t, ws, EventAuthenticate, AuthPayload{
		UserID: "user-2",
		Token:  signIdentityToken(t, "user-1", "student"),
	})

	env := readEvent(t, ws)
	assert.Equal(t, EventError, env.Event)
	assert.Nil(t, registry.Get("user-2"))
}

func TestHandshakeRejectsWrongFirstEvent(t *testing.T) {
	server, _ := newTestServer(t)
	ws := dial(t, server)

	sendEvent(t, ws, "ping", struct{}{})

	env := readEvent(t, ws)
	assert.Equal(t, EventError, env.Event)
}

func TestSecondConnectionReplacesFirst(t *testing.T) {
	server, registry := newTestServer(t)
	token := signIdentityToken(t, "user-1", "student")

	first := dial(t, server)
	sendEvent(t, first, EventAuthenticate, AuthPayload{UserID: "user-1", Token: token})
	require.Equal(t, EventAuthenticated, readEvent(t, first).Event)

	second := dial(t, server)
	sendEvent(t, second, EventAuthenticate, AuthPayload{UserID: "user-1", Token: token})
	require.Equal(t, EventAuthenticated, readEvent(t, second).Event)

	// The first socket is closed by the replacement; its next read fails.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		return registry.Count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHubDeliversNotificationToRecipients(t *testing.T) {
	server, registry := newTestServer(t)
	hub := NewHub(registry, nil, nil)

	asker := dial(t, server)
	sendEvent(t, asker, EventAuthenticate, AuthPayload{UserID: "student-1", Token: signIdentityToken(t, "student-1", "student")})
	require.Equal(t, EventAuthenticated, readEvent(t, asker).Event)

	hub.NotifyDiscussionReply(
		models.Discussion{ID: "d1", CourseID: "c1", LessonID: "l1", Status: models.DiscussionAnswered},
		models.Message{Message: "answered", SenderClerkID: "teacher-1"},
		[]string{"student-1", "offline-user"},
	)

	env := readEvent(t, asker)
	assert.Equal(t, EventNotification, env.Event)

	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "d1", payload.DiscussionID)
	assert.Equal(t, "answered", payload.Status)
}
