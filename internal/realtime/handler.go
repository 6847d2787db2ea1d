package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/config"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

// Handler upgrades websocket requests and runs the authenticate handshake.
// The first frame after the upgrade must be an authenticate event carrying a
// valid identity token; anything else closes the socket with an error event.
type Handler struct {
	cfg      config.RealtimeConfig
	auth     *service.AuthService
	registry *Registry
	metrics  *service.MetricsService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler constructs the websocket handler.
func NewHandler(cfg config.RealtimeConfig, auth *service.AuthService, registry *Registry, metrics *service.MetricsService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{cfg: cfg, auth: auth, registry: registry, metrics: metrics, logger: logger}
	h.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Serve is the gin route for the websocket endpoint.
func (h *Handler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(ws, h.cfg.WriteTimeout)
	userID, err := h.handshake(conn)
	if err != nil {
		appErr := appErrors.FromError(err)
		conn.Send(EventError, ErrorPayload{Code: appErr.Code, Message: appErr.Message})
		conn.Close()
		return
	}

	conn.SetUser(userID)
	h.registry.Register(userID, conn)
	if h.metrics != nil {
		h.metrics.ConnectionOpened()
	}
	if err := conn.Send(EventAuthenticated, AuthedPayload{UserID: userID}); err != nil {
		h.teardown(userID, conn)
		return
	}
	h.logger.Info("realtime connection established", zap.String("user_id", userID))

	h.readLoop(userID, conn)
}

// handshake reads the authenticate frame within the auth deadline and
// verifies its token. The declared userId must match the token subject.
func (h *Handler) handshake(conn *Connection) (string, error) {
	deadline := h.cfg.AuthDeadline
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	conn.ws.SetReadDeadline(time.Now().Add(deadline))
	defer conn.ws.SetReadDeadline(time.Time{})

	env, err := conn.ReadEnvelope()
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "no authenticate frame received")
	}
	if env.Event != EventAuthenticate {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "expected authenticate event")
	}

	var payload AuthPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "malformed authenticate payload")
	}

	claims, err := h.auth.ValidateToken(payload.Token)
	if err != nil {
		return "", err
	}
	if payload.UserID != "" && payload.UserID != claims.Subject {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "token subject mismatch")
	}
	return claims.Subject, nil
}

// readLoop drains client frames until the socket drops. Inbound traffic
// after the handshake is ignored; the channel is server-push only.
func (h *Handler) readLoop(userID string, conn *Connection) {
	defer h.teardown(userID, conn)
	for {
		if _, err := conn.ReadEnvelope(); err != nil {
			return
		}
	}
}

func (h *Handler) teardown(userID string, conn *Connection) {
	conn.Close()
	h.registry.Unregister(userID, conn)
	if h.metrics != nil {
		h.metrics.ConnectionClosed()
	}
	h.logger.Info("realtime connection closed", zap.String("user_id", userID))
}
