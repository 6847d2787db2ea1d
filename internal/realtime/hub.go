package realtime

import (
	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	"github.com/jadhavharshh/ConnectX-sub001/internal/service"
)

// Hub fans discussion activity out to the connected participants. Delivery
// is best-effort: offline recipients are skipped, failed sends only close
// the broken socket.
type Hub struct {
	registry *Registry
	metrics  *service.MetricsService
	logger   *zap.Logger
}

// NewHub constructs a hub over the given registry.
func NewHub(registry *Registry, metrics *service.MetricsService, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{registry: registry, metrics: metrics, logger: logger}
}

// NotifyDiscussionReply pushes a notification event to every recipient with
// a live connection.
func (h *Hub) NotifyDiscussionReply(discussion models.Discussion, message models.Message, recipients []string) {
	payload := NotificationPayload{
		Type:         "discussion_reply",
		DiscussionID: discussion.ID,
		CourseID:     discussion.CourseID,
		LessonID:     discussion.LessonID,
		Status:       string(discussion.Status),
		Message:      message.Message,
		SenderID:     message.SenderClerkID,
	}

	for _, userID := range recipients {
		conn := h.registry.Get(userID)
		if conn == nil {
			continue
		}
		if err := conn.Send(EventNotification, payload); err != nil {
			h.logger.Warn("failed to deliver notification",
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordRealtimeEvent(EventNotification)
		}
	}
}
