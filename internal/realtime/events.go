package realtime

import "encoding/json"

// Event names carried on the wire. The first client frame after the upgrade
// must be an authenticate event; everything after authentication flows
// server-to-client.
const (
	EventAuthenticate  = "authenticate"
	EventAuthenticated = "authenticated"
	EventNotification  = "notification"
	EventError         = "error"
)

// Envelope is the wire format for every frame on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AuthPayload is the data of an authenticate event.
type AuthPayload struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// AuthedPayload acknowledges a successful handshake.
type AuthedPayload struct {
	UserID string `json:"userId"`
}

// NotificationPayload announces discussion activity to its participants.
type NotificationPayload struct {
	Type         string `json:"type"`
	DiscussionID string `json:"discussion_id"`
	CourseID     string `json:"course_id"`
	LessonID     string `json:"lesson_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	SenderID     string `json:"sender_id"`
}

// ErrorPayload carries a terminal error to the client before the socket
// closes.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func envelope(event string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Data: raw}, nil
}
