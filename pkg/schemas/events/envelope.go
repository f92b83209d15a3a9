package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType tags every inbound envelope. The vocabulary is open-ended:
// servers may add new types at any time and consumers must ignore the
// ones they do not know.
type EventType string

const (
	TypeNotification    EventType = "NOTIFICATION"
	TypeNewMessage      EventType = "NEW_MESSAGE"
	TypeMessageUpdate   EventType = "MESSAGE_UPDATE"
	TypeUploadStarted   EventType = "UPLOAD_STARTED"
	TypeUploadProgress  EventType = "UPLOAD_PROGRESS"
	TypeUploadComplete  EventType = "UPLOAD_COMPLETE"
	TypeUploadError     EventType = "UPLOAD_ERROR"
	TypeCourseProgress  EventType = "COURSE_PROGRESS"
	TypePurchaseSuccess EventType = "PURCHASE_SUCCESS"
)

// Status is advisory and only used for rendering.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusInfo    Status = "INFO"
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the uniform wrapper for every inbound realtime event.
// Type is the only field guaranteed to be present; everything else is
// type-dependent and must be treated as optional.
type Envelope struct {
	Type         EventType       `json:"type"`
	Message      string          `json:"message,omitempty"`
	Status       Status          `json:"status,omitempty"`
	Progress     *float64        `json:"progress,omitempty"`
	CourseID     *int64          `json:"courseId,omitempty"`
	LessonID     *int64          `json:"lessonId,omitempty"`
	InstructorID *int64          `json:"instructorId,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope decodes a raw frame body. A body that is not JSON, or
// that carries no type tag, yields ErrMalformedEnvelope.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	return env, nil
}

// ChatMessageData decodes Data as a ChatMessage. Only meaningful for
// NEW_MESSAGE envelopes; anything else is a decode error, not a panic.
func (e Envelope) ChatMessageData() (ChatMessage, error) {
	var msg ChatMessage
	if len(e.Data) == 0 {
		return ChatMessage{}, fmt.Errorf("envelope %s: no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, &msg); err != nil {
		return ChatMessage{}, fmt.Errorf("envelope %s: decode data: %w", e.Type, err)
	}
	return msg, nil
}

// ConversationDeltaData decodes Data as a ConversationSummaryDelta
// (MESSAGE_UPDATE envelopes).
func (e Envelope) ConversationDeltaData() (ConversationSummaryDelta, error) {
	var d ConversationSummaryDelta
	if len(e.Data) == 0 {
		return ConversationSummaryDelta{}, fmt.Errorf("envelope %s: no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return ConversationSummaryDelta{}, fmt.Errorf("envelope %s: decode data: %w", e.Type, err)
	}
	return d, nil
}

// OriginSenderID extracts data.senderId when present, regardless of the
// envelope type. Used for self-origin suppression: an event produced by
// the current user should not notify the current user.
func (e Envelope) OriginSenderID() (int64, bool) {
	if len(e.Data) == 0 {
		return 0, false
	}
	var probe struct {
		SenderID *int64 `json:"senderId"`
	}
	if err := json.Unmarshal(e.Data, &probe); err != nil || probe.SenderID == nil {
		return 0, false
	}
	return *probe.SenderID, true
}
