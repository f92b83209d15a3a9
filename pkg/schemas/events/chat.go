package events

import (
	"strconv"
	"time"
)

type SenderType string

const (
	SenderStudent    SenderType = "STUDENT"
	SenderInstructor SenderType = "INSTRUCTOR"
)

// ChatMessage is the payload of a NEW_MESSAGE envelope. The
// client-originated optimistic copy has no server ID yet; it gains one
// when the server echo arrives and the two copies are reconciled.
type ChatMessage struct {
	ID             string     `json:"id,omitempty"` // server-assigned, "" until acked
	ConversationID int64      `json:"conversationId"`
	SenderID       int64      `json:"senderId"`
	SenderType     SenderType `json:"senderType"`
	SenderName     string     `json:"senderName"`
	Content        string     `json:"content"`
	Timestamp      string     `json:"timestamp,omitempty"`

	// LocalID keys the optimistic copy while it waits for its echo.
	// Never serialized; the server contract does not know about it.
	LocalID string `json:"-"`
}

// ParseTimestamp parses the message timestamp. Server timestamps may
// lack a timezone marker, in which case they are UTC.
func (m ChatMessage) ParseTimestamp() (time.Time, error) {
	return parseWireTime(m.Timestamp)
}

func parseWireTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Issues: []ValidationIssue{
		{Field: "timestamp", Reason: "unparseable: " + strconv.Quote(s)},
	}}
}

// ChatSend is the outbound payload for a chat send, addressed to the
// application send destination.
type ChatSend struct {
	ConversationID int64      `json:"conversationId"`
	SenderID       int64      `json:"senderId"`
	SenderType     SenderType `json:"senderType"`
	SenderName     string     `json:"senderName"`
	Content        string     `json:"content"`
	Timestamp      string     `json:"timestamp"` // ISO 8601
}

func (s ChatSend) Validate() error {
	e := &ValidationError{}
	if s.ConversationID <= 0 {
		e.add("conversationId", "required")
	}
	if s.SenderID <= 0 {
		e.add("senderId", "required")
	}
	if s.SenderType != SenderStudent && s.SenderType != SenderInstructor {
		e.add("senderType", "must be STUDENT or INSTRUCTOR")
	}
	if s.Content == "" {
		e.add("content", "required")
	}
	if len(e.Issues) > 0 {
		return e
	}
	return nil
}
