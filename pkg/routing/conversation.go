package routing

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursehub/realtime-go/pkg/realtime"
	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

// ChatSender is the slice of the realtime client a chat view needs.
type ChatSender interface {
	Send(events.ChatSend) error
}

// Conversation is the chat-page UI context for a single conversation:
// it keeps the visible message list, sends optimistically, and
// reconciles the server echo instead of appending a duplicate.
type Conversation struct {
	conversationID int64
	self           realtime.Identity
	selfName       string
	sender         ChatSender
	sink           NotificationSink
	log            *slog.Logger

	mu       sync.Mutex
	messages []events.ChatMessage
	summary  events.ConversationSummaryDelta
}

func NewConversation(conversationID int64, self realtime.Identity, selfName string, sender ChatSender, sink NotificationSink, log *slog.Logger) *Conversation {
	if log == nil {
		log = slog.Default()
	}
	return &Conversation{
		conversationID: conversationID,
		self:           self,
		selfName:       selfName,
		sender:         sender,
		sink:           sink,
		log:            log,
	}
}

func senderTypeFor(role realtime.Role) events.SenderType {
	if role == realtime.RoleInstructor {
		return events.SenderInstructor
	}
	return events.SenderStudent
}

// Send writes content to the conversation. The local copy appears
// immediately without a server id; the echo delivered over the
// transport reconciles it. A send while the session is down fails
// visibly and leaves no phantom message behind.
func (c *Conversation) Send(content string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	payload := events.ChatSend{
		ConversationID: c.conversationID,
		SenderID:       c.self.ID,
		SenderType:     senderTypeFor(c.self.Role),
		SenderName:     c.selfName,
		Content:        content,
		Timestamp:      now,
	}

	local := events.ChatMessage{
		LocalID:        uuid.NewString(),
		ConversationID: c.conversationID,
		SenderID:       c.self.ID,
		SenderType:     payload.SenderType,
		SenderName:     c.selfName,
		Content:        content,
		Timestamp:      now,
	}
	c.mu.Lock()
	c.messages = append(c.messages, local)
	c.mu.Unlock()

	if err := c.sender.Send(payload); err != nil {
		c.dropLocal(local.LocalID)
		if errors.Is(err, realtime.ErrNotConnected) && c.sink != nil {
			c.sink.Show(KindError, NotificationTitle, SendFailedMessage)
		}
		return err
	}
	return nil
}

// Handler adapts the context for Client.AddHandler.
func (c *Conversation) Handler() realtime.Handler {
	return c.route
}

func (c *Conversation) route(env events.Envelope) {
	switch env.Type {
	case events.TypeNewMessage:
		msg, err := env.ChatMessageData()
		if err != nil {
			c.log.Warn("unusable chat payload", slog.Any("error", err))
			return
		}
		if msg.ConversationID != c.conversationID {
			return
		}
		c.reconcile(msg)

	case events.TypeMessageUpdate:
		delta, err := env.ConversationDeltaData()
		if err != nil || delta.ConversationID != c.conversationID {
			return
		}
		c.mu.Lock()
		c.summary = delta
		c.mu.Unlock()
	}
}

// reconcile merges an inbound copy into the list. Matching is by
// server id first, then by the optimistic-copy heuristic (same sender,
// same content, timestamps within a minute). Delivered messages are
// never mutated except through this path.
func (c *Conversation) reconcile(msg events.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.ID != "" {
		for i, existing := range c.messages {
			if existing.ID == msg.ID {
				msg.LocalID = existing.LocalID
				c.messages[i] = msg
				return
			}
		}
	}
	if msg.SenderID == c.self.ID {
		for i, existing := range c.messages {
			if existing.ID == "" && existing.LocalID != "" &&
				existing.SenderID == msg.SenderID &&
				existing.Content == msg.Content &&
				closeInTime(existing.Timestamp, msg.Timestamp) {
				msg.LocalID = existing.LocalID
				c.messages[i] = msg
				return
			}
		}
	}
	c.messages = append(c.messages, msg)
}

func closeInTime(a, b string) bool {
	ta, errA := events.ChatMessage{Timestamp: a}.ParseTimestamp()
	tb, errB := events.ChatMessage{Timestamp: b}.ParseTimestamp()
	if errA != nil || errB != nil {
		// No usable timestamps; sender+content already matched.
		return true
	}
	d := ta.Sub(tb)
	if d < 0 {
		d = -d
	}
	return d <= time.Minute
}

func (c *Conversation) dropLocal(localID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.messages {
		if m.LocalID == localID && m.ID == "" {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// Messages returns a snapshot of the visible list.
func (c *Conversation) Messages() []events.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Summary returns the latest conversation-list delta observed.
func (c *Conversation) Summary() events.ConversationSummaryDelta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Seed loads REST-fetched history before realtime updates take over.
func (c *Conversation) Seed(history []events.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append([]events.ChatMessage(nil), history...)
}
