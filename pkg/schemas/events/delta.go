package events

// ConversationSummaryDelta is the payload of a MESSAGE_UPDATE envelope:
// a conversation-list entry changed (new last message, unread count).
type ConversationSummaryDelta struct {
	ConversationID int64  `json:"conversationId"`
	LastMessage    string `json:"lastMessage,omitempty"`
	UnreadDelta    int    `json:"unreadDelta,omitempty"`
	SenderID       *int64 `json:"senderId,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}
