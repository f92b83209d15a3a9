package events

import "encoding/json"

// Action is the verb of a client-to-server frame.
type Action string

const (
	ActionSubscribe   Action = "SUBSCRIBE"
	ActionUnsubscribe Action = "UNSUBSCRIBE"
	ActionSend        Action = "SEND"
)

// ClientFrame is the client-to-server envelope. Subscribe/unsubscribe
// frames carry no body; send frames carry the serialized payload.
type ClientFrame struct {
	Action      Action          `json:"action"`
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// ChatSendDestination is the fixed application destination for
// outbound chat messages.
const ChatSendDestination = "/app/chat.send"
