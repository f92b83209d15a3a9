// Package routing holds the consuming side of the realtime channel:
// the collaborators UI contexts register as handlers to turn inbound
// envelopes into visible notifications or silent state updates.
package routing

import "github.com/coursehub/realtime-go/pkg/schemas/events"

// Kind classifies a notification for rendering.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// NotificationSink is the external "show a toast" capability.
type NotificationSink interface {
	Show(kind Kind, title, body string)
}

// NotificationTitle is the default toast title.
const NotificationTitle = "Thông báo"

// SendFailedMessage is shown when a chat send fails because the
// session is down.
const SendFailedMessage = "không thể gửi tin nhắn"

func kindFor(status events.Status) Kind {
	switch status {
	case events.StatusSuccess:
		return KindSuccess
	case events.StatusError:
		return KindError
	default:
		return KindInfo
	}
}
