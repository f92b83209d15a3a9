package routing

import (
	"fmt"
	"log/slog"

	"github.com/coursehub/realtime-go/pkg/realtime"
	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

// Notifications is the global UI context: it turns platform events
// into toasts. Chat messages are owned by the Conversation collaborator
// and skipped here; unknown envelope types are ignored silently, as new
// server-side types must not break old clients.
type Notifications struct {
	self realtime.Identity
	sink NotificationSink
	log  *slog.Logger

	// UploadProgress, when set, receives UPLOAD_PROGRESS percentages
	// instead of the sink (progress bars, not toasts).
	UploadProgress func(courseID int64, percent float64)
}

func NewNotifications(self realtime.Identity, sink NotificationSink, log *slog.Logger) *Notifications {
	if log == nil {
		log = slog.Default()
	}
	return &Notifications{self: self, sink: sink, log: log}
}

// Handler adapts the context for Client.AddHandler.
func (n *Notifications) Handler() realtime.Handler {
	return n.route
}

func (n *Notifications) route(env events.Envelope) {
	// Events echoing the current user's own actions stay silent.
	if origin, ok := env.OriginSenderID(); ok && origin == n.self.ID {
		n.log.Debug("self-originated event suppressed", slog.String("type", string(env.Type)))
		return
	}

	switch env.Type {
	case events.TypeNewMessage, events.TypeMessageUpdate:
		// Chat contexts own these.

	case events.TypeNotification, events.TypePurchaseSuccess, events.TypeCourseProgress:
		if env.Message != "" {
			n.sink.Show(kindFor(env.Status), NotificationTitle, env.Message)
		}

	case events.TypeUploadStarted, events.TypeUploadComplete, events.TypeUploadError:
		n.sink.Show(kindFor(env.Status), NotificationTitle, uploadBody(env))

	case events.TypeUploadProgress:
		if n.UploadProgress != nil && env.Progress != nil {
			var courseID int64
			if env.CourseID != nil {
				courseID = *env.CourseID
			}
			n.UploadProgress(courseID, *env.Progress)
		}

	default:
		n.log.Debug("ignoring unknown envelope type", slog.String("type", string(env.Type)))
	}
}

func uploadBody(env events.Envelope) string {
	if env.Message != "" {
		return env.Message
	}
	if env.Progress != nil {
		return fmt.Sprintf("upload %.0f%%", *env.Progress)
	}
	return string(env.Type)
}
