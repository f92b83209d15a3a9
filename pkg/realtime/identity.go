package realtime

import "fmt"

// Role is the closed set of roles a session can be bound to. Topic
// names are always built by switching on it; free-form role strings do
// not appear anywhere else.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

func (r Role) Valid() bool { return r == RoleStudent || r == RoleInstructor }

// Identity is the (numeric id, role) pair a session is bound to.
// Exactly one identity owns the active session at a time; rebinding is
// destructive (see Client.Connect).
type Identity struct {
	ID   int64
	Role Role
}

func (id Identity) String() string { return fmt.Sprintf("%s/%d", id.Role, id.ID) }

// DefaultTopics is the fixed topic set subscribed on every successful
// open for this identity. The names are server-defined and must match
// exactly.
func (id Identity) DefaultTopics() []string {
	topics := []string{
		fmt.Sprintf("/topic/%s/%d/notifications", id.Role, id.ID),
		fmt.Sprintf("/topic/%s/%d/messages", id.Role, id.ID),
	}
	switch id.Role {
	case RoleInstructor:
		topics = append(topics,
			fmt.Sprintf("/topic/instructor/%d/uploads", id.ID),
			fmt.Sprintf("/topic/instructor/%d/course-updates", id.ID),
		)
	case RoleStudent:
		topics = append(topics,
			fmt.Sprintf("/topic/student/%d/course-progress", id.ID),
			fmt.Sprintf("/topic/student/%d/purchases", id.ID),
		)
	}
	return topics
}

// ConversationTopic names the dynamic per-conversation topic.
func ConversationTopic(conversationID int64) string {
	return fmt.Sprintf("/topic/conversation/%d", conversationID)
}
