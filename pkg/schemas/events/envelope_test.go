package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, env Envelope)
	}{
		{
			name: "full notification",
			body: `{"type":"NOTIFICATION","message":"Khóa học đã được duyệt","status":"SUCCESS","data":{"senderId":99}}`,
			check: func(t *testing.T, env Envelope) {
				assert.Equal(t, TypeNotification, env.Type)
				assert.Equal(t, "Khóa học đã được duyệt", env.Message)
				assert.Equal(t, StatusSuccess, env.Status)
			},
		},
		{
			name: "unknown type is not an error",
			body: `{"type":"SOMETHING_NEW","message":"hi"}`,
			check: func(t *testing.T, env Envelope) {
				assert.Equal(t, EventType("SOMETHING_NEW"), env.Type)
			},
		},
		{
			name: "upload progress",
			body: `{"type":"UPLOAD_PROGRESS","progress":42.5,"courseId":7}`,
			check: func(t *testing.T, env Envelope) {
				require.NotNil(t, env.Progress)
				assert.Equal(t, 42.5, *env.Progress)
				require.NotNil(t, env.CourseID)
				assert.Equal(t, int64(7), *env.CourseID)
			},
		},
		{
			name: "absent timestamp does not fail",
			body: `{"type":"NOTIFICATION"}`,
			check: func(t *testing.T, env Envelope) {
				assert.Empty(t, env.Timestamp)
			},
		},
		{name: "not json", body: `{{{`, wantErr: true},
		{name: "missing type", body: `{"message":"x"}`, wantErr: true},
		{name: "empty type", body: `{"type":""}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, err := ParseEnvelope([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedEnvelope)
				return
			}
			require.NoError(t, err)
			tt.check(t, env)
		})
	}
}

func TestChatMessageData(t *testing.T) {
	t.Parallel()

	env, err := ParseEnvelope([]byte(`{"type":"NEW_MESSAGE","data":{"id":"abc","conversationId":42,"senderId":10,"senderType":"STUDENT","senderName":"An","content":"chào","timestamp":"2026-08-30T10:00:00"}}`))
	require.NoError(t, err)

	msg, err := env.ChatMessageData()
	require.NoError(t, err)
	assert.Equal(t, "abc", msg.ID)
	assert.Equal(t, int64(42), msg.ConversationID)
	assert.Equal(t, SenderStudent, msg.SenderType)
	assert.Equal(t, "chào", msg.Content)

	noData := Envelope{Type: TypeNewMessage}
	_, err = noData.ChatMessageData()
	require.Error(t, err)
}

func TestOriginSenderID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		wantID int64
		wantOK bool
	}{
		{"present", `{"type":"NOTIFICATION","data":{"senderId":99}}`, 99, true},
		{"absent field", `{"type":"NOTIFICATION","data":{"other":1}}`, 0, false},
		{"no data", `{"type":"NOTIFICATION"}`, 0, false},
		{"data not an object", `{"type":"NOTIFICATION","data":[1,2]}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, err := ParseEnvelope([]byte(tt.body))
			require.NoError(t, err)
			id, ok := env.OriginSenderID()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
