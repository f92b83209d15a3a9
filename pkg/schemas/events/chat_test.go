package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "with zone",
			in:   "2026-08-30T10:00:00+07:00",
			want: time.Date(2026, 8, 30, 10, 0, 0, 0, time.FixedZone("", 7*3600)),
		},
		{
			name: "no zone marker is UTC",
			in:   "2026-08-30T10:00:00",
			want: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "fractional seconds without zone",
			in:   "2026-08-30T10:00:00.123",
			want: time.Date(2026, 8, 30, 10, 0, 0, 123_000_000, time.UTC),
		},
		{name: "garbage", in: "yesterday", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ChatMessage{Timestamp: tt.in}.ParseTimestamp()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidContract)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestChatSendValidate(t *testing.T) {
	t.Parallel()

	valid := ChatSend{
		ConversationID: 42,
		SenderID:       10,
		SenderType:     SenderStudent,
		SenderName:     "An",
		Content:        "chào",
		Timestamp:      "2026-08-30T10:00:00Z",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ChatSend)
		field  string
	}{
		{"missing conversation", func(s *ChatSend) { s.ConversationID = 0 }, "conversationId"},
		{"missing sender", func(s *ChatSend) { s.SenderID = 0 }, "senderId"},
		{"bad sender type", func(s *ChatSend) { s.SenderType = "ADMIN" }, "senderType"},
		{"empty content", func(s *ChatSend) { s.Content = "" }, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			require.ErrorIs(t, err, ErrInvalidContract)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Issues, 1)
			assert.Equal(t, tt.field, verr.Issues[0].Field)
		})
	}
}

func TestValidationErrorMessageNamesFields(t *testing.T) {
	t.Parallel()

	err := ChatSend{SenderType: "ADMIN"}.Validate()
	require.ErrorIs(t, err, ErrInvalidContract)
	assert.Equal(t, "invalid contract: "+
		"conversationId: required; "+
		"senderId: required; "+
		"senderType: must be STUDENT or INSTRUCTOR; "+
		"content: required",
		err.Error())

	assert.Equal(t, "invalid contract", (&ValidationError{}).Error())
}
