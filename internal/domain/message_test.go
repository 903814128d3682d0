package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	chatID := NewID()

	tests := []struct {
		name    string
		chatID  string
		sender  string
		text    string
		media   []string
		wantErr error
	}{
		{name: "text only", chatID: chatID, sender: "a", text: "hi"},
		{name: "media only", chatID: chatID, sender: "a", media: []string{"http://x/y.png"}},
		{name: "text and media", chatID: chatID, sender: "a", text: "look", media: []string{"http://x/y.png"}},
		{name: "neither", chatID: chatID, sender: "a", media: []string{}, wantErr: ErrEmptyMessage},
		{name: "nil media", chatID: chatID, sender: "a", wantErr: ErrEmptyMessage},
		{name: "only blank media entries", chatID: chatID, sender: "a", media: []string{""}, wantErr: ErrEmptyMessage},
		{name: "missing chat", sender: "a", text: "hi", wantErr: ErrMissingChatID},
		{name: "missing sender", chatID: chatID, text: "hi", wantErr: ErrMissingSender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.chatID, tt.sender, "", tt.text, tt.media)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Nil(t, msg)
				return
			}
			require.NoError(t, err)
			assert.False(t, msg.IsRead)
			assert.Equal(t, tt.text, msg.Text)
		})
	}
}

func TestNormalizeParticipants(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{name: "empty", in: nil, wantErr: true},
		{name: "single", in: []string{"a"}, wantErr: true},
		{name: "same user twice", in: []string{"a", "a"}, wantErr: true},
		{name: "pair", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "dedupes and drops blanks", in: []string{"a", "", "b", "a"}, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeParticipants(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParticipants)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID(NewID()))
	assert.ErrorIs(t, ValidateID("not-an-id"), ErrMalformedID)
	assert.ErrorIs(t, ValidateID(""), ErrMalformedID)
}

func TestNewID_Ordered(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Less(t, a, b)
}
