package domain

import "time"

// Message is a single chat message. Text and MediaURLs are both optional but
// at least one must be present.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"`
	Text      string    `json:"text,omitempty"`
	MediaURLs []string  `json:"mediaUrls"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewMessage builds an unsaved message, rejecting one without content.
func NewMessage(chatID, sender, receiver, text string, mediaURLs []string) (*Message, error) {
	if chatID == "" {
		return nil, ErrMissingChatID
	}
	if sender == "" {
		return nil, ErrMissingSender
	}

	media := CompactURLs(mediaURLs)
	if text == "" && len(media) == 0 {
		return nil, ErrEmptyMessage
	}

	return &Message{
		ChatID:    chatID,
		Sender:    sender,
		Receiver:  receiver,
		Text:      text,
		MediaURLs: media,
	}, nil
}

// CompactURLs returns urls without empty entries, preserving order.
func CompactURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
