package domain

import "time"

// Chat is a conversation between two or more users.
type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	LastMessage  *Message  `json:"lastMessage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// NormalizeParticipants drops blanks and duplicates, keeping first-seen order,
// and fails unless at least two distinct users remain.
func NormalizeParticipants(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) < 2 {
		return nil, ErrInvalidParticipants
	}
	return out, nil
}
