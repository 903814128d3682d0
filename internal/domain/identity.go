package domain

// Identity is the resolved, non-sensitive view of an authenticated user.
type Identity struct {
	UserID    string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
