package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore resolves user ids to identities.
type UserStore interface {
	GetIdentity(ctx context.Context, userID string) (*domain.Identity, error)
}

// GormUserStore reads identities from the users table.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) GetIdentity(ctx context.Context, userID string) (*domain.Identity, error) {
	var model domain.UserModel
	err := s.db.WithContext(ctx).
		Select("id", "username", "display_name", "email", "avatar_url").
		First(&model, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return model.ToIdentity(), nil
}
