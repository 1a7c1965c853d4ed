package services

import (
	"context"
	"fmt"

	"github.com/yeremiapane/notification-hub/utils"
)

// AuthService resolves a bearer token to a user that still exists.
type AuthService struct {
	tokens *utils.TokenManager
	users  *UserService
}

func NewAuthService(tokens *utils.TokenManager, users *UserService) *AuthService {
	return &AuthService{tokens: tokens, users: users}
}

func (a *AuthService) Authenticate(ctx context.Context, token string) (uint, error) {
	userID, err := a.tokens.Validate(token)
	if err != nil {
		return 0, err
	}
	ok, err := a.users.Exists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, utils.ErrNotFound)
	}
	return userID, nil
}
