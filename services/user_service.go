package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

// UserCreatedHandler runs inside the registration transaction. Returning an
// error rolls the new user back.
type UserCreatedHandler func(ctx context.Context, tx *gorm.DB, user *models.User) error

type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

type UserService struct {
	db         *gorm.DB
	tokens     *utils.TokenManager
	onCreated  []UserCreatedHandler
	bcryptCost int
}

func NewUserService(db *gorm.DB, tokens *utils.TokenManager) *UserService {
	return &UserService{
		db:         db,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// SetPasswordCost changes the bcrypt cost used for new passwords.
func (s *UserService) SetPasswordCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	s.bcryptCost = cost
}

// OnUserCreated subscribes h to the user-created event.
func (s *UserService) OnUserCreated(h UserCreatedHandler) {
	s.onCreated = append(s.onCreated, h)
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", utils.ErrValidation)
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  string(hashed),
		Role:      in.Role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: username %q is already taken", utils.ErrValidation, user.Username)
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		for _, h := range s.onCreated {
			if err := h(ctx, tx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Username, user.Role)
	return user, nil
}

// Login checks the credentials and returns a fresh access token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	invalid := fmt.Errorf("%w: invalid credentials", utils.ErrUnauthenticated)

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, invalid
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, invalid
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Logout revokes the token so neither the API nor the live channel accept
// it again.
func (s *UserService) Logout(token string) error {
	return s.tokens.Revoke(token)
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, utils.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, utils.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
