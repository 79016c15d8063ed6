package user

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tavolo-pos/internal/database/models"
	"tavolo-pos/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidRole        = errors.New("invalid role specified")
)

type Service struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

func NewService(db *gorm.DB, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{db: db, tokenTTL: tokenTTL}
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

func (s *Service) Register(ctx context.Context, username, email, password, firstname, lastname string, roleID int32) (*AuthResult, error) {
	var existing models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return nil, ErrInvalidRole
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	newUser := models.User{
		Username:  username,
		Email:     email,
		Password:  string(pwHash),
		Firstname: firstname,
		Lastname:  lastname,
		RoleID:    roleID,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&newUser).Error; err != nil {
		return nil, err
	}
	s.db.WithContext(ctx).First(&newUser.Role, newUser.RoleID)

	token, exp, err := utils.GenerateToken(newUser.ID, newUser.Username, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, ExpiresAt: exp, User: newUser}, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Where("username = ? AND is_active = ?", username, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := utils.GenerateToken(u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u.LastLogin = &now
	s.db.WithContext(ctx).Save(&u)

	return &AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}
