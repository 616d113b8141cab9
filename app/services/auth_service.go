package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/app/repositories"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/validate"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3" message:"Username must be at least 3 characters long"`
	Email    string `json:"email"    validate:"required,email" message:"Must be a valid email address"`
	Password string `json:"password" validate:"required,min=6" message:"Password must be at least 6 characters long"`
}

func (RegisterInput) TypeMessages() map[string]string {
	return map[string]string{
		"username": "Username must be at least 3 characters long",
		"email":    "Must be a valid email address",
		"password": "Password must be at least 6 characters long",
	}
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email" message:"Must be a valid email address"`
	Password string `json:"password" validate:"required" message:"Password is required"`
}

func (LoginInput) TypeMessages() map[string]string {
	return map[string]string{
		"email":    "Must be a valid email address",
		"password": "Password is required",
	}
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginResult is returned on successful sign-in.
type LoginResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Profile is the signed-in user's own view, including their balance.
type Profile struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	LoyaltyPoints int    `json:"loyaltyPoints"`
}

type AuthService struct {
	users  *repositories.UserRepository
	tokens *auth.Issuer
}

func NewAuthService(db *gorm.DB, tokens *auth.Issuer) *AuthService {
	return &AuthService{
		users:  repositories.NewUserRepository(db),
		tokens: tokens,
	}
}

// Register creates a CUSTOMER account. Emails are unique ignoring case and
// are stored lowercased.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, Invalid(errs)
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, &ValidationError{Message: "Email already in use"}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.WithCtx(ctx).Info("auth: user registered", "user_id", user.ID)
	return &user, nil
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, Invalid(errs)
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &LoginResult{
		Token: token,
		User:  UserSummary{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role},
	}, nil
}

// Profile returns the user with their loyalty balance (0 without a row).
func (s *AuthService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "User"}
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}

	p := &Profile{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role}
	if user.LoyaltyPoints != nil {
		p.LoyaltyPoints = user.LoyaltyPoints.Points
	}
	return p, nil
}
