package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkhov/driftchat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidInput is returned when a registration field fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// RegisterParams carries the registration request fields.
type RegisterParams struct {
	DisplayName string
	Username    string
	Password    string
	Email       string
	Pronouns    string
	Bio         string
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

func validateRegister(p *RegisterParams) error {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)

	switch {
	case len(p.DisplayName) < 1 || len(p.DisplayName) > 255:
		return fmt.Errorf("%w: display name must be 1-255 characters", ErrInvalidInput)
	case len(p.Username) < 2 || len(p.Username) > 255:
		return fmt.Errorf("%w: username must be 2-255 characters", ErrInvalidInput)
	case len(p.Password) < 8 || len(p.Password) > 255:
		return fmt.Errorf("%w: password must be 8-255 characters", ErrInvalidInput)
	case len(p.Email) < 3 || !strings.Contains(p.Email, "@"):
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	case len(p.Pronouns) > 50:
		return fmt.Errorf("%w: pronouns too long", ErrInvalidInput)
	case len(p.Bio) > 2048:
		return fmt.Errorf("%w: bio too long", ErrInvalidInput)
	}
	return nil
}

// Register creates a new user with a hashed password and returns a JWT.
func (s *Service) Register(ctx context.Context, params RegisterParams) (string, error) {
	if err := validateRegister(&params); err != nil {
		return "", err
	}

	if existing, err := s.store.GetUserByUsername(ctx, params.Username); err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{
		DisplayName:  params.DisplayName,
		Username:     params.Username,
		PasswordHash: hashedPassword,
		Email:        params.Email,
		Pronouns:     params.Pronouns,
		Bio:          params.Bio,
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT.
func (s *Service) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// ValidateToken validates a JWT and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// VerifyToken validates a JWT and yields the user it identifies. This is the
// single verification path shared by the REST middleware and the socket
// session.
func (s *Service) VerifyToken(tokenString string) (int64, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
