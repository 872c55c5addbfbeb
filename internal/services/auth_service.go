package services

import (
	"crypto/subtle"
	"fmt"

	"github.com/isdelr/guildvault/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthServiceProvider defines the interface for dashboard authentication.
type AuthServiceProvider interface {
	AuthenticateUser(username, password string) (models.User, error)
}

// AuthService checks credentials against the single configured operator.
type AuthService struct {
	operator models.User
}

// NewAuthService creates a new AuthService. An empty password hash disables login.
func NewAuthService(username, passwordHash string) *AuthService {
	return &AuthService{operator: models.User{Username: username, Admin: true, PasswordHash: passwordHash}}
}

// AuthenticateUser verifies the operator's credentials.
func (s *AuthService) AuthenticateUser(username, password string) (models.User, error) {
	if s.operator.PasswordHash == "" {
		return models.User{}, fmt.Errorf("%w: dashboard login is disabled", ErrForbidden)
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) != 1 {
		return models.User{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.operator.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	// Don't send the password hash to the client
	user := s.operator
	user.PasswordHash = ""
	return user, nil
}
