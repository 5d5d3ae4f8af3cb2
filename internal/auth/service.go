package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"classattend/internal/account"
	"classattend/internal/apperr"
)

// Identifier kinds accepted by Authenticate.
const (
	KindRegistrationNumber = "registration_number"
	KindGeneral            = "general"

	// kindLegacyGR is the short form older clients send for registration numbers.
	kindLegacyGR = "gr"
)

// UserFinder is the part of the credential store the session issuer reads.
type UserFinder interface {
	FindByRegistrationNumber(ctx context.Context, regNo string) ([]account.User, error)
	FindByHandle(ctx context.Context, handle string) ([]account.User, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	Role      account.Role `json:"role"`
	Name      string       `json:"name"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Service verifies credentials and issues session tokens.
type Service struct {
	users  UserFinder
	tokens *Tokens
	logger *slog.Logger
}

// NewService creates a session issuer.
func NewService(users UserFinder, tokens *Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Authenticate looks up exactly one user for identifier, checks password and
// issues a token. Unknown users and wrong passwords fail identically.
func (s *Service) Authenticate(ctx context.Context, identifier, password, kind string) (Session, error) {
	var (
		users []account.User
		err   error
	)
	if identifier != "" {
		if kind == KindRegistrationNumber || kind == kindLegacyGR {
			users, err = s.users.FindByRegistrationNumber(ctx, identifier)
		} else {
			users, err = s.users.FindByHandle(ctx, identifier)
		}
		if err != nil {
			return Session{}, fmt.Errorf("auth: lookup user: %w", err)
		}
	}

	if len(users) != 1 {
		if len(users) > 1 {
			s.logger.WarnContext(ctx, "login identifier matches several users", "matches", len(users))
		}
		burnCompare(password)
		return Session{}, apperr.ErrInvalidCredentials
	}

	user := users[0]
	if !CheckPassword(user.PasswordHash, password) {
		return Session{}, apperr.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(Principal{UserID: user.ID, Role: user.Role, Name: user.Name})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Role: user.Role, Name: user.Name, ExpiresAt: exp}, nil
}
