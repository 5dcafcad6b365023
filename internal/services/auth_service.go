package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"immitrack/internal/authz"
	"immitrack/internal/models"
)

var ErrBadCredentials = errors.New("invalid name or password")

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Person      string    `json:"person"`
	Role        string    `json:"role"`
}

// AuthService checks configured accounts and issues bearer tokens.
type AuthService struct {
	secret   []byte
	ttl      time.Duration
	accounts map[string]models.Account
	now      func() time.Time
}

func NewAuthService(secret string, ttl time.Duration, accounts []models.Account) *AuthService {
	byName := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		if a.Role == "" {
			a.Role = authz.RoleOwner
		}
		byName[strings.ToLower(a.Name)] = a
	}
	return &AuthService{secret: []byte(secret), ttl: ttl, accounts: byName, now: time.Now}
}

func (s *AuthService) Enabled() bool {
	return len(s.secret) > 0
}

func (s *AuthService) Secret() []byte {
	return s.secret
}

func (s *AuthService) Login(name, password string) (*LoginResult, error) {
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(name))]
	if !ok || acc.PasswordHash == "" {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	tok, exp, err := authz.IssueToken(s.secret, strings.ToLower(acc.Name), acc.Role, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: tok, ExpiresAt: exp, Person: strings.ToLower(acc.Name), Role: acc.Role}, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
