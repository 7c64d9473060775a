package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/n4wf3l/perfume-platform-backend/internal/apperrors"
	"github.com/n4wf3l/perfume-platform-backend/internal/auth"
	"github.com/n4wf3l/perfume-platform-backend/internal/config"
	"github.com/n4wf3l/perfume-platform-backend/internal/datamodels/user"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService issues and revokes admin sessions. Everything downstream
// treats "authenticated" as an opaque gate.
type UserService struct {
	repo   user.Repository
	jwt    *config.JWTConfig
	tokens *auth.TokenCache
}

// NewUserService creates the user service. tokens may be nil, disabling
// logout revocation.
func NewUserService(repo user.Repository, jwt *config.JWTConfig, tokens *auth.TokenCache) *UserService {
	return &UserService{repo: repo, jwt: jwt, tokens: tokens}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

func newSalt() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Register creates an admin account.
func (s *UserService) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.Invalid("email", "The email and password fields are required.")
	}
	u := &user.User{
		Email: email,
		Salt:  newSalt(),
	}
	u.Password = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a signed bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if hashPassword(password, u.Salt) != u.Password {
		return "", ErrInvalidCredentials
	}
	return auth.GenerateToken(s.jwt, u.ID, u.Email)
}

// Logout revokes the token for the rest of its lifetime.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if s.tokens == nil {
		return nil
	}
	return s.tokens.Revoke(ctx, token)
}
