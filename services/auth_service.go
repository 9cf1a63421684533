// services/auth_service.go
package services

import (
	"context"
	"errors"
	"time"

	"inci.cards/configs"
	"inci.cards/configs/configslog"
	"inci.cards/models"
	"inci.cards/pkg/codestore"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenValidity is the fixed bearer token lifetime. There is no revocation;
// a leaked token is only invalidated by rotating the secret.
const TokenValidity = 30 * 24 * time.Hour

// AuthServiceError is a typed service error.
type AuthServiceError string

func (e AuthServiceError) Error() string { return string(e) }

const (
	ErrEmailRequired    AuthServiceError = "email обязателен"
	ErrNameRequired     AuthServiceError = "имя обязательно"
	ErrCodeRequired     AuthServiceError = "код обязателен"
	ErrInvalidCode      AuthServiceError = "неверный или истекший код"
	ErrInvalidToken     AuthServiceError = "недействительный токен"
	ErrTokenMintFailed  AuthServiceError = "не удалось выдать токен"
	ErrVerifyUserFailed AuthServiceError = "не удалось создать пользователя"
)

// Claims is the signed claim set carried by every bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// IAuthService issues email one-time codes and bearer tokens.
type IAuthService interface {
	// RequestRegistrationCode issues a code for a new registration. The code
	// is returned so non-production handlers can echo it; there is no mail
	// provider integration.
	RequestRegistrationCode(ctx context.Context, email, name string) (string, error)
	// RequestLoginCode issues a code for an existing user and returns it.
	RequestLoginCode(ctx context.Context, email string) (string, error)
	// VerifyCode consumes the code, creates the identity on first success and
	// mints a token.
	VerifyCode(ctx context.Context, email, code string) (string, *models.User, error)
	// VerifyToken validates a bearer token and returns its claim set.
	VerifyToken(token string) (*Claims, error)
}

// AuthService implements IAuthService.
type AuthService struct {
	codes  *codestore.Store
	users  IUserService
	secret []byte
}

// NewAuthService builds an AuthService with the process-wide code store.
func NewAuthService(codes *codestore.Store, users IUserService) IAuthService {
	return &AuthService{
		codes:  codes,
		users:  users,
		secret: []byte(configs.Get().JWTSecret),
	}
}

// RequestRegistrationCode issues a 10-minute code bound to the email.
func (s *AuthService) RequestRegistrationCode(ctx context.Context, email, name string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}
	if name == "" {
		return "", ErrNameRequired
	}

	code, err := s.codes.Issue(email, name)
	if err != nil {
		return "", err
	}

	// No mail provider is wired; operators read the code from the log.
	configslog.Log.Info("verification code issued", zap.String("email", email), zap.String("code", code))
	return code, nil
}

// RequestLoginCode issues a code for a known email; unknown emails are
// rejected before any code exists.
func (s *AuthService) RequestLoginCode(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := s.codes.Issue(email, user.DisplayName)
	if err != nil {
		return "", err
	}
	configslog.Log.Info("login code issued", zap.String("email", email), zap.String("code", code))
	return code, nil
}

// VerifyCode validates and consumes the one-time code. The first successful
// verification for an email creates the identity (idempotent by email
// lookup). A valid code is never accepted twice.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (string, *models.User, error) {
	if email == "" {
		return "", nil, ErrEmailRequired
	}
	if code == "" {
		return "", nil, ErrCodeRequired
	}

	name, err := s.codes.Consume(email, code)
	if err != nil {
		configslog.Log.Warn("code verification failed", zap.String("email", email), zap.Error(err))
		return "", nil, ErrInvalidCode
	}

	user, err := s.users.GetOrCreateUser(ctx, models.NewUserData{
		Email:       email,
		DisplayName: name,
		ChannelCode: models.ChannelWebForm,
		ChannelName: "Web Form",
		Language:    "ru",
		Role:        "user",
		Status:      models.UserStatusActive,
		Consent:     true,
	})
	if err != nil {
		configslog.Log.Error("identity creation failed after verification", zap.String("email", email), zap.Error(err))
		return "", nil, ErrVerifyUserFailed
	}
	if user.DisplayName == "" {
		user.DisplayName = name
	}

	token, err := s.mintToken(user)
	if err != nil {
		return "", nil, ErrTokenMintFailed
	}
	return token, user, nil
}

// VerifyToken parses and validates a bearer token.
func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) mintToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenValidity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.DisplayName,
	})
	return token.SignedString(s.secret)
}

var _ IAuthService = (*AuthService)(nil)
