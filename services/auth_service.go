package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenClaims are the claims of an issued access token
type TokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access tokens
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenIssuer builds an issuer from the JWT settings in cfg
func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenIssuer{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// IssuedToken is a signed token and when it stops being valid
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int       `json:"expires_in"`
}

// Issue signs a token whose subject is the user id
func (i *TokenIssuer) Issue(user *models.User) (*IssuedToken, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := TokenClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{i.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &IssuedToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int(i.ttl.Seconds()),
	}, nil
}

// AuthService signs users in and out
type AuthService struct {
	db     *gorm.DB
	hasher PasswordHasher
	issuer *TokenIssuer
	store  TokenStore
}

// NewAuthService creates an AuthService
func NewAuthService(db *gorm.DB, hasher PasswordHasher, issuer *TokenIssuer, store TokenStore) *AuthService {
	return &AuthService{db: db, hasher: hasher, issuer: issuer, store: store}
}

// LoginResult is a successful sign in
type LoginResult struct {
	*IssuedToken
	User *models.User `json:"user"`
}

// Login checks the password and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, persistenceError("load user", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		log.Info().Str("username", username).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(&user)
	if err != nil {
		return nil, err
	}
	log.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("User logged in")
	return &LoginResult{IssuedToken: token, User: &user}, nil
}

// Logout revokes a token id until its expiry
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return &ValidationError{Field: "token", Message: "token has no id"}
	}
	if err := s.store.Revoke(ctx, jti, time.Until(expiresAt)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// CurrentUser loads the account behind an authenticated request
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: "user", ID: userID}
		}
		return nil, persistenceError("load user", err)
	}
	return &user, nil
}
