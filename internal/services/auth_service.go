package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"reqgather/internal/caching"
	"reqgather/internal/models"
	"reqgather/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors. Handlers map both to the same generic 401 so the caller
// cannot tell which check failed.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// AuthService issues and revokes credentials: signed access tokens backed by
// session rows, and opaque refresh tokens stored hashed in Redis.
type AuthService interface {
	// Authenticate verifies email/password and returns the user. Absent user,
	// wrong password and deactivated account all return ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	// IssueTokens signs an access token, persists the matching session row and
	// stores a fresh refresh token.
	IssueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error)
	// Refresh rotates a refresh token into a new token pair. The old refresh
	// token is consumed; the old session row is left to expire on its own.
	Refresh(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error)
	// ValidateAccessToken checks the token signature and expiry only. Session
	// and user state are the authenticator middleware's concern.
	ValidateAccessToken(token string) (*TokenClaims, error)
	Logout(ctx context.Context, accessToken string) error
	// RevokeRefreshToken removes a stored refresh token so it can no longer
	// be exchanged. Unknown tokens are a no-op.
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	// RevokeUserSessions invalidates every session of the user. Used by
	// password change and account deletion.
	RevokeUserSessions(ctx context.Context, userID uuid.UUID) error
}

// TokenClaims are the JWT claims carried by access tokens.
type TokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	cacheSvc    caching.CacheService
	jwtSecret   []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository,
	cacheSvc caching.CacheService, jwtSecret string, accessTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cacheSvc:    cacheSvc,
		jwtSecret:   []byte(jwtSecret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		// Burn a bcrypt comparison anyway so a missing account costs the same
		// as a wrong password.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) IssueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := TokenClaims{
		Email: user.Email,
		Role:  user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "reqgather",
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	session := &models.Session{
		ID:        uuid.New(),
		Token:     accessToken,
		UserID:    user.ID,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	refreshToken, err := s.storeRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error) {
	tokenHash := hashToken(refreshToken)
	cacheKey := refreshTokenKey(tokenHash)

	tokenData, err := s.cacheSvc.GetString(ctx, cacheKey)
	if err != nil || tokenData == "" {
		return nil, nil, ErrInvalidRefreshToken
	}

	parts := strings.Split(tokenData, ":")
	if len(parts) != 2 {
		return nil, nil, ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		s.cacheSvc.Delete(ctx, cacheKey)
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil || !user.IsActive {
		return nil, nil, ErrInvalidRefreshToken
	}

	// Rotate: the presented token is single-use.
	if err := s.cacheSvc.Delete(ctx, cacheKey); err != nil {
		log.Printf("Failed to delete consumed refresh token: %v", err)
	}

	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) ValidateAccessToken(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	return s.sessionRepo.Invalidate(ctx, accessToken)
}

func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.cacheSvc.Delete(ctx, refreshTokenKey(hashToken(refreshToken)))
}

func (s *authService) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	return s.sessionRepo.InvalidateAllForUser(ctx, userID)
}

// storeRefreshToken generates an opaque token and stores its hash with the
// user id and expiry. Only the hash ever leaves memory.
func (s *authService) storeRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshToken := base64.URLEncoding.EncodeToString(raw)

	expiry := time.Now().Add(s.refreshTTL).Unix()
	value := fmt.Sprintf("%s:%d", userID.String(), expiry)
	if err := s.cacheSvc.SetString(ctx, refreshTokenKey(hashToken(refreshToken)), value, s.refreshTTL); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return refreshToken, nil
}

func refreshTokenKey(hash string) string {
	return fmt.Sprintf("reqgather:refresh_token:%s", hash)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
