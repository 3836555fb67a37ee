package handlers

import (
	"errors"
	"net/http"
	"strings"

	"reqgather/internal/common"
	"reqgather/internal/models"
	"reqgather/internal/repositories"
	"reqgather/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandlers handles registration, login and token lifecycle requests.
type AuthHandlers struct {
	authService     services.AuthService
	userRepo        repositories.UserRepository
	activityService services.ActivityService
	emailService    services.EmailService
}

func NewAuthHandlers(authService services.AuthService, userRepo repositories.UserRepository,
	activityService services.ActivityService, emailService services.EmailService) *AuthHandlers {
	return &AuthHandlers{
		authService:     authService,
		userRepo:        userRepo,
		activityService: activityService,
		emailService:    emailService,
	}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a user account and signs it in.
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	errs := map[string]string{}
	if err := common.ValidateEmail(req.Email); err != nil {
		errs["email"] = err.Error()
	}
	if len(req.Password) < 6 {
		errs["password"] = "password must be at least 6 characters"
	}
	if err := common.ValidateStringLength(req.FirstName, "first_name", 1, 50); err != nil {
		errs["first_name"] = err.Error()
	}
	if err := common.ValidateStringLength(req.LastName, "last_name", 1, 50); err != nil {
		errs["last_name"] = err.Error()
	}
	if len(errs) > 0 {
		return common.SendValidationError(c, errs)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := h.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		c.Logger().Errorf("failed to create user: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	tokens, err := h.authService.IssueTokens(ctx, user)
	if err != nil {
		c.Logger().Errorf("failed to issue tokens: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	h.activityService.Record(ctx, user.ID, models.ActivityUserRegistered, "Account created", nil)
	h.emailService.SendVerificationEmail(ctx, user)

	return common.RespondDataMessage(c, http.StatusCreated, models.AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "Account created successfully")
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	user, err := h.authService.Authenticate(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		c.Logger().Errorf("login failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	tokens, err := h.authService.IssueTokens(ctx, user)
	if err != nil {
		c.Logger().Errorf("failed to issue tokens: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	h.activityService.Record(ctx, user.ID, models.ActivityLogin, "Signed in", nil)

	return common.RespondData(c, http.StatusOK, models.AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// LogoutRequest optionally carries the refresh token to revoke alongside the
// session.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout invalidates the session behind the presented access token.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if err := h.authService.Logout(ctx, token); err != nil {
		c.Logger().Warnf("logout failed: %v", err)
	}

	var req LogoutRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		if err := h.authService.RevokeRefreshToken(ctx, req.RefreshToken); err != nil {
			c.Logger().Warnf("failed to revoke refresh token: %v", err)
		}
	}

	if identity, ok := common.GetIdentityFromContext(ctx); ok {
		h.activityService.Record(ctx, identity.UserID, models.ActivityLogout, "Signed out", nil)
	}

	return common.RespondMessage(c, http.StatusOK, "Logged out successfully")
}

// RefreshRequest carries the opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token into a fresh token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}

	user, tokens, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
		}
		c.Logger().Errorf("token refresh failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Token refresh failed")
	}

	return common.RespondData(c, http.StatusOK, models.AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// VerifyEmailRequest carries the token from the emailed link.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail marks the account behind the token as verified.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	token := req.Token
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Verification token is required")
	}

	userID, err := h.emailService.ParseVerificationToken(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired verification token")
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired verification token")
	}
	if !user.IsVerified {
		if err := h.userRepo.SetVerified(ctx, userID); err != nil {
			c.Logger().Errorf("failed to mark user verified: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Email verification failed")
		}
		h.emailService.SendWelcomeEmail(ctx, user)
	}

	return common.RespondMessage(c, http.StatusOK, "Email verified successfully")
}
