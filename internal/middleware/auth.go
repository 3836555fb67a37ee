package middleware

import (
	"net/http"
	"strings"

	"reqgather/internal/common"
	"reqgather/internal/models"
	"reqgather/internal/repositories"
	"reqgather/internal/services"

	"github.com/labstack/echo/v4"
)

// genericAuthMessage is returned on every rejection path so the response does
// not reveal which check failed. The actual cause is only logged.
const genericAuthMessage = "Invalid or expired token"

// Authenticator validates bearer tokens against both the token signature and
// the persisted session state.
type Authenticator struct {
	authService services.AuthService
	sessionRepo repositories.SessionRepository
	userRepo    repositories.UserRepository
}

func NewAuthenticator(authService services.AuthService, sessionRepo repositories.SessionRepository,
	userRepo repositories.UserRepository) *Authenticator {
	return &Authenticator{
		authService: authService,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

// Middleware runs the per-request authentication checks in order: bearer
// header present, token signature and expiry valid, active unexpired session
// row exists, referenced user active. On success the identity is attached to
// the request context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return reject(c, "missing Authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return reject(c, "malformed Authorization header")
			}

			claims, err := a.authService.ValidateAccessToken(tokenString)
			if err != nil {
				return reject(c, "token validation failed: "+err.Error())
			}

			ctx := c.Request().Context()

			session, err := a.sessionRepo.GetActiveByToken(ctx, tokenString)
			if err != nil || session == nil {
				return reject(c, "no active session for token")
			}

			user, err := a.userRepo.GetByID(ctx, session.UserID)
			if err != nil || user == nil || !user.IsActive {
				return reject(c, "user missing or inactive")
			}

			role, err := models.ParseRole(claims.Role)
			if err != nil {
				return reject(c, "token carries unknown role")
			}

			identity := common.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Role:   role,
			}
			c.SetRequest(c.Request().WithContext(common.WithIdentity(ctx, identity)))

			return next(c)
		}
	}
}

func reject(c echo.Context, cause string) error {
	c.Logger().Debugf("authentication rejected: %s", cause)
	return echo.NewHTTPError(http.StatusUnauthorized, genericAuthMessage)
}
