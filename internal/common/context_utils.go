package common

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"reqgather/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	projectKey  contextKey = "project"
)

// Identity is the authenticated caller, attached to the request context by the
// authenticator middleware. Handlers never see an unauthenticated request.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentityFromContext extracts the authenticated identity from the request context.
func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithProject returns a context carrying a project already resolved by the
// access-check middleware. Only the middleware sets this value.
func WithProject(ctx context.Context, project *models.Project) context.Context {
	return context.WithValue(ctx, projectKey, project)
}

// GetProjectFromContext extracts the access-checked project from the request context.
func GetProjectFromContext(ctx context.Context) (*models.Project, bool) {
	p, ok := ctx.Value(projectKey).(*models.Project)
	return p, ok
}

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RespondData sends a success envelope with a payload.
func RespondData(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// RespondMessage sends a success envelope with a message only.
func RespondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: true, Message: message})
}

// RespondDataMessage sends a success envelope with both payload and message.
func RespondDataMessage(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// SendValidationError sends a 400 envelope with field-level errors.
func SendValidationError(c echo.Context, errs map[string]string) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail validates email format.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("email format is invalid")
	}
	return nil
}

// ValidateStringLength validates a required string field against length bounds.
func ValidateStringLength(value, fieldName string, min, max int) error {
	v := strings.TrimSpace(value)
	if len(v) < min {
		if min <= 1 {
			return fmt.Errorf("%s is required", fieldName)
		}
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if len(v) > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateOptionalString validates an optional string field, trimming whitespace
// in place.
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value == nil {
		return nil
	}
	*value = strings.TrimSpace(*value)
	if len(*value) > maxLength {
		return fmt.Errorf("%s must be at most %d characters", fieldName, maxLength)
	}
	return nil
}

// ValidateUUID validates UUID path and body parameters.
func ValidateUUID(idStr, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s has invalid format", fieldName)
	}
	return id, nil
}

// ValidatePaginationParams clamps limit/offset to sane bounds.
func ValidatePaginationParams(limit, offset, defaultLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
