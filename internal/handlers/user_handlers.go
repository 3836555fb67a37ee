package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"reqgather/internal/common"
	"reqgather/internal/models"
	"reqgather/internal/repositories"
	"reqgather/internal/services"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandlers serves the authenticated user's own resources.
type UserHandlers struct {
	userRepo        repositories.UserRepository
	authService     services.AuthService
	activityService services.ActivityService
	projectService  services.ProjectService
}

func NewUserHandlers(userRepo repositories.UserRepository, authService services.AuthService,
	activityService services.ActivityService, projectService services.ProjectService) *UserHandlers {
	return &UserHandlers{
		userRepo:        userRepo,
		authService:     authService,
		activityService: activityService,
		projectService:  projectService,
	}
}

// GetProfile returns the caller's profile.
func (h *UserHandlers) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	user, err := h.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return common.RespondData(c, http.StatusOK, user)
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UpdateProfile updates the caller's name fields. Email and role are immutable
// through this endpoint.
func (h *UserHandlers) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	errs := map[string]string{}
	if req.FirstName != nil {
		if err := common.ValidateStringLength(*req.FirstName, "first_name", 1, 50); err != nil {
			errs["first_name"] = err.Error()
		} else {
			user.FirstName = strings.TrimSpace(*req.FirstName)
		}
	}
	if req.LastName != nil {
		if err := common.ValidateStringLength(*req.LastName, "last_name", 1, 50); err != nil {
			errs["last_name"] = err.Error()
		} else {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
	}
	if len(errs) > 0 {
		return common.SendValidationError(c, errs)
	}

	if err := h.userRepo.UpdateProfile(ctx, user); err != nil {
		c.Logger().Errorf("failed to update profile: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}
	return common.RespondDataMessage(c, http.StatusOK, user, "Profile updated successfully")
}

// ListActivities returns the caller's recent activity, newest first.
func (h *UserHandlers) ListActivities(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset, 50, 100)

	activities, err := h.activityService.ListByUser(ctx, identity.UserID, limit, offset)
	if err != nil {
		c.Logger().Errorf("failed to list activities: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list activities")
	}
	return common.RespondData(c, http.StatusOK, activities)
}

// ListProjects returns the projects visible to the caller. Convenience alias
// for GET /api/projects scoped under the user resource.
func (h *UserHandlers) ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset, 20, 100)

	page, err := h.projectService.ListForUser(ctx, identity.UserID, &models.ProjectFilter{Limit: limit, Offset: offset})
	if err != nil {
		c.Logger().Errorf("failed to list projects: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list projects")
	}
	return common.RespondData(c, http.StatusOK, page)
}

// ChangePasswordRequest carries the password rotation payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword rotates the caller's password and revokes every session,
// including the one making this request.
func (h *UserHandlers) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.CurrentPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Current password is required")
	}
	if len(req.NewPassword) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "New password must be at least 6 characters")
	}

	user, err := h.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to change password")
	}
	if err := h.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		c.Logger().Errorf("failed to update password: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to change password")
	}

	if err := h.authService.RevokeUserSessions(ctx, user.ID); err != nil {
		c.Logger().Errorf("failed to revoke sessions after password change: %v", err)
	}
	h.activityService.Record(ctx, user.ID, models.ActivityPasswordChanged, "Password changed", nil)

	return common.RespondMessage(c, http.StatusOK, "Password changed successfully, please sign in again")
}

// DeleteAccountRequest confirms the deletion with the account password.
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteAccount deactivates the caller's account and revokes its sessions.
// The password must be re-entered to confirm.
func (h *UserHandlers) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	var req DeleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Password is required to delete the account")
	}

	user, err := h.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Password is incorrect")
	}

	if err := h.userRepo.Deactivate(ctx, identity.UserID); err != nil {
		c.Logger().Errorf("failed to deactivate account: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete account")
	}
	if err := h.authService.RevokeUserSessions(ctx, identity.UserID); err != nil {
		c.Logger().Errorf("failed to revoke sessions after account deletion: %v", err)
	}
	return common.RespondMessage(c, http.StatusOK, "Account deleted successfully")
}
