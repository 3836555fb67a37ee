package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"reqgather/internal/common"
	"reqgather/internal/models"
	"reqgather/internal/services"

	"github.com/labstack/echo/v4"
)

// ProjectHandlers serves project CRUD and membership management.
type ProjectHandlers struct {
	projectService  services.ProjectService
	activityService services.ActivityService
}

func NewProjectHandlers(projectService services.ProjectService, activityService services.ActivityService) *ProjectHandlers {
	return &ProjectHandlers{projectService: projectService, activityService: activityService}
}

// List returns the projects the caller owns or is a member of.
func (h *ProjectHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset, 20, 100)

	filter := &models.ProjectFilter{Limit: limit, Offset: offset}
	if raw := c.QueryParam("status"); raw != "" {
		status, err := models.ParseProjectStatus(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
		}
		filter.Status = &status
	}

	page, err := h.projectService.ListForUser(ctx, identity.UserID, filter)
	if err != nil {
		c.Logger().Errorf("failed to list projects: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list projects")
	}
	return common.RespondData(c, http.StatusOK, page)
}

// Get returns a single project. Access is enforced by the project middleware.
func (h *ProjectHandlers) Get(c echo.Context) error {
	project, ok := common.GetProjectFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}
	return common.RespondData(c, http.StatusOK, project)
}

// CreateProjectRequest is the project creation payload.
type CreateProjectRequest struct {
	Name         string   `json:"name"`
	Client       string   `json:"client"`
	Description  *string  `json:"description"`
	Timeline     *string  `json:"timeline"`
	Status       string   `json:"status"`
	MemberEmails []string `json:"member_emails"`
}

func validateProjectFields(name, client string, description, timeline *string) map[string]string {
	errs := map[string]string{}
	if err := common.ValidateStringLength(name, "name", 3, 100); err != nil {
		errs["name"] = err.Error()
	}
	if err := common.ValidateStringLength(client, "client", 2, 100); err != nil {
		errs["client"] = err.Error()
	}
	if err := common.ValidateOptionalString(description, "description", 500); err != nil {
		errs["description"] = err.Error()
	}
	if err := common.ValidateOptionalString(timeline, "timeline", 100); err != nil {
		errs["timeline"] = err.Error()
	}
	return errs
}

// Create creates a project owned by the caller.
func (h *ProjectHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)

	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	errs := validateProjectFields(req.Name, req.Client, req.Description, req.Timeline)
	status := models.ProjectActive
	if req.Status != "" {
		parsed, err := models.ParseProjectStatus(req.Status)
		if err != nil {
			errs["status"] = "status must be one of active, completed, archived, cancelled"
		} else {
			status = parsed
		}
	}
	for _, email := range req.MemberEmails {
		if err := common.ValidateEmail(email); err != nil {
			errs["member_emails"] = fmt.Sprintf("invalid member email %q", email)
			break
		}
	}
	if len(errs) > 0 {
		return common.SendValidationError(c, errs)
	}

	project := &models.Project{
		Name:        strings.TrimSpace(req.Name),
		Client:      strings.TrimSpace(req.Client),
		Description: req.Description,
		Timeline:    req.Timeline,
		Status:      status,
	}

	created, err := h.projectService.Create(ctx, identity.UserID, project, req.MemberEmails)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "One or more member emails do not match an account")
		}
		c.Logger().Errorf("failed to create project: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create project")
	}

	h.activityService.Record(ctx, identity.UserID, models.ActivityProjectCreated,
		fmt.Sprintf("Created project %q", created.Name), map[string]string{"project_id": created.ID.String()})

	return common.RespondDataMessage(c, http.StatusCreated, created, "Project created successfully")
}

// UpdateProjectRequest is the project update payload. Nil fields are left
// unchanged; a non-nil MemberEmails replaces the member set.
type UpdateProjectRequest struct {
	Name         *string  `json:"name"`
	Client       *string  `json:"client"`
	Description  *string  `json:"description"`
	Timeline     *string  `json:"timeline"`
	Status       *string  `json:"status"`
	MemberEmails []string `json:"member_emails"`
}

// Update edits project fields. Owner only, enforced by middleware.
func (h *ProjectHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	var req UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	errs := map[string]string{}
	if req.Name != nil {
		if err := common.ValidateStringLength(*req.Name, "name", 3, 100); err != nil {
			errs["name"] = err.Error()
		} else {
			project.Name = strings.TrimSpace(*req.Name)
		}
	}
	if req.Client != nil {
		if err := common.ValidateStringLength(*req.Client, "client", 2, 100); err != nil {
			errs["client"] = err.Error()
		} else {
			project.Client = strings.TrimSpace(*req.Client)
		}
	}
	if req.Description != nil {
		if err := common.ValidateOptionalString(req.Description, "description", 500); err != nil {
			errs["description"] = err.Error()
		} else {
			project.Description = req.Description
		}
	}
	if req.Timeline != nil {
		if err := common.ValidateOptionalString(req.Timeline, "timeline", 100); err != nil {
			errs["timeline"] = err.Error()
		} else {
			project.Timeline = req.Timeline
		}
	}
	if req.Status != nil {
		status, err := models.ParseProjectStatus(*req.Status)
		if err != nil {
			errs["status"] = "status must be one of active, completed, archived, cancelled"
		} else {
			project.Status = status
		}
	}
	for _, email := range req.MemberEmails {
		if err := common.ValidateEmail(email); err != nil {
			errs["member_emails"] = fmt.Sprintf("invalid member email %q", email)
			break
		}
	}
	if len(errs) > 0 {
		return common.SendValidationError(c, errs)
	}

	updated, err := h.projectService.Update(ctx, project, req.MemberEmails)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "One or more member emails do not match an account")
		}
		c.Logger().Errorf("failed to update project: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update project")
	}

	h.activityService.Record(ctx, identity.UserID, models.ActivityProjectUpdated,
		fmt.Sprintf("Updated project %q", updated.Name), map[string]string{"project_id": updated.ID.String()})

	return common.RespondDataMessage(c, http.StatusOK, updated, "Project updated successfully")
}

// Delete removes a project along with its members and stored documents.
func (h *ProjectHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	deleted, err := h.projectService.Delete(ctx, project.ID, identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Project not found")
		}
		c.Logger().Errorf("failed to delete project: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete project")
	}

	h.activityService.Record(ctx, identity.UserID, models.ActivityProjectDeleted,
		fmt.Sprintf("Deleted project %q", deleted.Name), map[string]string{"project_id": deleted.ID.String()})

	return common.RespondMessage(c, http.StatusOK, "Project deleted successfully")
}

// AddMemberRequest identifies the account to add by email.
type AddMemberRequest struct {
	Email string `json:"email"`
}

// AddMember adds a registered user to the project's member set.
func (h *ProjectHandlers) AddMember(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateEmail(req.Email); err != nil {
		return common.SendValidationError(c, map[string]string{"email": err.Error()})
	}

	if err := h.projectService.AddMemberByEmail(ctx, project.ID, strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No account matches this email")
		}
		c.Logger().Errorf("failed to add member: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add member")
	}

	h.activityService.Record(ctx, identity.UserID, models.ActivityProjectUpdated,
		fmt.Sprintf("Added member to project %q", project.Name), map[string]string{"project_id": project.ID.String()})

	return common.RespondMessage(c, http.StatusOK, "Member added successfully")
}

// RemoveMember removes a user from the project's member set.
func (h *ProjectHandlers) RemoveMember(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	memberID, err := common.ValidateUUID(c.Param("memberId"), "member ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.projectService.RemoveMember(ctx, project.ID, memberID); err != nil {
		c.Logger().Errorf("failed to remove member: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to remove member")
	}

	h.activityService.Record(ctx, identity.UserID, models.ActivityProjectUpdated,
		fmt.Sprintf("Removed member from project %q", project.Name), map[string]string{"project_id": project.ID.String()})

	return common.RespondMessage(c, http.StatusOK, "Member removed successfully")
}
