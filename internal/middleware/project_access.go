package middleware

import (
	"errors"
	"net/http"

	"reqgather/internal/common"
	"reqgather/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProjectAccess resolves the :id route param and enforces project visibility.
type ProjectAccess struct {
	projectService services.ProjectService
}

func NewProjectAccess(projectService services.ProjectService) *ProjectAccess {
	return &ProjectAccess{projectService: projectService}
}

// Require loads the project when the caller is its owner or a member and
// attaches it to the request context. Projects the caller cannot see are
// reported as missing rather than forbidden.
func (p *ProjectAccess) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			identity, ok := common.GetIdentityFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, genericAuthMessage)
			}
			projectID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
			}
			project, err := p.projectService.GetForUser(ctx, projectID, identity.UserID)
			if err != nil {
				if errors.Is(err, services.ErrProjectNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, "Project not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
			}
			c.SetRequest(c.Request().WithContext(common.WithProject(ctx, project)))
			return next(c)
		}
	}
}

// RequireOwner additionally restricts the route to the project owner.
func (p *ProjectAccess) RequireOwner() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return p.Require()(func(c echo.Context) error {
			ctx := c.Request().Context()
			identity, _ := common.GetIdentityFromContext(ctx)
			project, ok := common.GetProjectFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
			}
			if project.OwnerID != identity.UserID {
				return echo.NewHTTPError(http.StatusNotFound, "Project not found")
			}
			return next(c)
		})
	}
}
