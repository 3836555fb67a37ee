package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reqgather/internal/common"
	"reqgather/internal/models"
	"reqgather/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ProjectHandlersTestSuite struct {
	suite.Suite
	projectService  *MockProjectService
	activityService *MockActivityService
	handlers        *ProjectHandlers
	echo            *echo.Echo
	userID          uuid.UUID
}

func (suite *ProjectHandlersTestSuite) SetupTest() {
	suite.projectService = &MockProjectService{}
	suite.activityService = &MockActivityService{}
	suite.handlers = NewProjectHandlers(suite.projectService, suite.activityService)
	suite.echo = echo.New()
	suite.echo.HTTPErrorHandler = HTTPErrorHandler
	suite.userID = uuid.New()
}

func TestProjectHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectHandlersTestSuite))
}

func (suite *ProjectHandlersTestSuite) newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	identity := common.Identity{UserID: suite.userID, Email: "owner@example.com", Role: models.RoleUser}
	req = req.WithContext(common.WithIdentity(req.Context(), identity))

	rec := httptest.NewRecorder()
	return suite.echo.NewContext(req, rec), rec
}

func (suite *ProjectHandlersTestSuite) decode(rec *httptest.ResponseRecorder) common.Envelope {
	var env common.Envelope
	assert.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (suite *ProjectHandlersTestSuite) TestList_DefaultsPagination() {
	page := &models.ProjectPage{Projects: []*models.Project{}, Total: 0, Limit: 20}

	suite.projectService.On("ListForUser", mock.Anything, suite.userID,
		mock.MatchedBy(func(f *models.ProjectFilter) bool {
			return f.Limit == 20 && f.Offset == 0 && f.Status == nil
		})).Return(page, nil)

	c, rec := suite.newContext(http.MethodGet, "/api/projects", "")
	err := suite.handlers.List(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.True(suite.T(), suite.decode(rec).Success)
}

func (suite *ProjectHandlersTestSuite) TestList_InvalidStatusFilter() {
	c, rec := suite.newContext(http.MethodGet, "/api/projects?status=bogus", "")
	err := suite.handlers.List(c)
	if err != nil {
		suite.echo.HTTPErrorHandler(err, c)
	}
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	suite.projectService.AssertNotCalled(suite.T(), "ListForUser")
}

func (suite *ProjectHandlersTestSuite) TestCreate_Success() {
	created := &models.Project{ID: uuid.New(), Name: "Website Redesign", Client: "Acme", OwnerID: suite.userID}

	suite.projectService.On("Create", mock.Anything, suite.userID,
		mock.MatchedBy(func(p *models.Project) bool {
			return p.Name == "Website Redesign" && p.Client == "Acme" && p.Status == models.ProjectActive
		}), []string(nil)).Return(created, nil)
	suite.activityService.On("Record", mock.Anything, suite.userID, models.ActivityProjectCreated,
		mock.AnythingOfType("string"), mock.Anything).Return()

	body := `{"name":"Website Redesign","client":"Acme"}`
	c, rec := suite.newContext(http.MethodPost, "/api/projects", body)
	err := suite.handlers.Create(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusCreated, rec.Code)
	suite.activityService.AssertExpectations(suite.T())
}

func (suite *ProjectHandlersTestSuite) TestCreate_NameTooShort() {
	body := `{"name":"ab","client":"Acme"}`
	c, rec := suite.newContext(http.MethodPost, "/api/projects", body)
	err := suite.handlers.Create(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	env := suite.decode(rec)
	assert.False(suite.T(), env.Success)
	assert.Contains(suite.T(), env.Errors, "name")
	suite.projectService.AssertNotCalled(suite.T(), "Create")
}

func (suite *ProjectHandlersTestSuite) TestCreate_UnknownMemberEmail() {
	suite.projectService.On("Create", mock.Anything, suite.userID, mock.Anything, []string{"ghost@example.com"}).
		Return(nil, services.ErrUserNotFound)

	body := `{"name":"Website Redesign","client":"Acme","member_emails":["ghost@example.com"]}`
	c, rec := suite.newContext(http.MethodPost, "/api/projects", body)
	err := suite.handlers.Create(c)
	if err != nil {
		suite.echo.HTTPErrorHandler(err, c)
	}
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *ProjectHandlersTestSuite) TestGet_UsesProjectFromContext() {
	project := &models.Project{ID: uuid.New(), Name: "Website Redesign", OwnerID: suite.userID}

	c, rec := suite.newContext(http.MethodGet, "/api/projects/"+project.ID.String(), "")
	c.SetRequest(c.Request().WithContext(common.WithProject(c.Request().Context(), project)))

	err := suite.handlers.Get(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	env := suite.decode(rec)
	data, err := json.Marshal(env.Data)
	assert.NoError(suite.T(), err)
	var got models.Project
	assert.NoError(suite.T(), json.Unmarshal(data, &got))
	assert.Equal(suite.T(), project.ID, got.ID)
}

func (suite *ProjectHandlersTestSuite) TestDelete_RecordsActivity() {
	project := &models.Project{ID: uuid.New(), Name: "Doomed", OwnerID: suite.userID}

	suite.projectService.On("Delete", mock.Anything, project.ID, suite.userID).Return(project, nil)
	suite.activityService.On("Record", mock.Anything, suite.userID, models.ActivityProjectDeleted,
		mock.AnythingOfType("string"), mock.Anything).Return()

	c, rec := suite.newContext(http.MethodDelete, "/api/projects/"+project.ID.String(), "")
	c.SetRequest(c.Request().WithContext(common.WithProject(c.Request().Context(), project)))

	err := suite.handlers.Delete(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	suite.activityService.AssertExpectations(suite.T())
}

func (suite *ProjectHandlersTestSuite) TestAddMember_InvalidEmail() {
	project := &models.Project{ID: uuid.New(), Name: "P", OwnerID: suite.userID}

	body := `{"email":"not-an-email"}`
	c, rec := suite.newContext(http.MethodPost, "/api/projects/"+project.ID.String()+"/members", body)
	c.SetRequest(c.Request().WithContext(common.WithProject(c.Request().Context(), project)))

	err := suite.handlers.AddMember(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	suite.projectService.AssertNotCalled(suite.T(), "AddMemberByEmail")
}
