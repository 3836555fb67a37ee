package repositories

import (
	"context"
	"testing"
	"time"

	"reqgather/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ProjectRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      ProjectRepository
	ownerID   uuid.UUID
	memberID  uuid.UUID
	projectID uuid.UUID
	context   context.Context
}

func (suite *ProjectRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewProjectRepo(mock)
	suite.ownerID = uuid.New()
	suite.memberID = uuid.New()
	suite.projectID = uuid.New()
	suite.context = context.Background()
}

func (suite *ProjectRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestProjectRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectRepoTestSuite))
}

func (suite *ProjectRepoTestSuite) projectRow() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "client", "description", "timeline", "status",
		"owner_id", "created_at", "updated_at", "u_id", "u_email", "u_first_name", "u_last_name"}).
		AddRow(suite.projectID, "Website Redesign", "Acme", (*string)(nil), (*string)(nil), "active",
			suite.ownerID, time.Now(), time.Now(), suite.ownerID, "owner@example.com", "Olive", "Owner")
}

func (suite *ProjectRepoTestSuite) emptyMemberRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "first_name", "last_name"})
}

func (suite *ProjectRepoTestSuite) TestCreate_InsertsProjectAndMembers() {
	project := &models.Project{
		ID:      suite.projectID,
		Name:    "Website Redesign",
		Client:  "Acme",
		Status:  models.ProjectActive,
		OwnerID: suite.ownerID,
	}

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO projects`).
		WithArgs(project.ID, project.Name, project.Client, project.Description,
			project.Timeline, "active", project.OwnerID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs(project.ID, suite.memberID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Create(suite.context, project, []uuid.UUID{suite.memberID})
	assert.NoError(suite.T(), err)
}

func (suite *ProjectRepoTestSuite) TestGetForUser_VisibleToOwner() {
	suite.mock.ExpectQuery(`SELECT p\.id, p\.name`).
		WithArgs(suite.projectID, suite.ownerID).
		WillReturnRows(suite.projectRow())
	suite.mock.ExpectQuery(`SELECT u\.id, u\.email`).
		WithArgs(suite.projectID).
		WillReturnRows(suite.emptyMemberRows())

	project, err := suite.repo.GetForUser(suite.context, suite.projectID, suite.ownerID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.projectID, project.ID)
	assert.Equal(suite.T(), "owner@example.com", project.Owner.Email)
	assert.NotNil(suite.T(), project.Members)
	assert.Empty(suite.T(), project.Members)
}

func (suite *ProjectRepoTestSuite) TestGetForUser_InvisibleToStranger() {
	strangerID := uuid.New()

	suite.mock.ExpectQuery(`SELECT p\.id, p\.name`).
		WithArgs(suite.projectID, strangerID).
		WillReturnError(pgx.ErrNoRows)

	project, err := suite.repo.GetForUser(suite.context, suite.projectID, strangerID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), project)
}

func (suite *ProjectRepoTestSuite) TestGetForOwner_RejectsMember() {
	suite.mock.ExpectQuery(`SELECT p\.id, p\.name`).
		WithArgs(suite.projectID, suite.memberID).
		WillReturnError(pgx.ErrNoRows)

	project, err := suite.repo.GetForOwner(suite.context, suite.projectID, suite.memberID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), project)
}

func (suite *ProjectRepoTestSuite) TestListForUser_ReturnsPageAndTotal() {
	filter := &models.ProjectFilter{Limit: 20, Offset: 0}

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects p`).
		WithArgs(suite.ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	suite.mock.ExpectQuery(`SELECT p\.id, p\.name`).
		WithArgs(suite.ownerID, filter.Limit, filter.Offset).
		WillReturnRows(suite.projectRow())
	suite.mock.ExpectQuery(`SELECT u\.id, u\.email`).
		WithArgs(suite.projectID).
		WillReturnRows(suite.emptyMemberRows())

	projects, total, err := suite.repo.ListForUser(suite.context, suite.ownerID, filter)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, total)
	assert.Len(suite.T(), projects, 1)
}

func (suite *ProjectRepoTestSuite) TestListForUser_StatusFilter() {
	status := models.ProjectCompleted
	filter := &models.ProjectFilter{Status: &status, Limit: 20, Offset: 0}

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects p`).
		WithArgs(suite.ownerID, "completed").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	suite.mock.ExpectQuery(`SELECT p\.id, p\.name`).
		WithArgs(suite.ownerID, "completed", filter.Limit, filter.Offset).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "client", "description", "timeline",
			"status", "owner_id", "created_at", "updated_at", "u_id", "u_email", "u_first_name", "u_last_name"}))

	projects, total, err := suite.repo.ListForUser(suite.context, suite.ownerID, filter)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, total)
	assert.Empty(suite.T(), projects)
}

func (suite *ProjectRepoTestSuite) TestReplaceMembers_DeletesThenInserts() {
	newMember := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`DELETE FROM project_members WHERE project_id = \$1`).
		WithArgs(suite.projectID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	suite.mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs(suite.projectID, newMember).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.ReplaceMembers(suite.context, suite.projectID, []uuid.UUID{newMember})
	assert.NoError(suite.T(), err)
}

func (suite *ProjectRepoTestSuite) TestDelete() {
	suite.mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).
		WithArgs(suite.projectID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, suite.projectID)
	assert.NoError(suite.T(), err)
}
