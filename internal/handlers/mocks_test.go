package handlers

import (
	"context"

	"reqgather/internal/models"
	"reqgather/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, ownerID uuid.UUID, project *models.Project, memberEmails []string) (*models.Project, error) {
	args := m.Called(ctx, ownerID, project, memberEmails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) GetForUser(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) ListForUser(ctx context.Context, userID uuid.UUID, filter *models.ProjectFilter) (*models.ProjectPage, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectPage), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, project *models.Project, memberEmails []string) (*models.Project, error) {
	args := m.Called(ctx, project, memberEmails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, projectID, ownerID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) AddMemberByEmail(ctx context.Context, projectID uuid.UUID, email string) error {
	args := m.Called(ctx, projectID, email)
	return args.Error(0)
}

func (m *MockProjectService) RemoveMember(ctx context.Context, projectID, memberID uuid.UUID) error {
	args := m.Called(ctx, projectID, memberID)
	return args.Error(0)
}

type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Record(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, description string, metadata map[string]string) {
	m.Called(ctx, userID, activityType, description, metadata)
}

func (m *MockActivityService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Activity, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Activity), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) IssueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.TokenPair), args.Error(2)
}

func (m *MockAuthService) ValidateAccessToken(token string) (*services.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockAuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendVerificationEmail(ctx context.Context, user *models.User) {
	m.Called(ctx, user)
}

func (m *MockEmailService) SendWelcomeEmail(ctx context.Context, user *models.User) {
	m.Called(ctx, user)
}

func (m *MockEmailService) VerificationToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockEmailService) ParseVerificationToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
