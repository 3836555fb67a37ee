package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"reqgather/internal/models"
	"reqgather/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrProjectNotFound covers both a missing project and one the caller may
	// not see; the two are indistinguishable on purpose.
	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")
)

type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, project *models.Project, memberEmails []string) (*models.Project, error)
	GetForUser(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter *models.ProjectFilter) (*models.ProjectPage, error)
	// Update persists field changes and, when memberEmails is non-nil,
	// replaces the member set.
	Update(ctx context.Context, project *models.Project, memberEmails []string) (*models.Project, error)
	// Delete removes the project and its stored documents. Owner only.
	Delete(ctx context.Context, projectID, ownerID uuid.UUID) (*models.Project, error)
	AddMemberByEmail(ctx context.Context, projectID uuid.UUID, email string) error
	RemoveMember(ctx context.Context, projectID, memberID uuid.UUID) error
}

type projectService struct {
	projectRepo  repositories.ProjectRepository
	userRepo     repositories.UserRepository
	documentRepo repositories.DocumentRepository
	storageSvc   StorageService
}

func NewProjectService(projectRepo repositories.ProjectRepository, userRepo repositories.UserRepository,
	documentRepo repositories.DocumentRepository, storageSvc StorageService) ProjectService {
	return &projectService{
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		documentRepo: documentRepo,
		storageSvc:   storageSvc,
	}
}

func (s *projectService) Create(ctx context.Context, ownerID uuid.UUID, project *models.Project, memberEmails []string) (*models.Project, error) {
	memberIDs, err := s.resolveMemberEmails(ctx, memberEmails)
	if err != nil {
		return nil, err
	}

	project.ID = uuid.New()
	project.OwnerID = ownerID
	if project.Status == "" {
		project.Status = models.ProjectActive
	}

	if err := s.projectRepo.Create(ctx, project, memberIDs); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.GetForUser(ctx, project.ID, ownerID)
}

func (s *projectService) GetForUser(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetForUser(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) ListForUser(ctx context.Context, userID uuid.UUID, filter *models.ProjectFilter) (*models.ProjectPage, error) {
	projects, total, err := s.projectRepo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return &models.ProjectPage{
		Projects: projects,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
		HasMore:  filter.Offset+filter.Limit < total,
	}, nil
}

func (s *projectService) Update(ctx context.Context, project *models.Project, memberEmails []string) (*models.Project, error) {
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if memberEmails != nil {
		memberIDs, err := s.resolveMemberEmails(ctx, memberEmails)
		if err != nil {
			return nil, err
		}
		if err := s.projectRepo.ReplaceMembers(ctx, project.ID, memberIDs); err != nil {
			return nil, fmt.Errorf("failed to replace project members: %w", err)
		}
	}

	return s.projectRepo.GetForUser(ctx, project.ID, project.OwnerID)
}

func (s *projectService) Delete(ctx context.Context, projectID, ownerID uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetForOwner(ctx, projectID, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	// Remove stored objects before the rows cascade away. Storage failures
	// leave orphaned objects, not broken state, so they are only logged.
	documents, err := s.documentRepo.ListByProject(ctx, projectID)
	if err != nil {
		log.Printf("Failed to list documents for project %s cleanup: %v", projectID, err)
	}
	for _, document := range documents {
		if err := s.storageSvc.DeleteDocument(ctx, document.ObjectKey); err != nil {
			log.Printf("Failed to delete stored object %s: %v", document.ObjectKey, err)
		}
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}
	return project, nil
}

func (s *projectService) AddMemberByEmail(ctx context.Context, projectID uuid.UUID, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return s.projectRepo.AddMember(ctx, projectID, user.ID)
}

func (s *projectService) RemoveMember(ctx context.Context, projectID, memberID uuid.UUID) error {
	return s.projectRepo.RemoveMember(ctx, projectID, memberID)
}

func (s *projectService) resolveMemberEmails(ctx context.Context, emails []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, email := range emails {
		user, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
			}
			return nil, err
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}
