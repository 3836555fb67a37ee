package services

import (
	"context"
	"log"

	"reqgather/internal/models"
	"reqgather/internal/repositories"

	"github.com/google/uuid"
)

// ActivityService writes and reads the append-only activity log.
type ActivityService interface {
	// Record appends an activity entry. Failures are logged and swallowed so
	// the triggering operation is never affected.
	Record(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, description string, metadata map[string]string)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Activity, error)
}

type activityService struct {
	activityRepo repositories.ActivityRepository
}

func NewActivityService(activityRepo repositories.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

func (s *activityService) Record(ctx context.Context, userID uuid.UUID, activityType models.ActivityType, description string, metadata map[string]string) {
	activity := &models.Activity{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        activityType,
		Description: description,
		Metadata:    metadata,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		log.Printf("Failed to record %s activity for user %s: %v", activityType, userID, err)
	}
}

func (s *activityService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Activity, error) {
	return s.activityRepo.ListByUser(ctx, userID, limit, offset)
}
