package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"reqgather/internal/models"

	"github.com/google/uuid"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Activity, error)
}

type activityRepo struct {
	db DB
}

func NewActivityRepo(db DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, activity *models.Activity) error {
	var metadata []byte
	if activity.Metadata != nil {
		var err error
		metadata, err = json.Marshal(activity.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
	}

	query := `
		INSERT INTO activities (id, user_id, type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, activity.ID, activity.UserID,
		string(activity.Type), activity.Description, metadata)
	return err
}

func (r *activityRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Activity, error) {
	query := `
		SELECT id, user_id, type, description, metadata, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		var activityType string
		var metadata []byte
		if err := rows.Scan(&activity.ID, &activity.UserID, &activityType,
			&activity.Description, &metadata, &activity.CreatedAt); err != nil {
			return nil, err
		}
		activity.Type = models.ActivityType(activityType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &activity.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
			}
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
