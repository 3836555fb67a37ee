package repositories

import (
	"context"
	"time"

	"reqgather/internal/models"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetActiveByToken returns the session only when it is active and unexpired.
	GetActiveByToken(ctx context.Context, token string) (*models.Session, error)
	Invalidate(ctx context.Context, token string) error
	InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error
	CountActive(ctx context.Context) (int, error)
	DeactivateExpired(ctx context.Context) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepo struct {
	db DB
}

func NewSessionRepo(db DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, token, user_id, is_active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, session.ID, session.Token, session.UserID,
		session.IsActive, session.ExpiresAt)
	return err
}

func (r *sessionRepo) GetActiveByToken(ctx context.Context, token string) (*models.Session, error) {
	session := &models.Session{}
	query := `
		SELECT id, token, user_id, is_active, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND is_active = TRUE AND expires_at > NOW()
	`
	err := r.db.QueryRow(ctx, query, token).Scan(&session.ID, &session.Token,
		&session.UserID, &session.IsActive, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) Invalidate(ctx context.Context, token string) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE token = $1`
	_, err := r.db.Exec(ctx, query, token)
	return err
}

func (r *sessionRepo) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *sessionRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sessions WHERE is_active = TRUE AND expires_at > NOW()`
	err := r.db.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func (r *sessionRepo) DeactivateExpired(ctx context.Context) (int64, error) {
	query := `UPDATE sessions SET is_active = FALSE WHERE is_active = TRUE AND expires_at <= NOW()`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *sessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
