package repositories

import (
	"context"
	"fmt"

	"reqgather/internal/models"

	"github.com/google/uuid"
)

type ProjectRepository interface {
	// Create inserts the project and its initial members in one transaction.
	Create(ctx context.Context, project *models.Project, memberIDs []uuid.UUID) error
	// GetForUser returns the project only when userID is the owner or a member.
	GetForUser(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error)
	// GetForOwner returns the project only when userID is the owner.
	GetForOwner(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error)
	// ListForUser returns exactly the projects where userID is owner or member.
	ListForUser(ctx context.Context, userID uuid.UUID, filter *models.ProjectFilter) ([]*models.Project, int, error)
	Update(ctx context.Context, project *models.Project) error
	// Delete removes the project; membership and document rows cascade.
	Delete(ctx context.Context, projectID uuid.UUID) error
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	ReplaceMembers(ctx context.Context, projectID uuid.UUID, memberIDs []uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type projectRepo struct {
	db DB
}

func NewProjectRepo(db DB) ProjectRepository {
	return &projectRepo{db: db}
}

// visibleClause restricts rows to projects the user owns or belongs to. The
// user id placeholder index is passed in so it composes with other arguments.
func visibleClause(userArg int) string {
	return fmt.Sprintf(`(p.owner_id = $%d OR EXISTS (
		SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $%d
	))`, userArg, userArg)
}

const projectSelect = `
	SELECT p.id, p.name, p.client, p.description, p.timeline, p.status, p.owner_id,
	       p.created_at, p.updated_at,
	       u.id, u.email, u.first_name, u.last_name
	FROM projects p
	JOIN users u ON u.id = p.owner_id
`

func scanProject(row interface{ Scan(dest ...any) error }) (*models.Project, error) {
	project := &models.Project{Owner: &models.UserSummary{}}
	var status string
	err := row.Scan(&project.ID, &project.Name, &project.Client, &project.Description,
		&project.Timeline, &status, &project.OwnerID, &project.CreatedAt, &project.UpdatedAt,
		&project.Owner.ID, &project.Owner.Email, &project.Owner.FirstName, &project.Owner.LastName)
	if err != nil {
		return nil, err
	}
	project.Status, err = models.ParseProjectStatus(status)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", project.ID, err)
	}
	return project, nil
}

func (r *projectRepo) Create(ctx context.Context, project *models.Project, memberIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO projects (id, name, client, description, timeline, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, query, project.ID, project.Name, project.Client,
		project.Description, project.Timeline, string(project.Status), project.OwnerID); err != nil {
		return err
	}

	for _, memberID := range memberIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			project.ID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *projectRepo) GetForUser(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	query := projectSelect + ` WHERE p.id = $1 AND ` + visibleClause(2)
	project, err := scanProject(r.db.QueryRow(ctx, query, projectID, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) GetForOwner(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	query := projectSelect + ` WHERE p.id = $1 AND p.owner_id = $2`
	project, err := scanProject(r.db.QueryRow(ctx, query, projectID, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepo) ListForUser(ctx context.Context, userID uuid.UUID, filter *models.ProjectFilter) ([]*models.Project, int, error) {
	where := ` WHERE ` + visibleClause(1)
	args := []any{userID}
	if filter.Status != nil {
		where += fmt.Sprintf(` AND p.status = $%d`, len(args)+1)
		args = append(args, string(*filter.Status))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM projects p` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := projectSelect + where +
		fmt.Sprintf(` ORDER BY p.updated_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, project := range projects {
		if err := r.loadMembers(ctx, project); err != nil {
			return nil, 0, err
		}
	}

	return projects, total, nil
}

func (r *projectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $1, client = $2, description = $3, timeline = $4, status = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, project.Name, project.Client, project.Description,
		project.Timeline, string(project.Status), project.ID)
	return err
}

func (r *projectRepo) Delete(ctx context.Context, projectID uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`
	_, err := r.db.Exec(ctx, query, projectID)
	return err
}

func (r *projectRepo) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.db.Exec(ctx, query, projectID, userID)
	return err
}

func (r *projectRepo) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	_, err := r.db.Exec(ctx, query, projectID, userID)
	return err
}

func (r *projectRepo) ReplaceMembers(ctx context.Context, projectID uuid.UUID, memberIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return err
	}
	for _, memberID := range memberIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			projectID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *projectRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	return count, err
}

func (r *projectRepo) loadMembers(ctx context.Context, project *models.Project) error {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY u.email
	`
	rows, err := r.db.Query(ctx, query, project.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	members := []models.UserSummary{}
	for rows.Next() {
		var m models.UserSummary
		if err := rows.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName); err != nil {
			return err
		}
		members = append(members, m)
	}
	project.Members = members
	return rows.Err()
}
