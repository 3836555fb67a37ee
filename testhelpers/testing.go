package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"reqgather/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// TestDB holds the database connection for integration tests.
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for testing.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=reqgather_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestUser inserts an active user and returns it with the plaintext
// password set aside for login calls.
func SetupTestUser(t *testing.T, db *TestDB, email, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Role:         models.RoleUser,
		IsActive:     true,
		IsVerified:   true,
	}

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err = db.Pool.Exec(context.Background(), query, user.ID, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Role, user.IsActive, user.IsVerified)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// SetupTestProject inserts a project owned by the given user.
func SetupTestProject(t *testing.T, db *TestDB, ownerID uuid.UUID, name string) *models.Project {
	t.Helper()

	project := &models.Project{
		ID:      uuid.New(),
		Name:    name,
		Client:  "Test Client",
		Status:  models.ProjectActive,
		OwnerID: ownerID,
	}

	query := `
		INSERT INTO projects (id, name, client, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query, project.ID, project.Name, project.Client,
		project.Status, project.OwnerID)
	if err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}

	return project
}

// AddTestMember links a user to a project as a member.
func AddTestMember(t *testing.T, db *TestDB, projectID, userID uuid.UUID) {
	t.Helper()

	query := `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := db.Pool.Exec(context.Background(), query, projectID, userID); err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// SetupTestSession inserts an active session row for the user.
func SetupTestSession(t *testing.T, db *TestDB, userID uuid.UUID, token string, ttl time.Duration) *models.Session {
	t.Helper()

	session := &models.Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		IsActive:  true,
		ExpiresAt: time.Now().Add(ttl),
	}

	query := `
		INSERT INTO sessions (id, token, user_id, is_active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query, session.ID, session.Token, session.UserID,
		session.IsActive, session.ExpiresAt)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return session
}

// CleanupTestData removes rows created by the helpers above.
func CleanupTestData(t *testing.T, db *TestDB, userIDs ...uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	for _, id := range userIDs {
		db.Pool.Exec(ctx, `DELETE FROM activities WHERE user_id = $1`, id)
		db.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, id)
		db.Pool.Exec(ctx, `DELETE FROM project_members WHERE user_id = $1`, id)
		db.Pool.Exec(ctx, `DELETE FROM projects WHERE owner_id = $1`, id)
		db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	}
}
