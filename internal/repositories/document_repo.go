package repositories

import (
	"context"

	"reqgather/internal/models"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, projectID, documentID uuid.UUID) (*models.Document, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, projectID, documentID uuid.UUID) error
}

type documentRepo struct {
	db DB
}

func NewDocumentRepo(db DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query, document.ID, document.ProjectID, document.UploadedBy,
		document.FileName, document.ObjectKey, document.ContentType, document.SizeBytes)
	return err
}

func (r *documentRepo) GetByID(ctx context.Context, projectID, documentID uuid.UUID) (*models.Document, error) {
	document := &models.Document{}
	query := `
		SELECT id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at
		FROM documents
		WHERE project_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, projectID, documentID).Scan(&document.ID,
		&document.ProjectID, &document.UploadedBy, &document.FileName,
		&document.ObjectKey, &document.ContentType, &document.SizeBytes, &document.CreatedAt)
	if err != nil {
		return nil, err
	}
	return document, nil
}

func (r *documentRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT id, project_id, uploaded_by, file_name, object_key, content_type, size_bytes, created_at
		FROM documents
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		document := &models.Document{}
		if err := rows.Scan(&document.ID, &document.ProjectID, &document.UploadedBy,
			&document.FileName, &document.ObjectKey, &document.ContentType,
			&document.SizeBytes, &document.CreatedAt); err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

func (r *documentRepo) Delete(ctx context.Context, projectID, documentID uuid.UUID) error {
	query := `DELETE FROM documents WHERE project_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, projectID, documentID)
	return err
}
