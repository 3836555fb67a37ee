package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"reqgather/internal/common"
	"reqgather/internal/models"
	"reqgather/internal/repositories"
	"reqgather/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

const presignedURLExpiry = 15 * time.Minute

// DocumentHandlers serves project document upload, download and deletion.
type DocumentHandlers struct {
	documentRepo    repositories.DocumentRepository
	storageService  services.StorageService
	activityService services.ActivityService
	maxUploadBytes  int64
}

func NewDocumentHandlers(documentRepo repositories.DocumentRepository, storageService services.StorageService,
	activityService services.ActivityService, maxUploadBytes int64) *DocumentHandlers {
	return &DocumentHandlers{
		documentRepo:    documentRepo,
		storageService:  storageService,
		activityService: activityService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// List returns the metadata of every document in the project.
func (h *DocumentHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	documents, err := h.documentRepo.ListByProject(ctx, project.ID)
	if err != nil {
		c.Logger().Errorf("failed to list documents: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list documents")
	}
	return common.RespondData(c, http.StatusOK, documents)
}

// Upload stores a multipart file in object storage and records its metadata.
func (h *DocumentHandlers) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "A file is required")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes>>20))
	}

	fileName := filepath.Base(fileHeader.Filename)
	if fileName == "" || fileName == "." || strings.ContainsAny(fileName, "/\\") {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file name")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	document := &models.Document{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		UploadedBy:  identity.UserID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   fileHeader.Size,
	}
	document.ObjectKey = fmt.Sprintf("projects/%s/%s/%s", project.ID, document.ID, fileName)

	if err := h.storageService.UploadDocument(ctx, document.ObjectKey, src, fileHeader.Size, contentType); err != nil {
		c.Logger().Errorf("failed to upload document: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload document")
	}
	if err := h.documentRepo.Create(ctx, document); err != nil {
		c.Logger().Errorf("failed to record document: %v", err)
		if delErr := h.storageService.DeleteDocument(ctx, document.ObjectKey); delErr != nil {
			c.Logger().Errorf("failed to remove orphaned object %s: %v", document.ObjectKey, delErr)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload document")
	}

	h.activityService.Record(ctx, identity.UserID, models.ActivityDocumentUploaded,
		fmt.Sprintf("Uploaded %q to project %q", fileName, project.Name),
		map[string]string{"project_id": project.ID.String(), "document_id": document.ID.String()})

	return common.RespondDataMessage(c, http.StatusCreated, document, "Document uploaded successfully")
}

// Download returns a short-lived presigned URL for the document.
func (h *DocumentHandlers) Download(c echo.Context) error {
	ctx := c.Request().Context()
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	documentID, err := common.ValidateUUID(c.Param("documentId"), "document ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	document, err := h.documentRepo.GetByID(ctx, project.ID, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		c.Logger().Errorf("failed to load document: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load document")
	}

	url, err := h.storageService.PresignedURL(ctx, document.ObjectKey, presignedURLExpiry)
	if err != nil {
		c.Logger().Errorf("failed to presign document URL: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate download link")
	}

	return common.RespondData(c, http.StatusOK, map[string]interface{}{
		"url":        url,
		"file_name":  document.FileName,
		"expires_in": int(presignedURLExpiry.Seconds()),
	})
}

// Delete removes the document's metadata row and its stored object. Allowed
// for the project owner and the member who uploaded it.
func (h *DocumentHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	identity, _ := common.GetIdentityFromContext(ctx)
	project, ok := common.GetProjectFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load project")
	}

	documentID, err := common.ValidateUUID(c.Param("documentId"), "document ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	document, err := h.documentRepo.GetByID(ctx, project.ID, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		c.Logger().Errorf("failed to load document: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load document")
	}

	if identity.UserID != project.OwnerID && identity.UserID != document.UploadedBy {
		return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
	}

	if err := h.documentRepo.Delete(ctx, project.ID, documentID); err != nil {
		c.Logger().Errorf("failed to delete document: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete document")
	}
	if err := h.storageService.DeleteDocument(ctx, document.ObjectKey); err != nil {
		c.Logger().Warnf("failed to delete object %s: %v", document.ObjectKey, err)
	}

	return common.RespondMessage(c, http.StatusOK, "Document deleted successfully")
}
