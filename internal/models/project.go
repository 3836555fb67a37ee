package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the closed set of project states.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCancelled ProjectStatus = "cancelled"
)

func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch ProjectStatus(s) {
	case ProjectActive, ProjectCompleted, ProjectArchived, ProjectCancelled:
		return ProjectStatus(s), nil
	default:
		return "", fmt.Errorf("unknown project status %q", s)
	}
}

type Project struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Client      string        `json:"client" db:"client"`
	Description *string       `json:"description" db:"description"`
	Timeline    *string       `json:"timeline" db:"timeline"`
	Status      ProjectStatus `json:"status" db:"status"`
	OwnerID     uuid.UUID     `json:"owner_id" db:"owner_id"`
	Owner       *UserSummary  `json:"owner,omitempty" db:"-"`
	Members     []UserSummary `json:"members" db:"-"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ProjectFilter holds list criteria for project queries.
type ProjectFilter struct {
	Status *ProjectStatus
	Limit  int
	Offset int
}

// ProjectPage is a list result with pagination metadata.
type ProjectPage struct {
	Projects []*Project `json:"projects"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
	HasMore  bool       `json:"has_more"`
}
