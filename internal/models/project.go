package models

import (
	"time"

	"github.com/google/uuid"
)

// Collaborator roles, matching collaborator_role_t.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ValidRole reports whether role is one of the collaborator roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}

// CanEditSchema reports whether role may save a schema.
func CanEditSchema(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}

type Project struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	SchemaVersion int64     `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Role          string    `json:"role,omitempty"` // caller's role, filled on reads
}

func (p *Project) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

type Collaborator struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Sort directions for project listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ProjectFilter selects one page of a user's projects. Search matches the
// title or description ignoring case. Results sort by creation time in
// DateOrder, then by title in NameOrder.
type ProjectFilter struct {
	Search    string
	DateOrder string
	NameOrder string
	Page      int
	Limit     int
}

// Pagination mirrors the dashboard's list response.
type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
