package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"schemaboard/internal/middlewares"
	"schemaboard/internal/models"
	"schemaboard/internal/services"
	schemasync "schemaboard/internal/sync"
)

// ProjectService is what ProjectHandler calls.
type ProjectService interface {
	CreateProject(ctx context.Context, userID string, req services.CreateProjectRequest) (*models.Project, error)
	ListProjects(ctx context.Context, userID string, filter models.ProjectFilter) (*services.ProjectList, error)
	GetProject(ctx context.Context, userID, projectID string) (*models.Project, error)
	AddCollaborator(ctx context.Context, userID, projectID string, req services.AddCollaboratorRequest) (*models.Collaborator, error)
}

// SchemaService is what SchemaHandler calls.
type SchemaService interface {
	GetSchema(ctx context.Context, userID, projectID string) (models.SchemaDocument, error)
	SaveSchema(ctx context.Context, userID, projectID string, doc models.SchemaDocument) (schemasync.SaveResult, error)
	GetSnapshot(ctx context.Context, userID, projectID string, version int64) (models.SchemaDocument, error)
	GetMermaid(ctx context.Context, userID, projectID string) (string, error)
}

// userID is set by middlewares.Authenticate.
func userID(c *gin.Context) string {
	return c.GetString(middlewares.UserIDKey)
}
