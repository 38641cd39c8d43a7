package routes

import (
	"github.com/gin-gonic/gin"

	"schemaboard/internal/handlers"
)

type ProjectRoutes struct {
	handler *handlers.ProjectHandler
	auth    gin.HandlerFunc
}

func NewProjectRoutes(handler *handlers.ProjectHandler, auth gin.HandlerFunc) *ProjectRoutes {
	return &ProjectRoutes{handler: handler, auth: auth}
}

func (r *ProjectRoutes) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	projects.Use(r.auth) // All project routes require authentication
	{
		projects.POST("", r.handler.CreateProject)
		projects.GET("", r.handler.ListProjects)
		projects.GET("/:id", r.handler.GetProject)
		projects.POST("/:id/collaborators", r.handler.AddCollaborator)
	}
}
