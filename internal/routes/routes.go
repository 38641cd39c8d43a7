package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schemaboard/internal/handlers"
	"schemaboard/internal/middlewares"
)

func RegisterRoutes(router *gin.Engine, secret []byte, projectHandler *handlers.ProjectHandler, schemaHandler *handlers.SchemaHandler) {
	api := router.Group("/api/v1")
	auth := middlewares.Authenticate(secret)

	projectRoutes := NewProjectRoutes(projectHandler, auth)
	projectRoutes.RegisterRoutes(api)

	schemaRoutes := NewSchemaRoutes(schemaHandler, auth)
	schemaRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
