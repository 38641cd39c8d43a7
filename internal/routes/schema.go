package routes

import (
	"github.com/gin-gonic/gin"

	"schemaboard/internal/handlers"
)

type SchemaRoutes struct {
	handler *handlers.SchemaHandler
	auth    gin.HandlerFunc
}

func NewSchemaRoutes(handler *handlers.SchemaHandler, auth gin.HandlerFunc) *SchemaRoutes {
	return &SchemaRoutes{handler: handler, auth: auth}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("/projects/:id/schema")
	schema.Use(r.auth)
	{
		schema.GET("", r.handler.GetSchema)
		schema.PUT("", r.handler.SaveSchema)
		schema.GET("/versions/:version", r.handler.GetSnapshot)
		schema.GET("/mermaid", r.handler.VisualizeSchema)
	}
}
