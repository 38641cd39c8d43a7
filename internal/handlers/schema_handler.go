package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schemaboard/internal/models"
	"schemaboard/internal/responses"
)

type SchemaHandler struct {
	schemaService SchemaService
}

func NewSchemaHandler(schemaService SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// GetSchema handles GET /api/v1/projects/:id/schema
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	doc, err := h.schemaService.GetSchema(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err, "Failed to load schema")
		return
	}

	responses.Success(c, http.StatusOK, doc, "Schema retrieved successfully")
}

// SaveSchema handles PUT /api/v1/projects/:id/schema
func (h *SchemaHandler) SaveSchema(c *gin.Context) {
	var doc models.SchemaDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid schema data")
		return
	}

	result, err := h.schemaService.SaveSchema(c.Request.Context(), userID(c), c.Param("id"), doc)
	if err != nil {
		responses.Error(c, err, "Failed to save schema")
		return
	}

	responses.Success(c, http.StatusOK, result, "Schema saved successfully")
}

// GetSnapshot handles GET /api/v1/projects/:id/schema/versions/:version
func (h *SchemaHandler) GetSnapshot(c *gin.Context) {
	version, err := strconv.ParseInt(c.Param("version"), 10, 64)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid version")
		return
	}

	doc, err := h.schemaService.GetSnapshot(c.Request.Context(), userID(c), c.Param("id"), version)
	if err != nil {
		responses.Error(c, err, "Failed to load schema version")
		return
	}

	responses.Success(c, http.StatusOK, doc, "Schema version retrieved successfully")
}

// VisualizeSchema handles GET /api/v1/projects/:id/schema/mermaid
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	diagram, err := h.schemaService.GetMermaid(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": diagram,
	}, "Schema visualization generated successfully")
}
