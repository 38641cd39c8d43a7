package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schemaboard/internal/models"
	"schemaboard/internal/responses"
	"schemaboard/internal/services"
)

type ProjectHandler struct {
	projectService ProjectService
}

func NewProjectHandler(projectService ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject handles POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), userID(c), req)
	if err != nil {
		responses.Error(c, err, "Failed to create project")
		return
	}

	responses.Success(c, http.StatusCreated, project, "Project created successfully")
}

// ListProjects handles GET /api/v1/projects?search=&dateOrder=&nameOrder=&page=&limit=
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := models.ProjectFilter{
		Search:    c.Query("search"),
		DateOrder: c.Query("dateOrder"),
		NameOrder: c.Query("nameOrder"),
		Page:      page,
		Limit:     limit,
	}
	list, err := h.projectService.ListProjects(c.Request.Context(), userID(c), filter)
	if err != nil {
		responses.Error(c, err, "Failed to retrieve projects")
		return
	}

	responses.Success(c, http.StatusOK, list, "Projects retrieved successfully")
}

// GetProject handles GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		responses.Error(c, err, "Project not found or access denied")
		return
	}

	responses.Success(c, http.StatusOK, project, "Project retrieved successfully")
}

// AddCollaborator handles POST /api/v1/projects/:id/collaborators
func (h *ProjectHandler) AddCollaborator(c *gin.Context) {
	var req services.AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	collaborator, err := h.projectService.AddCollaborator(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		responses.Error(c, err, "Failed to add collaborator")
		return
	}

	responses.Success(c, http.StatusOK, collaborator, "Collaborator saved successfully")
}
