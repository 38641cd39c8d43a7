package services

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"schemaboard/internal/errs"
	"schemaboard/internal/logger"
	"schemaboard/internal/models"
	"schemaboard/internal/utils"
)

// ProjectStore is the persistence ProjectService needs.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, int, error)
	GetRole(ctx context.Context, projectID, userID uuid.UUID) (string, error)
	UpsertCollaborator(ctx context.Context, c *models.Collaborator) error
}

type ProjectService struct {
	projectRepo ProjectStore
	log         *logger.Logger
}

func NewProjectService(projectRepo ProjectStore, log *logger.Logger) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, log: log}
}

type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

type AddCollaboratorRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

type ProjectList struct {
	Projects   []models.Project  `json:"projects"`
	Pagination models.Pagination `json:"pagination"`
}

func (s *ProjectService) CreateProject(ctx context.Context, userID string, req CreateProjectRequest) (*models.Project, error) {
	ownerID, err := utils.ParseUUID(userID, "user id")
	if err != nil {
		return nil, err
	}
	if err := validateProjectInput(&req); err != nil {
		return nil, err
	}

	project := &models.Project{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).InfoWith("project created", map[string]any{"project_id": project.ID.String(), "owner_id": userID})
	return project, nil
}

// ListProjects returns one page of the caller's projects. Unknown sort
// directions fall back to newest first, then title A to Z.
func (s *ProjectService) ListProjects(ctx context.Context, userID string, filter models.ProjectFilter) (*ProjectList, error) {
	uid, err := utils.ParseUUID(userID, "user id")
	if err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.DateOrder = utils.SortOrder(filter.DateOrder, models.SortDesc)
	filter.NameOrder = utils.SortOrder(filter.NameOrder, models.SortAsc)
	filter.Page, filter.Limit = utils.Paginate(filter.Page, filter.Limit)
	page, limit := filter.Page, filter.Limit

	projects, total, err := s.projectRepo.ListForUser(ctx, uid, filter)
	if err != nil {
		return nil, err
	}
	return &ProjectList{
		Projects: projects,
		Pagination: models.Pagination{
			Total: total,
			Pages: utils.Pages(total, limit),
			Page:  page,
			Limit: limit,
		},
	}, nil
}

// GetProject returns a project the caller collaborates on. Projects the
// caller cannot see are reported as not found.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	uid, err := utils.ParseUUID(userID, "user id")
	if err != nil {
		return nil, err
	}
	pid, err := utils.ParseUUID(projectID, "project id")
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, pid, uid)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errs.New(errs.ErrKindNotFound, "project not found")
	}
	return project, nil
}

// AddCollaborator grants or changes a role. Only admins may do this.
func (s *ProjectService) AddCollaborator(ctx context.Context, userID, projectID string, req AddCollaboratorRequest) (*models.Collaborator, error) {
	pid, err := authorize(ctx, s.projectRepo, userID, projectID, func(role string) bool { return role == models.RoleAdmin })
	if err != nil {
		return nil, err
	}
	if !models.ValidRole(req.Role) {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "invalid role %q: must be admin, editor or viewer", req.Role)
	}
	collaboratorID, err := utils.ParseUUID(req.UserID, "collaborator user id")
	if err != nil {
		return nil, err
	}

	c := &models.Collaborator{ProjectID: pid, UserID: collaboratorID, Role: req.Role}
	if err := s.projectRepo.UpsertCollaborator(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

// validateProjectInput trims the title and drops empty optional fields.
func validateProjectInput(req *CreateProjectRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(req.Title); n == 0 || n > maxTitleLength {
		return errs.Newf(errs.ErrKindInvalidInput, "title must be between 1 and %d characters", maxTitleLength)
	}
	if req.Description != nil && *req.Description == "" {
		req.Description = nil
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > maxDescriptionLength {
		return errs.Newf(errs.ErrKindInvalidInput, "description must not exceed %d characters", maxDescriptionLength)
	}
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) == "" {
		req.ImageURL = nil
	}
	if req.ImageURL != nil && !validImageURL(*req.ImageURL) {
		return errs.New(errs.ErrKindInvalidInput, "invalid image url")
	}
	return nil
}

func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type roleGetter interface {
	GetRole(ctx context.Context, projectID, userID uuid.UUID) (string, error)
}

// authorize resolves the caller's role and checks it with allowed. A caller
// with no role gets not found so project ids are not leaked.
func authorize(ctx context.Context, roles roleGetter, userID, projectID string, allowed func(string) bool) (uuid.UUID, error) {
	uid, err := utils.ParseUUID(userID, "user id")
	if err != nil {
		return uuid.Nil, err
	}
	pid, err := utils.ParseUUID(projectID, "project id")
	if err != nil {
		return uuid.Nil, err
	}

	role, err := roles.GetRole(ctx, pid, uid)
	if err != nil {
		return uuid.Nil, err
	}
	if role == "" {
		return uuid.Nil, errs.New(errs.ErrKindNotFound, "project not found")
	}
	if !allowed(role) {
		return uuid.Nil, errs.Newf(errs.ErrKindPermissionDenied, "role %s may not perform this action", role)
	}
	return pid, nil
}

func anyRole(string) bool { return true }
