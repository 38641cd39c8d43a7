package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schemaboard/internal/database"
	"schemaboard/internal/models"
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create inserts the project and makes its owner an admin collaborator.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	project.Prepare()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return database.MapError(err, "begin create project")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO projects (id, owner_id, title, description, image_url, schema_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
	`,
		project.ID,
		project.OwnerID,
		project.Title,
		project.Description,
		project.ImageURL,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err, "insert project")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_collaborators (project_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, project.ID, project.OwnerID, models.RoleAdmin, project.CreatedAt)
	if err != nil {
		return database.MapError(err, "insert owner collaborator")
	}

	if err := tx.Commit(ctx); err != nil {
		return database.MapError(err, "commit create project")
	}
	project.Role = models.RoleAdmin
	return nil
}

// GetByID returns the project with userID's role filled in, or nil when the
// project does not exist or userID is not a collaborator.
func (r *ProjectRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	query := `
		SELECT p.id, p.owner_id, p.title, p.description, p.image_url, p.schema_version,
		       p.created_at, p.updated_at, c.role
		FROM projects p
		JOIN project_collaborators c ON c.project_id = p.id AND c.user_id = $2
		WHERE p.id = $1
	`

	var project models.Project
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&project.ID,
		&project.OwnerID,
		&project.Title,
		&project.Description,
		&project.ImageURL,
		&project.SchemaVersion,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.MapError(err, "get project")
	}
	return &project, nil
}

// ListForUser returns one page of the projects userID collaborates on and
// the total number of matches. The search text matches literally against
// title or description, ignoring case.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter) ([]models.Project, int, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(filter.Search)) + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM projects p
		JOIN project_collaborators c ON c.project_id = p.id AND c.user_id = $1
		WHERE p.title ILIKE $2 ESCAPE '\' OR COALESCE(p.description, '') ILIKE $2 ESCAPE '\'
	`, userID, pattern).Scan(&total)
	if err != nil {
		return nil, 0, database.MapError(err, "count projects")
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.owner_id, p.title, p.description, p.image_url, p.schema_version,
		       p.created_at, p.updated_at, c.role
		FROM projects p
		JOIN project_collaborators c ON c.project_id = p.id AND c.user_id = $1
		WHERE p.title ILIKE $2 ESCAPE '\' OR COALESCE(p.description, '') ILIKE $2 ESCAPE '\'
		ORDER BY p.created_at %s, p.title %s
		LIMIT $3 OFFSET $4
	`, sqlDirection(filter.DateOrder, "DESC"), sqlDirection(filter.NameOrder, "ASC"))
	rows, err := r.pool.Query(ctx, query, userID, pattern, filter.Limit, (filter.Page-1)*filter.Limit)
	if err != nil {
		return nil, 0, database.MapError(err, "list projects")
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.OwnerID,
			&project.Title,
			&project.Description,
			&project.ImageURL,
			&project.SchemaVersion,
			&project.CreatedAt,
			&project.UpdatedAt,
			&project.Role,
		)
		if err != nil {
			return nil, 0, database.MapError(err, "scan project")
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.MapError(err, "list projects")
	}
	return projects, total, nil
}

// GetRole returns userID's role on the project, or "" when the user is not
// a collaborator or the project does not exist.
func (r *ProjectRepository) GetRole(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `
		SELECT role FROM project_collaborators WHERE project_id = $1 AND user_id = $2
	`, projectID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", database.MapError(err, "get collaborator role")
	}
	return role, nil
}

// UpsertCollaborator adds a collaborator or changes an existing one's role.
func (r *ProjectRepository) UpsertCollaborator(ctx context.Context, c *models.Collaborator) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO project_collaborators (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING created_at
	`, c.ProjectID, c.UserID, c.Role).Scan(&c.CreatedAt)
	return database.MapError(err, "upsert collaborator")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// sqlDirection maps a sort order to SQL, using fallback for anything else.
func sqlDirection(order, fallback string) string {
	switch order {
	case models.SortAsc:
		return "ASC"
	case models.SortDesc:
		return "DESC"
	}
	return fallback
}
