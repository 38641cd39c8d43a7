//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"schemaboard/internal/codec"
	"schemaboard/internal/database"
	"schemaboard/internal/errs"
	"schemaboard/internal/logger"
	"schemaboard/internal/models"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("schemaboard"),
		postgres.WithUsername("schemaboard"),
		postgres.WithPassword("schemaboard"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(ctx, pool, logger.Nop()))
	// migrations are idempotent
	require.NoError(t, database.RunMigrations(ctx, pool, logger.Nop()))
	return pool
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(startPostgres(t))

	owner, stranger, editor := uuid.New(), uuid.New(), uuid.New()
	p := &models.Project{OwnerID: owner, Title: "Inventory"}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Create(ctx, &models.Project{OwnerID: owner, Title: "Billing"}))
	assert.Equal(t, models.RoleAdmin, p.Role)

	got, err := repo.GetByID(ctx, p.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Inventory", got.Title)
	assert.Equal(t, models.RoleAdmin, got.Role)

	got, err = repo.GetByID(ctx, p.ID, stranger)
	require.NoError(t, err)
	assert.Nil(t, got)

	role, err := repo.GetRole(ctx, p.ID, stranger)
	require.NoError(t, err)
	assert.Empty(t, role)

	require.NoError(t, repo.UpsertCollaborator(ctx, &models.Collaborator{ProjectID: p.ID, UserID: editor, Role: models.RoleViewer}))
	require.NoError(t, repo.UpsertCollaborator(ctx, &models.Collaborator{ProjectID: p.ID, UserID: editor, Role: models.RoleEditor}))
	role, err = repo.GetRole(ctx, p.ID, editor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)

	list, total, err := repo.ListForUser(ctx, owner, models.ProjectFilter{Search: "INV", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	list, total, err = repo.ListForUser(ctx, owner, models.ProjectFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 1)

	desc := "tracks 100% of stock"
	q := &models.Project{OwnerID: owner, Title: "a_b", Description: &desc}
	require.NoError(t, repo.Create(ctx, q))

	list, _, err = repo.ListForUser(ctx, owner, models.ProjectFilter{Search: "100%", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)

	// the underscore is literal, not a single-character wildcard
	list, _, err = repo.ListForUser(ctx, owner, models.ProjectFilter{Search: "_", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)

	list, _, err = repo.ListForUser(ctx, owner, models.ProjectFilter{
		DateOrder: models.SortAsc, NameOrder: models.SortAsc, Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, q.ID, list[2].ID)
}

func TestSchemaRepository_ReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)
	projects := NewProjectRepository(pool)
	schemas := NewSchemaRepository(pool)

	p := &models.Project{OwnerID: uuid.New(), Title: "Shop"}
	require.NoError(t, projects.Create(ctx, p))

	fresh, err := schemas.Load(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Zero(t, fresh.Version)
	assert.Empty(t, fresh.Tables)

	doc := models.SchemaDocument{
		Nodes: []models.Node{
			{ID: "p", Data: models.NodeData{Label: "Products", Schema: []models.ColumnData{
				{Title: "id", Type: "uuid", IsPrimaryKey: true, IsUnique: true, IsNotNull: true},
				{Title: "warehouse_id", Type: "uuid"},
				{Title: "state", Type: "enum:e1", DefaultValue: "'new'"},
			}, Indexes: []models.IndexData{{ID: "ix", Name: "idx_products_1", Columns: []string{"warehouse_id"}}}}},
			{ID: "w", Data: models.NodeData{Label: "Warehouses", Schema: []models.ColumnData{
				{Title: "id", Type: "uuid", IsPrimaryKey: true, IsUnique: true, IsNotNull: true},
			}}},
		},
		Edges: []models.Edge{{ID: "e", Source: "p", SourceHandle: "warehouse_id", Target: "w", TargetHandle: "id", Label: "stocked_in"}},
		Enums: []models.Enum{{ID: "e1", Name: "state", Values: []models.EnumValue{{ID: "v1", Value: "new"}, {ID: "v2", Value: "sold"}}}},
	}

	stored, diags := codec.Encode(doc, p.ID)
	require.Empty(t, diags)
	version, err := schemas.Replace(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	loaded, err := schemas.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)

	back := codec.Decode(loaded)
	require.Len(t, back.Nodes, 2)
	assert.Equal(t, "Products", back.Nodes[0].Data.Label)
	assert.Equal(t, []string{"id", "warehouse_id", "state"}, []string{
		back.Nodes[0].Data.Schema[0].Title, back.Nodes[0].Data.Schema[1].Title, back.Nodes[0].Data.Schema[2].Title,
	})
	assert.Equal(t, "'new'", back.Nodes[0].Data.Schema[2].DefaultValue)
	require.Len(t, back.Nodes[0].Data.Indexes, 1)
	assert.Equal(t, []string{"warehouse_id"}, back.Nodes[0].Data.Indexes[0].Columns)
	require.Len(t, back.Edges, 1)
	assert.Equal(t, "stocked_in", back.Edges[0].Label)
	require.Len(t, back.Enums, 1)
	assert.Equal(t, "e1", back.Enums[0].ID)
	assert.Len(t, back.Enums[0].Values, 2)

	// replace-all: a second save leaves only the new rows
	stored, _ = codec.Encode(models.SchemaDocument{Nodes: []models.Node{doc.Nodes[1]}}, p.ID)
	version, err = schemas.Replace(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	loaded, err = schemas.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Tables, 1)
	assert.Empty(t, loaded.Relationships)
	assert.Empty(t, loaded.Enums)

	current, err := schemas.Version(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current)

	missing, err := schemas.Load(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = schemas.Version(ctx, uuid.New())
	assert.True(t, errs.IsNotFound(err))
}
