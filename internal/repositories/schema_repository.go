package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schemaboard/internal/database"
	"schemaboard/internal/models"
)

// SchemaRepository stores one schema per project as rows. Saves replace the
// whole schema.
type SchemaRepository struct {
	pool *pgxpool.Pool
}

func NewSchemaRepository(pool *pgxpool.Pool) *SchemaRepository {
	return &SchemaRepository{pool: pool}
}

// Replace deletes the project's stored schema and writes s in one
// transaction, then bumps projects.schema_version. It returns the new
// version and sets s.Version and s.SavedAt.
func (r *SchemaRepository) Replace(ctx context.Context, s *models.StoredSchema) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, database.MapError(err, "begin schema replace")
	}
	defer tx.Rollback(ctx)

	var version int64
	var savedAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE projects SET schema_version = schema_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING schema_version, updated_at
	`, s.ProjectID).Scan(&version, &savedAt)
	if err != nil {
		return 0, database.MapError(err, "bump schema version")
	}

	// tables cascade to columns, indexes and relationships; enums to values
	if _, err := tx.Exec(ctx, `DELETE FROM schema_tables WHERE project_id = $1`, s.ProjectID); err != nil {
		return 0, database.MapError(err, "delete schema tables")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schema_enums WHERE project_id = $1`, s.ProjectID); err != nil {
		return 0, database.MapError(err, "delete schema enums")
	}

	batch := &pgx.Batch{}
	for _, t := range s.Tables {
		batch.Queue(`INSERT INTO schema_tables (id, project_id, name, position) VALUES ($1, $2, $3, $4)`,
			t.ID, s.ProjectID, t.Name, t.Position)
		for _, c := range t.Columns {
			batch.Queue(`
				INSERT INTO schema_columns
					(id, table_id, name, data_type, is_nullable, default_value, is_primary_key, is_unique, check_expression, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, c.ID, t.ID, c.Name, c.DataType, c.IsNullable, c.DefaultValue, c.IsPrimaryKey, c.IsUnique, c.CheckExpression, c.Position)
		}
		for _, ix := range t.Indexes {
			batch.Queue(`INSERT INTO schema_indexes (id, table_id, name, columns, is_unique, position) VALUES ($1, $2, $3, $4, $5, $6)`,
				ix.ID, t.ID, ix.Name, ix.Columns, ix.IsUnique, ix.Position)
		}
	}
	for _, rel := range s.Relationships {
		batch.Queue(`
			INSERT INTO schema_relationships
				(id, source_table_id, target_table_id, source_column_id, target_column_id, relationship_type, label)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rel.ID, rel.SourceTableID, rel.TargetTableID, rel.SourceColumnID, rel.TargetColumnID, rel.RelationshipType, rel.Label)
	}
	for _, e := range s.Enums {
		batch.Queue(`INSERT INTO schema_enums (id, project_id, client_id, name, position) VALUES ($1, $2, $3, $4, $5)`,
			e.ID, s.ProjectID, e.ClientID, e.Name, e.Position)
		for _, v := range e.Values {
			batch.Queue(`INSERT INTO schema_enum_values (id, enum_id, value, position) VALUES ($1, $2, $3, $4)`,
				v.ID, e.ID, v.Value, v.Position)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, database.MapError(err, "insert schema rows")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, database.MapError(err, "commit schema replace")
	}
	s.Version = version
	s.SavedAt = savedAt
	return version, nil
}

// Version returns the project's current schema version without loading the
// schema.
func (r *SchemaRepository) Version(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx, `SELECT schema_version FROM projects WHERE id = $1`, projectID).Scan(&version)
	if err != nil {
		return 0, database.MapError(err, "get schema version")
	}
	return version, nil
}

// Load reads the project's stored schema. It returns nil when the project
// does not exist. A project that was never saved has version 0 and no rows.
// All reads share one repeatable read snapshot so a concurrent Replace
// cannot mix rows of two versions.
func (r *SchemaRepository) Load(ctx context.Context, projectID uuid.UUID) (*models.StoredSchema, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, database.MapError(err, "begin schema load")
	}
	defer tx.Rollback(ctx)

	s := &models.StoredSchema{
		ProjectID:     projectID,
		Tables:        []models.SchemaTable{},
		Relationships: []models.SchemaRelationship{},
		Enums:         []models.SchemaEnum{},
	}
	err = tx.QueryRow(ctx, `SELECT schema_version, updated_at FROM projects WHERE id = $1`, projectID).
		Scan(&s.Version, &s.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, database.MapError(err, "get schema version")
	}

	if err := loadTables(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := loadRelationships(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := loadEnums(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, database.MapError(err, "commit schema load")
	}
	return s, nil
}

func loadTables(ctx context.Context, tx pgx.Tx, s *models.StoredSchema) error {
	rows, err := tx.Query(ctx, `
		SELECT id, name, position FROM schema_tables WHERE project_id = $1 ORDER BY position
	`, s.ProjectID)
	if err != nil {
		return database.MapError(err, "load schema tables")
	}
	byID := map[uuid.UUID]int{}
	for rows.Next() {
		t := models.SchemaTable{ProjectID: s.ProjectID, Columns: []models.SchemaColumn{}, Indexes: []models.SchemaIndex{}}
		if err := rows.Scan(&t.ID, &t.Name, &t.Position); err != nil {
			rows.Close()
			return database.MapError(err, "scan schema table")
		}
		byID[t.ID] = len(s.Tables)
		s.Tables = append(s.Tables, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return database.MapError(err, "load schema tables")
	}

	rows, err = tx.Query(ctx, `
		SELECT c.id, c.table_id, c.name, c.data_type, c.is_nullable, c.default_value,
		       c.is_primary_key, c.is_unique, c.check_expression, c.position
		FROM schema_columns c
		JOIN schema_tables t ON t.id = c.table_id
		WHERE t.project_id = $1
		ORDER BY c.table_id, c.position
	`, s.ProjectID)
	if err != nil {
		return database.MapError(err, "load schema columns")
	}
	for rows.Next() {
		var c models.SchemaColumn
		err := rows.Scan(&c.ID, &c.TableID, &c.Name, &c.DataType, &c.IsNullable, &c.DefaultValue,
			&c.IsPrimaryKey, &c.IsUnique, &c.CheckExpression, &c.Position)
		if err != nil {
			rows.Close()
			return database.MapError(err, "scan schema column")
		}
		if i, ok := byID[c.TableID]; ok {
			s.Tables[i].Columns = append(s.Tables[i].Columns, c)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return database.MapError(err, "load schema columns")
	}

	rows, err = tx.Query(ctx, `
		SELECT i.id, i.table_id, i.name, i.columns, i.is_unique, i.position
		FROM schema_indexes i
		JOIN schema_tables t ON t.id = i.table_id
		WHERE t.project_id = $1
		ORDER BY i.table_id, i.position
	`, s.ProjectID)
	if err != nil {
		return database.MapError(err, "load schema indexes")
	}
	defer rows.Close()
	for rows.Next() {
		var ix models.SchemaIndex
		if err := rows.Scan(&ix.ID, &ix.TableID, &ix.Name, &ix.Columns, &ix.IsUnique, &ix.Position); err != nil {
			return database.MapError(err, "scan schema index")
		}
		if i, ok := byID[ix.TableID]; ok {
			s.Tables[i].Indexes = append(s.Tables[i].Indexes, ix)
		}
	}
	return database.MapError(rows.Err(), "load schema indexes")
}

func loadRelationships(ctx context.Context, tx pgx.Tx, s *models.StoredSchema) error {
	rows, err := tx.Query(ctx, `
		SELECT r.id, r.source_table_id, r.target_table_id, r.source_column_id, r.target_column_id,
		       r.relationship_type, r.label
		FROM schema_relationships r
		JOIN schema_tables t ON t.id = r.source_table_id
		WHERE t.project_id = $1
	`, s.ProjectID)
	if err != nil {
		return database.MapError(err, "load schema relationships")
	}
	defer rows.Close()
	for rows.Next() {
		var rel models.SchemaRelationship
		err := rows.Scan(&rel.ID, &rel.SourceTableID, &rel.TargetTableID, &rel.SourceColumnID, &rel.TargetColumnID,
			&rel.RelationshipType, &rel.Label)
		if err != nil {
			return database.MapError(err, "scan schema relationship")
		}
		s.Relationships = append(s.Relationships, rel)
	}
	return database.MapError(rows.Err(), "load schema relationships")
}

func loadEnums(ctx context.Context, tx pgx.Tx, s *models.StoredSchema) error {
	rows, err := tx.Query(ctx, `
		SELECT id, client_id, name, position FROM schema_enums WHERE project_id = $1 ORDER BY position
	`, s.ProjectID)
	if err != nil {
		return database.MapError(err, "load schema enums")
	}
	byID := map[uuid.UUID]int{}
	for rows.Next() {
		e := models.SchemaEnum{ProjectID: s.ProjectID, Values: []models.SchemaEnumValue{}}
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Name, &e.Position); err != nil {
			rows.Close()
			return database.MapError(err, "scan schema enum")
		}
		byID[e.ID] = len(s.Enums)
		s.Enums = append(s.Enums, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return database.MapError(err, "load schema enums")
	}

	rows, err = tx.Query(ctx, `
		SELECT v.id, v.enum_id, v.value, v.position
		FROM schema_enum_values v
		JOIN schema_enums e ON e.id = v.enum_id
		WHERE e.project_id = $1
		ORDER BY v.enum_id, v.position
	`, s.ProjectID)
	if err != nil {
		return database.MapError(err, "load schema enum values")
	}
	defer rows.Close()
	for rows.Next() {
		var v models.SchemaEnumValue
		if err := rows.Scan(&v.ID, &v.EnumID, &v.Value, &v.Position); err != nil {
			return database.MapError(err, "scan schema enum value")
		}
		if i, ok := byID[v.EnumID]; ok {
			s.Enums[i].Values = append(s.Enums[i].Values, v)
		}
	}
	return database.MapError(rows.Err(), "load schema enum values")
}
