package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"schemaboard/internal/logger"
)

// RunMigrations applies every migration in order. Each one is idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	for i, migration := range migrations {
		log.Debugf("running migration %d/%d", i+1, len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return MapError(err, "migration failed")
		}
	}
	log.Infof("%d migrations applied", len(migrations))
	return nil
}

var migrations = []string{
	createEnumTypes,
	createProjectsTable,
	createProjectCollaboratorsTable,
	createSchemaTablesTable,
	createSchemaColumnsTable,
	createSchemaRelationshipsTable,
	createSchemaIndexesTable,
	createSchemaEnumsTable,
	createSchemaEnumValuesTable,
}

const createEnumTypes = `
DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'collaborator_role_t') THEN
    CREATE TYPE collaborator_role_t AS ENUM ('admin', 'editor', 'viewer');
  END IF;
END$$;

DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'relationship_type_t') THEN
    CREATE TYPE relationship_type_t AS ENUM ('one_to_one', 'one_to_many', 'many_to_many');
  END IF;
END$$;
`

const createProjectsTable = `
CREATE TABLE IF NOT EXISTS projects (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  owner_id UUID NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  schema_version BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);
CREATE INDEX IF NOT EXISTS idx_projects_title ON projects(lower(title));
`

const createProjectCollaboratorsTable = `
CREATE TABLE IF NOT EXISTS project_collaborators (
  project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  user_id UUID NOT NULL,
  role collaborator_role_t NOT NULL DEFAULT 'viewer',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  PRIMARY KEY (project_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_project_collaborators_user_id ON project_collaborators(user_id);
`

const createSchemaTablesTable = `
CREATE TABLE IF NOT EXISTS schema_tables (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  position INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_schema_tables_project_id ON schema_tables(project_id);
`

const createSchemaColumnsTable = `
CREATE TABLE IF NOT EXISTS schema_columns (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  table_id UUID NOT NULL REFERENCES schema_tables(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  data_type TEXT NOT NULL,
  is_nullable BOOLEAN NOT NULL DEFAULT TRUE,
  default_value TEXT,
  is_primary_key BOOLEAN NOT NULL DEFAULT FALSE,
  is_unique BOOLEAN NOT NULL DEFAULT FALSE,
  check_expression TEXT,
  position INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_schema_columns_table_id ON schema_columns(table_id);
`

const createSchemaRelationshipsTable = `
CREATE TABLE IF NOT EXISTS schema_relationships (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  source_table_id UUID NOT NULL REFERENCES schema_tables(id) ON DELETE CASCADE,
  target_table_id UUID NOT NULL REFERENCES schema_tables(id) ON DELETE CASCADE,
  source_column_id UUID NOT NULL REFERENCES schema_columns(id) ON DELETE CASCADE,
  target_column_id UUID NOT NULL REFERENCES schema_columns(id) ON DELETE CASCADE,
  relationship_type relationship_type_t NOT NULL DEFAULT 'one_to_many',
  label TEXT
);

CREATE INDEX IF NOT EXISTS idx_schema_relationships_source_table_id ON schema_relationships(source_table_id);
CREATE INDEX IF NOT EXISTS idx_schema_relationships_target_table_id ON schema_relationships(target_table_id);
`

const createSchemaIndexesTable = `
CREATE TABLE IF NOT EXISTS schema_indexes (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  table_id UUID NOT NULL REFERENCES schema_tables(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  columns TEXT[] NOT NULL DEFAULT '{}',
  is_unique BOOLEAN NOT NULL DEFAULT FALSE,
  position INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_schema_indexes_table_id ON schema_indexes(table_id);
`

const createSchemaEnumsTable = `
CREATE TABLE IF NOT EXISTS schema_enums (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  client_id TEXT NOT NULL,
  name TEXT NOT NULL,
  position INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_schema_enums_project_id ON schema_enums(project_id);
`

const createSchemaEnumValuesTable = `
CREATE TABLE IF NOT EXISTS schema_enum_values (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  enum_id UUID NOT NULL REFERENCES schema_enums(id) ON DELETE CASCADE,
  value TEXT NOT NULL,
  position INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_schema_enum_values_enum_id ON schema_enum_values(enum_id);
`
