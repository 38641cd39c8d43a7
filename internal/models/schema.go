package models

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipOneToMany is the only relationship type the save path writes.
const RelationshipOneToMany = "one_to_many"

// SchemaColumn matches schema_columns.
type SchemaColumn struct {
	ID              uuid.UUID `json:"id"`
	TableID         uuid.UUID `json:"table_id"`
	Name            string    `json:"name"`
	DataType        string    `json:"data_type"`
	IsNullable      bool      `json:"is_nullable"`
	DefaultValue    *string   `json:"default_value,omitempty"`
	IsPrimaryKey    bool      `json:"is_primary_key"`
	IsUnique        bool      `json:"is_unique"`
	CheckExpression *string   `json:"check_expression,omitempty"`
	Position        int       `json:"position"`
}

func (c *SchemaColumn) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
}

// SchemaIndex matches schema_indexes. Columns hold column names.
type SchemaIndex struct {
	ID       uuid.UUID `json:"id"`
	TableID  uuid.UUID `json:"table_id"`
	Name     string    `json:"name"`
	Columns  []string  `json:"columns"`
	IsUnique bool      `json:"is_unique"`
	Position int       `json:"position"`
}

func (i *SchemaIndex) Prepare() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
}

// SchemaTable matches schema_tables, with its columns and indexes attached.
type SchemaTable struct {
	ID        uuid.UUID      `json:"id"`
	ProjectID uuid.UUID      `json:"project_id"`
	Name      string         `json:"name"`
	Position  int            `json:"position"`
	Columns   []SchemaColumn `json:"columns"`
	Indexes   []SchemaIndex  `json:"indexes"`
}

func (t *SchemaTable) Prepare() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
}

// SchemaRelationship matches schema_relationships.
type SchemaRelationship struct {
	ID               uuid.UUID `json:"id"`
	SourceTableID    uuid.UUID `json:"source_table_id"`
	TargetTableID    uuid.UUID `json:"target_table_id"`
	SourceColumnID   uuid.UUID `json:"source_column_id"`
	TargetColumnID   uuid.UUID `json:"target_column_id"`
	RelationshipType string    `json:"relationship_type"`
	Label            *string   `json:"label,omitempty"`
}

func (r *SchemaRelationship) Prepare() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RelationshipType == "" {
		r.RelationshipType = RelationshipOneToMany
	}
}

// SchemaEnumValue matches schema_enum_values.
type SchemaEnumValue struct {
	ID       uuid.UUID `json:"id"`
	EnumID   uuid.UUID `json:"enum_id"`
	Value    string    `json:"value"`
	Position int       `json:"position"`
}

// SchemaEnum matches schema_enums. ClientID keeps the editor's enum id so
// `enum:<id>` column types still resolve after a reload.
type SchemaEnum struct {
	ID        uuid.UUID         `json:"id"`
	ProjectID uuid.UUID         `json:"project_id"`
	ClientID  string            `json:"client_id"`
	Name      string            `json:"name"`
	Position  int               `json:"position"`
	Values    []SchemaEnumValue `json:"values"`
}

func (e *SchemaEnum) Prepare() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
}

// StoredSchema is the normalised, row-based form of one project's schema.
type StoredSchema struct {
	ProjectID     uuid.UUID            `json:"project_id"`
	Version       int64                `json:"version"`
	Tables        []SchemaTable        `json:"tables"`
	Relationships []SchemaRelationship `json:"relationships"`
	Enums         []SchemaEnum         `json:"enums"`
	SavedAt       time.Time            `json:"saved_at"`
}
