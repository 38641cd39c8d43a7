// Package codec converts between the editor's graph document and the
// row based schema the repositories persist.
//
// Encode assigns fresh storage ids on every call; the repository replaces a
// project's rows wholesale, so ids are never diffed. Edges that cannot be
// resolved to stored columns are dropped and reported as diagnostics rather
// than failing the save.
package codec

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"schemaboard/internal/errs"
	"schemaboard/internal/models"
)

// DiagnosticKind tells what the encoder dropped.
type DiagnosticKind string

const (
	DiagnosticEdgeDropped        DiagnosticKind = "edge_dropped"
	DiagnosticIndexColumnDropped DiagnosticKind = "index_column_dropped"
	DiagnosticUnknownEnum        DiagnosticKind = "unknown_enum"
)

// Diagnostic is a non fatal problem found while encoding.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Subject string         `json:"subject"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Subject, d.Message)
}

// Validate rejects payloads that must not reach storage.
func Validate(doc models.SchemaDocument) error {
	if doc.Nodes == nil {
		return errs.New(errs.ErrKindInvalidInput, "invalid schema data: nodes are required")
	}
	seen := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.ID == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "invalid schema data: node %d has no id", i)
		}
		if seen[n.ID] {
			return errs.Newf(errs.ErrKindInvalidInput, "invalid schema data: duplicate node id %q", n.ID)
		}
		seen[n.ID] = true

		titles := make(map[string]bool, len(n.Data.Schema))
		for _, c := range n.Data.Schema {
			if titles[c.Title] {
				return errs.Newf(errs.ErrKindInvalidInput, "invalid schema data: duplicate column %q in node %q", c.Title, n.ID)
			}
			titles[c.Title] = true
		}
	}
	return nil
}

type columnKey struct {
	node  string
	title string
}

// Encode turns a document into storage rows for projectID. Column order,
// key flags, check expressions, indexes, enums and custom edge labels are
// all carried. The relationship type is always one_to_many.
func Encode(doc models.SchemaDocument, projectID uuid.UUID) (*models.StoredSchema, []Diagnostic) {
	var diags []Diagnostic
	stored := &models.StoredSchema{
		ProjectID:     projectID,
		Version:       doc.Version,
		Tables:        make([]models.SchemaTable, 0, len(doc.Nodes)),
		Relationships: []models.SchemaRelationship{},
		Enums:         make([]models.SchemaEnum, 0, len(doc.Enums)),
	}

	enumIDs := make(map[string]bool, len(doc.Enums))
	for i, e := range doc.Enums {
		se := models.SchemaEnum{
			ProjectID: projectID,
			ClientID:  e.ID,
			Name:      e.Name,
			Position:  i,
			Values:    make([]models.SchemaEnumValue, 0, len(e.Values)),
		}
		se.Prepare()
		for j, v := range e.Values {
			se.Values = append(se.Values, models.SchemaEnumValue{ID: uuid.New(), EnumID: se.ID, Value: v.Value, Position: j})
		}
		enumIDs[e.ID] = true
		stored.Enums = append(stored.Enums, se)
	}

	tableIDs := make(map[string]uuid.UUID, len(doc.Nodes))
	columnIDs := make(map[columnKey]uuid.UUID)

	for i, n := range doc.Nodes {
		t := models.SchemaTable{ProjectID: projectID, Name: n.Data.Label, Position: i}
		t.Prepare()
		tableIDs[n.ID] = t.ID

		for j, c := range n.Data.Schema {
			col := models.SchemaColumn{
				TableID:         t.ID,
				Name:            c.Title,
				DataType:        c.Type,
				IsNullable:      !c.IsNotNull,
				DefaultValue:    optional(c.DefaultValue),
				IsPrimaryKey:    c.IsPrimaryKey,
				IsUnique:        c.IsUnique,
				CheckExpression: optional(c.CheckExpression),
				Position:        j,
			}
			col.Prepare()
			columnIDs[columnKey{n.ID, c.Title}] = col.ID
			t.Columns = append(t.Columns, col)

			if id, ok := enumRef(c.Type); ok && !enumIDs[id] {
				diags = append(diags, Diagnostic{
					Kind:    DiagnosticUnknownEnum,
					Subject: n.Data.Label + "." + c.Title,
					Message: fmt.Sprintf("column references missing enum %s", id),
				})
			}
		}

		for j, ix := range n.Data.Indexes {
			si := models.SchemaIndex{TableID: t.ID, Name: ix.Name, IsUnique: ix.IsUnique, Position: j, Columns: []string{}}
			si.Prepare()
			for _, name := range ix.Columns {
				if _, ok := columnIDs[columnKey{n.ID, name}]; !ok {
					diags = append(diags, Diagnostic{
						Kind:    DiagnosticIndexColumnDropped,
						Subject: ix.Name,
						Message: fmt.Sprintf("column %s not found in %s", name, n.Data.Label),
					})
					continue
				}
				si.Columns = append(si.Columns, name)
			}
			t.Indexes = append(t.Indexes, si)
		}
		stored.Tables = append(stored.Tables, t)
	}

	for _, e := range doc.Edges {
		srcCol, okSrc := columnIDs[columnKey{e.Source, e.SourceHandle}]
		dstCol, okDst := columnIDs[columnKey{e.Target, e.TargetHandle}]
		if !okSrc || !okDst {
			diags = append(diags, Diagnostic{
				Kind:    DiagnosticEdgeDropped,
				Subject: e.ID,
				Message: fmt.Sprintf("could not resolve %s.%s -> %s.%s", e.Source, e.SourceHandle, e.Target, e.TargetHandle),
			})
			continue
		}
		rel := models.SchemaRelationship{
			SourceTableID:    tableIDs[e.Source],
			TargetTableID:    tableIDs[e.Target],
			SourceColumnID:   srcCol,
			TargetColumnID:   dstCol,
			RelationshipType: models.RelationshipOneToMany,
		}
		if e.Label != "" && e.Label != models.RelationshipOneToMany {
			rel.Label = optional(e.Label)
		}
		rel.Prepare()
		stored.Relationships = append(stored.Relationships, rel)
	}

	return stored, diags
}

// Decode rebuilds a document from storage rows. Every node is placed at the
// origin; the layout engine positions them afterwards. A nil or empty schema
// yields empty, non-nil collections.
func Decode(stored *models.StoredSchema) models.SchemaDocument {
	doc := models.EmptyDocument()
	if stored == nil {
		return doc
	}
	doc.Version = stored.Version

	tables := slices.Clone(stored.Tables)
	slices.SortStableFunc(tables, func(a, b models.SchemaTable) int { return a.Position - b.Position })

	type columnRef struct {
		tableID uuid.UUID
		name    string
	}
	columns := make(map[uuid.UUID]columnRef)

	for _, t := range tables {
		cols := slices.Clone(t.Columns)
		slices.SortStableFunc(cols, func(a, b models.SchemaColumn) int { return a.Position - b.Position })

		node := models.Node{
			ID:   t.ID.String(),
			Type: models.NodeTypeDatabaseSchema,
			Data: models.NodeData{Label: t.Name, Schema: make([]models.ColumnData, 0, len(cols))},
		}
		for _, c := range cols {
			columns[c.ID] = columnRef{t.ID, c.Name}
			node.Data.Schema = append(node.Data.Schema, models.ColumnData{
				Title:           c.Name,
				Type:            c.DataType,
				IsPrimaryKey:    c.IsPrimaryKey,
				IsUnique:        c.IsUnique,
				IsNotNull:       !c.IsNullable,
				DefaultValue:    deref(c.DefaultValue),
				CheckExpression: deref(c.CheckExpression),
			})
		}

		indexes := slices.Clone(t.Indexes)
		slices.SortStableFunc(indexes, func(a, b models.SchemaIndex) int { return a.Position - b.Position })
		for _, ix := range indexes {
			node.Data.Indexes = append(node.Data.Indexes, models.IndexData{
				ID:       ix.ID.String(),
				Name:     ix.Name,
				Columns:  append([]string{}, ix.Columns...),
				IsUnique: ix.IsUnique,
			})
		}
		doc.Nodes = append(doc.Nodes, node)
	}

	for _, r := range stored.Relationships {
		src, okSrc := columns[r.SourceColumnID]
		dst, okDst := columns[r.TargetColumnID]
		if !okSrc || !okDst {
			continue
		}
		label := r.RelationshipType
		if r.Label != nil && *r.Label != "" {
			label = *r.Label
		}
		doc.Edges = append(doc.Edges, models.Edge{
			ID:           r.ID.String(),
			Source:       src.tableID.String(),
			Target:       dst.tableID.String(),
			SourceHandle: src.name,
			TargetHandle: dst.name,
			Type:         models.NodeTypeDatabaseSchema,
			Label:        label,
		})
	}

	enums := slices.Clone(stored.Enums)
	slices.SortStableFunc(enums, func(a, b models.SchemaEnum) int { return a.Position - b.Position })
	for _, e := range enums {
		id := e.ClientID
		if id == "" {
			id = e.ID.String()
		}
		values := slices.Clone(e.Values)
		slices.SortStableFunc(values, func(a, b models.SchemaEnumValue) int { return a.Position - b.Position })
		out := models.Enum{ID: id, Name: e.Name, Values: make([]models.EnumValue, 0, len(values))}
		for _, v := range values {
			out.Values = append(out.Values, models.EnumValue{ID: v.ID.String(), Value: v.Value})
		}
		doc.Enums = append(doc.Enums, out)
	}
	return doc
}

func enumRef(dataType string) (string, bool) {
	id, ok := strings.CutPrefix(dataType, "enum:")
	return id, ok && id != ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
