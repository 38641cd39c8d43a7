package graph

import "schemaboard/internal/models"

// Snapshot copies the graph into its wire form. The result shares no memory
// with the graph.
func (g *Graph) Snapshot() models.SchemaDocument {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := models.EmptyDocument()
	for _, t := range g.tables {
		n := models.Node{
			ID:             t.ID,
			Type:           models.NodeTypeDatabaseSchema,
			Position:       t.Position,
			SourcePosition: t.SourcePosition,
			TargetPosition: t.TargetPosition,
			Data: models.NodeData{
				Label:  t.Label,
				Schema: make([]models.ColumnData, len(t.Columns)),
			},
		}
		for i, c := range t.Columns {
			n.Data.Schema[i] = models.ColumnData{
				Title:           c.Title,
				Type:            c.DataType,
				IsPrimaryKey:    c.IsPrimaryKey,
				IsUnique:        c.IsUnique,
				IsNotNull:       c.IsNotNull,
				DefaultValue:    c.DefaultValue,
				CheckExpression: c.CheckExpression,
			}
		}
		for _, ix := range t.Indexes {
			n.Data.Indexes = append(n.Data.Indexes, models.IndexData{
				ID:       ix.ID,
				Name:     ix.Name,
				Columns:  append([]string{}, ix.Columns...),
				IsUnique: ix.IsUnique,
			})
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, r := range g.rels {
		doc.Edges = append(doc.Edges, models.Edge{
			ID:           r.ID,
			Source:       r.SourceTableID,
			Target:       r.TargetTableID,
			SourceHandle: r.SourceColumn,
			TargetHandle: r.TargetColumn,
			Type:         models.NodeTypeDatabaseSchema,
			Label:        r.Label,
		})
	}
	for _, e := range g.enums {
		out := models.Enum{ID: e.ID, Name: e.Name, Values: []models.EnumValue{}}
		for _, v := range e.Values {
			out.Values = append(out.Values, models.EnumValue{ID: v.ID, Value: v.Value})
		}
		doc.Enums = append(doc.Enums, out)
	}
	return doc
}

// FromDocument rebuilds a graph from its wire form. Column flags are
// normalised so a primary key is always unique and not null, and a repeated
// column title gets a numeric suffix. An edge label
// equal to the relationship type is the storage default, not a custom label.
func FromDocument(doc models.SchemaDocument, opts ...Option) *Graph {
	g := New(opts...)

	for _, n := range doc.Nodes {
		t := &Table{
			ID:             n.ID,
			Label:          n.Data.Label,
			Position:       n.Position,
			SourcePosition: n.SourcePosition,
			TargetPosition: n.TargetPosition,
		}
		if t.ID == "" {
			t.ID = g.newID()
		}
		for _, c := range n.Data.Schema {
			title := c.Title
			if t.columnIndex(title) >= 0 {
				title = uniqueTitle(t, title)
			}
			t.Columns = append(t.Columns, normalizeKeyFlags(Column{
				Title:           title,
				DataType:        c.Type,
				IsPrimaryKey:    c.IsPrimaryKey,
				IsUnique:        c.IsUnique,
				IsNotNull:       c.IsNotNull,
				DefaultValue:    c.DefaultValue,
				CheckExpression: c.CheckExpression,
			}))
		}
		for _, ix := range n.Data.Indexes {
			t.Indexes = append(t.Indexes, Index{
				ID:       ix.ID,
				Name:     ix.Name,
				Columns:  append([]string{}, ix.Columns...),
				IsUnique: ix.IsUnique,
			})
		}
		g.tables = append(g.tables, t)
	}

	for _, e := range doc.Edges {
		label := e.Label
		if label == models.RelationshipOneToMany {
			label = ""
		}
		id := e.ID
		if id == "" {
			id = g.newID()
		}
		g.rels = append(g.rels, &Relationship{
			ID:            id,
			SourceTableID: e.Source,
			SourceColumn:  e.SourceHandle,
			TargetTableID: e.Target,
			TargetColumn:  e.TargetHandle,
			Label:         label,
			Type:          models.RelationshipOneToMany,
		})
	}

	for _, e := range doc.Enums {
		out := &Enum{ID: e.ID, Name: e.Name, Values: []EnumValue{}}
		for _, v := range e.Values {
			out.Values = append(out.Values, EnumValue{ID: v.ID, Value: v.Value})
		}
		g.enums = append(g.enums, out)
	}
	return g
}
