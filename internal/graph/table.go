package graph

import (
	"fmt"
	"strings"
)

// DefaultIDColumn is the column a table gets when created without columns.
func DefaultIDColumn() Column {
	return Column{Title: "id", DataType: "uuid", IsPrimaryKey: true, IsUnique: true, IsNotNull: true}
}

// AddTable creates a table with a fresh id. Without columns the table starts
// with a single uuid primary key named id. An empty label becomes table_<n>.
func (g *Graph) AddTable(label string, columns ...Column) Table {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.TrimSpace(label) == "" {
		label = fmt.Sprintf("table_%d", len(g.tables)+1)
	}
	if len(columns) == 0 {
		columns = []Column{DefaultIDColumn()}
	}

	t := &Table{ID: g.newID(), Label: label}
	for _, c := range columns {
		c = normalizeKeyFlags(c)
		if c.DataType == "" {
			c.DataType = DefaultColumnType
		}
		c.Title = uniqueTitle(t, c.Title)
		t.Columns = append(t.Columns, c)
	}
	g.tables = append(g.tables, t)
	return t.clone()
}

// DeleteTable removes the table and every relationship that starts or ends
// on it.
func (g *Graph) DeleteTable(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := -1
	for i, t := range g.tables {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	g.tables = append(g.tables[:idx], g.tables[idx+1:]...)

	kept := g.rels[:0]
	for _, r := range g.rels {
		if r.SourceTableID != id && r.TargetTableID != id {
			kept = append(kept, r)
		}
	}
	g.rels = kept

	if dangling := g.danglingEdges(); len(dangling) > 0 {
		return fmt.Errorf("graph: %d dangling edges after deleting table %s", len(dangling), id)
	}
	return nil
}

// RenameTable sets the display label. Edges bind by id so nothing cascades.
func (g *Graph) RenameTable(id, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(id)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	if strings.TrimSpace(label) == "" {
		return ErrEmptyTitle
	}
	t.Label = label
	return nil
}

// danglingEdges lists relationships whose table endpoints no longer exist.
func (g *Graph) danglingEdges() []string {
	var out []string
	for _, r := range g.rels {
		if g.table(r.SourceTableID) == nil || g.table(r.TargetTableID) == nil {
			out = append(out, r.ID)
		}
	}
	return out
}

// uniqueTitle returns title, or title with a numeric suffix when the table
// already has a column with that title.
func uniqueTitle(t *Table, title string) string {
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("New Column %d", len(t.Columns)+1)
	}
	candidate := title
	for n := 2; t.columnIndex(candidate) >= 0; n++ {
		candidate = fmt.Sprintf("%s_%d", title, n)
	}
	return candidate
}
