package graph

import (
	"fmt"
	"strings"
)

// Field names a single editable column attribute.
type Field string

const (
	FieldTitle           Field = "title"
	FieldType            Field = "type"
	FieldPrimaryKey      Field = "isPrimaryKey"
	FieldUnique          Field = "isUnique"
	FieldNotNull         Field = "isNotNull"
	FieldDefaultValue    Field = "defaultValue"
	FieldCheckExpression Field = "checkExpression"
)

// Fields lists every editable field.
var Fields = []Field{
	FieldTitle, FieldType, FieldPrimaryKey, FieldUnique, FieldNotNull, FieldDefaultValue, FieldCheckExpression,
}

// IsBool reports whether the field takes a bool value.
func (f Field) IsBool() bool {
	return f == FieldPrimaryKey || f == FieldUnique || f == FieldNotNull
}

// AddColumn appends a text column titled "New Column <n>".
func (g *Graph) AddColumn(tableID string) (Column, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return Column{}, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	c := Column{
		Title:    uniqueTitle(t, fmt.Sprintf("New Column %d", len(t.Columns)+1)),
		DataType: DefaultColumnType,
	}
	t.Columns = append(t.Columns, c)
	return c, nil
}

// DeleteColumn removes a column, the relationships bound to its handle and
// its title from the table's indexes.
func (g *Graph) DeleteColumn(tableID, title string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, i, err := g.column(tableID, title)
	if err != nil {
		return err
	}
	t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)

	for j := range t.Indexes {
		t.Indexes[j].Columns = removeString(t.Indexes[j].Columns, title)
	}

	kept := g.rels[:0]
	for _, r := range g.rels {
		if (r.SourceTableID == tableID && r.SourceColumn == title) ||
			(r.TargetTableID == tableID && r.TargetColumn == title) {
			continue
		}
		kept = append(kept, r)
	}
	g.rels = kept
	return nil
}

// RenameColumn changes a column title and rebinds every relationship handle
// and index entry that referenced the old title.
func (g *Graph) RenameColumn(tableID, oldTitle, newTitle string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.renameColumn(tableID, oldTitle, newTitle)
}

func (g *Graph) renameColumn(tableID, oldTitle, newTitle string) error {
	t, i, err := g.column(tableID, oldTitle)
	if err != nil {
		return err
	}
	if strings.TrimSpace(newTitle) == "" {
		return ErrEmptyTitle
	}
	if newTitle == oldTitle {
		return nil
	}
	if t.columnIndex(newTitle) >= 0 {
		return fmt.Errorf("%w: %s.%s", ErrColumnExists, t.Label, newTitle)
	}
	t.Columns[i].Title = newTitle

	for j := range t.Indexes {
		for k, c := range t.Indexes[j].Columns {
			if c == oldTitle {
				t.Indexes[j].Columns[k] = newTitle
			}
		}
	}
	for _, r := range g.rels {
		if r.SourceTableID == tableID && r.SourceColumn == oldTitle {
			r.SourceColumn = newTitle
		}
		if r.TargetTableID == tableID && r.TargetColumn == oldTitle {
			r.TargetColumn = newTitle
		}
	}
	return nil
}

// UpdateColumnField sets one field of the column currently titled title.
// String fields take a string, flag fields a bool. The primary key flag
// implies unique and not null: setting it sets both, clearing either of them
// clears it.
func (g *Graph) UpdateColumnField(tableID, title string, field Field, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, i, err := g.column(tableID, title)
	if err != nil {
		return err
	}

	if field.IsBool() {
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects bool, got %T", ErrInvalidValue, field, value)
		}
		col := &t.Columns[i]
		switch field {
		case FieldPrimaryKey:
			col.IsPrimaryKey = b
			if b {
				col.IsUnique = true
				col.IsNotNull = true
			}
		case FieldUnique:
			col.IsUnique = b
			if !b {
				col.IsPrimaryKey = false
			}
		case FieldNotNull:
			col.IsNotNull = b
			if !b {
				col.IsPrimaryKey = false
			}
		}
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s expects string, got %T", ErrInvalidValue, field, value)
	}
	switch field {
	case FieldTitle:
		return g.renameColumn(tableID, title, s)
	case FieldType:
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty type", ErrInvalidValue)
		}
		t.Columns[i].DataType = s
	case FieldDefaultValue:
		t.Columns[i].DefaultValue = s
	case FieldCheckExpression:
		t.Columns[i].CheckExpression = s
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidValue, field)
	}
	return nil
}

// ReorderColumns moves the column at from to position to, shifting the
// columns in between.
func (g *Graph) ReorderColumns(tableID string, from, to int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	n := len(t.Columns)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: %d -> %d of %d", ErrOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}

	moved := t.Columns[from]
	cols := append(t.Columns[:from:from], t.Columns[from+1:]...)
	cols = append(cols[:to], append([]Column{moved}, cols[to:]...)...)
	t.Columns = cols
	return nil
}

func normalizeKeyFlags(c Column) Column {
	if c.IsPrimaryKey {
		c.IsUnique = true
		c.IsNotNull = true
	}
	return c
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
