package graph

import (
	"fmt"
	"strings"
)

// AddIndex appends an empty, non-unique index named idx_<label>_<n>.
func (g *Graph) AddIndex(tableID string) (Index, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return Index{}, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	ix := Index{
		ID:      g.newID(),
		Name:    fmt.Sprintf("idx_%s_%d", strings.ToLower(t.Label), len(t.Indexes)+1),
		Columns: []string{},
	}
	t.Indexes = append(t.Indexes, ix)
	return ix, nil
}

// DeleteIndex removes an index from its table.
func (g *Graph) DeleteIndex(tableID, indexID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, i, err := g.index(tableID, indexID)
	if err != nil {
		return err
	}
	t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
	return nil
}

// RenameIndex sets the index name.
func (g *Graph) RenameIndex(tableID, indexID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, i, err := g.index(tableID, indexID)
	if err != nil {
		return err
	}
	t.Indexes[i].Name = name
	return nil
}

// ToggleColumnInIndex adds the column to the index when absent and removes
// it when present. The column must exist in the same table.
func (g *Graph) ToggleColumnInIndex(tableID, indexID, column string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, i, err := g.index(tableID, indexID)
	if err != nil {
		return err
	}
	ix := &t.Indexes[i]
	for k, c := range ix.Columns {
		if c == column {
			ix.Columns = append(ix.Columns[:k], ix.Columns[k+1:]...)
			return nil
		}
	}
	if t.columnIndex(column) < 0 {
		return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, t.Label, column)
	}
	ix.Columns = append(ix.Columns, column)
	return nil
}

// ToggleIndexUnique flips the unique flag of an index.
func (g *Graph) ToggleIndexUnique(tableID, indexID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, i, err := g.index(tableID, indexID)
	if err != nil {
		return err
	}
	t.Indexes[i].IsUnique = !t.Indexes[i].IsUnique
	return nil
}

func (g *Graph) index(tableID, indexID string) (*Table, int, error) {
	t := g.table(tableID)
	if t == nil {
		return nil, -1, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	for i := range t.Indexes {
		if t.Indexes[i].ID == indexID {
			return t, i, nil
		}
	}
	return t, -1, fmt.Errorf("%w: %s", ErrIndexNotFound, indexID)
}
