package graph

import (
	"fmt"

	"schemaboard/internal/models"
)

// CanConnect reports whether Connect with the same arguments would succeed:
// both endpoints exist and the target handle has no inbound relationship yet.
func (g *Graph) CanConnect(sourceTableID, sourceColumn, targetTableID, targetColumn string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.canConnect(sourceTableID, sourceColumn, targetTableID, targetColumn)
}

func (g *Graph) canConnect(sourceTableID, sourceColumn, targetTableID, targetColumn string) bool {
	if _, _, err := g.column(sourceTableID, sourceColumn); err != nil {
		return false
	}
	if _, _, err := g.column(targetTableID, targetColumn); err != nil {
		return false
	}
	return !g.hasInbound(targetTableID, targetColumn)
}

func (g *Graph) hasInbound(tableID, column string) bool {
	for _, r := range g.rels {
		if r.TargetTableID == tableID && r.TargetColumn == column {
			return true
		}
	}
	return false
}

// Connect adds a relationship from one column handle to another. It returns
// false and leaves the graph unchanged when the target handle is already
// claimed or an endpoint is missing. Self loops and several outbound edges
// from one column are allowed.
func (g *Graph) Connect(sourceTableID, sourceColumn, targetTableID, targetColumn string) (Relationship, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canConnect(sourceTableID, sourceColumn, targetTableID, targetColumn) {
		return Relationship{}, false
	}
	r := &Relationship{
		ID:            g.newID(),
		SourceTableID: sourceTableID,
		SourceColumn:  sourceColumn,
		TargetTableID: targetTableID,
		TargetColumn:  targetColumn,
		Type:          models.RelationshipOneToMany,
	}
	g.rels = append(g.rels, r)
	return *r, true
}

// Disconnect removes a relationship.
func (g *Graph) Disconnect(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, r := g.relationship(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
	}
	g.rels = append(g.rels[:i], g.rels[i+1:]...)
	return nil
}

// RenameRelationship sets a custom label. An empty label falls back to the
// derived one.
func (g *Graph) RenameRelationship(id, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, r := g.relationship(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
	}
	r.Label = label
	return nil
}

// RelationshipLabel returns the custom label or
// {sourceTable}_{sourceColumn}_{targetTable}.
func (g *Graph) RelationshipLabel(rel Relationship) string {
	if rel.Label != "" {
		return rel.Label
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	source, target := "Unknown Table", "Unknown Table"
	column := "Unknown Column"
	if t := g.table(rel.SourceTableID); t != nil {
		source = t.Label
		if t.columnIndex(rel.SourceColumn) >= 0 {
			column = rel.SourceColumn
		}
	}
	if t := g.table(rel.TargetTableID); t != nil {
		target = t.Label
	}
	return fmt.Sprintf("%s_%s_%s", source, column, target)
}
