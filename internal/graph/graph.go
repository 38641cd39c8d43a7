// Package graph holds the in-session schema graph: tables as nodes, columns
// as handles, relationships as edges, plus project scoped enums.
//
// A *Graph is created per editing session and handed to whoever mutates it;
// there is no package level graph. Every method commits immediately.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"schemaboard/internal/models"
)

var (
	ErrTableNotFound        = errors.New("table not found")
	ErrColumnNotFound       = errors.New("column not found")
	ErrColumnExists         = errors.New("column title already used in table")
	ErrIndexNotFound        = errors.New("index not found")
	ErrEnumNotFound         = errors.New("enum not found")
	ErrEnumValueNotFound    = errors.New("enum value not found")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrInvalidValue         = errors.New("invalid value for field")
	ErrOutOfRange           = errors.New("column index out of range")
	ErrEmptyTitle           = errors.New("title must not be empty")
)

// DefaultColumnType is the type given to new columns and to columns whose
// enum was deleted.
const DefaultColumnType = "text"

// Column is a typed field of a table. Title is unique within its table and
// doubles as the handle id edges bind to.
type Column struct {
	Title           string
	DataType        string
	IsPrimaryKey    bool
	IsUnique        bool
	IsNotNull       bool
	DefaultValue    string
	CheckExpression string
}

// Index references columns of its own table by title.
type Index struct {
	ID       string
	Name     string
	Columns  []string
	IsUnique bool
}

// Table is a node of the graph.
type Table struct {
	ID             string
	Label          string
	Position       models.Position
	SourcePosition string
	TargetPosition string
	Columns        []Column
	Indexes        []Index
}

// Column returns the column titled title.
func (t Table) Column(title string) (Column, bool) {
	i := t.columnIndex(title)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

func (t Table) columnIndex(title string) int {
	for i := range t.Columns {
		if t.Columns[i].Title == title {
			return i
		}
	}
	return -1
}

func (t *Table) clone() Table {
	out := *t
	out.Columns = append([]Column(nil), t.Columns...)
	out.Indexes = make([]Index, len(t.Indexes))
	for i, ix := range t.Indexes {
		ix.Columns = append([]string(nil), ix.Columns...)
		out.Indexes[i] = ix
	}
	return out
}

// EnumValue is one entry of an Enum.
type EnumValue struct {
	ID    string
	Value string
}

// Enum is a project scoped value set.
type Enum struct {
	ID     string
	Name   string
	Values []EnumValue
}

// Relationship is a directed edge between two column handles.
type Relationship struct {
	ID            string
	SourceTableID string
	SourceColumn  string
	TargetTableID string
	TargetColumn  string
	Label         string
	Type          string
}

// Graph is the editable schema. Reads and writes are serialised by an
// internal lock so snapshots can be taken from other goroutines.
type Graph struct {
	mu     sync.RWMutex
	tables []*Table
	rels   []*Relationship
	enums  []*Enum
	newID  func() string
}

// Option configures a Graph.
type Option func(*Graph)

// WithIDGenerator replaces uuid generation, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) { g.newID = fn }
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{newID: uuid.NewString}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Tables returns copies of all tables in insertion order.
func (g *Graph) Tables() []Table {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Table, len(g.tables))
	for i, t := range g.tables {
		out[i] = t.clone()
	}
	return out
}

// Table returns a copy of the table with the given id.
func (g *Graph) Table(id string) (Table, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t := g.table(id)
	if t == nil {
		return Table{}, false
	}
	return t.clone(), true
}

// Relationships returns copies of all edges.
func (g *Graph) Relationships() []Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Relationship, len(g.rels))
	for i, r := range g.rels {
		out[i] = *r
	}
	return out
}

// Relationship returns the edge with the given id.
func (g *Graph) Relationship(id string) (Relationship, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, r := g.relationship(id); r != nil {
		return *r, true
	}
	return Relationship{}, false
}

// Enums returns copies of all enums.
func (g *Graph) Enums() []Enum {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Enum, len(g.enums))
	for i, e := range g.enums {
		cp := *e
		cp.Values = append([]EnumValue(nil), e.Values...)
		out[i] = cp
	}
	return out
}

// Enum returns a copy of the enum with the given id.
func (g *Graph) Enum(id string) (Enum, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, e := g.enum(id)
	if e == nil {
		return Enum{}, false
	}
	cp := *e
	cp.Values = append([]EnumValue(nil), e.Values...)
	return cp, true
}

// SetPlacement writes layout output for one table. Only position and handle
// sides are touched.
func (g *Graph) SetPlacement(tableID string, pos models.Position, sourcePosition, targetPosition string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	t.Position = pos
	t.SourcePosition = sourcePosition
	t.TargetPosition = targetPosition
	return nil
}

// MoveTable is a user drag of a table node.
func (g *Graph) MoveTable(tableID string, pos models.Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	t.Position = pos
	return nil
}

func (g *Graph) table(id string) *Table {
	for _, t := range g.tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (g *Graph) relationship(id string) (int, *Relationship) {
	for i, r := range g.rels {
		if r.ID == id {
			return i, r
		}
	}
	return -1, nil
}

func (g *Graph) enum(id string) (int, *Enum) {
	for i, e := range g.enums {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (g *Graph) column(tableID, title string) (*Table, int, error) {
	t := g.table(tableID)
	if t == nil {
		return nil, -1, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	i := t.columnIndex(title)
	if i < 0 {
		return t, -1, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, t.Label, title)
	}
	return t, i, nil
}
