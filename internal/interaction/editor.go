// Package interaction turns editor gestures into graph mutations.
//
// An Editor wraps one *graph.Graph. Every gesture that changes the schema
// calls the change hook afterwards, which a session wires to the sync
// controller's Touch. An Editor holds gesture state (a pending connection,
// a column drag) and is meant to be driven from a single goroutine.
package interaction

import (
	"errors"
	"fmt"
	"strings"

	"schemaboard/internal/graph"
	"schemaboard/internal/layout"
)

var (
	ErrConnectionRejected = errors.New("connection rejected")
	ErrNoConnection       = errors.New("no connection in progress")
	ErrNoDrag             = errors.New("no column drag in progress")
)

// Handle is a column connection point.
type Handle struct {
	TableID string
	Column  string
}

// Connection is a proposed edge.
type Connection struct {
	Source Handle
	Target Handle
}

type dragState struct {
	tableID string
	from    int
	over    int
}

// Editor applies gestures to a graph.
type Editor struct {
	g        *graph.Graph
	onChange func()

	connecting *Handle
	drag       *dragState
}

// Option configures an Editor.
type Option func(*Editor)

// WithOnChange sets the hook called after every schema mutation.
func WithOnChange(fn func()) Option {
	return func(e *Editor) { e.onChange = fn }
}

func NewEditor(g *graph.Graph, opts ...Option) *Editor {
	e := &Editor{g: g}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the edited graph.
func (e *Editor) Graph() *graph.Graph {
	return e.g
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

// --- Drag to connect ---

// BeginConnect starts a connection drag from a source column handle.
func (e *Editor) BeginConnect(tableID, column string) {
	e.connecting = &Handle{TableID: tableID, Column: column}
}

// Connecting returns the source handle of the drag in progress.
func (e *Editor) Connecting() (Handle, bool) {
	if e.connecting == nil {
		return Handle{}, false
	}
	return *e.connecting, true
}

// IsValidConnection is consulted while hovering a target handle. It only
// depends on the target being free and both endpoints existing.
func (e *Editor) IsValidConnection(c Connection) bool {
	return e.g.CanConnect(c.Source.TableID, c.Source.Column, c.Target.TableID, c.Target.Column)
}

// CompleteConnect drops the drag on a target handle.
func (e *Editor) CompleteConnect(tableID, column string) (graph.Relationship, error) {
	if e.connecting == nil {
		return graph.Relationship{}, ErrNoConnection
	}
	src := *e.connecting
	e.connecting = nil
	return e.Connect(Connection{Source: src, Target: Handle{TableID: tableID, Column: column}})
}

// CancelConnect abandons the drag.
func (e *Editor) CancelConnect() {
	e.connecting = nil
}

// Connect commits a connection directly.
func (e *Editor) Connect(c Connection) (graph.Relationship, error) {
	rel, ok := e.g.Connect(c.Source.TableID, c.Source.Column, c.Target.TableID, c.Target.Column)
	if !ok {
		return graph.Relationship{}, fmt.Errorf("%w: %s.%s already has an inbound relationship or does not exist",
			ErrConnectionRejected, c.Target.TableID, c.Target.Column)
	}
	e.changed()
	return rel, nil
}

// --- Flags and types ---

// TogglePrimaryKey flips the primary key flag. Turning it on also sets
// unique and not null.
func (e *Editor) TogglePrimaryKey(tableID, column string) error {
	return e.toggle(tableID, column, graph.FieldPrimaryKey, func(c graph.Column) bool { return c.IsPrimaryKey })
}

// ToggleUnique flips unique. Turning it off also clears the primary key.
func (e *Editor) ToggleUnique(tableID, column string) error {
	return e.toggle(tableID, column, graph.FieldUnique, func(c graph.Column) bool { return c.IsUnique })
}

// ToggleNotNull flips not null. Turning it off also clears the primary key.
func (e *Editor) ToggleNotNull(tableID, column string) error {
	return e.toggle(tableID, column, graph.FieldNotNull, func(c graph.Column) bool { return c.IsNotNull })
}

func (e *Editor) toggle(tableID, column string, field graph.Field, current func(graph.Column) bool) error {
	col, err := e.column(tableID, column)
	if err != nil {
		return err
	}
	if err := e.g.UpdateColumnField(tableID, column, field, !current(col)); err != nil {
		return err
	}
	e.changed()
	return nil
}

// SetColumnType sets a column's type. An enum:<id> type must name an
// existing enum.
func (e *Editor) SetColumnType(tableID, column, dataType string) error {
	if id, ok := graph.ParseEnumRef(dataType); ok {
		if _, found := e.g.Enum(id); !found {
			return fmt.Errorf("%w: %s", graph.ErrEnumNotFound, id)
		}
	}
	if err := e.g.UpdateColumnField(tableID, column, graph.FieldType, dataType); err != nil {
		return err
	}
	e.changed()
	return nil
}

func (e *Editor) column(tableID, title string) (graph.Column, error) {
	t, ok := e.g.Table(tableID)
	if !ok {
		return graph.Column{}, fmt.Errorf("%w: %s", graph.ErrTableNotFound, tableID)
	}
	c, ok := t.Column(title)
	if !ok {
		return graph.Column{}, fmt.Errorf("%w: %s.%s", graph.ErrColumnNotFound, t.Label, title)
	}
	return c, nil
}

// --- Drag to reorder ---

// DragStart picks up the column at index in tableID.
func (e *Editor) DragStart(tableID string, index int) error {
	t, ok := e.g.Table(tableID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrTableNotFound, tableID)
	}
	if index < 0 || index >= len(t.Columns) {
		return fmt.Errorf("%w: %d", graph.ErrOutOfRange, index)
	}
	e.drag = &dragState{tableID: tableID, from: index, over: index}
	return nil
}

// DragOver reports whether the column may be dropped at index in tableID.
// Only positions in the table the drag started in accept a drop.
func (e *Editor) DragOver(tableID string, index int) bool {
	if e.drag == nil || e.drag.tableID != tableID {
		return false
	}
	e.drag.over = index
	return true
}

// Drop moves the dragged column to index. A drop on another table is
// ignored.
func (e *Editor) Drop(tableID string, index int) error {
	d := e.drag
	e.drag = nil
	if d == nil {
		return ErrNoDrag
	}
	if d.tableID != tableID || d.from == index {
		return nil
	}
	if err := e.g.ReorderColumns(tableID, d.from, index); err != nil {
		return err
	}
	e.changed()
	return nil
}

// DragEnd clears drag state without moving anything.
func (e *Editor) DragEnd() {
	e.drag = nil
}

// --- Add and delete ---

func (e *Editor) AddTable(label string, columns ...graph.Column) graph.Table {
	t := e.g.AddTable(label, columns...)
	e.changed()
	return t
}

func (e *Editor) AddColumn(tableID string) (graph.Column, error) {
	c, err := e.g.AddColumn(tableID)
	return c, e.after(err)
}

func (e *Editor) AddIndex(tableID string) (graph.Index, error) {
	ix, err := e.g.AddIndex(tableID)
	return ix, e.after(err)
}

func (e *Editor) ToggleColumnInIndex(tableID, indexID, column string) error {
	return e.after(e.g.ToggleColumnInIndex(tableID, indexID, column))
}

func (e *Editor) ToggleIndexUnique(tableID, indexID string) error {
	return e.after(e.g.ToggleIndexUnique(tableID, indexID))
}

func (e *Editor) AddEnum(name string) graph.Enum {
	en := e.g.AddEnum(name)
	e.changed()
	return en
}

func (e *Editor) AddEnumValue(enumID, value string) (graph.EnumValue, error) {
	v, err := e.g.AddEnumValue(enumID, value)
	return v, e.after(err)
}

func (e *Editor) DeleteEnumValue(enumID, valueID string) error {
	return e.after(e.g.DeleteEnumValue(enumID, valueID))
}

// MoveTable records a node drag.
func (e *Editor) MoveTable(tableID string, x, y float64) error {
	t, ok := e.g.Table(tableID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrTableNotFound, tableID)
	}
	t.Position.X, t.Position.Y = x, y
	return e.g.MoveTable(tableID, t.Position)
}

// DeleteTable removes a table and its relationships.
func (e *Editor) DeleteTable(tableID string) error {
	return e.after(e.g.DeleteTable(tableID))
}

// DeleteRelationship removes one edge only.
func (e *Editor) DeleteRelationship(id string) error {
	return e.after(e.g.Disconnect(id))
}

// DeleteColumn removes a column and the edges bound to it.
func (e *Editor) DeleteColumn(tableID, column string) error {
	return e.after(e.g.DeleteColumn(tableID, column))
}

// DeleteIndex removes an index.
func (e *Editor) DeleteIndex(tableID, indexID string) error {
	return e.after(e.g.DeleteIndex(tableID, indexID))
}

// DeleteEnum removes an enum. Columns that used it fall back to text and are
// returned so the caller can tell the user.
func (e *Editor) DeleteEnum(id string) ([]graph.ColumnRef, error) {
	reset, err := e.g.DeleteEnum(id)
	return reset, e.after(err)
}

func (e *Editor) after(err error) error {
	if err == nil {
		e.changed()
	}
	return err
}

// --- Search and layout ---

// FilterTables returns tables whose label contains query, ignoring case.
func (e *Editor) FilterTables(query string) []graph.Table {
	q := strings.ToLower(query)
	var out []graph.Table
	for _, t := range e.g.Tables() {
		if strings.Contains(strings.ToLower(t.Label), q) {
			out = append(out, t)
		}
	}
	return out
}

// FilterEnums returns enums whose name contains query, ignoring case.
func (e *Editor) FilterEnums(query string) []graph.Enum {
	q := strings.ToLower(query)
	var out []graph.Enum
	for _, en := range e.g.Enums() {
		if strings.Contains(strings.ToLower(en.Name), q) {
			out = append(out, en)
		}
	}
	return out
}

// ResetLayout recomputes every table position. Positions are not stored, so
// the change hook is not called.
func (e *Editor) ResetLayout(opts layout.Options) error {
	return layout.Apply(e.g, opts)
}
