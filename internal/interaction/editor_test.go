package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaboard/internal/graph"
	"schemaboard/internal/layout"
)

func newEditor(t *testing.T) (*Editor, *int) {
	t.Helper()
	changes := 0
	return NewEditor(graph.New(), WithOnChange(func() { changes++ })), &changes
}

func columnTitles(t *testing.T, e *Editor, tableID string) []string {
	t.Helper()
	tbl, ok := e.Graph().Table(tableID)
	require.True(t, ok)
	var out []string
	for _, c := range tbl.Columns {
		out = append(out, c.Title)
	}
	return out
}

func TestConnect_DragFlow(t *testing.T) {
	e, changes := newEditor(t)
	a := e.AddTable("TableA", graph.Column{Title: "id"}, graph.Column{Title: "colX"})
	b := e.AddTable("TableB")
	c := e.AddTable("TableC", graph.Column{Title: "id"}, graph.Column{Title: "colY"})
	*changes = 0

	e.BeginConnect(a.ID, "colX")
	src, ok := e.Connecting()
	require.True(t, ok)
	assert.Equal(t, Handle{TableID: a.ID, Column: "colX"}, src)

	assert.True(t, e.IsValidConnection(Connection{Source: src, Target: Handle{b.ID, "id"}}))
	rel, err := e.CompleteConnect(b.ID, "id")
	require.NoError(t, err)
	assert.Equal(t, b.ID, rel.TargetTableID)
	assert.Equal(t, 1, *changes)

	_, ok = e.Connecting()
	assert.False(t, ok)

	proposed := Connection{Source: Handle{c.ID, "colY"}, Target: Handle{b.ID, "id"}}
	assert.False(t, e.IsValidConnection(proposed))
	e.BeginConnect(c.ID, "colY")
	_, err = e.CompleteConnect(b.ID, "id")
	assert.ErrorIs(t, err, ErrConnectionRejected)
	assert.Len(t, e.Graph().Relationships(), 1)
	assert.Equal(t, 1, *changes)

	_, err = e.CompleteConnect(b.ID, "id")
	assert.ErrorIs(t, err, ErrNoConnection)

	e.BeginConnect(a.ID, "id")
	e.CancelConnect()
	_, ok = e.Connecting()
	assert.False(t, ok)
}

func TestFlagToggles(t *testing.T) {
	e, changes := newEditor(t)
	tbl := e.AddTable("T", graph.Column{Title: "code"})
	*changes = 0

	require.NoError(t, e.TogglePrimaryKey(tbl.ID, "code"))
	col, _ := e.column(tbl.ID, "code")
	assert.True(t, col.IsPrimaryKey && col.IsUnique && col.IsNotNull)

	require.NoError(t, e.ToggleNotNull(tbl.ID, "code"))
	col, _ = e.column(tbl.ID, "code")
	assert.False(t, col.IsPrimaryKey)
	assert.False(t, col.IsNotNull)
	assert.True(t, col.IsUnique)

	require.NoError(t, e.ToggleUnique(tbl.ID, "code"))
	col, _ = e.column(tbl.ID, "code")
	assert.False(t, col.IsUnique)

	assert.Equal(t, 3, *changes)
	assert.ErrorIs(t, e.ToggleUnique(tbl.ID, "missing"), graph.ErrColumnNotFound)
	assert.Equal(t, 3, *changes)
}

func TestSetColumnType(t *testing.T) {
	e, _ := newEditor(t)
	tbl := e.AddTable("Orders", graph.Column{Title: "status"})
	en := e.AddEnum("order_status")

	require.NoError(t, e.SetColumnType(tbl.ID, "status", graph.EnumRef(en.ID)))
	col, _ := e.column(tbl.ID, "status")
	assert.Equal(t, "enum(order_status)", e.TypeDisplay(col.DataType))
	assert.Equal(t, "varchar", e.TypeDisplay("varchar"))
	assert.Equal(t, "enum(unknown)", e.TypeDisplay("enum:nope"))

	assert.ErrorIs(t, e.SetColumnType(tbl.ID, "status", "enum:nope"), graph.ErrEnumNotFound)

	reset, err := e.DeleteEnum(en.ID)
	require.NoError(t, err)
	assert.Equal(t, []graph.ColumnRef{{TableID: tbl.ID, Title: "status"}}, reset)
	col, _ = e.column(tbl.ID, "status")
	assert.Equal(t, "text", col.DataType)
}

func TestFilterDataTypes(t *testing.T) {
	assert.Equal(t, []string{"int", "integer", "bigint", "smallint"}, FilterDataTypes("INT"))
	assert.Len(t, FilterDataTypes(""), len(DataTypes))
	assert.Empty(t, FilterDataTypes("geometry"))
}

func TestReorder_DragAndDrop(t *testing.T) {
	e, changes := newEditor(t)
	users := e.AddTable("Users", graph.Column{Title: "id"}, graph.Column{Title: "name"}, graph.Column{Title: "email"})
	other := e.AddTable("Other")
	*changes = 0

	require.NoError(t, e.DragStart(users.ID, 2))
	assert.True(t, e.DragOver(users.ID, 0))
	assert.False(t, e.DragOver(other.ID, 0))
	require.NoError(t, e.Drop(users.ID, 0))
	assert.Equal(t, []string{"email", "id", "name"}, columnTitles(t, e, users.ID))
	assert.Equal(t, 1, *changes)

	require.NoError(t, e.DragStart(users.ID, 0))
	require.NoError(t, e.Drop(other.ID, 0))
	assert.Equal(t, []string{"email", "id", "name"}, columnTitles(t, e, users.ID))
	assert.Equal(t, 1, *changes)

	require.NoError(t, e.DragStart(users.ID, 1))
	e.DragEnd()
	assert.ErrorIs(t, e.Drop(users.ID, 0), ErrNoDrag)

	assert.ErrorIs(t, e.DragStart(users.ID, 5), graph.ErrOutOfRange)
}

func TestDeletes(t *testing.T) {
	e, changes := newEditor(t)
	a := e.AddTable("A", graph.Column{Title: "id"}, graph.Column{Title: "b_id"})
	b := e.AddTable("B")
	rel, err := e.Connect(Connection{Source: Handle{a.ID, "b_id"}, Target: Handle{b.ID, "id"}})
	require.NoError(t, err)
	ix, err := e.AddIndex(a.ID)
	require.NoError(t, err)
	*changes = 0

	require.NoError(t, e.DeleteRelationship(rel.ID))
	assert.Empty(t, e.Graph().Relationships())
	assert.Len(t, e.Graph().Tables(), 2)

	_, err = e.Connect(Connection{Source: Handle{a.ID, "b_id"}, Target: Handle{b.ID, "id"}})
	require.NoError(t, err)
	require.NoError(t, e.DeleteIndex(a.ID, ix.ID))
	require.NoError(t, e.DeleteColumn(a.ID, "b_id"))
	assert.Empty(t, e.Graph().Relationships())

	_, err = e.Connect(Connection{Source: Handle{a.ID, "id"}, Target: Handle{b.ID, "id"}})
	require.NoError(t, err)
	require.NoError(t, e.DeleteTable(b.ID))
	assert.Empty(t, e.Graph().Relationships())

	assert.Equal(t, 6, *changes)
	assert.ErrorIs(t, e.DeleteTable(b.ID), graph.ErrTableNotFound)
	assert.Equal(t, 6, *changes)
}

func TestFilters(t *testing.T) {
	e, _ := newEditor(t)
	e.AddTable("Products")
	e.AddTable("product_tags")
	e.AddTable("Suppliers")
	e.AddEnum("ProductState")
	e.AddEnum("Country")

	var labels []string
	for _, tbl := range e.FilterTables("PRODUCT") {
		labels = append(labels, tbl.Label)
	}
	assert.Equal(t, []string{"Products", "product_tags"}, labels)
	assert.Len(t, e.FilterTables(""), 3)

	enums := e.FilterEnums("state")
	require.Len(t, enums, 1)
	assert.Equal(t, "ProductState", enums[0].Name)
}

func TestResetLayout(t *testing.T) {
	e, changes := newEditor(t)
	a := e.AddTable("A", graph.Column{Title: "id"}, graph.Column{Title: "b_id"})
	b := e.AddTable("B")
	_, err := e.Connect(Connection{Source: Handle{a.ID, "b_id"}, Target: Handle{b.ID, "id"}})
	require.NoError(t, err)
	require.NoError(t, e.MoveTable(b.ID, -500, 900))
	*changes = 0

	require.NoError(t, e.ResetLayout(layout.DefaultOptions()))
	got, _ := e.Graph().Table(b.ID)
	assert.Equal(t, 370.0, got.Position.X)
	assert.Equal(t, 0, *changes)
}
