package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaboard/internal/graph"
)

func TestEditSession_EnterCommits(t *testing.T) {
	e, changes := newEditor(t)
	tbl := e.AddTable("Users")
	*changes = 0

	s, err := e.BeginEdit(Target{Kind: TargetTableLabel, TableID: tbl.ID})
	require.NoError(t, err)
	assert.Equal(t, "Users", s.Text())

	s.SetText("Accounts")
	require.NoError(t, s.KeyDown(KeyOther))
	assert.False(t, s.Done())
	require.NoError(t, s.KeyDown(KeyEnter))
	assert.True(t, s.Done())

	got, _ := e.Graph().Table(tbl.ID)
	assert.Equal(t, "Accounts", got.Label)
	assert.Equal(t, 1, *changes)

	// finished sessions ignore input
	s.SetText("Ignored")
	require.NoError(t, s.Blur())
	got, _ = e.Graph().Table(tbl.ID)
	assert.Equal(t, "Accounts", got.Label)
	assert.Equal(t, 1, *changes)
}

func TestEditSession_EscapeReverts(t *testing.T) {
	e, changes := newEditor(t)
	tbl := e.AddTable("T", graph.Column{Title: "name"})
	*changes = 0

	s, err := e.BeginEdit(Target{Kind: TargetColumnTitle, TableID: tbl.ID, Column: "name"})
	require.NoError(t, err)
	s.SetText("full_name")
	require.NoError(t, s.KeyDown(KeyEscape))
	assert.Equal(t, "name", s.Text())
	require.NoError(t, s.Blur())

	assert.Equal(t, []string{"name"}, columnTitles(t, e, tbl.ID))
	assert.Zero(t, *changes)
}

func TestEditSession_BlurCommitsAndUnchangedIsNoop(t *testing.T) {
	e, changes := newEditor(t)
	tbl := e.AddTable("T", graph.Column{Title: "price"})
	*changes = 0

	s, err := e.BeginEdit(Target{Kind: TargetColumnDefault, TableID: tbl.ID, Column: "price"})
	require.NoError(t, err)
	s.SetText("0")
	require.NoError(t, s.Blur())

	s, err = e.BeginEdit(Target{Kind: TargetColumnCheck, TableID: tbl.ID, Column: "price"})
	require.NoError(t, err)
	require.NoError(t, s.Blur())

	col, _ := e.column(tbl.ID, "price")
	assert.Equal(t, "0", col.DefaultValue)
	assert.Empty(t, col.CheckExpression)
	assert.Equal(t, 1, *changes)
}

func TestEditSession_ColumnRenameKeepsEdges(t *testing.T) {
	e, _ := newEditor(t)
	a := e.AddTable("A", graph.Column{Title: "id"}, graph.Column{Title: "b_id"})
	b := e.AddTable("B")
	rel, err := e.Connect(Connection{Source: Handle{a.ID, "b_id"}, Target: Handle{b.ID, "id"}})
	require.NoError(t, err)

	s, err := e.BeginEdit(Target{Kind: TargetColumnTitle, TableID: a.ID, Column: "b_id"})
	require.NoError(t, err)
	s.SetText("id")
	assert.ErrorIs(t, s.KeyDown(KeyEnter), graph.ErrColumnExists)

	s, _ = e.BeginEdit(Target{Kind: TargetColumnTitle, TableID: a.ID, Column: "b_id"})
	s.SetText("parent_id")
	require.NoError(t, s.KeyDown(KeyEnter))

	got, _ := e.Graph().Relationship(rel.ID)
	assert.Equal(t, "parent_id", got.SourceColumn)
}

func TestEditSession_OtherTargets(t *testing.T) {
	e, _ := newEditor(t)
	a := e.AddTable("A", graph.Column{Title: "id"}, graph.Column{Title: "b_id"})
	b := e.AddTable("B")
	rel, err := e.Connect(Connection{Source: Handle{a.ID, "b_id"}, Target: Handle{b.ID, "id"}})
	require.NoError(t, err)
	ix, _ := e.AddIndex(a.ID)
	en := e.AddEnum("")
	v, _ := e.AddEnumValue(en.ID, "")

	cases := []struct {
		target Target
		before string
		after  string
	}{
		{Target{Kind: TargetRelationshipLabel, RelationshipID: rel.ID}, "A_b_id_B", "belongs_to"},
		{Target{Kind: TargetIndexName, TableID: a.ID, IndexID: ix.ID}, "idx_a_1", "a_by_b"},
		{Target{Kind: TargetEnumName, EnumID: en.ID}, "NewEnum1", "Mood"},
		{Target{Kind: TargetEnumValue, EnumID: en.ID, ValueID: v.ID}, "VALUE_1", "HAPPY"},
	}
	for _, tc := range cases {
		s, err := e.BeginEdit(tc.target)
		require.NoError(t, err)
		assert.Equal(t, tc.before, s.Original())
		s.SetText(tc.after)
		require.NoError(t, s.KeyDown(KeyEnter))

		again, err := e.BeginEdit(tc.target)
		require.NoError(t, err)
		assert.Equal(t, tc.after, again.Text())
	}
}

func TestEditSession_RejectedCommitReverts(t *testing.T) {
	e, changes := newEditor(t)
	tbl := e.AddTable("Users", graph.Column{Title: "id"}, graph.Column{Title: "email"})
	*changes = 0

	s, err := e.BeginEdit(Target{Kind: TargetTableLabel, TableID: tbl.ID})
	require.NoError(t, err)
	s.SetText("  ")
	assert.ErrorIs(t, s.KeyDown(KeyEnter), graph.ErrEmptyTitle)
	assert.True(t, s.Done())
	assert.Equal(t, "Users", s.Text())

	s, err = e.BeginEdit(Target{Kind: TargetColumnTitle, TableID: tbl.ID, Column: "email"})
	require.NoError(t, err)
	s.SetText("id")
	assert.ErrorIs(t, s.Blur(), graph.ErrColumnExists)
	assert.Equal(t, "email", s.Text())

	got, _ := e.Graph().Table(tbl.ID)
	assert.Equal(t, "Users", got.Label)
	assert.Equal(t, []string{"id", "email"}, []string{got.Columns[0].Title, got.Columns[1].Title})
	assert.Equal(t, 0, *changes)
}

func TestBeginEdit_MissingTarget(t *testing.T) {
	e, _ := newEditor(t)
	_, err := e.BeginEdit(Target{Kind: TargetTableLabel, TableID: "ghost"})
	assert.ErrorIs(t, err, graph.ErrTableNotFound)
	_, err = e.BeginEdit(Target{Kind: TargetRelationshipLabel, RelationshipID: "ghost"})
	assert.ErrorIs(t, err, graph.ErrRelationshipNotFound)
	_, err = e.BeginEdit(Target{Kind: TargetEnumValue, EnumID: "ghost"})
	assert.ErrorIs(t, err, graph.ErrEnumNotFound)
}
