package models

// NodeTypeDatabaseSchema is the node type every table node carries on the wire.
const NodeTypeDatabaseSchema = "databaseSchema"

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ColumnData is one row of a table node.
type ColumnData struct {
	Title           string `json:"title" yaml:"title"`
	Type            string `json:"type" yaml:"type"`
	IsPrimaryKey    bool   `json:"isPrimaryKey,omitempty" yaml:"isPrimaryKey,omitempty"`
	IsUnique        bool   `json:"isUnique,omitempty" yaml:"isUnique,omitempty"`
	IsNotNull       bool   `json:"isNotNull" yaml:"isNotNull"`
	DefaultValue    string `json:"defaultValue" yaml:"defaultValue,omitempty"`
	CheckExpression string `json:"checkExpression,omitempty" yaml:"checkExpression,omitempty"`
}

// IndexData is an index declared on a table node.
type IndexData struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Columns  []string `json:"columns" yaml:"columns"`
	IsUnique bool     `json:"isUnique" yaml:"isUnique"`
}

// NodeData is the payload of a table node.
type NodeData struct {
	Label   string       `json:"label" yaml:"label"`
	Schema  []ColumnData `json:"schema" yaml:"schema"`
	Indexes []IndexData  `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// Node is a table on the canvas.
type Node struct {
	ID             string   `json:"id" yaml:"id"`
	Type           string   `json:"type" yaml:"type,omitempty"`
	Position       Position `json:"position" yaml:"position"`
	SourcePosition string   `json:"sourcePosition,omitempty" yaml:"sourcePosition,omitempty"`
	TargetPosition string   `json:"targetPosition,omitempty" yaml:"targetPosition,omitempty"`
	Data           NodeData `json:"data" yaml:"data"`
}

// Edge is a relationship between two column handles.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle" yaml:"sourceHandle"`
	TargetHandle string `json:"targetHandle" yaml:"targetHandle"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
}

// EnumValue is one allowed value of an Enum.
type EnumValue struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

// Enum is a project scoped set of values a column type can reference.
type Enum struct {
	ID     string      `json:"id" yaml:"id"`
	Name   string      `json:"name" yaml:"name"`
	Values []EnumValue `json:"values" yaml:"values"`
}

// SchemaDocument is the graph form exchanged between the editor and the API.
type SchemaDocument struct {
	Nodes   []Node `json:"nodes" yaml:"nodes" binding:"required"`
	Edges   []Edge `json:"edges" yaml:"edges"`
	Enums   []Enum `json:"enums" yaml:"enums,omitempty"`
	Version int64  `json:"version,omitempty" yaml:"version,omitempty"`
}

// EmptyDocument returns a document with non-nil, empty collections so it
// serialises as {"nodes":[],"edges":[],"enums":[]}.
func EmptyDocument() SchemaDocument {
	return SchemaDocument{Nodes: []Node{}, Edges: []Edge{}, Enums: []Enum{}}
}

// Clone deep-copies the document.
func (d SchemaDocument) Clone() SchemaDocument {
	out := SchemaDocument{
		Nodes:   make([]Node, len(d.Nodes)),
		Edges:   append([]Edge(nil), d.Edges...),
		Enums:   make([]Enum, len(d.Enums)),
		Version: d.Version,
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	for i, n := range d.Nodes {
		n.Data.Schema = append([]ColumnData(nil), n.Data.Schema...)
		if n.Data.Indexes != nil {
			idx := make([]IndexData, len(n.Data.Indexes))
			for j, ix := range n.Data.Indexes {
				ix.Columns = append([]string(nil), ix.Columns...)
				idx[j] = ix
			}
			n.Data.Indexes = idx
		}
		out.Nodes[i] = n
	}
	for i, e := range d.Enums {
		e.Values = append([]EnumValue(nil), e.Values...)
		out.Enums[i] = e
	}
	return out
}
