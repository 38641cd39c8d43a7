package interaction

import (
	"strings"

	"schemaboard/internal/graph"
)

// DataTypes is the column type picker's catalog, in display order.
var DataTypes = []string{
	"string", "text", "varchar", "char",
	"int", "integer", "float", "decimal", "bigint", "smallint", "double", "real",
	"boolean",
	"datetime", "date", "time", "timestamp",
	"json", "jsonb",
	"bytes", "bytea",
	"uuid",
	"money", "serial", "bigserial", "xml", "inet", "cidr", "macaddr",
}

// FilterDataTypes returns catalog entries containing query, ignoring case.
func FilterDataTypes(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(DataTypes))
	for _, t := range DataTypes {
		if strings.Contains(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// TypeDisplay renders a column type for the sidebar. Enum references show
// as enum(<name>).
func (e *Editor) TypeDisplay(dataType string) string {
	id, ok := graph.ParseEnumRef(dataType)
	if !ok {
		return dataType
	}
	if en, found := e.g.Enum(id); found {
		return "enum(" + en.Name + ")"
	}
	return "enum(unknown)"
}
