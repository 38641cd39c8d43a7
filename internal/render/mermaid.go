// Package render turns a schema document into a Mermaid ER diagram.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"schemaboard/internal/models"
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Mermaid renders doc as an erDiagram. Relationships are drawn from the
// referenced table (one) to the referencing table (many); duplicates between
// the same pair of tables collapse into one line.
func Mermaid(doc models.SchemaDocument) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	names := make(map[string]string, len(doc.Nodes))
	for _, n := range doc.Nodes {
		names[n.ID] = entityName(n.Data.Label)
	}
	enums := make(map[string]string, len(doc.Enums))
	for _, e := range doc.Enums {
		enums[e.ID] = e.Name
	}

	// columns holding the source side of an edge
	foreign := make(map[string]bool)
	if len(doc.Edges) > 0 {
		seen := make(map[string]bool)
		for _, e := range doc.Edges {
			from, okFrom := names[e.Target]
			to, okTo := names[e.Source]
			if !okFrom || !okTo {
				continue
			}
			foreign[e.Source+"/"+e.SourceHandle] = true

			key := from + ":" + to
			if seen[key] {
				continue
			}
			seen[key] = true

			label := e.Label
			if label == "" || label == models.RelationshipOneToMany {
				label = e.SourceHandle
			}
			sb.WriteString(fmt.Sprintf("    %s ||--o{ %s : %q\n", from, to, label))
		}
		sb.WriteString("\n")
	}

	for _, n := range doc.Nodes {
		sb.WriteString(fmt.Sprintf("    %s {\n", names[n.ID]))
		for _, col := range n.Data.Schema {
			var keys []string
			if col.IsPrimaryKey {
				keys = append(keys, "PK")
			}
			if foreign[n.ID+"/"+col.Title] {
				keys = append(keys, "FK")
			}
			if col.IsUnique && !col.IsPrimaryKey {
				keys = append(keys, "UK")
			}
			annotations := ""
			if len(keys) > 0 {
				annotations = " " + strings.Join(keys, ", ")
			}
			sb.WriteString(fmt.Sprintf("        %s %s%s\n",
				simplifyDataType(col.Type, enums),
				identifier(col.Title),
				annotations))
		}
		sb.WriteString("    }\n\n")
	}
	return sb.String()
}

func entityName(label string) string {
	return strings.ToUpper(identifier(label))
}

func identifier(s string) string {
	s = strings.Trim(nonIdent.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

// simplifyDataType shortens SQL type names to the single token Mermaid
// accepts as an attribute type.
func simplifyDataType(dataType string, enums map[string]string) string {
	if id, ok := strings.CutPrefix(dataType, "enum:"); ok {
		if name, found := enums[id]; found {
			return identifier(name)
		}
		return "enum"
	}

	dt := strings.ToLower(strings.TrimSpace(dataType))
	switch {
	case dt == "integer", dt == "int4":
		return "int"
	case dt == "int8":
		return "bigint"
	case dt == "int2":
		return "smallint"
	case strings.HasPrefix(dt, "character varying"), strings.HasPrefix(dt, "varchar"):
		return "varchar"
	case strings.HasPrefix(dt, "character"), strings.HasPrefix(dt, "char"):
		return "char"
	case strings.HasPrefix(dt, "timestamp without time zone"):
		return "timestamp"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "time without time zone"):
		return "time"
	case dt == "bool":
		return "boolean"
	case strings.HasPrefix(dt, "numeric"):
		return "numeric"
	case strings.HasPrefix(dt, "decimal"):
		return "decimal"
	case dt == "double precision", dt == "float8":
		return "double"
	case dt == "float4":
		return "real"
	case strings.HasSuffix(dt, "[]"), strings.HasPrefix(dt, "array"):
		return "array"
	case dt == "":
		return "text"
	default:
		return identifier(dt)
	}
}
