package sync

import "schemaboard/internal/models"

// StarterSchema is the sample shown when the stored schema cannot be
// loaded, and offered to empty projects.
func StarterSchema() models.SchemaDocument {
	col := func(title, typ string) models.ColumnData {
		return models.ColumnData{Title: title, Type: typ}
	}
	node := func(id, label string, x, y float64, cols ...models.ColumnData) models.Node {
		return models.Node{
			ID:       id,
			Type:     models.NodeTypeDatabaseSchema,
			Position: models.Position{X: x, Y: y},
			Data:     models.NodeData{Label: label, Schema: cols},
		}
	}

	return models.SchemaDocument{
		Nodes: []models.Node{
			node("1", "Products", 0, 0,
				col("id", "uuid"),
				col("name", "varchar"),
				col("description", "varchar"),
				col("warehouse_id", "uuid"),
				col("supplier_id", "uuid"),
				col("price", "money"),
				col("quantity", "int4"),
			),
			node("2", "Warehouses", 350, -100,
				col("id", "uuid"),
				col("name", "varchar"),
				col("address", "varchar"),
				col("capacity", "int4"),
			),
			node("3", "Suppliers", 350, 200,
				col("id", "uuid"),
				col("name", "varchar"),
				col("description", "varchar"),
				col("country", "varchar"),
			),
		},
		Edges: []models.Edge{
			{ID: "products-warehouses", Source: "1", Target: "2", SourceHandle: "warehouse_id", TargetHandle: "id", Type: models.NodeTypeDatabaseSchema},
			{ID: "products-suppliers", Source: "1", Target: "3", SourceHandle: "supplier_id", TargetHandle: "id", Type: models.NodeTypeDatabaseSchema},
		},
		Enums: []models.Enum{},
	}
}
