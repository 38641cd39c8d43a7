package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"schemaboard/internal/models"
)

// readDocument reads a schema document in JSON or YAML. "-" reads stdin.
func readDocument(path string, stdin io.Reader) (models.SchemaDocument, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return models.SchemaDocument{}, err
	}

	var doc models.SchemaDocument
	// documents starting with { are JSON
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(raw, &doc)
	} else {
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return models.SchemaDocument{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Nodes == nil {
		doc.Nodes = []models.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []models.Edge{}
	}
	return doc, nil
}

// writeDocument writes doc as yaml or json. The format defaults to the
// output file's extension, then yaml.
func writeDocument(w io.Writer, path, format string, doc models.SchemaDocument) error {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			format = "json"
		default:
			format = "yaml"
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
}

// output opens path for writing, or returns stdout for "" and "-".
func output(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
