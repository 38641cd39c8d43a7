package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaboard/internal/errs"
	"schemaboard/internal/interaction"
	"schemaboard/internal/models"
	schemasync "schemaboard/internal/sync"
	"schemaboard/internal/utils"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, doc models.SchemaDocument) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, writeDocument(f, path, "", doc))
	require.NoError(t, f.Close())
	return path
}

func TestDocumentRoundTrip(t *testing.T) {
	starter := schemasync.StarterSchema()
	for _, name := range []string{"schema.yaml", "schema.json"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, starter)
			got, err := readDocument(path, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(starter, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadDocumentStdin(t *testing.T) {
	doc, err := readDocument("-", strings.NewReader(`  {"nodes":[{"id":"a","data":{"label":"A","schema":[]}}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.NotNil(t, doc.Edges)

	_, err = readDocument("-", strings.NewReader("nodes: [unterminated"))
	assert.Error(t, err)
}

func TestWriteDocumentUnknownFormat(t *testing.T) {
	err := writeDocument(&bytes.Buffer{}, "", "toml", models.EmptyDocument())
	assert.ErrorContains(t, err, "unknown format")
}

func TestLayoutCommand(t *testing.T) {
	doc := schemasync.StarterSchema()
	for i := range doc.Nodes {
		doc.Nodes[i].Position = models.Position{}
	}
	in := writeFile(t, "in.yaml", doc)
	out := filepath.Join(t.TempDir(), "out.json")

	_, err := run(t, "", "layout", "-i", in, "-o", out)
	require.NoError(t, err)

	laid, err := readDocument(out, nil)
	require.NoError(t, err)
	require.Len(t, laid.Nodes, 3)
	require.Len(t, laid.Edges, 2)

	pos := map[string]models.Position{}
	for _, n := range laid.Nodes {
		pos[n.Data.Label] = n.Position
	}
	// referencing tables sit left of the tables they reference
	assert.Less(t, pos["Products"].X, pos["Warehouses"].X)
	assert.Less(t, pos["Products"].X, pos["Suppliers"].X)
	assert.NotEqual(t, pos["Warehouses"].Y, pos["Suppliers"].Y)
}

func TestMermaidCommandLocal(t *testing.T) {
	in := writeFile(t, "in.json", schemasync.StarterSchema())
	out, err := run(t, "", "mermaid", "-i", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "erDiagram"), out)
	assert.Contains(t, out, "PRODUCTS")

	_, err = run(t, "", "mermaid")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	user := uuid.New()
	out, err := run(t, "", "token", "--user", user.String(), "--secret", "s3cret", "--ttl", "1m")
	require.NoError(t, err)

	claims, err := utils.VerifyJWT(strings.TrimSpace(out), []byte("s3cret"))
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = run(t, "", "token", "--secret", "")
	assert.Error(t, err)
	_, err = run(t, "", "token", "--user", "nope", "--secret", "x")
	assert.Error(t, err)
}

// fakeAPI serves one project's schema the way the API does.
type fakeAPI struct {
	doc  models.SchemaDocument
	puts []models.SchemaDocument
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := func(data any) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/projects/p1/schema":
			reply(f.doc)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/projects/p1/schema":
			var doc models.SchemaDocument
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			f.puts = append(f.puts, doc)
			f.doc = doc
			f.doc.Version = int64(len(f.puts) + 1)
			reply(schemasync.SaveResult{Version: f.doc.Version})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "project not found", "error": "project not found"})
		}
	})
}

func serve(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{doc: schemasync.StarterSchema()}
	api.doc.Version = 1
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return api, srv.URL
}

func TestPullAndPush(t *testing.T) {
	api, url := serve(t)
	out := filepath.Join(t.TempDir(), "pulled.yaml")

	_, err := run(t, "", "--server", url, "pull", "p1", "-o", out)
	require.NoError(t, err)
	pulled, err := readDocument(out, nil)
	require.NoError(t, err)
	assert.Len(t, pulled.Nodes, 3)
	assert.Equal(t, int64(1), pulled.Version)

	stdout, err := run(t, "", "--server", url, "push", "p1", "-f", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved version 2")
	require.Len(t, api.puts, 1)
	assert.Len(t, api.puts[0].Nodes, 3)

	_, err = run(t, "", "--server", url, "pull", "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestAddTableCommand(t *testing.T) {
	api, url := serve(t)

	stdout, err := run(t, "", "--server", url, "add-table", "p1", "Orders", "-c", "id:uuid", "-c", "total")
	require.NoError(t, err)
	assert.Contains(t, stdout, "added table Orders")
	require.Len(t, api.puts, 1)

	saved := api.puts[0]
	require.Len(t, saved.Nodes, 4)
	orders := saved.Nodes[3]
	assert.Equal(t, "Orders", orders.Data.Label)
	require.Len(t, orders.Data.Schema, 2)
	assert.Equal(t, "uuid", orders.Data.Schema[0].Type)
	assert.Equal(t, "varchar", orders.Data.Schema[1].Type)
}

func TestConnectCommand(t *testing.T) {
	api, url := serve(t)

	stdout, err := run(t, "", "--server", url, "connect", "p1", "warehouses.id", "Products.warehouse_id")
	require.NoError(t, err)
	assert.Contains(t, stdout, "connected Warehouses_id_Products")
	require.Len(t, api.puts, 1)
	assert.Len(t, api.puts[0].Edges, 3)

	// the target handle already has an inbound relationship
	_, err = run(t, "", "--server", url, "connect", "p1", "Products.supplier_id", "Suppliers.id")
	assert.ErrorIs(t, err, interaction.ErrConnectionRejected)
	assert.Len(t, api.puts, 1)

	_, err = run(t, "", "--server", url, "connect", "p1", "Nowhere.id", "Products.id")
	assert.Error(t, err)
	_, err = run(t, "", "--server", url, "connect", "p1", "Products", "Suppliers.id")
	assert.Error(t, err)
}
