package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaboard/internal/codec"
	"schemaboard/internal/errs"
	"schemaboard/internal/handlers"
	"schemaboard/internal/models"
	"schemaboard/internal/services"
	schemasync "schemaboard/internal/sync"
	"schemaboard/internal/utils"
)

var secret = []byte("routes-secret")

type fakeProjectService struct {
	lastUser   string
	lastFilter models.ProjectFilter
}

func (f *fakeProjectService) CreateProject(_ context.Context, userID string, req services.CreateProjectRequest) (*models.Project, error) {
	f.lastUser = userID
	return &models.Project{ID: uuid.New(), Title: req.Title, Role: models.RoleAdmin}, nil
}

func (f *fakeProjectService) ListProjects(_ context.Context, userID string, filter models.ProjectFilter) (*services.ProjectList, error) {
	f.lastUser, f.lastFilter = userID, filter
	return &services.ProjectList{Projects: []models.Project{}}, nil
}

func (f *fakeProjectService) GetProject(_ context.Context, _, projectID string) (*models.Project, error) {
	return nil, errs.New(errs.ErrKindNotFound, "project not found")
}

func (f *fakeProjectService) AddCollaborator(_ context.Context, _, _ string, req services.AddCollaboratorRequest) (*models.Collaborator, error) {
	return nil, errs.New(errs.ErrKindPermissionDenied, "role viewer may not perform this action")
}

type fakeSchemaService struct {
	saved    *models.SchemaDocument
	saveErr  error
	versions map[int64]models.SchemaDocument
}

func (f *fakeSchemaService) GetSchema(context.Context, string, string) (models.SchemaDocument, error) {
	doc := schemasync.StarterSchema()
	doc.Version = 3
	return doc, nil
}

func (f *fakeSchemaService) SaveSchema(_ context.Context, _, _ string, doc models.SchemaDocument) (schemasync.SaveResult, error) {
	if f.saveErr != nil {
		return schemasync.SaveResult{}, f.saveErr
	}
	f.saved = &doc
	return schemasync.SaveResult{Version: 4, Diagnostics: []codec.Diagnostic{{Kind: codec.DiagnosticEdgeDropped, Subject: "e9"}}}, nil
}

func (f *fakeSchemaService) GetSnapshot(_ context.Context, _, _ string, version int64) (models.SchemaDocument, error) {
	doc, ok := f.versions[version]
	if !ok {
		return models.SchemaDocument{}, errs.New(errs.ErrKindNotFound, "snapshot not found")
	}
	return doc, nil
}

func (f *fakeSchemaService) GetMermaid(context.Context, string, string) (string, error) {
	return "erDiagram\n", nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setup(t *testing.T) (*gin.Engine, *fakeProjectService, *fakeSchemaService, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	projects := &fakeProjectService{}
	schemas := &fakeSchemaService{versions: map[int64]models.SchemaDocument{}}

	r := gin.New()
	RegisterRoutes(r, secret, handlers.NewProjectHandler(projects), handlers.NewSchemaHandler(schemas))

	token, err := utils.GenerateAccessToken(uuid.New(), secret, time.Minute)
	require.NoError(t, err)
	return r, projects, schemas, token
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHealth(t *testing.T) {
	r, _, _, _ := setup(t)
	w, _ := do(t, r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoutesRequireToken(t *testing.T) {
	r, _, _, _ := setup(t)
	pid := uuid.NewString()
	for _, path := range []string{"/api/v1/projects", "/api/v1/projects/" + pid + "/schema"} {
		w, _ := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestGetSchema(t *testing.T) {
	r, _, _, token := setup(t)
	w, env := do(t, r, http.MethodGet, "/api/v1/projects/"+uuid.NewString()+"/schema", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc models.SchemaDocument
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Len(t, doc.Nodes, 3)
	assert.Equal(t, int64(3), doc.Version)
}

func TestSaveSchema(t *testing.T) {
	r, _, schemas, token := setup(t)
	path := "/api/v1/projects/" + uuid.NewString() + "/schema"

	w, env := do(t, r, http.MethodPut, path, token, schemasync.StarterSchema())
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, schemas.saved)
	assert.Len(t, schemas.saved.Nodes, 3)

	var res schemasync.SaveResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, int64(4), res.Version)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "e9", res.Diagnostics[0].Subject)

	schemas.saved = nil
	w, env = do(t, r, http.MethodPut, path, token, `{"edges":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid schema data", env.Message)
	assert.Nil(t, schemas.saved)

	w, _ = do(t, r, http.MethodPut, path, token, `{"nodes":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	schemas.saveErr = errs.New(errs.ErrKindPermissionDenied, "role viewer may not perform this action")
	w, _ = do(t, r, http.MethodPut, path, token, schemasync.StarterSchema())
	assert.Equal(t, http.StatusForbidden, w.Code)

	schemas.saveErr = errs.Wrap(errs.ErrKindConnectionFailed, "begin schema replace", assert.AnError)
	w, env = do(t, r, http.MethodPut, path, token, schemasync.StarterSchema())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connection_failed", env.Error)
}

func TestSnapshotAndMermaid(t *testing.T) {
	r, _, schemas, token := setup(t)
	base := "/api/v1/projects/" + uuid.NewString() + "/schema"
	schemas.versions[2] = models.EmptyDocument()

	w, _ := do(t, r, http.MethodGet, base+"/versions/2", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, base+"/versions/7", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodGet, base+"/versions/latest", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodGet, base+"/mermaid", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mermaid":"erDiagram\n"}`, string(env.Data))
}

func TestProjectRoutes(t *testing.T) {
	r, projects, _, token := setup(t)

	w, _ := do(t, r, http.MethodPost, "/api/v1/projects", token, map[string]string{"title": "Inventory"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, projects.lastUser)

	w, _ = do(t, r, http.MethodPost, "/api/v1/projects", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects?search=inv&dateOrder=asc&nameOrder=desc&page=2&limit=5", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ProjectFilter{
		Search: "inv", DateOrder: "asc", NameOrder: "desc", Page: 2, Limit: 5,
	}, projects.lastFilter)

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/projects/"+uuid.NewString()+"/collaborators", token,
		map[string]string{"user_id": uuid.NewString(), "role": "editor"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
