package services

import (
	"context"

	"github.com/google/uuid"

	"schemaboard/internal/codec"
	"schemaboard/internal/errs"
	"schemaboard/internal/logger"
	"schemaboard/internal/models"
	"schemaboard/internal/render"
	schemasync "schemaboard/internal/sync"
)

// SchemaStore persists the row form of a schema.
type SchemaStore interface {
	Replace(ctx context.Context, s *models.StoredSchema) (int64, error)
	Load(ctx context.Context, projectID uuid.UUID) (*models.StoredSchema, error)
	Version(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// SchemaCache holds decoded documents per version. Get returns nil on a
// miss. Set stores under doc.Version.
type SchemaCache interface {
	Get(ctx context.Context, projectID uuid.UUID, version int64) (*models.SchemaDocument, error)
	Set(ctx context.Context, projectID uuid.UUID, doc models.SchemaDocument) error
}

// SnapshotArchive keeps every saved version.
type SnapshotArchive interface {
	Put(ctx context.Context, projectID uuid.UUID, version int64, doc models.SchemaDocument) error
	Get(ctx context.Context, projectID uuid.UUID, version int64) (*models.SchemaDocument, error)
}

type SchemaService struct {
	roles     roleGetter
	schemas   SchemaStore
	cache     SchemaCache
	snapshots SnapshotArchive
	log       *logger.Logger
}

type SchemaOption func(*SchemaService)

// WithCache enables the read cache.
func WithCache(c SchemaCache) SchemaOption {
	return func(s *SchemaService) { s.cache = c }
}

// WithSnapshots enables version archiving.
func WithSnapshots(a SnapshotArchive) SchemaOption {
	return func(s *SchemaService) { s.snapshots = a }
}

func NewSchemaService(projects ProjectStore, schemas SchemaStore, log *logger.Logger, opts ...SchemaOption) *SchemaService {
	s := &SchemaService{roles: projects, schemas: schemas, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSchema returns the project's schema in graph form. Any collaborator
// may read it. Nodes come back at the origin.
func (s *SchemaService) GetSchema(ctx context.Context, userID, projectID string) (models.SchemaDocument, error) {
	pid, err := authorize(ctx, s.roles, userID, projectID, anyRole)
	if err != nil {
		return models.SchemaDocument{}, err
	}
	return s.load(ctx, pid)
}

func (s *SchemaService) load(ctx context.Context, pid uuid.UUID) (models.SchemaDocument, error) {
	if s.cache != nil {
		if doc, ok := s.cached(ctx, pid); ok {
			return doc, nil
		}
	}

	stored, err := s.schemas.Load(ctx, pid)
	if err != nil {
		return models.SchemaDocument{}, err
	}
	if stored == nil {
		return models.SchemaDocument{}, errs.New(errs.ErrKindNotFound, "project not found")
	}
	doc := codec.Decode(stored)
	doc.Version = stored.Version

	s.fill(ctx, pid, doc)
	return doc, nil
}

// cached looks up the document for the project's current version.
func (s *SchemaService) cached(ctx context.Context, pid uuid.UUID) (models.SchemaDocument, bool) {
	version, err := s.schemas.Version(ctx, pid)
	if err != nil {
		logger.FromContext(ctx, s.log).WarnWith("schema version lookup failed", map[string]any{"project_id": pid.String(), "error": err.Error()})
		return models.SchemaDocument{}, false
	}
	doc, err := s.cache.Get(ctx, pid, version)
	if err != nil {
		logger.FromContext(ctx, s.log).WarnWith("schema cache read failed", map[string]any{"project_id": pid.String(), "error": err.Error()})
		return models.SchemaDocument{}, false
	}
	if doc == nil {
		return models.SchemaDocument{}, false
	}
	return *doc, true
}

func (s *SchemaService) fill(ctx context.Context, pid uuid.UUID, doc models.SchemaDocument) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, pid, doc); err != nil {
		logger.FromContext(ctx, s.log).WarnWith("schema cache write failed", map[string]any{"project_id": pid.String(), "error": err.Error()})
	}
}

// SaveSchema replaces the project's schema with doc. Only admins and editors
// may save. Edges whose endpoints do not resolve are dropped and reported
// in the result.
func (s *SchemaService) SaveSchema(ctx context.Context, userID, projectID string, doc models.SchemaDocument) (schemasync.SaveResult, error) {
	pid, err := authorize(ctx, s.roles, userID, projectID, models.CanEditSchema)
	if err != nil {
		return schemasync.SaveResult{}, err
	}
	if err := codec.Validate(doc); err != nil {
		return schemasync.SaveResult{}, err
	}

	stored, diags := codec.Encode(doc, pid)
	version, err := s.schemas.Replace(ctx, stored)
	if err != nil {
		return schemasync.SaveResult{}, err
	}

	log := logger.FromContext(ctx, s.log)
	fields := map[string]any{"project_id": pid.String(), "version": version}
	for _, d := range diags {
		log.WarnWith("schema saved with dropped element", map[string]any{
			"project_id": pid.String(), "kind": string(d.Kind), "subject": d.Subject, "detail": d.Message,
		})
	}

	// cache and archive what was stored, not what was sent
	saved := codec.Decode(stored)
	saved.Version = version
	s.fill(ctx, pid, saved)
	if s.snapshots != nil {
		if err := s.snapshots.Put(ctx, pid, version, saved); err != nil {
			log.ErrorWith("schema snapshot failed", err, fields)
		}
	}

	log.InfoWith("schema saved", fields)
	return schemasync.SaveResult{Version: version, Diagnostics: diags}, nil
}

// GetSnapshot returns an archived version of the schema.
func (s *SchemaService) GetSnapshot(ctx context.Context, userID, projectID string, version int64) (models.SchemaDocument, error) {
	pid, err := authorize(ctx, s.roles, userID, projectID, anyRole)
	if err != nil {
		return models.SchemaDocument{}, err
	}
	if s.snapshots == nil {
		return models.SchemaDocument{}, errs.New(errs.ErrKindNotFound, "schema snapshots are not enabled")
	}
	if version < 1 {
		return models.SchemaDocument{}, errs.Newf(errs.ErrKindInvalidInput, "invalid version %d", version)
	}
	doc, err := s.snapshots.Get(ctx, pid, version)
	if err != nil {
		return models.SchemaDocument{}, err
	}
	return *doc, nil
}

// GetMermaid renders the stored schema as a Mermaid ER diagram.
func (s *SchemaService) GetMermaid(ctx context.Context, userID, projectID string) (string, error) {
	doc, err := s.GetSchema(ctx, userID, projectID)
	if err != nil {
		return "", err
	}
	return render.Mermaid(doc), nil
}
