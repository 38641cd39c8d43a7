package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"schemaboard/internal/errs"
	"schemaboard/internal/models"
)

// SchemaCacheRepository keeps decoded schema documents in redis so reads
// skip the row queries. Entries are keyed by project and schema version, so
// a document loaded before a save can never answer for the saved version.
// Superseded versions age out with the TTL.
type SchemaCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSchemaCacheRepository(rdb *redis.Client, ttl time.Duration) *SchemaCacheRepository {
	return &SchemaCacheRepository{rdb: rdb, ttl: ttl}
}

func schemaCacheKey(projectID uuid.UUID, version int64) string {
	return "schema:" + projectID.String() + ":v" + strconv.FormatInt(version, 10)
}

// Get returns the cached document for version, or nil on a miss.
func (r *SchemaCacheRepository) Get(ctx context.Context, projectID uuid.UUID, version int64) (*models.SchemaDocument, error) {
	raw, err := r.rdb.Get(ctx, schemaCacheKey(projectID, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "read schema cache", err)
	}
	var doc models.SchemaDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// a corrupt entry is treated as a miss and overwritten on the next read
		return nil, nil
	}
	return &doc, nil
}

// Set stores doc under its own version.
func (r *SchemaCacheRepository) Set(ctx context.Context, projectID uuid.UUID, doc models.SchemaDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "encode schema cache entry", err)
	}
	if err := r.rdb.Set(ctx, schemaCacheKey(projectID, doc.Version), raw, r.ttl).Err(); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "write schema cache", err)
	}
	return nil
}
