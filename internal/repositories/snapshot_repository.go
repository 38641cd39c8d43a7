package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"schemaboard/internal/config"
	"schemaboard/internal/errs"
	"schemaboard/internal/models"
)

// SnapshotRepository archives every saved schema version as a JSON object
// in MinIO under projects/<id>/schema/v<version>.json.
type SnapshotRepository struct {
	client *minio.Client
	bucket string
}

// NewSnapshotRepository connects to MinIO and creates the bucket if needed.
func NewSnapshotRepository(ctx context.Context, cfg config.MinIOConfig) (*SnapshotRepository, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "create minio client", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapMinioError(err, "check snapshot bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, mapMinioError(err, "create snapshot bucket")
		}
	}
	return &SnapshotRepository{client: client, bucket: cfg.Bucket}, nil
}

func snapshotKey(projectID uuid.UUID, version int64) string {
	return fmt.Sprintf("projects/%s/schema/v%d.json", projectID, version)
}

// Put stores doc as the given version of the project's schema.
func (r *SnapshotRepository) Put(ctx context.Context, projectID uuid.UUID, version int64, doc models.SchemaDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "encode snapshot", err)
	}
	_, err = r.client.PutObject(ctx, r.bucket, snapshotKey(projectID, version), bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return mapMinioError(err, "put snapshot")
	}
	return nil
}

// Get returns an archived version. A missing version is an errs NotFound.
func (r *SnapshotRepository) Get(ctx context.Context, projectID uuid.UUID, version int64) (*models.SchemaDocument, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, snapshotKey(projectID, version), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioError(err, "get snapshot")
	}
	defer obj.Close()

	var doc models.SchemaDocument
	// GetObject is lazy; a missing key surfaces on the first read
	if err := json.NewDecoder(obj).Decode(&doc); err != nil {
		return nil, mapMinioError(err, "read snapshot")
	}
	return &doc, nil
}

func mapMinioError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey":
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
