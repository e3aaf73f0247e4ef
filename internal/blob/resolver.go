// Package blob turns uploads and stored references into raw documents for the pipeline.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

const (
	gcsScheme = "gs://"

	// DefaultMaxBytes caps a single document when no limit is configured.
	DefaultMaxBytes int64 = 10 << 20
)

// ObjectOpener opens a stored object and reports its content type.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, string, error)
}

// Config configures a Resolver.
type Config struct {
	// Bucket is used for references that are neither gs:// URLs nor local files.
	Bucket   string
	MaxBytes int64
}

// Resolver loads documents from gs:// references or local paths.
type Resolver struct {
	cfg  Config
	log  *slog.Logger
	once sync.Once
	gcs  ObjectOpener
	err  error
}

type Option func(*Resolver)

// WithObjectOpener replaces the lazily created Cloud Storage client.
func WithObjectOpener(o ObjectOpener) Option {
	return func(r *Resolver) { r.gcs = o }
}

func NewResolver(cfg Config, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	r := &Resolver{cfg: cfg, log: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load resolves ref. Missing objects and files are NotFound; non-images are ValidationError.
func (r *Resolver) Load(ctx context.Context, ref string) (entity.RawDocument, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return entity.RawDocument{}, common.ValidationFailed("empty document reference", nil)
	}

	if strings.HasPrefix(ref, gcsScheme) {
		bucket, object, err := ParseGCSRef(ref)
		if err != nil {
			return entity.RawDocument{}, err
		}
		return r.loadObject(ctx, bucket, object, ref)
	}

	doc, err := r.loadFile(ref)
	if err == nil || !errors.Is(err, common.ErrNotFound) || r.cfg.Bucket == "" {
		return doc, err
	}
	return r.loadObject(ctx, r.cfg.Bucket, ref, ref)
}

func (r *Resolver) loadFile(path string) (entity.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.RawDocument{}, common.NotFoundError(fmt.Sprintf("document %s not found", path))
		}
		return entity.RawDocument{}, common.StorageFailure("open document", err)
	}
	defer f.Close()

	data, err := readLimited(f, r.cfg.MaxBytes)
	if err != nil {
		return entity.RawDocument{}, err
	}
	return imageDocument(data, "", path, path)
}

func (r *Resolver) loadObject(ctx context.Context, bucket, object, ref string) (entity.RawDocument, error) {
	opener, err := r.opener(ctx)
	if err != nil {
		return entity.RawDocument{}, common.StorageFailure("create storage client", err)
	}

	rc, contentType, err := opener.Open(ctx, bucket, object)
	if err != nil {
		if isNotExist(err) {
			return entity.RawDocument{}, common.NotFoundError(fmt.Sprintf("object %s not found", ref))
		}
		r.log.Warn("blob.gcs.open.failed", "bucket", bucket, "object", object, "error", err)
		return entity.RawDocument{}, common.StorageFailure("open GCS object", err)
	}
	defer rc.Close()

	data, err := readLimited(rc, r.cfg.MaxBytes)
	if err != nil {
		return entity.RawDocument{}, err
	}
	r.log.Debug("blob.gcs.loaded", "bucket", bucket, "object", object, "bytes", len(data))
	return imageDocument(data, contentType, object, ref)
}

func (r *Resolver) opener(ctx context.Context) (ObjectOpener, error) {
	r.once.Do(func() {
		if r.gcs != nil {
			return
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			r.err = err
			return
		}
		r.gcs = &gcsOpener{client: client}
	})
	return r.gcs, r.err
}

// Close releases the storage client if one was created.
func (r *Resolver) Close() error {
	if c, ok := r.gcs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ParseGCSRef splits gs://bucket/object.
func ParseGCSRef(ref string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(ref, gcsScheme)
	if !ok {
		return "", "", common.ValidationFailed(fmt.Sprintf("not a gs:// reference: %q", ref), nil)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", common.ValidationFailed(fmt.Sprintf("malformed gs:// reference: %q", ref), nil)
	}
	return bucket, object, nil
}

type gcsOpener struct {
	client *storage.Client
}

func (g *gcsOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, string, error) {
	rd, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, "", err
	}
	return rd, rd.Attrs.ContentType, nil
}

func (g *gcsOpener) Close() error {
	return g.client.Close()
}

func isNotExist(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, common.StorageFailure("read document", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, common.ValidationFailed(fmt.Sprintf("document exceeds %d bytes", maxBytes), nil)
	}
	return data, nil
}
