package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/joseph-ayodele/dipex/internal/common"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), []byte("\x00\x00\x00\rIHDR\x00\x00\x00\x01")...)

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

func TestFromUpload(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantType    string
		wantErr     bool
	}{
		{name: "declared png", filename: "shot.png", contentType: "image/png", data: pngBytes, wantType: "image/png"},
		{name: "octet stream sniffed as png", filename: "shot.bin", contentType: "application/octet-stream", data: pngBytes, wantType: "image/png"},
		{name: "no content type sniffed", filename: "shot", data: pngBytes, wantType: "image/png"},
		{name: "declared params stripped", filename: "shot.jpg", contentType: "image/jpeg; q=1", data: pngBytes, wantType: "image/jpeg"},
		{name: "text rejected", filename: "notes.txt", contentType: "text/plain", data: []byte("hello world"), wantErr: true},
		{name: "octet stream text rejected", filename: "notes.txt", contentType: "application/octet-stream", data: []byte("hello world"), wantErr: true},
		{name: "pdf rejected", filename: "r.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := FromUpload(fileHeader(t, tt.filename, tt.contentType, tt.data), 1<<20)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, doc.MediaType)
			assert.Equal(t, tt.data, doc.Bytes)
			assert.Equal(t, tt.filename, doc.Filename)
		})
	}
}

func TestFromUpload_EmptyPartIsEmptyDocument(t *testing.T) {
	doc, err := FromUpload(fileHeader(t, "empty.png", "image/png", nil), 1<<20)
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
}

func TestFromUpload_TooLarge(t *testing.T) {
	_, err := FromUpload(fileHeader(t, "big.png", "image/png", pngBytes), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestFromUpload_NilHeader(t *testing.T) {
	doc, err := FromUpload(nil, 0)
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
}

type fakeOpener struct {
	objects map[string][]byte
	err     error
	calls   []string
}

func (f *fakeOpener) Open(_ context.Context, bucket, object string) (io.ReadCloser, string, error) {
	f.calls = append(f.calls, bucket+"/"+object)
	if f.err != nil {
		return nil, "", f.err
	}
	data, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, "", storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

func TestResolver_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	r := NewResolver(Config{}, nil)
	doc, err := r.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, doc.Bytes)
	assert.Equal(t, "image/png", doc.MediaType)
	assert.Equal(t, "receipt.png", doc.Filename)
	assert.Equal(t, path, doc.Ref)
}

func TestResolver_LocalFileNotImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o600))

	_, err := NewResolver(Config{}, nil).Load(context.Background(), path)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestResolver_MissingLocalFile(t *testing.T) {
	_, err := NewResolver(Config{}, nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestResolver_GCS(t *testing.T) {
	opener := &fakeOpener{objects: map[string][]byte{"shots/2025/a.png": pngBytes}}
	r := NewResolver(Config{}, nil, WithObjectOpener(opener))

	doc, err := r.Load(context.Background(), "gs://shots/2025/a.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, doc.Bytes)
	assert.Equal(t, "image/png", doc.MediaType)
	assert.Equal(t, "a.png", doc.Filename)
	assert.Equal(t, []string{"shots/2025/a.png"}, opener.calls)
}

func TestResolver_BareNameUsesBucket(t *testing.T) {
	opener := &fakeOpener{objects: map[string][]byte{"shots/missing-locally.png": pngBytes}}
	r := NewResolver(Config{Bucket: "shots"}, nil, WithObjectOpener(opener))

	doc, err := r.Load(context.Background(), "missing-locally.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, doc.Bytes)
}

func TestResolver_GCSErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "object missing", err: storage.ErrObjectNotExist, want: common.ErrNotFound},
		{name: "api 404", err: &googleapi.Error{Code: 404}, want: common.ErrNotFound},
		{name: "api 403", err: &googleapi.Error{Code: 403}, want: common.ErrStorage},
		{name: "network", err: errors.New("connection reset"), want: common.ErrStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(Config{}, nil, WithObjectOpener(&fakeOpener{err: tt.err}))
			_, err := r.Load(context.Background(), "gs://b/o.png")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestResolver_TooLarge(t *testing.T) {
	opener := &fakeOpener{objects: map[string][]byte{"b/o.png": pngBytes}}
	r := NewResolver(Config{MaxBytes: 8}, nil, WithObjectOpener(opener))
	_, err := r.Load(context.Background(), "gs://b/o.png")
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestParseGCSRef(t *testing.T) {
	bucket, object, err := ParseGCSRef("gs://bucket/dir/file.png")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "dir/file.png", object)

	for _, bad := range []string{"gs://bucket", "gs:///file.png", "gs://bucket/", "s3://bucket/file.png"} {
		_, _, err := ParseGCSRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolver_EmptyRef(t *testing.T) {
	_, err := NewResolver(Config{}, nil).Load(context.Background(), "  ")
	assert.True(t, errors.Is(err, common.ErrValidation))
}
