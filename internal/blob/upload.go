package blob

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/dipex/constants"
	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

const octetStream = "application/octet-stream"

// FromUpload reads a multipart file part into a document. An empty part yields an empty
// document, which the pipeline treats like a missing file.
func FromUpload(fh *multipart.FileHeader, maxBytes int64) (entity.RawDocument, error) {
	if fh == nil {
		return entity.RawDocument{}, nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if fh.Size > maxBytes {
		return entity.RawDocument{}, common.ValidationFailed(fmt.Sprintf("file %s exceeds %d bytes", fh.Filename, maxBytes), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return entity.RawDocument{}, common.ValidationFailed("open uploaded file", err)
	}
	defer f.Close()

	data, err := readLimited(f, maxBytes)
	if err != nil {
		return entity.RawDocument{}, err
	}
	if len(data) == 0 {
		return entity.RawDocument{Filename: fh.Filename}, nil
	}
	return imageDocument(data, fh.Header.Get("Content-Type"), fh.Filename, "")
}

// imageDocument accepts data whose declared type is image/*, or whose declared type is
// empty or octet-stream and whose content sniffs as an image.
func imageDocument(data []byte, declared, filename, ref string) (entity.RawDocument, error) {
	mediaType := baseMediaType(declared)
	sniffed := baseMediaType(http.DetectContentType(data))

	switch {
	case constants.IsImageMediaType(mediaType):
	case (mediaType == "" || mediaType == octetStream) && constants.IsImageMediaType(sniffed):
		mediaType = sniffed
	case mediaType == "" || mediaType == octetStream:
		if byExt := mime.TypeByExtension(filepath.Ext(filename)); constants.IsImageMediaType(byExt) && sniffed == octetStream {
			mediaType = baseMediaType(byExt)
			break
		}
		return entity.RawDocument{}, common.ValidationFailed(fmt.Sprintf("%s is not an image (%s)", displayName(filename), sniffed), nil)
	default:
		return entity.RawDocument{}, common.ValidationFailed(fmt.Sprintf("%s is not an image (%s)", displayName(filename), mediaType), nil)
	}

	doc := entity.RawDocument{Bytes: data, MediaType: mediaType, Ref: ref}
	if filename != "" {
		doc.Filename = filepath.Base(filename)
	}
	return doc, nil
}

func baseMediaType(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func displayName(name string) string {
	if name == "" {
		return "upload"
	}
	return filepath.Base(name)
}
