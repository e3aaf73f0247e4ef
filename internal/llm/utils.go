package llm

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// MaxVisionBytes caps the image size sent to a remote model.
const MaxVisionBytes = 8 << 20

// DetectMediaType prefers the declared image type and falls back to sniffing.
func DetectMediaType(img []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if strings.HasPrefix(declared, "image/") {
		if i := strings.IndexByte(declared, ';'); i >= 0 {
			declared = strings.TrimSpace(declared[:i])
		}
		return declared
	}
	return http.DetectContentType(img)
}

// DataURL encodes img for the image_url content part.
func DataURL(img []byte, mediaType string) string {
	return "data:" + DetectMediaType(img, mediaType) + ";base64," + base64.StdEncoding.EncodeToString(img)
}
