package content

import (
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/samber/lo"
)

// supportedTypes maps accepted MIME types to their file extensions.
var supportedTypes = map[string][]string{
	"text/plain":      {".txt"},
	"text/markdown":   {".md"},
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"image/webp":      {".webp"},
	"application/pdf": {".pdf"},
}

// Extensions lists every accepted file extension, sorted.
func Extensions() []string {
	exts := lo.Flatten(lo.Values(supportedTypes))
	slices.Sort(exts)
	return exts
}

// IsText reports whether mime is one of the accepted text types.
func IsText(mime string) bool {
	return strings.HasPrefix(mime, "text/")
}

// DetectMIME returns the accepted MIME type of a file, by extension first
// and by sniffing data when the extension is unknown.
func DetectMIME(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	for mime, exts := range supportedTypes {
		if slices.Contains(exts, ext) {
			return mime, nil
		}
	}

	sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if _, ok := supportedTypes[sniffed]; ok {
		return sniffed, nil
	}
	return "", fmt.Errorf("%w: unsupported file type %q, accepted: %s", common.ErrValidation, filepath.Base(name), strings.Join(Extensions(), ", "))
}
