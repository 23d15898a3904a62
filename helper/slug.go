package helper

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ObjectKey builds a storage key prefixed with the upload time so listings
// sort chronologically, e.g. orders/1718000000000-1a2b3c4d-final-draft.pdf.
func ObjectKey(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s-%s%s", strings.Trim(prefix, "/"), now.UnixMilli(), short, base, ext)
}
