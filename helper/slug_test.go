package helper

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1718000000000)

	key := ObjectKey("orders/", "Final Draft (v2).PDF", now)
	assert.Regexp(t, regexp.MustCompile(`^orders/1718000000000-[0-9a-f]{8}-final-draft-v2\.pdf$`), key)

	assert.NotEqual(t, key, ObjectKey("orders", "Final Draft (v2).PDF", now))
	assert.Regexp(t, `^avatars/1718000000000-[0-9a-f]{8}-file$`, ObjectKey("avatars", "!!!", now))
}

func TestPublicID(t *testing.T) {
	assert.Equal(t, "orders/1718000000000-ab12cd34-essay", PublicID("orders/1718000000000-ab12cd34-essay.pdf"))
	assert.Equal(t, "avatars/x/photo", PublicID("/avatars/x/photo.png"))
	assert.Equal(t, "notes", PublicID("notes"))
}
