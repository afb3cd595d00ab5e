package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SaveAndOpen(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	bookingID := uuid.New()
	ref, err := store.Save(context.Background(), bookingID, "passport.JPG", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, bookingID.String()+"/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	rc, err := store.Open(context.Background(), ref)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(content))
}

func TestDiskStore_RejectsTraversalRefs(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"../etc/passwd", "/etc/passwd", "a/../../etc/passwd"} {
		_, err := store.Open(context.Background(), ref)
		assert.Error(t, err, ref)
	}
}
