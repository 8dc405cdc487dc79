package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNameKeepsExtension(t *testing.T) {
	name := ObjectName("/conv-1/", "Measurements.PDF")

	assert.True(t, strings.HasPrefix(name, "chat/conv-1/"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotEqual(t, name, ObjectName("conv-1", "Measurements.PDF"))
}

func TestObjectNameWithoutExtension(t *testing.T) {
	assert.True(t, strings.HasSuffix(ObjectName("c", "notes"), ".bin"))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("http://localhost/files")

	res, err := store.UploadFile(context.Background(), strings.NewReader("hello"), "text/plain", "a.txt", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Size)
	assert.Equal(t, "http://localhost/files/"+res.ObjectName, res.URL)

	data, contentType, ok := store.Get(res.ObjectName)
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "text/plain", contentType)

	require.NoError(t, store.DeleteFile(context.Background(), res.ObjectName))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreCancelledUploadStoresNothing(t *testing.T) {
	store := NewMemoryStore("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.UploadFile(ctx, strings.NewReader("hello"), "text/plain", "a.txt", "c1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}
