package catalog

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractZip_And_FindByFilename(t *testing.T) {
	zipPath := writeTestZip(t, map[string]string{
		"mug.jpg":        "a",
		"nested/Lid.PNG": "b",
	})

	bundle, err := ExtractZip(zipPath, t.TempDir())
	require.NoError(t, err)

	// Exact relative path.
	path, ok := bundle.FindByFilename("mug.jpg")
	require.True(t, ok)
	assert.FileExists(t, path)

	// Case-insensitive recursive fallback.
	path, ok = bundle.FindByFilename("lid.png")
	require.True(t, ok)
	assert.Contains(t, path, "nested")

	_, ok = bundle.FindByFilename("missing.jpg")
	assert.False(t, ok)
}

func TestExtractZip_RejectsEscapingEntries(t *testing.T) {
	zipPath := writeTestZip(t, map[string]string{
		"../evil.jpg": "x",
	})

	_, err := ExtractZip(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes extraction root")
}

func TestUploadFromBundle_ExtensionAllowList(t *testing.T) {
	zipPath := writeTestZip(t, map[string]string{
		"image.jpg":  "a",
		"script.exe": "b",
	})
	bundle, err := ExtractZip(zipPath, t.TempDir())
	require.NoError(t, err)

	store := &fakeAssetStore{}
	resolver := NewResolver(store, testLogger())
	ctx := context.Background()

	url, err := resolver.UploadFromBundle(ctx, bundle, "image.jpg", "products")
	require.NoError(t, err)
	assert.Contains(t, url, "products/image")

	_, err = resolver.UploadFromBundle(ctx, bundle, "script.exe", "products")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = resolver.UploadFromBundle(ctx, bundle, "absent.jpg", "products")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPublicIDFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://cdn.test/image/upload/v12345/products/mug.jpg", "products/mug"},
		{"https://cdn.test/image/upload/products/mug.png", "products/mug"},
		{"https://cdn.test/image/upload/v1/deep/folder/name.jpeg", "deep/folder/name"},
		{"https://cdn.test/image/upload/mug.jpg", "mug"},
	}
	for _, tc := range cases {
		got, err := PublicIDFromURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, got, tc.url)
	}

	_, err := PublicIDFromURL("https://cdn.test/no-marker/mug.jpg")
	require.Error(t, err)
}

func TestResolverRemove_FailuresAreSwallowed(t *testing.T) {
	store := &fakeAssetStore{}
	resolver := NewResolver(store, testLogger())

	assert.False(t, resolver.Remove(context.Background(), "not-a-usable-url"))
	assert.True(t, resolver.Remove(context.Background(), "https://cdn.test/upload/v1/products/mug.jpg"))
	assert.Equal(t, []string{"products/mug"}, store.destroyed)
}

func TestResolverDuplicate_FallsBackToOriginal(t *testing.T) {
	resolver := NewResolver(&fakeAssetStore{}, testLogger())
	url := "https://cdn.test/upload/v1/products/mug.jpg"
	assert.Equal(t, url+"-copy", resolver.Duplicate(context.Background(), url, "products"))

	failing := &failingDuplicateStore{}
	resolver = NewResolver(failing, testLogger())
	assert.Equal(t, url, resolver.Duplicate(context.Background(), url, "products"))
}

type failingDuplicateStore struct {
	fakeAssetStore
}

func (f *failingDuplicateStore) Duplicate(context.Context, string, string) (string, error) {
	return "", errors.New("remote copy unavailable")
}
