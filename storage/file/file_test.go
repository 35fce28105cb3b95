package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"blogger/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(dir)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "posts", []byte(`[{"id":1}]`)))
		got, err := store.Get(ctx, "posts")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, string(got))

		raw, err := os.ReadFile(filepath.Join(dir, "posts"))
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, string(raw))
	})

	t.Run("Overwrite leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(dir)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "posts", []byte("one")))
		require.NoError(t, store.Set(ctx, "posts", []byte("two")))

		got, err := store.Get(ctx, "posts")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Get Not Found", func(t *testing.T) {
		store, err := New(t.TempDir())
		require.NoError(t, err)

		_, err = store.Get(ctx, "posts")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Key is escaped", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(dir)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "../escape", []byte("x")))
		_, err = os.Stat(filepath.Join(dir, "..%2Fescape"))
		assert.NoError(t, err)

		assert.Error(t, store.Set(ctx, "..", []byte("x")))
		_, err = store.Get(ctx, "")
		assert.Error(t, err)
	})

	t.Run("Creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "localStorage")
		_, err := New(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}
