package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
)

func TestLocalImageStore_SaveAndDelete(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "charts")
	s, err := NewLocalImageStore(dir)
	require.NoError(t, err)

	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f")
	s.newID = func() uuid.UUID { return id }

	path, err := s.Save(context.Background(), []byte("jpeg bytes"), entity.ContentTypeJPEG)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, id.String()+".jpg"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Delete(context.Background(), path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// 二度目の削除はエラーにしない
	assert.NoError(t, s.Delete(context.Background(), path))
}

func TestLocalImageStore_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewLocalImageStore(dir)
	require.NoError(t, err)

	t.Run("error: unsupported content type", func(t *testing.T) {
		_, err := s.Save(context.Background(), []byte("x"), entity.ContentType("image/bmp"))
		assert.Error(t, err)
	})

	t.Run("error: cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Save(ctx, []byte("x"), entity.ContentTypePNG)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("error: delete outside the dir", func(t *testing.T) {
		assert.Error(t, s.Delete(context.Background(), filepath.Join(dir, "..", "etc", "passwd")))
		assert.Error(t, s.Delete(context.Background(), dir))
	})
}

func TestDirFromEnv(t *testing.T) {
	t.Setenv("IMAGE_DIR", "")
	assert.Equal(t, DefaultDir, DirFromEnv())

	t.Setenv("IMAGE_DIR", "/var/lib/tradevision")
	assert.Equal(t, "/var/lib/tradevision", DirFromEnv())
}
