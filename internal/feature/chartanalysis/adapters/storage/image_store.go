// Package storage はアップロードされたチャート画像をローカルディスクに保存します。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
)

// DefaultDir は画像の既定の保存先です。
const DefaultDir = "uploads/charts"

// LocalImageStore は画像を <dir>/<uuid><ext> に書き込みます。
type LocalImageStore struct {
	dir   string
	newID func() uuid.UUID
}

// LocalImageStoreがImageStoreを実装していることをコンパイル時に検証します。
var _ usecase.ImageStore = (*LocalImageStore)(nil)

// NewLocalImageStore は保存先ディレクトリを作成してLocalImageStoreを返します。
func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return &LocalImageStore{dir: dir, newID: uuid.New}, nil
}

// DirFromEnv はIMAGE_DIRを読み込みます。
func DirFromEnv() string {
	return config.String("IMAGE_DIR", DefaultDir)
}

// Save は画像を書き込み、保存先のパスを返します。書き込み途中のファイルは残しません。
func (s *LocalImageStore) Save(ctx context.Context, data []byte, contentType entity.ContentType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := contentType.Ext()
	if ext == "" {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	path := filepath.Join(s.dir, s.newID().String()+ext)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// Delete は保存済みの画像を削除します。存在しない場合は何もしません。
// 保存先ディレクトリの外を指すパスは拒否します。
func (s *LocalImageStore) Delete(ctx context.Context, path string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the image dir", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
