package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStore is the external host uploaded assets are forwarded to.
// *minio.Client implements it.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Asset describes an uploaded file.
type Asset struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// AssetService stages an upload on local disk, then forwards it to the
// media host. The staged copy is removed whether or not the forward worked.
type AssetService struct {
	store   MediaStore
	tempDir string
	logger  *slog.Logger
}

// NewAssetService stages uploads under tempDir ("" means os.TempDir()).
func NewAssetService(store MediaStore, tempDir string, logger *slog.Logger) *AssetService {
	return &AssetService{store: store, tempDir: tempDir, logger: logger}
}

// Upload copies r to a temp file and then to the media host under
// uploaded/<uuid>-<name>.
func (s *AssetService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*Asset, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		name = "file"
	}
	name = strings.ReplaceAll(name, " ", "_")

	tmp, err := os.CreateTemp(s.tempDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("service/asset: staging upload: %w", err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove staged upload",
				slog.String("path", tmp.Name()),
				slog.String("error", err.Error()),
			)
		}
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("service/asset: writing staged upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("service/asset: rewinding staged upload: %w", err)
	}

	key := "uploaded/" + uuid.NewString() + "-" + name
	url, err := s.store.Put(ctx, key, tmp, size, contentType)
	if err != nil {
		s.logger.Error("failed to upload asset",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/asset: forwarding upload: %w", err)
	}

	s.logger.Info("asset uploaded", slog.String("key", key), slog.Int64("bytes", size))
	return &Asset{
		URL:    url,
		Format: strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")),
	}, nil
}
