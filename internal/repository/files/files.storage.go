// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/boatmonitor/hub/internal/errors"
	"github.com/boatmonitor/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	debugDir           = "debug"
	exportDir          = "exports"
	queryFileExtension = ".sql"
	defaultDateFormat  = "20060102_150405"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// FileConfig holds configuration for the file storage
type FileConfig struct {
	BasePath string
}

// FileRepo keeps debug query dumps and generated exports on local disk.
type FileRepo struct {
	config FileConfig
	now    func() time.Time
}

var _ repository.QueryDumper = (*FileRepo)(nil)

// NewFileRepository creates the base, debug and export directories.
func NewFileRepository(config FileConfig) (*FileRepo, error) {
	for _, dir := range []string{config.BasePath, filepath.Join(config.BasePath, debugDir), filepath.Join(config.BasePath, exportDir)} {
		if err := createDirectoryIfNotExists(dir); err != nil {
			return nil, err
		}
	}
	return &FileRepo{config: config, now: time.Now}, nil
}

// DumpQuery overwrites <base>/debug/<origin>.sql with the query text.
func (r *FileRepo) DumpQuery(origin, query string) error {
	path := r.QueryPath(origin)
	if err := os.WriteFile(path, []byte(query+"\n"), 0644); err != nil {
		return errors.NewInternalError("failed to write query dump", err)
	}
	return nil
}

// QueryPath returns the dump location for an origin.
func (r *FileRepo) QueryPath(origin string) string {
	return filepath.Join(r.config.BasePath, debugDir, sanitize(origin)+queryFileExtension)
}

// StoreExport writes an export under <base>/exports/<timestamp>_<name> and
// returns its path relative to the base.
func (r *FileRepo) StoreExport(ctx context.Context, name string, src io.WriterTo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	relPath := filepath.Join(exportDir, fmt.Sprintf("%s_%s", r.now().UTC().Format(defaultDateFormat), sanitize(name)))

	dst, err := os.Create(filepath.Join(r.config.BasePath, relPath))
	if err != nil {
		return "", errors.NewInternalError("failed to create export file", err)
	}
	defer dst.Close()

	if _, err := src.WriteTo(dst); err != nil {
		return "", errors.NewInternalError("failed to write export file", err)
	}

	nuts.L.Infof("[FileRepo] Stored export: %s", relPath)
	return relPath, nil
}

// DeleteOldFiles removes exports and dumps last modified before the cutoff.
func (r *FileRepo) DeleteOldFiles(ctx context.Context, before time.Time) (int, error) {
	var deletedCount int
	err := filepath.Walk(r.config.BasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(path); err != nil {
				nuts.L.Errorf("[FileRepo] Failed to delete old file %s: %v", path, err)
				return nil
			}
			deletedCount++
		}
		return nil
	})
	if err != nil {
		return deletedCount, errors.NewInternalError("failed to delete old files", err)
	}

	nuts.L.Infof("[FileRepo] Deleted %d files older than %v", deletedCount, before)
	return deletedCount, nil
}

func sanitize(name string) string {
	clean := unsafeName.ReplaceAllString(name, "_")
	if clean == "" || clean == "." || clean == ".." {
		return "unnamed"
	}
	return clean
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, defaultPermissions); err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
