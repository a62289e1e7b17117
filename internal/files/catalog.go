package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileInfo describes one cataloged file
type FileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
}

// Catalog lists files below a base directory
type Catalog struct {
	basePath string
}

// NewCatalog creates a catalog rooted at basePath
func NewCatalog(basePath string) *Catalog {
	return &Catalog{basePath: basePath}
}

func (c *Catalog) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.basePath, dir)
}

// List returns the regular files directly inside dir, sorted by name
func (c *Catalog) List(dir string) ([]FileInfo, error) {
	fullPath := c.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(fullPath, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Usage counts the regular files below dir and their total size
func (c *Catalog) Usage(dir string) (count int, size int64, err error) {
	fullPath := c.resolve(dir)

	err = filepath.WalkDir(fullPath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		count++
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to walk %s: %w", fullPath, err)
	}
	return count, size, nil
}
