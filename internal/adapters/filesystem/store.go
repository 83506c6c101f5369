package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// Store implements ports.FileStore on the local filesystem
type Store struct {
	collision domain.CollisionPolicy
}

// Ensure Store implements FileStore
var _ ports.FileStore = (*Store)(nil)

// NewStore creates a filesystem store using the given collision policy
func NewStore(policy domain.CollisionPolicy) *Store {
	if policy == "" {
		policy = domain.CollisionRename
	}
	return &Store{collision: policy}
}

// Scan returns regular files directly inside root, sorted by name
func (s *Store) Scan(ctx context.Context, root string, exclude []string) ([]ports.FileInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = true
		}
	}

	var files []ports.FileInfo
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(root, name)
		if skip[path] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}

		files = append(files, ports.FileInfo{
			Name: name,
			Path: path,
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Stat describes a regular file
func (s *Store) Stat(path string) (ports.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.FileInfo{}, fmt.Errorf("%w: %s", application.ErrSourceNotFound, path)
		}
		return ports.FileInfo{}, err
	}
	if !info.Mode().IsRegular() {
		return ports.FileInfo{}, fmt.Errorf("%w: %s is not a regular file", application.ErrSourceNotFound, path)
	}
	return ports.FileInfo{
		Name: info.Name(),
		Path: path,
		Size: info.Size(),
	}, nil
}

// CountFiles counts regular files directly inside dir
func (s *Store) CountFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), ".") {
			count++
		}
	}
	return count, nil
}
