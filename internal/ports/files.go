package ports

import (
	"context"

	"shelver/internal/domain"
)

// FileInfo represents a candidate file found in the root directory
type FileInfo struct {
	Name string
	Path string // Absolute path to the file
	Size int64
}

// FileStore defines the filesystem operations the organizer relies on
type FileStore interface {
	// Scan lists regular, non-hidden files directly inside root in lexical
	// order. Paths listed in exclude are left out.
	Scan(ctx context.Context, root string, exclude []string) ([]FileInfo, error)

	// Stat describes a single regular file
	Stat(path string) (FileInfo, error)

	// Move relocates source into destinationDir, creating it as needed, and
	// returns the final path. Name collisions follow the store's policy.
	Move(ctx context.Context, source, destinationDir string) (string, error)

	// Restore moves current back to original. It never overwrites.
	Restore(ctx context.Context, current, original string) error

	// Fingerprint returns the size and content hash of a file
	Fingerprint(path string) (domain.Fingerprint, error)

	// ReadHead returns up to n bytes of a text file; binary files yield ""
	ReadHead(path string, n int) (string, error)

	// CountFiles counts regular files in dir; a missing dir counts as zero
	CountFiles(dir string) (int, error)
}
