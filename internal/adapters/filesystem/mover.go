package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shelver/internal/application"
	"shelver/internal/domain"
)

// maxRenameAttempts bounds the numeric suffix search for a free name
const maxRenameAttempts = 10000

// Move relocates source into destinationDir and returns the final path
func (s *Store) Move(ctx context.Context, source, destinationDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Lstat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", moveError(source, destinationDir, "source does not exist", application.ErrSourceNotFound)
		}
		return "", moveError(source, destinationDir, err.Error(), err)
	}
	if !info.Mode().IsRegular() {
		return "", moveError(source, destinationDir, "source is not a regular file", application.ErrSourceNotFound)
	}

	if err := os.MkdirAll(destinationDir, 0755); err != nil {
		return "", moveError(source, destinationDir, err.Error(), application.ErrDestinationNotWritable)
	}

	name := filepath.Base(source)
	target := filepath.Join(destinationDir, name)

	if sameFile(source, target) {
		return "", moveError(source, destinationDir, "file is already at its destination", application.ErrNameCollision)
	}

	switch s.collision {
	case domain.CollisionOverwrite:
		if err := replace(source, target, info.Mode()); err != nil {
			return "", moveError(source, destinationDir, err.Error(), classify(err))
		}
		return target, nil

	case domain.CollisionSkip:
		err := place(source, target, info.Mode())
		if errors.Is(err, fs.ErrExist) {
			return "", moveError(source, destinationDir, name+" already exists", application.ErrNameCollision)
		}
		if err != nil {
			return "", moveError(source, destinationDir, err.Error(), classify(err))
		}
		return target, nil

	default:
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for i := 0; i < maxRenameAttempts; i++ {
			candidate := target
			if i > 0 {
				candidate = filepath.Join(destinationDir, stem+"_"+strconv.Itoa(i)+ext)
			}
			err := place(source, candidate, info.Mode())
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			if err != nil {
				return "", moveError(source, destinationDir, err.Error(), classify(err))
			}
			return candidate, nil
		}
		return "", moveError(source, destinationDir, "no free name after "+strconv.Itoa(maxRenameAttempts)+" attempts", application.ErrNameCollision)
	}
}

// Restore moves current back to original without overwriting anything
func (s *Store) Restore(ctx context.Context, current, original string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Lstat(current)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return moveError(current, original, "moved file no longer exists", application.ErrSourceNotFound)
		}
		return moveError(current, original, err.Error(), err)
	}
	if !info.Mode().IsRegular() {
		return moveError(current, original, "moved file is not a regular file", application.ErrSourceNotFound)
	}

	if err := os.MkdirAll(filepath.Dir(original), 0755); err != nil {
		return moveError(current, original, err.Error(), application.ErrDestinationNotWritable)
	}

	err = place(current, original, info.Mode())
	if errors.Is(err, fs.ErrExist) {
		return moveError(current, original, "original path is occupied", application.ErrNameCollision)
	}
	if err != nil {
		return moveError(current, original, err.Error(), classify(err))
	}
	return nil
}

// place moves src to dst, failing with fs.ErrExist if dst exists. A hard
// link claims the name atomically; filesystems that cannot link (or a
// cross-device move) fall back to an exclusive-create copy.
func place(src, dst string, mode fs.FileMode) error {
	err := os.Link(src, dst)
	switch {
	case err == nil:
		if rmErr := os.Remove(src); rmErr != nil {
			_ = os.Remove(dst)
			return fmt.Errorf("cannot remove source: %w", rmErr)
		}
		return nil
	case errors.Is(err, fs.ErrExist):
		return err
	}

	return copyThenRemove(src, dst, mode, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
}

// replace moves src over dst
func replace(src, dst string, mode fs.FileMode) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && isCrossDevice(linkErr.Err) {
		return copyThenRemove(src, dst, mode, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	}
	return err
}

func copyThenRemove(src, dst string, mode fs.FileMode, flags int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, flags, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy failed: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("sync failed: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	if info, err := in.Stat(); err == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return fmt.Errorf("cannot remove source: %w", err)
	}
	return nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// classify maps an OS error onto the mover's error taxonomy
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrExist):
		return application.ErrNameCollision
	case errors.Is(err, fs.ErrPermission):
		return application.ErrDestinationNotWritable
	case errors.Is(err, fs.ErrNotExist):
		return application.ErrSourceNotFound
	default:
		return err
	}
}

func moveError(src, dst, reason string, err error) error {
	return &application.MoveError{
		Source:      src,
		Destination: dst,
		Reason:      reason,
		Err:         err,
	}
}
