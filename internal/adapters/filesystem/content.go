package filesystem

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
	"unicode/utf8"

	"shelver/internal/application"
	"shelver/internal/domain"
)

// Fingerprint hashes the file content with SHA-256
func (s *Store) Fingerprint(path string) (domain.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Fingerprint{}, fmt.Errorf("%w: %s", application.ErrSourceNotFound, path)
		}
		return domain.Fingerprint{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return domain.Fingerprint{
		Size:   n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// ReadHead returns up to n bytes from the start of a text file
func (s *Store) ReadHead(path string, n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	buf = buf[:read]

	if bytes.IndexByte(buf, 0) >= 0 {
		return "", nil
	}
	// Trim a rune split by the read limit
	for i := 0; i < utf8.UTFMax && len(buf) > 0 && !utf8.Valid(buf); i++ {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
