package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/application"
	"shelver/internal/domain"
)

func setupTestRoot(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be gone, stat err = %v", path, err)
	}
}

func TestMove_CreatesDestinationAndPreservesName(t *testing.T) {
	root := setupTestRoot(t, map[string]string{"sample_analysis_log.txt": "dummy"})
	store := NewStore(domain.CollisionRename)

	src := filepath.Join(root, "sample_analysis_log.txt")
	dstDir := filepath.Join(root, "Data", "analytics")

	got, err := store.Move(context.Background(), src, dstDir)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	want := filepath.Join(dstDir, "sample_analysis_log.txt")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if readFile(t, want) != "dummy" {
		t.Error("content changed during move")
	}
	assertMissing(t, src)
}

func TestMove_CollisionPolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      domain.CollisionPolicy
		wantName    string
		wantErr     error
		wantContent string // content at the original destination name afterwards
	}{
		{
			name:        "rename adds numeric suffix",
			policy:      domain.CollisionRename,
			wantName:    "report_1.md",
			wantContent: "old",
		},
		{
			name:        "skip reports collision",
			policy:      domain.CollisionSkip,
			wantErr:     application.ErrNameCollision,
			wantContent: "old",
		},
		{
			name:        "overwrite replaces",
			policy:      domain.CollisionOverwrite,
			wantName:    "report.md",
			wantContent: "new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupTestRoot(t, map[string]string{
				"report.md":     "new",
				"out/report.md": "old",
			})
			store := NewStore(tt.policy)
			src := filepath.Join(root, "report.md")
			dstDir := filepath.Join(root, "out")

			got, err := store.Move(context.Background(), src, dstDir)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if readFile(t, src) != "new" {
					t.Error("source should be untouched after a rejected move")
				}
			} else {
				if err != nil {
					t.Fatalf("Move failed: %v", err)
				}
				if filepath.Base(got) != tt.wantName {
					t.Errorf("expected name %s, got %s", tt.wantName, filepath.Base(got))
				}
				if readFile(t, got) != "new" {
					t.Error("moved file has wrong content")
				}
				assertMissing(t, src)
			}

			if c := readFile(t, filepath.Join(dstDir, "report.md")); c != tt.wantContent {
				t.Errorf("expected existing file content %q, got %q", tt.wantContent, c)
			}
		})
	}
}

func TestMove_RenamePicksNextFreeSuffix(t *testing.T) {
	root := setupTestRoot(t, map[string]string{
		"a.log":       "3",
		"out/a.log":   "0",
		"out/a_1.log": "1",
		"out/a_2.log": "2",
	})
	store := NewStore(domain.CollisionRename)

	got, err := store.Move(context.Background(), filepath.Join(root, "a.log"), filepath.Join(root, "out"))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if filepath.Base(got) != "a_3.log" {
		t.Errorf("expected a_3.log, got %s", filepath.Base(got))
	}
}

func TestMove_Errors(t *testing.T) {
	root := setupTestRoot(t, map[string]string{
		"file.txt":  "x",
		"blocker":   "i am a file, not a directory",
		"sub/inner": "y",
	})
	store := NewStore(domain.CollisionRename)
	ctx := context.Background()

	t.Run("missing source", func(t *testing.T) {
		_, err := store.Move(ctx, filepath.Join(root, "nope.txt"), filepath.Join(root, "out"))
		if !errors.Is(err, application.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("directory source", func(t *testing.T) {
		_, err := store.Move(ctx, filepath.Join(root, "sub"), filepath.Join(root, "out"))
		if !errors.Is(err, application.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("destination blocked by a file", func(t *testing.T) {
		_, err := store.Move(ctx, filepath.Join(root, "file.txt"), filepath.Join(root, "blocker", "dest"))
		if !errors.Is(err, application.ErrDestinationNotWritable) {
			t.Errorf("expected ErrDestinationNotWritable, got %v", err)
		}
		var moveErr *application.MoveError
		if !errors.As(err, &moveErr) {
			t.Fatalf("expected MoveError, got %T", err)
		}
		if moveErr.Source != filepath.Join(root, "file.txt") {
			t.Errorf("unexpected source in error: %s", moveErr.Source)
		}
	})

	t.Run("already at destination", func(t *testing.T) {
		_, err := store.Move(ctx, filepath.Join(root, "sub", "inner"), filepath.Join(root, "sub"))
		if !errors.Is(err, application.ErrNameCollision) {
			t.Errorf("expected ErrNameCollision, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Move(cctx, filepath.Join(root, "file.txt"), filepath.Join(root, "out"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRestore(t *testing.T) {
	root := setupTestRoot(t, map[string]string{
		"Data/analytics/x_analysis_y.txt": "payload",
		"Data/analytics/taken.txt":        "moved",
		"taken.txt":                       "occupant",
	})
	store := NewStore(domain.CollisionRename)
	ctx := context.Background()

	original := filepath.Join(root, "nested", "x_analysis_y.txt")
	if err := store.Restore(ctx, filepath.Join(root, "Data", "analytics", "x_analysis_y.txt"), original); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if readFile(t, original) != "payload" {
		t.Error("restored content mismatch")
	}

	err := store.Restore(ctx, filepath.Join(root, "Data", "analytics", "taken.txt"), filepath.Join(root, "taken.txt"))
	if !errors.Is(err, application.ErrNameCollision) {
		t.Errorf("expected ErrNameCollision, got %v", err)
	}
	if readFile(t, filepath.Join(root, "taken.txt")) != "occupant" {
		t.Error("restore must never overwrite")
	}

	err = store.Restore(ctx, filepath.Join(root, "Data", "analytics", "gone.txt"), filepath.Join(root, "gone.txt"))
	if !errors.Is(err, application.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestScan(t *testing.T) {
	root := setupTestRoot(t, map[string]string{
		"b.txt":               "b",
		"a.txt":               "a",
		".hidden":             "h",
		"shelver.yaml":        "cfg",
		"Data/temp/old.log":   "nested",
		"Documentation/x.md":  "nested",
		"c_analysis_data.txt": "c",
	})
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	store := NewStore(domain.CollisionRename)

	files, err := store.Scan(context.Background(), root, []string{filepath.Join(root, "shelver.yaml")})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"a.txt", "b.txt", "c_analysis_data.txt"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}
	if files[0].Size != 1 {
		t.Errorf("expected size 1, got %d", files[0].Size)
	}
}

func TestCountFiles(t *testing.T) {
	root := setupTestRoot(t, map[string]string{
		"Data/temp/a.log": "a",
		"Data/temp/b.log": "b",
		"Data/temp/.keep": "",
		"Data/temp/sub/c": "c",
	})
	store := NewStore(domain.CollisionRename)

	n, err := store.CountFiles(filepath.Join(root, "Data", "temp"))
	if err != nil {
		t.Fatalf("CountFiles failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files, got %d", n)
	}

	n, err = store.CountFiles(filepath.Join(root, "missing"))
	if err != nil || n != 0 {
		t.Errorf("expected 0, nil for a missing dir, got %d, %v", n, err)
	}
}

func TestFingerprintAndReadHead(t *testing.T) {
	root := setupTestRoot(t, map[string]string{
		"text.txt": "hello world",
		"bin.dat":  "ab\x00cd",
	})
	store := NewStore(domain.CollisionRename)

	fp, err := store.Fingerprint(filepath.Join(root, "text.txt"))
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if fp.Size != 11 {
		t.Errorf("expected size 11, got %d", fp.Size)
	}
	// sha256("hello world")
	if fp.SHA256 != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Errorf("unexpected hash %s", fp.SHA256)
	}

	if _, err := store.Fingerprint(filepath.Join(root, "nope")); !errors.Is(err, application.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}

	head, err := store.ReadHead(filepath.Join(root, "text.txt"), 5)
	if err != nil || head != "hello" {
		t.Errorf("expected %q, got %q (%v)", "hello", head, err)
	}
	head, err = store.ReadHead(filepath.Join(root, "text.txt"), 100)
	if err != nil || head != "hello world" {
		t.Errorf("expected full content, got %q (%v)", head, err)
	}
	head, err = store.ReadHead(filepath.Join(root, "bin.dat"), 100)
	if err != nil || head != "" {
		t.Errorf("expected binary file to yield empty hint, got %q (%v)", head, err)
	}
}
