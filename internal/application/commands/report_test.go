package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelver/internal/adapters/filesystem"
	"shelver/internal/application"
	"shelver/internal/domain"
)

func TestClassifyCommand(t *testing.T) {
	store := filesystem.NewStore(domain.CollisionRename)
	rules := append([]domain.Rule{{
		Category:        "invoices",
		Destination:     "Finance/invoices/",
		ContentKeywords: []string{"invoice number"},
	}}, domain.DefaultRules()...)
	classifier, err := domain.NewClassifier(rules, "", "")
	require.NoError(t, err)

	dir := t.TempDir()
	content := filepath.Join(dir, "scan.txt")
	require.NoError(t, os.WriteFile(content, []byte("Invoice Number: 42"), 0644))

	tests := []struct {
		name        string
		filename    string
		contentPath string
		wantCat     string
		wantErr     error
	}{
		{"by name", "session_analysis_log.txt", "", "analysis", nil},
		{"by content", "scan_0001.txt", content, "invoices", nil},
		{"default", "notes.md", "", domain.DefaultCategory, nil},
		{"empty name", "  ", "", "", application.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewClassifyCommand(store, classifier, tt.filename, tt.contentPath, 0).Execute(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, result.Classification.Category)
		})
	}
}

func TestHistoryCommand(t *testing.T) {
	root := setupRoot(t, map[string]string{"a.log": "a"})
	journal := &memJournal{}
	ctx := context.Background()

	_, err := LastRun(ctx, journal)
	assert.ErrorIs(t, err, application.ErrNotFound)

	first, err := newTestOrganize(t, root, journal, nil, OrganizeOptions{}).Execute(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.log"), []byte("b"), 0644))
	cmd := newTestOrganize(t, root, journal, nil, OrganizeOptions{})
	cmd.newID = sequentialIDs("second")
	second, err := cmd.Execute(ctx)
	require.NoError(t, err)

	history, err := NewHistoryCommand(journal, 10, "").Execute(ctx)
	require.NoError(t, err)
	require.Len(t, history.Runs, 2)
	assert.Equal(t, second.RunID, history.Runs[0].RunID)
	assert.Equal(t, first.RunID, history.Runs[1].RunID)

	last, err := LastRun(ctx, journal)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, last.RunID)

	one, err := NewHistoryCommand(journal, 0, first.RunID).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, one.Records, 1)
	assert.Equal(t, filepath.Join(root, "a.log"), one.Records[0].Source)

	_, err = NewHistoryCommand(journal, 0, "nope").Execute(ctx)
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestStatsCommand(t *testing.T) {
	root := setupRoot(t, map[string]string{
		"loose.txt":                   "l",
		"Data/analytics/a.txt":        "a",
		"Data/analytics/b.txt":        "b",
		"Data/temp/t.log":             "t",
		"Documentation/reports/r.md":  "r",
		"Documentation/reports/.keep": "",
	})

	result, err := NewStatsCommand(filesystem.NewStore(domain.CollisionRename), defaultClassifier(t), root).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Loose)
	want := []domain.DestinationStat{
		{Destination: "Data/analytics", Categories: []string{"analysis"}, Files: 2},
		{Destination: "Documentation/reports", Categories: []string{"reports"}, Files: 1},
		{Destination: "Documentation/strategy", Categories: []string{"strategy"}, Files: 0},
		{Destination: "Documentation/migration", Categories: []string{"migration"}, Files: 0},
		{Destination: "Data/temp", Categories: []string{"temp", domain.DefaultCategory}, Files: 1},
	}
	if diff := cmp.Diff(want, result.Destinations); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyCommand(t *testing.T) {
	root := setupRoot(t, map[string]string{
		"notes.md":           "n",
		"x_analysis_y.txt":   "x",
		"copy_duplicate_.md": "d",
	})
	store := filesystem.NewStore(domain.CollisionRename)
	classifier := defaultClassifier(t)

	result, err := NewVerifyCommand(store, classifier, root, SelectOptions{}).Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Clean())
	assert.Equal(t, 3, result.Checked)
	require.Len(t, result.Remaining, 1)
	assert.Equal(t, "x_analysis_y.txt", result.Remaining[0].Name)
	require.Len(t, result.Blocked, 1)

	require.NoError(t, os.Remove(filepath.Join(root, "copy_duplicate_.md")))
	_, err = newTestOrganize(t, root, &memJournal{}, []string{"x_analysis_y.txt"}, OrganizeOptions{}).Execute(context.Background())
	require.NoError(t, err)

	result, err = NewVerifyCommand(store, classifier, root, SelectOptions{}).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Clean(), "uncategorized files do not make the root dirty")
}
