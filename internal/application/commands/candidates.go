package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// SelectOptions controls which files a run considers and how they are read
type SelectOptions struct {
	Exclude           []string // absolute paths never touched (config, journal)
	SkipUncategorized bool     // leave files no rule matched in place
	ContentSniffBytes int      // bytes of content passed to the classifier; 0 disables
}

// candidate is one file considered by a run, in lexical order
type candidate struct {
	file ports.FileInfo
	err  error // explicit path that could not be resolved
}

// decision is what a run will do with one candidate
type decision struct {
	entry   domain.PlanEntry
	destDir string // absolute destination directory
	skip    bool   // leave in place, not an error
	err     error
}

// selector resolves candidates and classifies them against one root
type selector struct {
	store      ports.FileStore
	classifier *domain.Classifier
	root       string
	opts       SelectOptions
}

func newSelector(store ports.FileStore, classifier *domain.Classifier, root string, opts SelectOptions) *selector {
	return &selector{
		store:      store,
		classifier: classifier,
		root:       filepath.Clean(root),
		opts:       opts,
	}
}

// candidates lists the files of a run. Without explicit files the root is
// scanned non-recursively; explicit files resolve against the root and must
// stay inside it.
func (s *selector) candidates(ctx context.Context, files []string) ([]candidate, error) {
	if len(files) == 0 {
		infos, err := s.store.Scan(ctx, s.root, s.opts.Exclude)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.root, err)
		}
		out := make([]candidate, len(infos))
		for i, info := range infos {
			out[i] = candidate{file: info}
		}
		return out, nil
	}

	excluded := make(map[string]bool, len(s.opts.Exclude))
	for _, p := range s.opts.Exclude {
		excluded[filepath.Clean(p)] = true
	}

	seen := make(map[string]bool, len(files))
	var (
		paths   []string
		outside []candidate
	)
	for _, f := range files {
		p := f
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.root, p)
		}
		p = filepath.Clean(p)
		if seen[p] || excluded[p] {
			continue
		}
		seen[p] = true
		if !s.inRoot(p) {
			outside = append(outside, candidate{
				file: ports.FileInfo{Name: filepath.Base(p), Path: p},
				err:  &application.ValidationError{Field: "files", Message: p + " is outside " + s.root},
			})
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]candidate, 0, len(paths)+len(outside))
	for _, p := range paths {
		info, err := s.store.Stat(p)
		if err != nil {
			out = append(out, candidate{file: ports.FileInfo{Name: filepath.Base(p), Path: p}, err: err})
			continue
		}
		out = append(out, candidate{file: info})
	}
	out = append(out, outside...)
	sort.SliceStable(out, func(i, k int) bool { return out[i].file.Path < out[k].file.Path })
	return out, nil
}

// inRoot reports whether path lies strictly below the root
func (s *selector) inRoot(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// decide classifies one file and works out where it goes
func (s *selector) decide(f ports.FileInfo) decision {
	d := decision{entry: domain.PlanEntry{Path: f.Path, Name: f.Name, Size: f.Size}}

	if dest, ok := s.underDestination(f.Path); ok {
		d.skip = true
		d.entry.Reason = "already organized under " + dest
		return d
	}

	var hint string
	if s.opts.ContentSniffBytes > 0 {
		// Unreadable content only loses the hint
		hint, _ = s.store.ReadHead(f.Path, s.opts.ContentSniffBytes)
	}

	cls, err := s.classifier.Classify(f.Name, hint)
	if err != nil {
		d.err = err
		return d
	}
	d.entry.Category = cls.Category
	d.entry.Uncategorized = cls.IsDefault()

	switch {
	case cls.Blocked:
		d.entry.Blocked = true
		d.entry.Reason = cls.Reason
		d.err = fmt.Errorf("%w: %s", application.ErrBlocked, cls.Reason)
	case cls.IsDefault() && s.opts.SkipUncategorized:
		d.skip = true
		d.entry.Reason = "no rule matched; left in place"
	default:
		d.entry.Destination = cls.Destination
		d.destDir = filepath.Join(s.root, filepath.FromSlash(cls.Destination))
	}
	return d
}

// underDestination reports whether path already sits inside one of the
// configured destination directories
func (s *selector) underDestination(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	for _, dest := range s.classifier.Destinations() {
		if strings.HasPrefix(rel, dest+"/") {
			return dest, true
		}
	}
	return "", false
}
