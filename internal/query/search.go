package query

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rzbill/lodge/pkg/logstore"
)

// maxLineBytes bounds a single stored line read back by Search.
const maxLineBytes = 1 << 20

// SearchOptions selects files and lines for Search.
type SearchOptions struct {
	// Dir is the storage directory.
	Dir string
	// Extension of log files. Defaults to logstore.DefaultExtension.
	Extension string
	// Files restricts the search to these base names. Empty means all files.
	Files []string
	// Filter selects matching lines.
	Filter Filter
	// Limit stops after this many matches. Zero means no limit.
	Limit int
}

// Search scans log files oldest first and calls fn for every matching line.
// Returning false from fn stops the search.
func Search(ctx context.Context, opts SearchOptions, fn func(Line) bool) error {
	files, err := logstore.ListFiles(opts.Dir, opts.Extension)
	if err != nil {
		return err
	}
	want := make(map[string]struct{}, len(opts.Files))
	for _, name := range opts.Files {
		want[filepath.Base(name)] = struct{}{}
	}

	matches := 0
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if len(want) > 0 {
			if _, ok := want[f.Name]; !ok {
				continue
			}
		}
		stop, err := scanFile(ctx, f, opts.Filter, func(l Line) bool {
			matches++
			if !fn(l) {
				return false
			}
			return opts.Limit <= 0 || matches < opts.Limit
		})
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func scanFile(ctx context.Context, f logstore.FileInfo, filter Filter, fn func(Line) bool) (bool, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return false, fmt.Errorf("query: open %s: %w", f.Path, err)
	}
	defer fh.Close()

	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		n++
		l := ParseLine(sc.Text())
		l.File = f.Name
		l.Number = n
		if !filter.Match(l) {
			continue
		}
		if !fn(l) {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("query: read %s: %w", f.Path, err)
	}
	return false, nil
}
