package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// removeFile is replaced in tests to simulate deletion failures.
var removeFile = os.Remove

// FileInfo describes one log file in a storage directory.
type FileInfo struct {
	Path    string
	Name    string
	Stamp   float64
	Size    int64
	ModTime time.Time
}

// ListFiles returns the log files in dir, newest first. Only regular,
// non-hidden files ending in ext are considered. A missing directory yields an
// empty list.
func ListFiles(dir, ext string) ([]FileInfo, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", ErrRead, dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		fi := FileInfo{
			Path:  filepath.Join(dir, name),
			Name:  name,
			Stamp: parseStamp(name, ext),
		}
		// The entry may vanish between ReadDir and Info; keep it with zero size.
		if info, err := e.Info(); err == nil {
			fi.Size = info.Size()
			fi.ModTime = info.ModTime()
		}
		files = append(files, fi)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Stamp > files[j].Stamp })
	return files, nil
}

// RotateOptions configures a rotation pass.
type RotateOptions struct {
	// MaxFiles is the number of newest files to retain. Defaults to DefaultMaxFiles.
	MaxFiles int
	// Extension selects log files. Defaults to DefaultExtension.
	Extension string
	// Keep is a path that is never deleted, even when it falls beyond MaxFiles.
	Keep string
	// OnRemove, if set, is called once per deletion attempt.
	OnRemove func(path string, err error)
}

// Rotate deletes every log file in dir beyond the MaxFiles newest. A failed
// deletion does not stop the pass; all failures are returned together, each
// wrapping ErrDelete.
func Rotate(dir string, opts RotateOptions) ([]string, error) {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	files, err := ListFiles(dir, opts.Extension)
	if err != nil {
		return nil, err
	}
	if len(files) <= opts.MaxFiles {
		return nil, nil
	}

	var (
		removed []string
		result  *multierror.Error
	)
	for _, f := range files[opts.MaxFiles:] {
		if opts.Keep != "" && f.Path == opts.Keep {
			continue
		}
		err := removeFile(f.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s: %w", ErrDelete, f.Path, err)
			result = multierror.Append(result, err)
		} else {
			err = nil
			removed = append(removed, f.Path)
		}
		if opts.OnRemove != nil {
			opts.OnRemove(f.Path, err)
		}
	}
	return removed, result.ErrorOrNil()
}
