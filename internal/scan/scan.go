// Package scan enumerates protocol definition documents under a source root.
//
// Overview:
//   - Responsibility: Recursive listing of regular files, hidden entries included
//   - Key Types: Scanner, Option
//   - Concurrency Model: A Scanner is immutable and safe for concurrent use
//   - Error Semantics: Any filesystem failure is an errors.CodeEnumeration error naming the root
//   - Performance Notes: Single directory walk per call
//
// Usage:
//
//	s := scan.New(scan.WithInclude("**/*.xml"))
//	files, err := s.Files("/usr/share/wayland-protocols")
package scan

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"

	"go.eggybyte.com/bindgen/internal/errors"
)

// Scanner lists regular files below a root directory.
//
// Include and exclude patterns are doublestar globs matched against the
// slash-separated path relative to the root. With no include patterns every
// file is included; exclude always wins.
type Scanner struct {
	include []string
	exclude []string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithInclude restricts results to files matching at least one pattern.
func WithInclude(patterns ...string) Option {
	return func(s *Scanner) {
		s.include = append(s.include, patterns...)
	}
}

// WithExclude drops files matching any pattern.
func WithExclude(patterns ...string) Option {
	return func(s *Scanner) {
		s.exclude = append(s.exclude, patterns...)
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate reports malformed patterns before any walk happens.
func (s *Scanner) Validate() error {
	for _, p := range append(append([]string{}, s.include...), s.exclude...) {
		// path.Match checks the whole pattern even when the name is empty.
		if _, err := path.Match(p, ""); err != nil {
			return errors.Wrapf(errors.CodeInvalidArgument, "scan", err, "bad pattern %q", p)
		}
	}
	return nil
}

// Files returns the absolute paths of every regular file reachable below root,
// sorted lexicographically. Directories are never returned and symlinked
// directories are not descended into.
func (s *Scanner) Files(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeEnumeration, "scan", err, "source root %s", root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeEnumeration, "scan", err, "source root %s", abs)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.CodeEnumeration, "source root %s is not a directory", abs)
	}

	var files []string
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			// symlinks count only when they point at a regular file
			target, statErr := os.Stat(path)
			if statErr != nil || !target.Mode().IsRegular() {
				return nil
			}
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		ok, err := s.match(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrapf(errors.CodeEnumeration, "scan", walkErr, "source root %s", abs)
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) match(rel string) (bool, error) {
	for _, p := range s.exclude {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	if len(s.include) == 0 {
		return true, nil
	}
	for _, p := range s.include {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
