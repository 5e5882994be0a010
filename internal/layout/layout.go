// Package layout maps protocol source files to generated module directories.
//
// Overview:
//   - Responsibility: Derive destination directories from a declared source tree shape
//   - Key Types: Layout, Source, ModulePath, Resolved
//   - Concurrency Model: Layout is read-only after construction
//   - Error Semantics: Files that do not fit the shape are errors.CodeLayout, never guessed
//   - Performance Notes: Pure path arithmetic, no filesystem access
//
// The source tree is expected to look like
//
//	<root>/<tier>/<family>/<protocol>.xml
//
// which maps to
//
//	<dest>/<Tier>/<Family>/<Protocol>
//
// A pass rooted at a tier directory declares the tier explicitly and its
// files sit one level lower: <root>/<family>/<protocol>.xml.
package layout

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/naming"
)

// DefaultTiers are the maturity tiers of the upstream protocol tree.
var DefaultTiers = []string{"stable", "staging", "unstable", "experimental"}

// Layout declares the accepted source tree shape.
type Layout struct {
	// Tiers lists the accepted tier directory names. Empty accepts any name.
	Tiers []string
}

// Default returns a Layout accepting DefaultTiers.
func Default() *Layout {
	return &Layout{Tiers: slices.Clone(DefaultTiers)}
}

// Source describes one protocol document relative to its pass root.
type Source struct {
	Path string // absolute or root-joined path of the document
	Root string // pass root the document was found under; empty in single-file mode
	Tier string
	Family string
	Stem string // file name without its last extension
}

// ModulePath is the ordered list of identifiers joined under a destination root.
type ModulePath []string

// String renders the module path with forward slashes.
func (m ModulePath) String() string {
	return strings.Join(m, "/")
}

// Resolved pairs a source with its destination directory.
type Resolved struct {
	Source      Source
	Module      ModulePath // nil in single-file mode
	Destination string
}

// Stem returns the base name of path without its last extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Resolve derives the destination of file, found under root, within destRoot.
//
// When tier is empty the path relative to root must be exactly
// tier/family/file; otherwise it must be family/file and tier names the
// directory the root stands for.
func (l *Layout) Resolve(root, file, destRoot, tier string) (Resolved, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return Resolved{}, errors.Newf(errors.CodeLayout, "%s is not inside source root %s", file, root)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	src := Source{Path: file, Root: root, Stem: Stem(file)}
	switch {
	case tier == "" && len(parts) == 3:
		src.Tier, src.Family = parts[0], parts[1]
	case tier != "" && len(parts) == 2:
		src.Tier, src.Family = tier, parts[0]
	default:
		return Resolved{}, errors.Build(errors.CodeLayout).
			WithOp("resolve").
			WithMsgf("%s: expected %s under %s, found %d path component(s)", file, l.shape(tier), root, len(parts)).
			WithDetails("source", file, "root", root).
			Err()
	}

	if !l.allows(src.Tier) {
		return Resolved{}, errors.Newf(errors.CodeLayout, "%s: tier %q is not one of %s", file, src.Tier, strings.Join(l.Tiers, ", "))
	}

	module, err := naming.TranslateAll(src.Tier, src.Family, src.Stem)
	if err != nil {
		return Resolved{}, errors.Wrapf(errors.CodeTranslation, "resolve", err, "source %s", file)
	}

	return Resolved{
		Source:      src,
		Module:      module,
		Destination: filepath.Join(append([]string{destRoot}, module...)...),
	}, nil
}

// Single resolves a standalone document to an explicitly supplied destination.
func Single(file, destination string) (Resolved, error) {
	if file == "" {
		return Resolved{}, errors.New(errors.CodeInvalidArgument, "single-file source is empty")
	}
	if destination == "" {
		return Resolved{}, errors.Newf(errors.CodeInvalidArgument, "%s: single-file destination is empty", file)
	}
	return Resolved{
		Source:      Source{Path: file, Stem: Stem(file)},
		Destination: filepath.Clean(destination),
	}, nil
}

// ValidateTier reports whether tier is accepted by the layout.
func (l *Layout) ValidateTier(tier string) error {
	if !l.allows(tier) {
		return errors.Newf(errors.CodeInvalidArgument, "tier %q is not one of %s", tier, strings.Join(l.Tiers, ", "))
	}
	return nil
}

func (l *Layout) allows(tier string) bool {
	return len(l.Tiers) == 0 || slices.Contains(l.Tiers, tier)
}

func (l *Layout) shape(tier string) string {
	if tier != "" {
		return fmt.Sprintf("<family>/<protocol> (tier %s)", tier)
	}
	return "<tier>/<family>/<protocol>"
}
