// Package config loads and validates bindgen manifests.
//
// Overview:
//   - Responsibility: Read a YAML or TOML manifest, apply defaults and BINDGEN_ overrides, validate
//   - Key Types: Manifest, PassConfig, Diagnostics
//   - Concurrency Model: Load is safe for concurrent use; a Manifest is not
//   - Error Semantics: Problems are reported as Diagnostics with a path and a suggestion
//   - Performance Notes: Manifests are small and read in one piece
//
// A manifest lists the passes of a run:
//
//	generator: swift run WaylandScannerCLI
//	mode: client
//	passes:
//	  - name: core
//	    file: wayland.xml
//	    destination: Sources/SwiftWayland
//	    import: SwiftWaylandCommon
//	  - name: protocols
//	    source: protocols
//	    destination: Sources/WaylandProtocols
//	    import: SwiftWayland
//
// Relative paths are resolved against the manifest's directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"go.eggybyte.com/bindgen/internal/batch"
	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/layout"
	"go.eggybyte.com/bindgen/internal/scan"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BINDGEN_"

// DefaultFiles are probed, in order, when no manifest path is given.
var DefaultFiles = []string{"bindgen.yaml", "bindgen.yml", "bindgen.toml"}

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf derives the manifest format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Newf(errors.CodeInvalidArgument, "%s: unsupported manifest extension (want .yaml, .yml or .toml)", path)
}

// Manifest is the on-disk description of a generation run.
type Manifest struct {
	Generator string       `yaml:"generator" toml:"generator" validate:"required"`
	Mode      string       `yaml:"mode" toml:"mode" validate:"oneof=client server"`
	Policy    string       `yaml:"policy" toml:"policy" validate:"oneof=abort continue"`
	Timeout   string       `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Tiers     []string     `yaml:"tiers" toml:"tiers" validate:"dive,required"`
	Include   []string     `yaml:"include,omitempty" toml:"include,omitempty"`
	Exclude   []string     `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	Log       LogConfig    `yaml:"log" toml:"log"`
	Passes    []PassConfig `yaml:"passes" toml:"passes" validate:"required,min=1,dive"`

	path string
	// generatorSet is true when the generator came from the environment or a
	// LoadOption rather than the file.
	generatorSet bool
}

// LoadOption adjusts a manifest after environment overrides and before validation.
type LoadOption func(*Manifest)

// WithGenerator overrides the generator command. Empty leaves it unchanged.
// The command is taken relative to the working directory, not the manifest.
func WithGenerator(command string) LoadOption {
	return func(m *Manifest) {
		if command != "" {
			m.Generator = command
			m.generatorSet = true
		}
	}
}

// LogConfig configures the run log.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=logfmt json"`
}

// PassConfig is one pass of the manifest.
type PassConfig struct {
	Name        string `yaml:"name" toml:"name" validate:"required"`
	Source      string `yaml:"source,omitempty" toml:"source,omitempty" validate:"required_without=File,excluded_with=File"`
	File        string `yaml:"file,omitempty" toml:"file,omitempty"`
	Destination string `yaml:"destination" toml:"destination" validate:"required"`
	Tier        string `yaml:"tier,omitempty" toml:"tier,omitempty"`
	Import      string `yaml:"import,omitempty" toml:"import,omitempty"`
}

// overrides are the BINDGEN_ environment variables.
type overrides struct {
	Generator string `env:"GENERATOR"`
	Mode      string `env:"MODE"`
	Policy    string `env:"POLICY"`
	Timeout   string `env:"TIMEOUT"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// Load reads, defaults, overrides and validates the manifest at path.
//
// Parameters:
//   - path: Manifest file path (.yaml, .yml or .toml)
//   - opts: Overrides applied after BINDGEN_ variables, such as command-line flags
//
// Returns:
//   - *Manifest: Parsed manifest, nil when it could not be read or decoded
//   - *Diagnostics: Every problem found; callers must check HasErrors
func Load(path string, opts ...LoadOption) (*Manifest, *Diagnostics) {
	diags := NewDiagnostics()

	format, err := FormatOf(path)
	if err != nil {
		diags.AddError(err.Error(), path, "Rename the manifest to bindgen.yaml or bindgen.toml")
		return nil, diags
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		diags.AddError("Manifest not found", path, "Run 'bindgen init' to create bindgen.yaml")
		return nil, diags
	}
	if err != nil {
		diags.AddError(fmt.Sprintf("Failed to read manifest: %v", err), path, "Check file permissions")
		return nil, diags
	}

	var m Manifest
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	default:
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		diags.AddError(fmt.Sprintf("Failed to parse %s: %v", strings.ToUpper(string(format)), err), path, "Check manifest syntax")
		return nil, diags
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m.path = abs

	if err := applyEnv(&m); err != nil {
		diags.AddError(fmt.Sprintf("Failed to read environment overrides: %v", err), EnvPrefix+"*", "Unset the offending variable")
		return nil, diags
	}
	for _, opt := range opts {
		opt(&m)
	}
	applyDefaults(&m)
	validateManifest(&m, diags)

	return &m, diags
}

// Find returns the first of DefaultFiles present in dir.
func Find(dir string) (string, error) {
	for _, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Newf(errors.CodeNotFound, "no manifest (%s) in %s", strings.Join(DefaultFiles, ", "), dir)
}

func applyEnv(m *Manifest) error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if o.Generator != "" {
		m.Generator = o.Generator
		m.generatorSet = true
	}
	set(&m.Mode, o.Mode)
	set(&m.Policy, o.Policy)
	set(&m.Timeout, o.Timeout)
	set(&m.Log.Level, o.LogLevel)
	set(&m.Log.Format, o.LogFormat)
	return nil
}

// applyDefaults fills unset fields.
func applyDefaults(m *Manifest) {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	m.Mode = norm(m.Mode)
	if m.Mode == "" {
		m.Mode = string(generator.ModeClient)
	}
	m.Policy = norm(m.Policy)
	if m.Policy == "" {
		m.Policy = string(batch.PolicyAbort)
	}
	if m.Tiers == nil {
		m.Tiers = slices.Clone(layout.DefaultTiers)
	}
	m.Log.Level = norm(m.Log.Level)
	if m.Log.Level == "" {
		m.Log.Level = "info"
	}
	m.Log.Format = norm(m.Log.Format)
	if m.Log.Format == "" {
		m.Log.Format = "logfmt"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateManifest records struct and semantic problems in diags.
func validateManifest(m *Manifest, diags *Diagnostics) {
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				diags.AddError(describe(fe), fieldPath(fe), suggest(fe))
			}
		} else {
			diags.AddError(err.Error(), "", "")
		}
	}

	if m.Generator != "" {
		if _, err := generator.ParseCommand(m.Generator); err != nil {
			diags.AddError(err.Error(), "generator", "Quote arguments containing spaces")
		}
	}
	if m.Timeout != "" {
		d, err := time.ParseDuration(strings.TrimSpace(m.Timeout))
		switch {
		case err != nil:
			diags.AddError(fmt.Sprintf("Invalid timeout %q", m.Timeout), "timeout", "Use a Go duration such as 30s or 2m")
		case d < 0:
			diags.AddError("Timeout must not be negative", "timeout", "Use 0 to wait indefinitely")
		}
	}
	scanner := scan.New(scan.WithInclude(m.Include...), scan.WithExclude(m.Exclude...))
	if err := scanner.Validate(); err != nil {
		diags.AddError(err.Error(), "include", "Fix the glob pattern")
	}

	names := make(map[string]int)
	for i, p := range m.Passes {
		at := fmt.Sprintf("passes[%d]", i)
		if prev, ok := names[p.Name]; ok && p.Name != "" {
			diags.AddError(fmt.Sprintf("Duplicate pass name %q (also passes[%d])", p.Name, prev), at+".name", "Give every pass a unique name")
		}
		names[p.Name] = i

		if p.Tier != "" {
			if p.File != "" {
				diags.AddError("tier applies to source directories only", at+".tier", "Remove tier from single-file passes")
			} else if len(m.Tiers) > 0 && !slices.Contains(m.Tiers, p.Tier) {
				diags.AddError(fmt.Sprintf("Unknown tier %q", p.Tier), at+".tier", "Use one of: "+strings.Join(m.Tiers, ", "))
			}
		}
		if p.File != "" && !strings.EqualFold(filepath.Ext(p.File), ".xml") {
			diags.AddWarning("Single-file source is not an .xml document", at+".file", "")
		}
		if p.Import == "" {
			diags.AddInfo("Pass has no import module", at+".import", "")
		}
	}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_without":
		return "one of source or file is required"
	case "excluded_with":
		return "source and file are mutually exclusive"
	case "oneof":
		return fmt.Sprintf("%s %q is not one of: %s", fe.Field(), fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func suggest(fe validator.FieldError) string {
	switch fe.Field() {
	case "generator":
		return "Set the generator command, e.g. 'swift run WaylandScannerCLI'"
	case "passes":
		return "Add at least one pass"
	case "source":
		return "Set either source (a protocol directory) or file (a single document)"
	}
	if fe.Tag() == "oneof" {
		return "Use one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return ""
}

// Path returns the absolute manifest path.
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the directory relative paths are resolved against.
func (m *Manifest) Dir() string {
	if m.path == "" {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(m.path)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir(), p)
}

// Command splits the generator command into words. A relative executable
// path written in the manifest, such as .build/release/WaylandScanner, is
// resolved against the manifest's directory; bare names are left for PATH.
func (m *Manifest) Command() ([]string, error) {
	command, err := generator.ParseCommand(m.Generator)
	if err != nil {
		return nil, err
	}
	exe := command[0]
	if !m.generatorSet && !filepath.IsAbs(exe) && strings.ContainsRune(filepath.ToSlash(exe), '/') {
		command[0] = filepath.Join(m.Dir(), exe)
	}
	return command, nil
}

// TimeoutDuration returns the per-job timeout, zero when unset.
func (m *Manifest) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(m.Timeout))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// BatchPasses returns the manifest passes with paths resolved.
func (m *Manifest) BatchPasses() []batch.Pass {
	passes := make([]batch.Pass, 0, len(m.Passes))
	for _, p := range m.Passes {
		passes = append(passes, batch.Pass{
			Name:        p.Name,
			Source:      m.resolve(p.Source),
			File:        m.resolve(p.File),
			Destination: m.resolve(p.Destination),
			Tier:        p.Tier,
			Import:      p.Import,
		})
	}
	return passes
}

// Layout returns the tree shape declared by the manifest.
func (m *Manifest) Layout() *layout.Layout {
	return &layout.Layout{Tiers: slices.Clone(m.Tiers)}
}

// Scanner returns the enumerator configured by the include and exclude globs.
func (m *Manifest) Scanner() *scan.Scanner {
	return scan.New(scan.WithInclude(m.Include...), scan.WithExclude(m.Exclude...))
}
