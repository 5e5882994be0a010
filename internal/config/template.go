package config

import (
	"os"

	"go.eggybyte.com/bindgen/internal/errors"
)

// Template returns the starter manifest for format.
func Template(format Format) (string, error) {
	switch format {
	case FormatYAML:
		return yamlTemplate, nil
	case FormatTOML:
		return tomlTemplate, nil
	}
	return "", errors.Newf(errors.CodeInvalidArgument, "unknown manifest format %q", format)
}

// WriteTemplate writes a starter manifest to path, refusing to replace an
// existing file unless overwrite is set.
func WriteTemplate(path string, format Format, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf(errors.CodeInvalidArgument, "manifest already exists: %s", path)
		}
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return errors.Wrapf(errors.CodeInternal, "write template", err, "%s", path)
	}
	return nil
}

const yamlTemplate = `# bindgen manifest
generator: swift run WaylandScannerCLI
mode: client
policy: abort
# timeout: 2m
tiers: [stable, staging, unstable, experimental]
include: ["**/*.xml"]

log:
  level: info
  format: logfmt

passes:
  - name: core
    file: wayland/protocol/wayland.xml
    destination: Sources/SwiftWayland/Generated
    import: SwiftWaylandCommon
  - name: protocols
    source: wayland-protocols
    destination: Sources/WaylandProtocols/Generated
    import: SwiftWayland
`

const tomlTemplate = `# bindgen manifest
generator = "swift run WaylandScannerCLI"
mode = "client"
policy = "abort"
# timeout = "2m"
tiers = ["stable", "staging", "unstable", "experimental"]
include = ["**/*.xml"]

[log]
level = "info"
format = "logfmt"

[[passes]]
name = "core"
file = "wayland/protocol/wayland.xml"
destination = "Sources/SwiftWayland/Generated"
import = "SwiftWaylandCommon"

[[passes]]
name = "protocols"
source = "wayland-protocols"
destination = "Sources/WaylandProtocols/Generated"
import = "SwiftWayland"
`
