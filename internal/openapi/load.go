package openapi

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/camundactl/camundactl/specs"
)

// DefaultVersion is used when no spec version is configured.
const DefaultVersion = "latest"

const (
	specFilePrefix = "openapi-"
	specFileSuffix = ".json"
)

// Load reads the embedded document for version. An unknown version fails
// with an error listing the available ones.
func Load(version string) (*Document, error) {
	return LoadFS(specs.FS, version)
}

// LoadFS is Load over an arbitrary file system.
func LoadFS(fsys fs.FS, version string) (*Document, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		version = DefaultVersion
	}
	filename := specFilePrefix + version + specFileSuffix
	b, err := fs.ReadFile(fsys, filename)
	if err != nil {
		versions, _ := VersionsFS(fsys)
		return nil, fmt.Errorf("no OpenAPI spec with version %q found, try one of: %s", version, strings.Join(versions, ", "))
	}
	return Parse(version, filename, b)
}

// Parse decodes raw document bytes.
func Parse(version, filename string, b []byte) (*Document, error) {
	var spec Spec
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse OpenAPI spec %q: %w", filename, err)
	}
	return &Document{
		Version:  version,
		Filename: filename,
		Spec:     &spec,
		raw:      b,
	}, nil
}

// Versions lists the embedded spec versions, newest first.
func Versions() ([]string, error) {
	return VersionsFS(specs.FS)
}

func VersionsFS(fsys fs.FS) ([]string, error) {
	entries, err := fs.Glob(fsys, specFilePrefix+"*"+specFileSuffix)
	if err != nil {
		return nil, fmt.Errorf("list embedded specs: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(strings.TrimPrefix(e, specFilePrefix), specFileSuffix))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}
