package openapi

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedSpecs(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, DefaultVersion, versions[0])

	for _, v := range versions {
		d, err := Load(v)
		if err != nil {
			t.Fatalf("Load(%q) error: %v", v, err)
		}
		if d.Spec == nil || len(d.Spec.Paths) == 0 {
			t.Fatalf("spec %s has no paths", d.Filename)
		}
		if d.Filename != "openapi-"+v+".json" {
			t.Fatalf("unexpected filename %q for version %q", d.Filename, v)
		}
		if len(d.Raw()) == 0 {
			t.Fatalf("spec %s lost its raw bytes", d.Filename)
		}
		if _, err := NewIndex(d.Spec); err != nil {
			t.Fatalf("index %s: %v", d.Filename, err)
		}
	}
}

func TestLoadEmptyVersionUsesDefault(t *testing.T) {
	d, err := Load("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, d.Version)
}

func TestLoadUnknownVersionListsAvailable(t *testing.T) {
	fsys := fstest.MapFS{
		"openapi-7.15.json":   {Data: []byte(`{"openapi":"3.0.2","paths":{}}`)},
		"openapi-latest.json": {Data: []byte(`{"openapi":"3.0.2","paths":{}}`)},
		"README.md":           {Data: []byte("not a spec")},
	}

	_, err := LoadFS(fsys, "1.0")
	require.Error(t, err)
	assert.Equal(t, `no OpenAPI spec with version "1.0" found, try one of: latest, 7.15`, err.Error())
}

func TestLoadMalformedDocument(t *testing.T) {
	fsys := fstest.MapFS{
		"openapi-broken.json": {Data: []byte(`{"paths": [`)},
	}
	_, err := LoadFS(fsys, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openapi-broken.json")
}
