package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderTemplate(t *testing.T, r Renderer, result any, rc RenderContext) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, result, rc))
	return buf.String()
}

func TestTemplateNotFound(t *testing.T) {
	r := MustNew(KindTemplate, Options{Templates: NewTemplateLoader()})
	got := renderTemplate(t, r, map[string]any{"id": "1"}, RenderContext{Command: "task"})
	assert.Equal(t, "NO TEMPLATE FOUND\n", got)
}

func TestTemplateNilResultRendersNothing(t *testing.T) {
	r := MustNew(KindTemplate, Options{Templates: NewTemplateLoader()})
	assert.Empty(t, renderTemplate(t, r, nil, RenderContext{}))
}

func TestTemplateDefault(t *testing.T) {
	r := MustNew(KindTemplate, Options{Template: "{{ command }} {{ args|join:\" \" }} deleted"})
	got := renderTemplate(t, r, nil, RenderContext{Command: "task", Args: []string{"abc"}})
	assert.Equal(t, "task abc deleted\n", got)
}

func TestTemplateInlineFlag(t *testing.T) {
	r := MustNew(KindTemplate, Options{Template: DefaultReadTemplate})
	bind(t, r, "--output-template", "{{ result.id }}/{{ name }}")

	got := renderTemplate(t, r, map[string]any{"id": "1", "name": "review"}, RenderContext{})
	assert.Equal(t, "1/review\n", got)
}

func TestTemplateNamedFlag(t *testing.T) {
	loader := NewTemplateLoader(MapSource{"short.tpl": "id={{ id }}"})
	r := MustNew(KindTemplate, Options{Templates: loader})
	bind(t, r, "--output-template", "short.tpl")

	assert.Equal(t, "id=7\n", renderTemplate(t, r, map[string]any{"id": "7"}, RenderContext{}))
}

func TestTemplateResolutionOrder(t *testing.T) {
	all := MapSource{
		"getTask.tpl":      "operation",
		"get/task.tpl":     "parent+command",
		"task.tpl":         "command",
		"get_default.tpl":  "verb",
		"root_default.tpl": "parent",
		"default.tpl":      "global",
	}
	rc := RenderContext{OperationID: "getTask", Verb: "get", Parent: "get", Command: "task"}

	order := []string{"getTask.tpl", "get/task.tpl", "task.tpl", "get_default.tpl"}
	for _, drop := range order {
		r := MustNew(KindTemplate, Options{Templates: NewTemplateLoader(all)})
		got := renderTemplate(t, r, map[string]any{}, rc)
		assert.Equal(t, all[drop]+"\n", got, "expected %s to win", drop)
		delete(all, drop)
	}
}

func TestTemplateSkipsUnknownContextKeys(t *testing.T) {
	src := MapSource{
		".tpl":        "bad",
		"default.tpl": "global {{ verb }}",
	}
	r := MustNew(KindTemplate, Options{Templates: NewTemplateLoader(src)})
	got := renderTemplate(t, r, map[string]any{}, RenderContext{Verb: "get"})
	assert.Equal(t, "global get\n", got)

	assert.Equal(t, []string{"get_default.tpl", "default.tpl"}, templateNames(RenderContext{Verb: "get"}))
}

func TestTemplateLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "describe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "describe", "task.tpl"), []byte("from dir"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "info.tpl"), []byte("overridden info"), 0o644))

	loader := NewTemplateLoader(MapSource{"describe/task.tpl": "builtin"}, DirSource(dir), BundledTemplates())

	tpl, ok := loader.Lookup("describe/task.tpl")
	require.True(t, ok)
	assert.Equal(t, "builtin", tpl)

	tpl, ok = loader.Lookup("info.tpl")
	require.True(t, ok)
	assert.Equal(t, "overridden info", tpl)

	_, ok = loader.Lookup("../etc/passwd")
	assert.False(t, ok)

	_, ok = NewTemplateLoader(DirSource(filepath.Join(dir, "missing"))).Lookup("info.tpl")
	assert.False(t, ok)
}

func TestBundledInfoTemplate(t *testing.T) {
	r := MustNew(KindTemplate, Options{Templates: NewTemplateLoader(BundledTemplates())})
	result := map[string]any{
		"config_file":    "/tmp/config.yml",
		"spec_version":   "latest",
		"current_engine": "local",
		"engines": []any{
			map[string]any{"name": "local", "url": "http://localhost:8080/engine-rest", "verify": true, "version": "7.17.0"},
		},
	}
	got := renderTemplate(t, r, result, RenderContext{Command: "info"})
	assert.Contains(t, got, "Config file:    /tmp/config.yml")
	assert.Contains(t, got, "local (current)")
	assert.Contains(t, got, "Version: 7.17.0")
}
