package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/camundactl/camundactl/internal/config"
	"github.com/google/uuid"
)

// writeTestConfig points CAMUNDACTL_CONFIG at a fresh file whose current
// engine is engineURL. mutate may adjust the config before it is written.
func writeTestConfig(t *testing.T, engineURL string, mutate func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "config.yml")
	t.Setenv(config.EnvConfigFile, path)

	cfg := config.Default()
	if engineURL != "" {
		if err := cfg.AddEngine(config.Engine{Name: "test", URL: engineURL, Verify: true}, true); err != nil {
			t.Fatal(err)
		}
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRoot(t *testing.T) (*bytes.Buffer, *bytes.Buffer, func(args ...string) error) {
	t.Helper()

	root, err := NewRootCmd()
	if err != nil {
		t.Fatalf("NewRootCmd: %v", err)
	}
	var out bytes.Buffer
	var errBuf bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errBuf)

	run := func(args ...string) error {
		root.SetArgs(args)
		return root.Execute()
	}
	return &out, &errBuf, run
}

type engineCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// newEngine serves routes keyed by "METHOD /path" and records every call.
func newEngine(t *testing.T, routes map[string]string) (*httptest.Server, *[]engineCall) {
	t.Helper()
	var calls []engineCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, engineCall{Method: r.Method, Path: r.URL.EscapedPath(), Query: r.URL.Query(), Body: body})
		resp, ok := routes[r.Method+" "+r.URL.EscapedPath()]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"type":"InvalidRequestException","message":"not found"}`)
			return
		}
		if resp == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGetObjectAsTable(t *testing.T) {
	srv, _ := newEngine(t, map[string]string{
		"GET /task/abc": `{"id":"abc","name":"Review invoice","assignee":"demo"}`,
	})
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("get", "task", "abc"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	s := out.String()
	if !strings.HasPrefix(s, "key") {
		t.Fatalf("expected key/value table, got %q", s)
	}
	if !strings.Contains(s, "Review invoice") || !strings.Contains(s, "assignee") {
		t.Fatalf("unexpected output: %q", s)
	}
}

func TestGetListKeepsServerKeyOrder(t *testing.T) {
	srv, _ := newEngine(t, map[string]string{
		"GET /task": `[{"id":"t1","name":"Review invoice","assignee":"demo"}]`,
	})
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("get", "tasks"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	header := strings.Fields(strings.SplitN(out.String(), "\n", 2)[0])
	if strings.Join(header, " ") != "id name assignee" {
		t.Fatalf("expected columns in response order, got %q", out.String())
	}
}

func TestGetListQueryFlags(t *testing.T) {
	srv, calls := newEngine(t, map[string]string{
		"GET /process-instance": `[{"id":"p1","businessKey":"order-1","suspended":false}]`,
	})
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	err := run("get", "processInstances", "--business-key", "order-1", "--active", "-o", "json")
	if err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one call, got %d", len(*calls))
	}
	q := (*calls)[0].Query
	if q.Get("businessKey") != "order-1" || q.Get("active") != "true" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Has("suspended") {
		t.Fatalf("unchanged flags must not be sent: %v", q)
	}
	var got []map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("parse output: %v (out=%s)", err, out.String())
	}
	if len(got) != 1 || got[0]["id"] != "p1" {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestGetRawFlagNameAlias(t *testing.T) {
	srv, calls := newEngine(t, map[string]string{
		"GET /process-instance": `[]`,
	})
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("get", "processInstances", "--businessKey", "order-2"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	if got := (*calls)[0].Query.Get("businessKey"); got != "order-2" {
		t.Fatalf("expected businessKey=order-2, got %q", got)
	}
	if out.String() != "empty result\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestGetNotFound(t *testing.T) {
	srv, _ := newEngine(t, nil)
	writeTestConfig(t, srv.URL, nil)

	_, _, run := newTestRoot(t)
	err := run("get", "task", "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteAcknowledges(t *testing.T) {
	id := uuid.NewString()
	srv, calls := newEngine(t, map[string]string{
		"DELETE /process-instance/" + id: "",
	})
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("delete", "processInstance", id, "--skip-custom-listeners"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	if want := "processInstance " + id + " deleted\n"; out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
	if got := (*calls)[0].Query.Get("skipCustomListeners"); got != "true" {
		t.Fatalf("expected skipCustomListeners=true, got %q", got)
	}
}

func TestApplyYAMLFile(t *testing.T) {
	srv, calls := newEngine(t, map[string]string{
		"PUT /task/abc": "",
	})
	writeTestConfig(t, srv.URL, nil)

	payload := filepath.Join(t.TempDir(), "task.yaml")
	if err := os.WriteFile(payload, []byte("name: Review invoice\npriority: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errBuf, run := newTestRoot(t)
	if err := run("apply", "task", "abc", "-y", payload); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	if out.String() != "task abc applied\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
	var body map[string]any
	if err := json.Unmarshal((*calls)[0].Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v (%s)", err, (*calls)[0].Body)
	}
	if body["name"] != "Review invoice" || body["priority"] != float64(60) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestApplyValidationFailureSendsNothing(t *testing.T) {
	srv, calls := newEngine(t, map[string]string{
		"PUT /task/abc": "",
	})
	writeTestConfig(t, srv.URL, nil)

	payload := filepath.Join(t.TempDir(), "task.json")
	if err := os.WriteFile(payload, []byte(`{"priority": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, run := newTestRoot(t)
	err := run("apply", "task", "abc", "-j", payload)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "TaskDto") {
		t.Fatalf("error should name the schema: %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no engine call, got %v", *calls)
	}
}

func TestAliasFromConfig(t *testing.T) {
	srv, calls := newEngine(t, map[string]string{
		"GET /process-instance": `[]`,
	})
	writeTestConfig(t, srv.URL, func(cfg *config.Config) {
		cfg.Alias["pi"] = "processInstances"
	})

	_, errBuf, run := newTestRoot(t)
	if err := run("get", "pi"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	if len(*calls) != 1 || (*calls)[0].Path != "/process-instance" {
		t.Fatalf("unexpected calls: %v", *calls)
	}
}

func TestUnknownEngineFlag(t *testing.T) {
	writeTestConfig(t, "http://127.0.0.1:1", nil)

	_, _, run := newTestRoot(t)
	err := run("-e", "nope", "get", "tasks")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), `"nope"`) || !strings.Contains(err.Error(), "test") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoEngineConfigured(t *testing.T) {
	writeTestConfig(t, "", nil)

	_, _, run := newTestRoot(t)
	if err := run("get", "tasks"); err == nil {
		t.Fatalf("expected error without an engine")
	}
}

func describeRoutes() map[string]string {
	return map[string]string{
		"GET /process-instance/p1": `{"id":"p1","definitionId":"invoice:1:d1","businessKey":"order-1","suspended":false,"ended":false}`,
		"GET /variable-instance":   `[{"id":"v1","name":"amount","type":"Integer","value":30}]`,
		"GET /incident":            `[]`,
	}
}

func TestDescribeProcessInstance(t *testing.T) {
	srv, calls := newEngine(t, describeRoutes())
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("describe", "processInstance", "p1"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	s := out.String()
	for _, want := range []string{"p1", "order-1", "invoice:1:d1", "amount (Integer) = 30", "Incidents: none"} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in output:\n%s", want, s)
		}
	}
	if len(*calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(*calls))
	}
	if got := (*calls)[1].Query.Get("processInstanceIdIn"); got != "p1" {
		t.Fatalf("variables queried with %q", got)
	}
}

func TestDescribeJSON(t *testing.T) {
	srv, _ := newEngine(t, describeRoutes())
	writeTestConfig(t, srv.URL, nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("describe", "processInstance", "p1", "-o", "json"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("parse output: %v (out=%s)", err, out.String())
	}
	vars, _ := got["variables"].([]any)
	if len(vars) != 1 {
		t.Fatalf("expected one variable, got %v", got["variables"])
	}
	if _, ok := got["incidents"].([]any); !ok {
		t.Fatalf("expected incidents list, got %v", got["incidents"])
	}
}

func TestInfo(t *testing.T) {
	srv, _ := newEngine(t, map[string]string{
		"GET /version": `{"version":"7.17.0"}`,
	})
	path := writeTestConfig(t, srv.URL, func(cfg *config.Config) {
		_ = cfg.AddEngine(config.Engine{Name: "down", URL: "http://127.0.0.1:1"}, false)
	})

	out, errBuf, run := newTestRoot(t)
	if err := run("info", "--timeout", "2s"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	s := out.String()
	for _, want := range []string{path, "Spec version:   latest", "7.17.0", "(current)", "OFFLINE"} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in output:\n%s", want, s)
		}
	}
}

func TestConfigEngineLifecycle(t *testing.T) {
	path := writeTestConfig(t, "", nil)

	step := func(args ...string) string {
		t.Helper()
		out, errBuf, run := newTestRoot(t)
		if err := run(args...); err != nil {
			t.Fatalf("%v: %v (stderr=%s)", args, err, errBuf.String())
		}
		return out.String()
	}

	if got := step("config", "get-engines"); got != "no engines configured\n" {
		t.Fatalf("unexpected output: %q", got)
	}
	step("config", "add-engine", "local", "http://localhost:8080/engine-rest/", "-u", "demo", "-p", "demo", "--select")
	step("config", "add-engine", "prod", "https://camunda.example.com/engine-rest", "--no-verify")

	if got := step("config", "get-engines"); got != "local *\nprod\n" {
		t.Fatalf("unexpected engines: %q", got)
	}
	if got := step("config", "use-engine", "prod"); got != "engine prod selected\n" {
		t.Fatalf("unexpected output: %q", got)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	local, err := cfg.Engine("local")
	if err != nil {
		t.Fatal(err)
	}
	if local.URL != "http://localhost:8080/engine-rest" || local.Auth == nil || local.Auth.User != "demo" || !local.Verify {
		t.Fatalf("unexpected engine: %+v", local)
	}
	prod, _ := cfg.Engine("prod")
	if prod.Verify || prod.Auth != nil {
		t.Fatalf("unexpected engine: %+v", prod)
	}

	step("config", "remove-engine", "prod")
	if got := step("config", "get-engines"); got != "local\n" {
		t.Fatalf("unexpected engines: %q", got)
	}
}

func TestConfigAliases(t *testing.T) {
	path := writeTestConfig(t, "", nil)

	step := func(args ...string) string {
		t.Helper()
		out, errBuf, run := newTestRoot(t)
		if err := run(args...); err != nil {
			t.Fatalf("%v: %v (stderr=%s)", args, err, errBuf.String())
		}
		return out.String()
	}

	step("config", "add-alias", "processInstances", "pi")
	got := step("config", "get-alias")
	if !strings.Contains(got, "alias") || !strings.Contains(got, "pi") || !strings.Contains(got, "processInstances") {
		t.Fatalf("unexpected alias table: %q", got)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Alias["pi"] != "processInstances" {
		t.Fatalf("alias not saved: %v", cfg.Alias)
	}

	step("config", "remove-alias", "pi")
	if got := step("config", "get-alias"); got != "empty result\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestSchema(t *testing.T) {
	writeTestConfig(t, "", nil)

	{
		out, errBuf, run := newTestRoot(t)
		if err := run("schema"); err != nil {
			t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
		}
		if !strings.Contains(out.String(), "TaskDto\n") {
			t.Fatalf("expected TaskDto in list: %s", out.String())
		}
	}

	{
		out, errBuf, run := newTestRoot(t)
		if err := run("schema", "TaskDto", "-f", "json"); err != nil {
			t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
		}
		var got map[string]any
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("parse output: %v (out=%s)", err, out.String())
		}
		if _, ok := got["properties"].(map[string]any); !ok {
			t.Fatalf("expected properties: %s", out.String())
		}
	}

	{
		out, errBuf, run := newTestRoot(t)
		if err := run("schema", "TaskDto"); err != nil {
			t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
		}
		if !strings.Contains(out.String(), "required:") || !strings.Contains(out.String(), "- name\n") {
			t.Fatalf("unexpected yaml: %s", out.String())
		}
	}

	{
		out, errBuf, run := newTestRoot(t)
		if err := run("schema", "TaskDto", "--example", "--seed", "7", "-f", "json"); err != nil {
			t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
		}
		var got map[string]any
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("parse output: %v (out=%s)", err, out.String())
		}
	}

	{
		_, _, run := newTestRoot(t)
		if err := run("schema", "NoSuchDto"); err == nil {
			t.Fatalf("expected error for unknown schema")
		}
	}
}

func TestSpecList(t *testing.T) {
	writeTestConfig(t, "", nil)

	out, errBuf, run := newTestRoot(t)
	if err := run("spec", "list"); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errBuf.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 specs, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "latest\topenapi-latest.json") || !strings.HasSuffix(lines[0], "*") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestInvalidLogLevel(t *testing.T) {
	writeTestConfig(t, "", nil)

	_, _, run := newTestRoot(t)
	err := run("--log-level", "loud", "version")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Fatalf("expected invalid log level error, got %v", err)
	}
}
