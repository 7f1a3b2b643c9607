package cligen

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/camundactl/camundactl/internal/enginehttp"
	"github.com/camundactl/camundactl/internal/openapi"
	"go.uber.org/zap"
)

// resourceEndpoints maps the resource kinds with live id completion to
// their collection endpoints.
var resourceEndpoints = map[string]string{
	"process-instance":   "/process-instance",
	"process-definition": "/process-definition",
	"task":               "/task",
	"incident":           "/incident",
}

// optionEndpoints maps query parameter names to the collection listing
// their values.
var optionEndpoints = map[string]string{
	"processInstanceId":   "/process-instance",
	"processDefinitionId": "/process-definition",
	"taskId":              "/task",
	"incidentId":          "/incident",
}

// Completer suggests resource ids by querying the engine.
type Completer struct {
	client ClientSource
	log    *zap.Logger
}

func NewCompleter(client ClientSource, log *zap.Logger) *Completer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Completer{client: client, log: log.Named("completion")}
}

// For returns a completion callback listing the ids at endpoint.
func (c *Completer) For(endpoint string) CompletionFunc {
	return func(ctx context.Context, partial string) []string {
		ids, err := c.ids(ctx, endpoint, partial)
		if err != nil {
			c.log.Warn("completion failed", zap.String("endpoint", endpoint), zap.Error(err))
			return []string{}
		}
		return ids
	}
}

func (c *Completer) ids(ctx context.Context, endpoint, partial string) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("no engine client")
	}
	client, err := c.client()
	if err != nil {
		return nil, err
	}
	res, err := client.Do(ctx, enginehttp.Request{Method: http.MethodGet, Path: endpoint})
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	v, err := res.JSON()
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list from %s, got %T", endpoint, v)
	}

	out := []string{}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := obj["id"].(string)
		if ok && strings.HasPrefix(id, partial) {
			out = append(out, id)
		}
	}
	return out, nil
}

// ArgCompletions wires the "id" argument of paths under a known resource
// kind, e.g. /task/{id}/complete.
func (c *Completer) ArgCompletions(path string) map[string]CompletionFunc {
	out := map[string]CompletionFunc{}
	if c == nil {
		return out
	}
	if endpoint, ok := resourceEndpoints[firstSegment(path)]; ok && hasSegment(path, "{id}") {
		out["id"] = c.For(endpoint)
	}
	return out
}

// OptionCompletions wires the query parameters of op that name a known
// resource id.
func (c *Completer) OptionCompletions(spec *openapi.Spec, op *openapi.Operation) map[string]CompletionFunc {
	out := map[string]CompletionFunc{}
	if c == nil {
		return out
	}
	for _, p := range parameters(spec, op, "query") {
		if endpoint, ok := optionEndpoints[p.Name]; ok {
			out[p.Name] = c.For(endpoint)
		}
	}
	return out
}
