package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/camundactl/camundactl/internal/cligen"
	"github.com/camundactl/camundactl/internal/enginehttp"
	"github.com/camundactl/camundactl/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// builtinTemplates are the first template source. Keys follow the
// {parent}/{command}.tpl convention.
var builtinTemplates = map[string]string{
	"describe/processInstance.tpl": `Id:                   {{ id }}
Business key:         {{ businessKey|default:"-" }}
Tenant:               {{ tenantId|default:"-" }}
Process definition:   {{ definitionId }}
Suspended:            {{ suspended }}
Ended:                {{ ended }}

Incidents:{% for i in incidents %}
  - {{ i.id }}
    type:     {{ i.incidentType }}
    activity: {{ i.activityId }}
    since:    {{ i.incidentTimestamp }}
    message:  {{ i.incidentMessage }}{% empty %} none{% endfor %}

Variables:{% for v in variables %}
  - {{ v.name }} ({{ v.type }}) = {{ v.value|tojson }}{% empty %} none{% endfor %}`,

	"describe/historicProcessInstance.tpl": `Id:                   {{ id }}
Business key:         {{ businessKey|default:"-" }}
Tenant:               {{ tenantId|default:"-" }}
Process definition:   {{ processDefinitionId }}
State:                {{ state }}
Started:              {{ startTime }}
Ended:                {{ endTime|default:"-" }}
Duration (ms):        {{ durationInMillis|default:"-" }}

Variables:{% for v in variables %}
  - {{ v.name }} ({{ v.type }}) = {{ v.value|tojson }}{% empty %} none{% endfor %}`,
}

// related is a list endpoint merged into the described object under key.
type related struct {
	key   string
	path  string
	param string
}

type describeResource struct {
	name     string
	short    string
	path     string
	complete string
	related  []related
}

var describeResources = []describeResource{
	{
		name:     "processInstance",
		short:    "Show a process instance with its variables and incidents",
		path:     "/process-instance/",
		complete: "/process-instance",
		related: []related{
			{key: "variables", path: "/variable-instance", param: "processInstanceIdIn"},
			{key: "incidents", path: "/incident", param: "processInstanceId"},
		},
	},
	{
		name:     "historicProcessInstance",
		short:    "Show a historic process instance with its variables",
		path:     "/history/process-instance/",
		complete: "/history/process-instance",
		related: []related{
			{key: "variables", path: "/history/variable-instance", param: "processInstanceId"},
		},
	},
}

func newDescribeCmd(a *app) *cobra.Command {
	describeCmd := newGroupCmd("describe", "Show a resource together with related objects")
	completer := cligen.NewCompleter(a.client, a.log)
	for _, res := range describeResources {
		describeCmd.AddCommand(newDescribeResourceCmd(a, res, completer.For(res.complete)))
	}
	return describeCmd
}

func newDescribeResourceCmd(a *app, res describeResource, complete cligen.CompletionFunc) *cobra.Command {
	pipe := output.NewPipeline(
		output.MustNew(output.KindTemplate, output.Options{Templates: a.templates}),
		output.MustNew(output.KindJSON, output.Options{}),
	)
	cmd := &cobra.Command{
		Use:               res.name + " <id>",
		Short:             res.short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return complete(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := output.RenderContext{
				Verb:    "describe",
				Parent:  "describe",
				Command: res.name,
				Args:    args,
			}
			return pipe.Run(cmd.OutOrStdout(), rc, func() (any, error) {
				client, err := a.client()
				if err != nil {
					return nil, err
				}
				return describe(cmd.Context(), client, res, args[0], a.log)
			})
		},
	}
	pipe.BindFlags(cmd.Flags())
	return cmd
}

func describe(ctx context.Context, client cligen.Doer, res describeResource, id string, log *zap.Logger) (map[string]any, error) {
	v, err := getJSON(ctx, client, res.path+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s %s: expected a JSON object", res.name, id)
	}
	for _, rel := range res.related {
		list, err := getJSON(ctx, client, rel.path, url.Values{rel.param: {id}})
		if err != nil {
			return nil, fmt.Errorf("%s of %s %s: %w", rel.key, res.name, id, err)
		}
		if list == nil {
			list = []any{}
		}
		log.Debug("describe", zap.String("resource", res.name), zap.String("related", rel.key))
		obj[rel.key] = list
	}
	return obj, nil
}

func getJSON(ctx context.Context, client cligen.Doer, path string, query url.Values) (any, error) {
	res, err := client.Do(ctx, enginehttp.Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.JSON()
}
