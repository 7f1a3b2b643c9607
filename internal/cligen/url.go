package cligen

import (
	"fmt"
	"net/url"
	"strings"
)

// extractPathParams lists the {name} placeholders of a path template.
func extractPathParams(path string) []string {
	var out []string
	for i := 0; i < len(path); i++ {
		if path[i] != '{' {
			continue
		}
		j := strings.IndexByte(path[i:], '}')
		if j <= 1 {
			continue
		}
		out = append(out, path[i+1:i+j])
		i += j
	}
	return out
}

// expandPath substitutes args positionally for the named placeholders. Each
// value is path-escaped, so an id containing "/" stays one segment.
func expandPath(template string, names, args []string) (string, error) {
	if len(names) != len(args) {
		return "", fmt.Errorf("%s expects %d argument(s), got %d", template, len(names), len(args))
	}
	out := template
	for i, name := range names {
		placeholder := "{" + name + "}"
		if !strings.Contains(out, placeholder) {
			return "", fmt.Errorf("path %s has no placeholder for parameter %q", template, name)
		}
		out = strings.ReplaceAll(out, placeholder, url.PathEscape(args[i]))
	}
	return out, nil
}

// firstSegment returns "task" for "/task/{id}/complete".
func firstSegment(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return seg
}

func hasSegment(path, segment string) bool {
	for _, s := range strings.Split(strings.Trim(path, "/"), "/") {
		if s == segment {
			return true
		}
	}
	return false
}
