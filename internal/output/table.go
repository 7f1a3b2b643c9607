package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/pflag"
)

const emptyResult = "empty result"

type tableRenderer struct {
	opts Options

	header    string
	cellLimit int
}

func (r *tableRenderer) Name() string { return "table" }
func (r *tableRenderer) Kind() Kind   { return KindTable }

func (r *tableRenderer) BindFlags(fs *pflag.FlagSet) {
	r.cellLimit = r.opts.CellLimit
	bindTableFlags(fs, &r.header, &r.cellLimit)
}

func bindTableFlags(fs *pflag.FlagSet, header *string, cellLimit *int) {
	if fs.Lookup("output-header") == nil {
		fs.StringVar(header, "output-header", "", "comma separated list of table headers")
	}
	if fs.Lookup("output-cell-limit") == nil {
		fs.IntVar(cellLimit, "output-cell-limit", *cellLimit, "limit cell values in table output")
	}
}

func (r *tableRenderer) limit() int {
	if r.cellLimit != 0 {
		return r.cellLimit
	}
	return r.opts.CellLimit
}

func (r *tableRenderer) Render(w io.Writer, result any, _ RenderContext) error {
	result, doc := unwrap(result)
	rows := toRows(result)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, emptyResult)
		return err
	}

	headers := splitList(r.header)
	if len(headers) == 0 {
		headers = r.opts.Headers
	}
	if len(headers) == 0 {
		first, ok := rows[0].(map[string]any)
		if !ok {
			cells := make([][]string, 0, len(rows))
			for _, row := range rows {
				cells = append(cells, []string{truncate(cellString(row), r.limit())})
			}
			return writeTable(w, []string{"unknown"}, cells)
		}
		var order []string
		if doc != nil {
			order = doc.Keys
		}
		headers = orderedKeys(first, order, r.opts.Blacklist)
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		m, _ := row.(map[string]any)
		line := make([]string, len(headers))
		for i, h := range headers {
			line[i] = truncate(cellString(m[h]), r.limit())
		}
		cells = append(cells, line)
	}
	return writeTable(w, headers, cells)
}

type objectTableRenderer struct {
	table tableRenderer
}

func (r *objectTableRenderer) Name() string { return "table" }
func (r *objectTableRenderer) Kind() Kind   { return KindObjectTable }

func (r *objectTableRenderer) BindFlags(fs *pflag.FlagSet) {
	r.table.BindFlags(fs)
}

// Render prints a single object as key/value rows. The header flag acts as an
// allow-list of keys.
func (r *objectTableRenderer) Render(w io.Writer, result any, rc RenderContext) error {
	value, doc := unwrap(result)
	obj, ok := value.(map[string]any)
	if !ok {
		return r.table.Render(w, result, rc)
	}
	var order []string
	if doc != nil {
		order = doc.Keys
	}

	allow := splitList(r.table.header)
	if len(allow) == 0 {
		allow = r.table.opts.Headers
	}

	keys := make([]string, 0, len(obj))
	for _, k := range orderedKeys(obj, order, r.table.opts.Blacklist) {
		if len(allow) > 0 && !contains(allow, k) {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		_, err := fmt.Fprintln(w, emptyResult)
		return err
	}

	cells := make([][]string, 0, len(keys))
	for _, k := range keys {
		cells = append(cells, []string{k, truncate(cellString(obj[k]), r.table.limit())})
	}
	return writeTable(w, []string{"key", "value"}, cells)
}

func toRows(result any) []any {
	switch v := result.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return []any{v}
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return []any{string(v)}
	default:
		return []any{v}
	}
}

// columns returns the keys of row in sorted order, without blacklisted ones.
func columns(row map[string]any, blacklist []string) []string {
	out := make([]string, 0, len(row))
	for k := range row {
		if !contains(blacklist, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func cellString(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case json.Number:
		s = t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(b)
		}
	default:
		s = fmt.Sprint(t)
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	rule := make([]string, len(headers))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	// tabwriter pads empty trailing cells
	for _, line := range strings.SplitAfter(buf.String(), "\n") {
		if line == "" {
			continue
		}
		if _, err := io.WriteString(w, strings.TrimRight(line, " \n")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
