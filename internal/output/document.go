package output

// Document is a decoded response that keeps what decoding into Go maps
// loses: the server's key order and the bytes as received. Renderers accept
// a *Document wherever they accept a plain result.
type Document struct {
	Value any
	// Keys of the top-level object, or of the first element of a top-level
	// array, in wire order.
	Keys []string
	Raw  []byte
}

// unwrap returns the plain result and the document it came from, if any.
func unwrap(result any) (any, *Document) {
	if d, ok := result.(*Document); ok && d != nil {
		return d.Value, d
	}
	return result, nil
}

// orderedKeys returns the keys of row: those listed in order first, then the
// rest sorted. Blacklisted keys are dropped.
func orderedKeys(row map[string]any, order, blacklist []string) []string {
	out := make([]string, 0, len(row))
	seen := make(map[string]bool, len(row))
	for _, k := range order {
		if _, ok := row[k]; !ok || seen[k] || contains(blacklist, k) {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	for _, k := range columns(row, blacklist) {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}
