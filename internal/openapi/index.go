package openapi

import (
	"fmt"
	"sort"
	"strings"
)

// OperationRef locates one operation inside the document.
type OperationRef struct {
	OperationID string
	Path        string
	Verb        string // lowercase path item key
	Operation   *Operation
}

func (r OperationRef) String() string {
	return strings.ToUpper(r.Verb) + " " + r.Path
}

// Index provides lookups over a Spec. It is built once and read-only
// afterwards, so a single Index may be shared by every command.
type Index struct {
	spec *Spec

	ids    []string
	byID   map[string]OperationRef
	byVerb map[string][]string
}

// NewIndex indexes every verb of every path. Operations without an
// operationId and duplicate ids are rejected.
func NewIndex(spec *Spec) (*Index, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil OpenAPI spec")
	}
	idx := &Index{
		spec:   spec,
		byID:   map[string]OperationRef{},
		byVerb: map[string][]string{},
	}

	paths := make([]string, 0, len(spec.Paths))
	for p := range spec.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		item := spec.Paths[p]
		for _, vo := range item.Operations() {
			id := strings.TrimSpace(vo.Operation.OperationID)
			if id == "" {
				return nil, fmt.Errorf("%s %s missing operationId", strings.ToUpper(vo.Verb), p)
			}
			ref := OperationRef{OperationID: id, Path: p, Verb: vo.Verb, Operation: vo.Operation}
			if prev, ok := idx.byID[id]; ok {
				return nil, &DuplicateOperationError{OperationID: id, First: prev.String(), Second: ref.String()}
			}
			idx.ids = append(idx.ids, id)
			idx.byID[id] = ref
			idx.byVerb[vo.Verb] = append(idx.byVerb[vo.Verb], id)
		}
	}
	return idx, nil
}

func (x *Index) Spec() *Spec { return x.spec }

// OperationIDs returns all ids in document order (sorted paths, verb order).
func (x *Index) OperationIDs() []string {
	return append([]string(nil), x.ids...)
}

// OperationIDsByVerb returns the ids of one verb, e.g. "get".
func (x *Index) OperationIDsByVerb(verb string) []string {
	return append([]string(nil), x.byVerb[strings.ToLower(verb)]...)
}

func (x *Index) Has(operationID string) bool {
	_, ok := x.byID[operationID]
	return ok
}

func (x *Index) Lookup(operationID string) (OperationRef, error) {
	ref, ok := x.byID[operationID]
	if !ok {
		return OperationRef{}, &OperationNotFoundError{OperationID: operationID}
	}
	return ref, nil
}

// SchemaName returns the component name referenced by the operation's JSON
// request body. ok is false when the operation has no such body.
func (x *Index) SchemaName(operationID string) (name string, ok bool, err error) {
	ref, err := x.Lookup(operationID)
	if err != nil {
		return "", false, err
	}
	rb := ref.Operation.RequestBody
	if rb == nil {
		return "", false, nil
	}
	mt, found := jsonMediaType(rb.Content)
	if !found || mt.Schema == nil || mt.Schema.Ref == "" {
		return "", false, nil
	}
	name, valid := SchemaRefName(mt.Schema.Ref)
	if !valid {
		return "", false, &SchemaResolutionError{OperationID: operationID, Ref: mt.Schema.Ref, Reason: "expected #/components/schemas/<Name>"}
	}
	if _, exists := x.spec.Components.Schemas[name]; !exists {
		return "", false, &SchemaResolutionError{OperationID: operationID, Ref: mt.Schema.Ref, Reason: "no such schema component"}
	}
	return name, true, nil
}

// SchemaFor resolves the request body schema. A nil schema with a nil error
// means the operation takes no JSON body reference.
func (x *Index) SchemaFor(operationID string) (*Schema, error) {
	name, ok, err := x.SchemaName(operationID)
	if err != nil || !ok {
		return nil, err
	}
	s := x.spec.Components.Schemas[name]
	return &s, nil
}

// ResponseSchema returns the dereferenced JSON schema of the given response
// status, or nil.
func (x *Index) ResponseSchema(operationID, status string) *Schema {
	ref, err := x.Lookup(operationID)
	if err != nil {
		return nil
	}
	resp, ok := ref.Operation.Responses[status]
	if !ok {
		return nil
	}
	mt, ok := jsonMediaType(resp.Content)
	if !ok {
		return nil
	}
	return x.spec.DerefSchema(mt.Schema)
}

func jsonMediaType(content map[string]MediaType) (MediaType, bool) {
	if mt, ok := content["application/json"]; ok {
		return mt, true
	}
	for ct, mt := range content {
		if strings.HasPrefix(ct, "application/json") {
			return mt, true
		}
	}
	return MediaType{}, false
}
