package openapi

// Document is one loaded OpenAPI document. It is immutable after Load.
type Document struct {
	// Version is the spec version key the document was loaded for (e.g. "latest").
	Version string
	// Filename is the embedded filename (basename).
	Filename string
	Spec     *Spec

	raw []byte
}

// Raw returns the document bytes as they were embedded.
func (d *Document) Raw() []byte { return d.raw }

// Spec is a minimal OpenAPI 3 model sufficient for generating CLI commands.
// Unknown JSON fields are ignored.
type Spec struct {
	OpenAPI string   `json:"openapi"`
	Info    Info     `json:"info"`
	Servers []Server `json:"servers,omitempty"`

	Tags []Tag `json:"tags,omitempty"`

	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components,omitempty"`
}

type Info struct {
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
}

type Tag struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type Components struct {
	Schemas    map[string]Schema    `json:"schemas,omitempty"`
	Parameters map[string]Parameter `json:"parameters,omitempty"`
}

type PathItem struct {
	Get     *Operation `json:"get,omitempty"`
	Post    *Operation `json:"post,omitempty"`
	Put     *Operation `json:"put,omitempty"`
	Delete  *Operation `json:"delete,omitempty"`
	Patch   *Operation `json:"patch,omitempty"`
	Head    *Operation `json:"head,omitempty"`
	Options *Operation `json:"options,omitempty"`
}

type Operation struct {
	OperationID string   `json:"operationId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`

	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses,omitempty"`
}

type Parameter struct {
	Ref         string `json:"$ref,omitempty"`
	Name        string `json:"name,omitempty"`
	In          string `json:"in,omitempty"` // path, query, header, cookie
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`

	Schema *Schema `json:"schema,omitempty"`
}

type RequestBody struct {
	Ref      string               `json:"$ref,omitempty"`
	Required bool                 `json:"required,omitempty"`
	Content  map[string]MediaType `json:"content,omitempty"`
}

type Response struct {
	Ref         string               `json:"$ref,omitempty"`
	Description string               `json:"description,omitempty"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

type Schema struct {
	Ref         string            `json:"$ref,omitempty"`
	Type        string            `json:"type,omitempty"`
	Format      string            `json:"format,omitempty"`
	Description string            `json:"description,omitempty"`
	Nullable    bool              `json:"nullable,omitempty"`
	Enum        []any             `json:"enum,omitempty"`
	Example     any               `json:"example,omitempty"`
	Minimum     *float64          `json:"minimum,omitempty"`
	Maximum     *float64          `json:"maximum,omitempty"`
	Items       *Schema           `json:"items,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
	AllOf       []*Schema         `json:"allOf,omitempty"`
	AnyOf       []*Schema         `json:"anyOf,omitempty"`
	OneOf       []*Schema         `json:"oneOf,omitempty"`

	AdditionalProperties any `json:"additionalProperties,omitempty"`
}
