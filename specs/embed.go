package specs

import "embed"

// FS contains the Camunda engine REST API documents, one per supported
// engine version, named openapi-<version>.json.
//
//go:embed openapi-*.json
var FS embed.FS
