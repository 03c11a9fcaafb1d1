package app

import _ "embed"

// OpenAPISpec is the OpenAPI document served at /docs/openapi.json
//
//go:embed openapi.json
var OpenAPISpec []byte
