// resources.go
package openapi2mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// SchemaMIMEType is the MIME type used for resources derived from component
// schemas.
const SchemaMIMEType = "application/schema+json"

// SpecResourceURI is the URI of the resource exposing the whole document.
const SpecResourceURI = "openapi://spec"

// ResourceContent is the success payload of a resource read.
type ResourceContent struct {
	URI      string
	MIMEType string
	Text     string
}

// SchemaResource is one synthesized resource: static content derived at
// synthesis time, so Read performs no I/O.
type SchemaResource struct {
	URI      string
	Name     string
	MIMEType string
	content  string
}

// Read returns the resource content. It cannot fail for statically derived
// resources, but keeps the Result shape so dynamic resources share the
// contract.
func (r *SchemaResource) Read() Result[ResourceContent] {
	return Ok(ResourceContent{URI: r.URI, MIMEType: r.MIMEType, Text: r.content})
}

// BuildSchemaResources derives one resource per named component schema (URI
// schema://{name}) plus one for the whole document (openapi://spec). Schemas
// that fail to map are returned as warnings alongside the built resources,
// never silently dropped.
func BuildSchemaResources(doc *openapi3.T) ([]*SchemaResource, []string) {
	var resources []*SchemaResource
	var warnings []string

	if docJSON, err := json.MarshalIndent(doc, "", "  "); err == nil {
		resources = append(resources, &SchemaResource{
			URI:      SpecResourceURI,
			Name:     "openapi-spec",
			MIMEType: "application/json",
			content:  string(docJSON),
		})
	} else {
		warnings = append(warnings, fmt.Sprintf("could not serialize spec document: %v", err))
	}

	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return resources, warnings
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := doc.Components.Schemas[name]
		prop := extractProperty(ref)
		if prop == nil {
			warnings = append(warnings, fmt.Sprintf("schema %q could not be mapped to a resource", name))
			continue
		}
		content, err := json.MarshalIndent(prop, "", "  ")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("schema %q is not serializable: %v", name, err))
			continue
		}
		resources = append(resources, &SchemaResource{
			URI:      "schema://" + name,
			Name:     name,
			MIMEType: SchemaMIMEType,
			content:  string(content),
		})
	}
	return resources, warnings
}

// RegisterSchemaResources builds and registers all schema resources on the
// server. Returns the mapping warnings collected during synthesis.
func RegisterSchemaResources(server *mcpserver.MCPServer, doc *openapi3.T) []string {
	resources, warnings := BuildSchemaResources(doc)
	for _, res := range resources {
		res := res
		descriptor := mcp.NewResource(res.URI, res.Name,
			mcp.WithResourceDescription("JSON schema derived from the OpenAPI component "+res.Name),
			mcp.WithMIMEType(res.MIMEType),
		)
		server.AddResource(descriptor, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			content, err := res.Read().Unwrap()
			if err != nil {
				return nil, &ResourceError{Kind: ToolErrorTransport, URI: res.URI, Cause: err}
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: content.URI, MIMEType: content.MIMEType, Text: content.Text},
			}, nil
		})
	}
	return warnings
}
