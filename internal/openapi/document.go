// Package openapi builds the OpenAPI description served alongside the API.
package openapi

import (
	"encoding/json"
	"sort"
	"strings"
)

const Version = "3.0.3"

// Document represents a minimal OpenAPI document.
type Document struct {
	OpenAPI    string               `json:"openapi"`
	Info       Info                 `json:"info"`
	Paths      map[string]*PathItem `json:"paths"`
	Components Components           `json:"components,omitempty"`
}

// Info captures OpenAPI metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Components aggregates schema and security components.
type Components struct {
	Schemas         map[string]any `json:"schemas,omitempty"`
	SecuritySchemes map[string]any `json:"securitySchemes,omitempty"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]*Operation

type Operation struct {
	OperationID string              `json:"operationId"`
	Tags        []string            `json:"tags,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

type Parameter struct {
	Name     string         `json:"name"`
	In       string         `json:"in"`
	Required bool           `json:"required"`
	Schema   map[string]any `json:"schema"`
}

type Response struct {
	Description string `json:"description"`
}

// NewDocument constructs an empty document with bearer auth declared.
func NewDocument(title, version string) *Document {
	return &Document{
		OpenAPI: Version,
		Info:    Info{Title: title, Version: version},
		Paths:   map[string]*PathItem{},
		Components: Components{
			Schemas: map[string]any{},
			SecuritySchemes: map[string]any{
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
	}
}

// AddSchema registers a component schema.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.Components.Schemas == nil {
		d.Components.Schemas = map[string]any{}
	}
	d.Components.Schemas[name] = schema
}

// AddRoute records a ServeMux pattern such as "GET /blog/posts/{slug}".
// Patterns without a method are ignored.
func (d *Document) AddRoute(pattern string) {
	if d == nil {
		return
	}
	method, path, ok := strings.Cut(strings.TrimSpace(pattern), " ")
	if !ok || method == "" {
		return
	}
	path = strings.TrimSpace(path)
	item := d.Paths[path]
	if item == nil {
		item = &PathItem{}
		d.Paths[path] = item
	}
	(*item)[strings.ToLower(method)] = &Operation{
		OperationID: operationID(method, path),
		Tags:        tagsFor(path),
		Parameters:  pathParameters(path),
		Responses:   map[string]Response{"default": {Description: "JSON response"}},
	}
}

// Routes lists the recorded "METHOD path" pairs in a stable order.
func (d *Document) Routes() []string {
	if d == nil {
		return nil
	}
	var out []string
	for path, item := range d.Paths {
		for method := range *item {
			out = append(out, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(out)
	return out
}

func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func pathParameters(path string) []Parameter {
	var params []Parameter
	for _, segment := range strings.Split(path, "/") {
		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.Trim(segment, "{}"), "...")
		params = append(params, Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   map[string]any{"type": "string"},
		})
	}
	return params
}

func tagsFor(path string) []string {
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment != "" && !strings.HasPrefix(segment, "{") {
			return []string{segment}
		}
	}
	return nil
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, segment := range strings.Split(path, "/") {
		segment = strings.Trim(segment, "{}.")
		for _, part := range strings.FieldsFunc(segment, func(r rune) bool { return r == '-' || r == '_' }) {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}
