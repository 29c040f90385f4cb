package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// rootField keys issues reported against the document itself.
const rootField = "$"

// Issue is one schema failure. Field is the dotted instance path, for
// example "server.read_timeout".
type Issue struct {
	Field   string
	Message string
}

// SchemaError groups the issues found in one document.
type SchemaError struct {
	Issues []Issue
	Cause  error
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	return e.Fields().Error()
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaValidation
}

// Fields reports the issues as FieldErrors.
func (e *SchemaError) Fields() FieldErrors {
	out := FieldErrors{}
	for _, issue := range e.Issues {
		out.Add(issue.Field, issue.Message)
	}
	return out
}

// Issues extracts schema issues from err.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) && schemaErr != nil {
		return schemaErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return leafIssues(validationErr)
	}
	return []Issue{{Field: rootField, Message: err.Error()}}
}

// Schema is a compiled JSON schema document.
type Schema struct {
	compiled *jsonschema.Schema
}

// CompileSchema compiles a draft 2020-12 JSON schema document.
func CompileSchema(name string, document []byte) (*Schema, error) {
	if name = strings.TrimSpace(name); name == "" {
		name = "schema.json"
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(document)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

// ValidateJSON decodes raw and validates it. Numbers are kept as
// json.Number so integer keywords see the literal value.
func (s *Schema) ValidateJSON(raw []byte) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return &SchemaError{Issues: Issues(err), Cause: err}
	}
	return nil
}

func leafIssues(root *jsonschema.ValidationError) []Issue {
	var issues []Issue
	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Field:   fieldPath(node.InstanceLocation),
				Message: strings.TrimSpace(node.Message),
			})
			continue
		}
		for i := len(node.Causes) - 1; i >= 0; i-- {
			stack = append(stack, node.Causes[i])
		}
	}
	return issues
}

// fieldPath turns a JSON pointer such as "/server/address" into
// "server.address".
func fieldPath(pointer string) string {
	pointer = strings.Trim(strings.TrimSpace(pointer), "#/")
	if pointer == "" {
		return rootField
	}
	parts := strings.Split(pointer, "/")
	for i, part := range parts {
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(part)
	}
	return strings.Join(parts, ".")
}
