// Package schema provides offline CloudFormation schema validation.
// It checks the resource types the bookworm stacks declare for required
// properties, property types and enumerated values.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lex00/cloudformation-schema-go/enums"

	bookworm "github.com/lex00/bookworm-infra-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties missing from the schema as warnings.
	Strict bool
}

// Result contains schema validation results.
type Result struct {
	Valid    bool                   `json:"valid"`
	Errors   []bookworm.SchemaError `json:"errors,omitempty"`
	Warnings []bookworm.SchemaError `json:"warnings,omitempty"`
}

// ValidateTemplate validates a CloudFormation template against known schemas.
// Findings are ordered by resource.
func ValidateTemplate(template *bookworm.Template, opts Options) (*Result, error) {
	if template == nil {
		return nil, fmt.Errorf("template is nil")
	}
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errors, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errors...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result, nil
}

// validateResource validates a single resource.
func validateResource(name string, resource bookworm.ResourceDef, opts Options) ([]bookworm.SchemaError, []bookworm.SchemaError) {
	var errors, warnings []bookworm.SchemaError

	if !isValidResourceType(resource.Type) {
		errors = append(errors, bookworm.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
		return errors, warnings
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, bookworm.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errors, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errors = append(errors, bookworm.SchemaError{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for propName := range resource.Properties {
		props = append(props, propName)
	}
	sort.Strings(props)

	for _, propName := range props {
		propValue := resource.Properties[propName]
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, bookworm.SchemaError{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}

		errors = append(errors, validateProperty(name, propName, propValue, propSchema)...)
	}

	return errors, warnings
}

// isValidResourceType checks if a resource type has valid format.
func isValidResourceType(resourceType string) bool {
	// AWS::Service::Resource or Custom::*
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS" || parts[0] == "Alexa"
}

// validateProperty validates a property value against its schema.
func validateProperty(resource, property string, value any, schema PropertySchema) []bookworm.SchemaError {
	var errors []bookworm.SchemaError

	if !isValidType(value, schema.Type) {
		errors = append(errors, bookworm.SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
		return errors
	}

	strVal, ok := scalarString(value)
	if !ok {
		return errors
	}

	if len(schema.AllowedValues) > 0 && !contains(schema.AllowedValues, strVal) {
		errors = append(errors, bookworm.SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
		})
	}

	if schema.Enum != nil && !isValidEnumValue(*schema.Enum, property, strVal) {
		errors = append(errors, bookworm.SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("invalid %s value: %q", property, strVal),
		})
	}

	return errors
}

// isValidEnumValue checks value against the service's enum for the
// property. Properties without a known enum accept any value.
func isValidEnumValue(ref EnumRef, property, value string) bool {
	enumName := ref.Name
	if enumName == "" {
		enumName = enums.GetEnumForProperty(ref.Service, property)
	}
	if enumName == "" {
		return true
	}
	return enums.IsValidValue(ref.Service, enumName, value)
}

// isValidType checks if a value matches the expected type.
func isValidType(value any, expectedType string) bool {
	// intrinsic functions resolve at deploy time
	if m, ok := value.(map[string]any); ok {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		// CloudFormation accepts numeric strings.
		if s, ok := value.(string); ok {
			var n float64
			_, err := fmt.Sscan(s, &n)
			return err == nil
		}
		return false
	case "Boolean":
		switch v := value.(type) {
		case bool:
			return true
		case string:
			return v == "true" || v == "false"
		}
		return false
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	case "Json":
		switch value.(type) {
		case map[string]any, string:
			return true
		}
		return false
	default:
		return true
	}
}

// scalarString renders strings and numbers for comparison with allowed values.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	// Enum names a botocore enum in cloudformation-schema-go/enums.
	Enum *EnumRef
}

// EnumRef identifies an enum. An empty Name is looked up by property.
type EnumRef struct {
	Service string
	Name    string
}
