// Package serialize turns typed resource structs into CloudFormation
// property maps and finds the logical IDs those properties reference.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	bookworm "github.com/lex00/bookworm-infra-go"
)

// Properties serializes a resource to CloudFormation properties.
// It handles:
// - PascalCase names taken from json tags (Type_ becomes Type)
// - Omitting nil/zero values, except values held in an `any` field
// - Nested property structs
// - Intrinsics and other json.Marshaler values, kept verbatim
func Properties(r bookworm.Resource) (map[string]any, error) {
	if r == nil {
		return nil, fmt.Errorf("nil resource")
	}
	props, err := structFields(reflect.ValueOf(r))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.ResourceType(), err)
	}
	return props, nil
}

func structFields(val reflect.Value) (map[string]any, error) {
	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %s", val.Kind())
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := value(fieldVal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

// fieldName returns the CloudFormation property name for a struct field.
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.TrimSuffix(field.Name, "_")
	}
	return name
}

// isZeroValue reports whether a field can be dropped. Interfaces are only
// zero when nil, so an explicit 0 or false assigned to an `any` survives.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// value converts a reflect.Value to a JSON-compatible value.
func value(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		if v.CanInterface() {
			if _, ok := v.Interface().(json.Marshaler); ok {
				return marshaled(v.Interface())
			}
		}
		return value(v.Elem())
	}

	if v.CanInterface() {
		if _, ok := v.Interface().(json.Marshaler); ok {
			return marshaled(v.Interface())
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return structFields(v)

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := value(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := value(iter.Value())
			if err != nil {
				return nil, err
			}
			result[fmt.Sprint(iter.Key().Interface())] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		return marshaled(v.Interface())
	}
}

func marshaled(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// subPlaceholder matches ${Name} and ${Name.Attr}; ${!Literal} is an escape.
var subPlaceholder = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// References returns the logical IDs referenced from v through Ref,
// Fn::GetAtt and Fn::Sub placeholders. Pseudo parameters (AWS::*) and
// Fn::Sub variables bound by the substitution map are excluded.
// The result is sorted and free of duplicates.
func References(v any) []string {
	seen := make(map[string]bool)
	collect(v, seen)

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

func collect(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["Ref"].(string); ok && len(val) == 1 {
			addRef(ref, seen)
			return
		}
		if getAtt, ok := val["Fn::GetAtt"]; ok && len(val) == 1 {
			switch args := getAtt.(type) {
			case []any:
				if len(args) > 0 {
					if name, ok := args[0].(string); ok {
						addRef(name, seen)
					}
				}
			case []string:
				if len(args) > 0 {
					addRef(args[0], seen)
				}
			case string:
				name, _, _ := strings.Cut(args, ".")
				addRef(name, seen)
			}
			return
		}
		if sub, ok := val["Fn::Sub"]; ok && len(val) == 1 {
			collectSub(sub, seen)
			return
		}
		for _, elem := range val {
			collect(elem, seen)
		}
	case []any:
		for _, elem := range val {
			collect(elem, seen)
		}
	}
}

func collectSub(sub any, seen map[string]bool) {
	var (
		body string
		vars map[string]any
	)
	switch s := sub.(type) {
	case string:
		body = s
	case []any:
		if len(s) > 0 {
			body, _ = s[0].(string)
		}
		if len(s) > 1 {
			vars, _ = s[1].(map[string]any)
		}
	}

	for _, m := range subPlaceholder.FindAllStringSubmatch(body, -1) {
		name, _, _ := strings.Cut(m[1], ".")
		if _, bound := vars[name]; bound {
			continue
		}
		addRef(name, seen)
	}
	for _, bound := range vars {
		collect(bound, seen)
	}
}

func addRef(name string, seen map[string]bool) {
	if name == "" || strings.HasPrefix(name, "AWS::") {
		return
	}
	seen[name] = true
}
