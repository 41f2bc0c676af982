// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    bookworm.TemplateDiff
	Summary bookworm.DiffSummary
}

// Empty reports whether the templates are equivalent.
func (r *Result) Empty() bool { return r.Summary.Total == 0 }

// Compare compares two CloudFormation templates and returns differences.
// A nil template compares as one without resources.
func Compare(template1, template2 *bookworm.Template, opts Options) (*Result, error) {
	res1, err := normalizedResources(template1)
	if err != nil {
		return nil, err
	}
	res2, err := normalizedResources(template2)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	// Find added resources (in template2 but not in template1)
	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, bookworm.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find removed resources (in template1 but not in template2)
	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, bookworm.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find modified resources
	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, bookworm.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = bookworm.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// CompareStacks compares two sets of templates keyed by stack name. A
// stack present on one side only diffs against an empty template.
func CompareStacks(before, after map[string]*bookworm.Template, opts Options) (map[string]*Result, error) {
	names := map[string]bool{}
	for name := range before {
		names[name] = true
	}
	for name := range after {
		names[name] = true
	}

	out := make(map[string]*Result, len(names))
	for name := range names {
		r, err := Compare(before[name], after[name], opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = r
	}
	return out, nil
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*bookworm.Template, error) {
	return template.Load(path)
}

// normalizedResources round-trips resources through JSON so templates
// read from YAML, JSON or built in memory compare equal.
func normalizedResources(t *bookworm.Template) (map[string]bookworm.ResourceDef, error) {
	if t == nil || len(t.Resources) == 0 {
		return map[string]bookworm.ResourceDef{}, nil
	}
	data, err := json.Marshal(t.Resources)
	if err != nil {
		return nil, err
	}
	var out map[string]bookworm.ResourceDef
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 bookworm.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %s → %s",
			orNone(def1.DeletionPolicy), orNone(def2.DeletionPolicy)))
	}
	if def1.UpdateReplacePolicy != def2.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %s → %s",
			orNone(def1.UpdateReplacePolicy), orNone(def2.UpdateReplacePolicy)))
	}

	return changes
}

// compareProperties recursively compares property maps. Nested objects
// are reported by the path of the innermost changed key.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}
		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// isIntrinsic reports whether m is a Ref or Fn:: call, which is compared
// as a whole.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || len(k) > 4 && k[:4] == "Fn::"
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts slices by their JSON encoding, recursively.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}
		sort.Slice(result, func(i, j int) bool {
			return encoded(result[i]) < encoded(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any)
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func encoded(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []bookworm.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
