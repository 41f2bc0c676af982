// Package template assembles typed resources into CloudFormation stacks.
//
// A Stack collects resources under logical IDs and hands out Handles that
// serialize to a Ref of the resource, so one resource can be assigned
// directly to a property of another:
//
//	queue := stack.Add("ThumbnailGenerationQueue", &sqs.Queue{...})
//	stack.Add("QueuePolicy", &sqs.QueuePolicy{Queues: []any{queue}})
//
// Build derives implicit dependencies from Ref, Fn::GetAtt and Fn::Sub
// references, orders resources topologically and rejects dangling
// references and cycles.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/internal/serialize"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

// Environment is the account and region a stack is deployed to.
type Environment struct {
	Account string
	Region  string
}

// String returns the environment in aws://<account>/<region> form.
func (e Environment) String() string {
	return "aws://" + e.Account + "/" + e.Region
}

// RemovalPolicy controls what happens to a resource when it leaves the
// stack or the stack is deleted.
type RemovalPolicy string

const (
	RemovalPolicyDestroy RemovalPolicy = "Delete"
	RemovalPolicyRetain  RemovalPolicy = "Retain"
)

// Option configures a resource added to a Stack.
type Option func(*entry)

// WithRemovalPolicy sets DeletionPolicy and UpdateReplacePolicy.
func WithRemovalPolicy(p RemovalPolicy) Option {
	return func(e *entry) { e.removal = p }
}

// DependsOn adds explicit DependsOn entries for ordering that is not
// expressed through references.
func DependsOn(handles ...Handle) Option {
	return func(e *entry) {
		for _, h := range handles {
			e.dependsOn = append(e.dependsOn, h.logicalID)
		}
	}
}

// Handle refers to a resource registered in a Stack.
// It serializes to {"Ref": "<LogicalID>"}.
type Handle struct {
	logicalID string
}

// LogicalID returns the resource's logical ID.
func (h Handle) LogicalID() string { return h.logicalID }

// Ref returns a Ref to the resource.
func (h Handle) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: h.logicalID}
}

// GetAtt returns Fn::GetAtt of one of the resource's attributes.
func (h Handle) GetAtt(attr string) intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: h.logicalID, Attribute: attr}
}

// Arn is shorthand for GetAtt("Arn").
func (h Handle) Arn() intrinsics.GetAtt {
	return h.GetAtt("Arn")
}

// MarshalJSON serializes the handle as a Ref.
func (h Handle) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": h.logicalID})
}

// Export is a stack output published under a cross-stack export name.
type Export struct {
	// Stack is the name of the producing stack.
	Stack string
	// Name is the full export name, <stack>:<output>.
	Name string
}

// Import returns Fn::ImportValue of the export.
func (e Export) Import() intrinsics.ImportValue {
	return intrinsics.ImportValue{ExportName: e.Name}
}

type entry struct {
	logicalID string
	resource  bookworm.Resource
	dependsOn []string
	removal   RemovalPolicy
}

var logicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,255}$`)

// Stack is one CloudFormation stack under construction.
type Stack struct {
	name        string
	description string
	env         Environment

	order   []string
	entries map[string]*entry
	outputs map[string]bookworm.Output
	deps    []string
	errs    []error
}

// NewStack creates an empty stack.
func NewStack(name string, env Environment, description string) *Stack {
	return &Stack{
		name:        name,
		description: description,
		env:         env,
		entries:     make(map[string]*entry),
		outputs:     make(map[string]bookworm.Output),
	}
}

// Name returns the stack name.
func (s *Stack) Name() string { return s.name }

// Environment returns the target account and region.
func (s *Stack) Environment() Environment { return s.env }

// Add registers a resource under logicalID and returns its handle.
// Invalid or duplicate IDs are reported by Build.
func (s *Stack) Add(logicalID string, r bookworm.Resource, opts ...Option) Handle {
	h := Handle{logicalID: logicalID}

	if !logicalIDPattern.MatchString(logicalID) {
		s.errs = append(s.errs, fmt.Errorf("invalid logical ID %q: must be 1-255 alphanumeric characters", logicalID))
		return h
	}
	if _, exists := s.entries[logicalID]; exists {
		s.errs = append(s.errs, fmt.Errorf("duplicate logical ID %q", logicalID))
		return h
	}
	if r == nil {
		s.errs = append(s.errs, fmt.Errorf("%s: nil resource", logicalID))
		return h
	}

	e := &entry{logicalID: logicalID, resource: r}
	for _, opt := range opts {
		opt(e)
	}
	s.entries[logicalID] = e
	s.order = append(s.order, logicalID)
	return h
}

// Resources returns the logical IDs in the order they were added.
func (s *Stack) Resources() []string {
	return append([]string(nil), s.order...)
}

// AddOutput adds a template output.
func (s *Stack) AddOutput(name string, out bookworm.Output) {
	if _, exists := s.outputs[name]; exists {
		s.errs = append(s.errs, fmt.Errorf("duplicate output %q", name))
		return
	}
	s.outputs[name] = out
}

// Export adds an output exported as <stack>:<name>.
func (s *Stack) Export(name string, value any) Export {
	exp := Export{Stack: s.name, Name: s.name + ":" + name}
	s.AddOutput(name, bookworm.Output{
		Value:  value,
		Export: &bookworm.Export{Name: exp.Name},
	})
	return exp
}

// Import returns Fn::ImportValue of an export from another stack and
// records the dependency on that stack.
func (s *Stack) Import(e Export) intrinsics.ImportValue {
	if e.Stack != "" && e.Stack != s.name {
		s.AddDependency(e.Stack)
	}
	return e.Import()
}

// AddDependency records that this stack must be deployed after stack.
func (s *Stack) AddDependency(stack string) {
	for _, d := range s.deps {
		if d == stack {
			return
		}
	}
	s.deps = append(s.deps, stack)
}

// Dependencies returns the names of the stacks this stack depends on.
func (s *Stack) Dependencies() []string {
	return append([]string(nil), s.deps...)
}

// Build constructs the CloudFormation template.
func (s *Stack) Build() (*bookworm.Template, error) {
	if len(s.errs) > 0 {
		return nil, fmt.Errorf("stack %s: %w", s.name, errors.Join(s.errs...))
	}

	tmpl := &bookworm.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              s.description,
		Resources:                make(map[string]bookworm.ResourceDef, len(s.entries)),
	}

	for _, id := range s.order {
		e := s.entries[id]

		props, err := serialize.Properties(e.resource)
		if err != nil {
			return nil, fmt.Errorf("stack %s: serializing %s: %w", s.name, id, err)
		}

		def := bookworm.ResourceDef{
			Type:       e.resource.ResourceType(),
			Properties: props,
		}
		if len(e.dependsOn) > 0 {
			def.DependsOn = dedupe(e.dependsOn)
		}
		if e.removal != "" {
			def.DeletionPolicy = string(e.removal)
			def.UpdateReplacePolicy = string(e.removal)
		}
		tmpl.Resources[id] = def
	}

	if len(s.outputs) > 0 {
		tmpl.Outputs = make(map[string]bookworm.Output, len(s.outputs))
		for name, out := range s.outputs {
			value, err := normalize(out.Value)
			if err != nil {
				return nil, fmt.Errorf("stack %s: output %s: %w", s.name, name, err)
			}
			out.Value = value
			tmpl.Outputs[name] = out
		}
	}

	if err := checkReferences(tmpl); err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.name, err)
	}
	if _, err := Order(tmpl); err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.name, err)
	}

	return tmpl, nil
}

// normalize round-trips a value through JSON so outputs hold the same
// plain maps and slices as resource properties.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkReferences reports references to logical IDs that are not in the
// template.
func checkReferences(t *bookworm.Template) error {
	var missing []string

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := t.Resources[name]
		for _, ref := range append(serialize.References(def.Properties), def.DependsOn...) {
			if _, ok := t.Resources[ref]; !ok {
				missing = append(missing, fmt.Sprintf("%s references undefined resource %s", name, ref))
			}
		}
	}

	outputs := make([]string, 0, len(t.Outputs))
	for name := range t.Outputs {
		outputs = append(outputs, name)
	}
	sort.Strings(outputs)

	for _, name := range outputs {
		for _, ref := range serialize.References(t.Outputs[name].Value) {
			if _, ok := t.Resources[ref]; !ok {
				missing = append(missing, fmt.Sprintf("output %s references undefined resource %s", name, ref))
			}
		}
	}

	if len(missing) > 0 {
		return errors.New(strings.Join(missing, "; "))
	}
	return nil
}

// Dependencies returns the logical IDs a resource depends on, through
// references in its properties and through DependsOn. IDs that are not in
// the template are dropped.
func Dependencies(t *bookworm.Template, name string) []string {
	def, ok := t.Resources[name]
	if !ok {
		return nil
	}
	var deps []string
	for _, dep := range dedupe(append(serialize.References(def.Properties), def.DependsOn...)) {
		if _, exists := t.Resources[dep]; exists && dep != name {
			deps = append(deps, dep)
		}
	}
	return deps
}

// Order returns the template's logical IDs in dependency order.
func Order(t *bookworm.Template) ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range t.Resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name := range t.Resources {
		for _, dep := range Dependencies(t, name) {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(t.Resources) {
		return nil, detectCycle(t)
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func detectCycle(t *bookworm.Template) error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		onPath[node] = true

		for _, dep := range Dependencies(t, node) {
			if !visited[dep] {
				if findCycle(dep) {
					if cycle[0] != cycle[len(cycle)-1] {
						cycle = append([]string{node}, cycle...)
					}
					return true
				}
			} else if onPath[dep] {
				cycle = []string{node, dep}
				return true
			}
		}

		onPath[node] = false
		return false
	}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(closeCycle(cycle), " → "))
	}
	return errors.New("circular dependency detected")
}

// closeCycle trims the path to the cycle proper and repeats its first
// node at the end, e.g. [A B C A].
func closeCycle(path []string) []string {
	last := path[len(path)-1]
	for i, name := range path[:len(path)-1] {
		if name == last {
			return path[i:]
		}
	}
	return append(path, path[0])
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// ToJSON serializes the template to JSON.
func ToJSON(t *bookworm.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *bookworm.Template) ([]byte, error) {
	normalized, err := normalize(t)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(normalized)
}
