// Package graph generates DOT and Mermaid dependency graphs of synthesized
// stacks.
package graph

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/serialize"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// mermaidBreak separates the lines of a Mermaid node label.
const mermaidBreak = "<br/>"

// ParseFormat validates a graph format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatDOT, "":
		return FormatDOT, nil
	case FormatMermaid:
		return FormatMermaid, nil
	}
	return "", fmt.Errorf("unknown graph format %q (want dot or mermaid)", s)
}

// Generator creates dependency graphs from stack templates.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format
}

// Stack is one stack to draw.
type Stack struct {
	Name     string
	Template *bookworm.Template
}

// Generate draws every stack as a cluster of its resources. Edges point
// from a resource to what it depends on; GetAtt edges are blue and edges
// through Fn::ImportValue into another stack are dashed.
func (g *Generator) Generate(stacks []Stack, w io.Writer) error {
	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	graph := g.buildGraph(stacks, format)

	var output string
	if format == FormatMermaid {
		// Mermaid labels are HTML-escaped; the line break has to survive.
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
		output = strings.ReplaceAll(output, html.EscapeString(mermaidBreak), mermaidBreak)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(stacks []Stack) (string, error) {
	var sb strings.Builder
	if err := g.Generate(stacks, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FromAssembly builds every stack of an assembly, in construction order.
func FromAssembly(a *template.Assembly) ([]Stack, error) {
	templates, err := a.Templates()
	if err != nil {
		return nil, err
	}
	var out []Stack
	for _, s := range a.Stacks() {
		out = append(out, Stack{Name: s.Name(), Template: templates[s.Name()]})
	}
	return out, nil
}

// nodeID is unique across stacks.
func nodeID(stack, logicalID string) string {
	return stack + "/" + logicalID
}

// buildGraph creates the dot.Graph structure from the templates.
func (g *Generator) buildGraph(stacks []Stack, format Format) *dot.Graph {
	lineBreak := "\n"
	if format == FormatMermaid {
		lineBreak = mermaidBreak
	}

	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")
	graph.Attr("compound", "true")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	nodes := make(map[string]dot.Node)
	exports := make(map[string][]string) // export name -> node IDs

	for _, s := range stacks {
		cluster := graph.Subgraph(s.Name, dot.ClusterOption{})
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")

		for _, id := range logicalIDs(s.Template) {
			n := cluster.Node(nodeID(s.Name, id))
			n.Label(id + lineBreak + "[" + s.Template.Resources[id].Type + "]")
			nodes[nodeID(s.Name, id)] = n
		}

		for _, name := range outputNames(s.Template) {
			out := s.Template.Outputs[name]
			if out.Export == nil {
				continue
			}
			for _, ref := range serialize.References(out.Value) {
				if _, ok := s.Template.Resources[ref]; ok {
					exports[out.Export.Name] = append(exports[out.Export.Name], nodeID(s.Name, ref))
				}
			}
		}
	}

	for _, s := range stacks {
		for _, id := range logicalIDs(s.Template) {
			def := s.Template.Resources[id]
			from := nodes[nodeID(s.Name, id)]

			getAtts := getAttTargets(def.Properties)
			for _, dep := range template.Dependencies(s.Template, id) {
				e := graph.Edge(from, nodes[nodeID(s.Name, dep)])
				if getAtts[dep] {
					e.Attr("color", "blue")
				}
			}

			for _, name := range importNames(def.Properties) {
				for _, target := range exports[name] {
					e := graph.Edge(from, nodes[target])
					e.Attr("style", "dashed")
					e.Label(name)
				}
			}
		}
	}

	return graph
}

func logicalIDs(t *bookworm.Template) []string {
	ids := make([]string, 0, len(t.Resources))
	for id := range t.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func outputNames(t *bookworm.Template) []string {
	names := make([]string, 0, len(t.Outputs))
	for name := range t.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getAttTargets returns the logical IDs v reads attributes of.
func getAttTargets(v any) map[string]bool {
	out := map[string]bool{}
	walk(v, func(m map[string]any) {
		switch ga := m["Fn::GetAtt"].(type) {
		case []any:
			if len(ga) > 0 {
				if id, ok := ga[0].(string); ok {
					out[id] = true
				}
			}
		case string:
			id, _, _ := strings.Cut(ga, ".")
			out[id] = true
		}
	})
	return out
}

// importNames returns the literal export names v imports.
func importNames(v any) []string {
	seen := map[string]bool{}
	walk(v, func(m map[string]any) {
		if name, ok := m["Fn::ImportValue"].(string); ok {
			seen[name] = true
		}
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// walk calls fn for every map inside v.
func walk(v any, fn func(map[string]any)) {
	switch x := v.(type) {
	case map[string]any:
		fn(x)
		for _, child := range x {
			walk(child, fn)
		}
	case []any:
		for _, child := range x {
			walk(child, fn)
		}
	}
}
