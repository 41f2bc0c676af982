// Package optimizer suggests security, cost, performance and reliability
// improvements for synthesized templates.
package optimizer

import (
	"fmt"
	"sort"

	bookworm "github.com/lex00/bookworm-infra-go"
)

// Categories accepted by Options.Category.
var Categories = []string{"all", "security", "cost", "performance", "reliability"}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all", "security", "cost", "performance", "reliability"
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []bookworm.OptimizeSuggestion
	Summary     bookworm.OptimizeSummary
}

// Contract converts the result to its JSON output form.
func (r *Result) Contract() bookworm.OptimizeResult {
	out := bookworm.OptimizeResult{Suggestions: r.Suggestions, Summary: r.Summary}
	if out.Suggestions == nil {
		out.Suggestions = []bookworm.OptimizeSuggestion{}
	}
	return out
}

// Resource is a resource under analysis.
type Resource struct {
	Stack string
	Name  string
	Def   bookworm.ResourceDef
}

// Optimize analyzes every resource of the templates, keyed by stack name.
// Suggestions are ordered by stack, resource and rule.
func Optimize(templates map[string]*bookworm.Template, opts Options) (*Result, error) {
	category := opts.Category
	if category == "" {
		category = "all"
	}
	if !validCategory(category) {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	result := &Result{}

	stacks := make([]string, 0, len(templates))
	for name := range templates {
		stacks = append(stacks, name)
	}
	sort.Strings(stacks)

	for _, stack := range stacks {
		t := templates[stack]
		names := make([]string, 0, len(t.Resources))
		for name := range t.Resources {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			res := Resource{Stack: stack, Name: name, Def: t.Resources[name]}
			result.Suggestions = append(result.Suggestions, analyzeResource(res, category)...)
		}
	}

	result.Summary = calculateSummary(result.Suggestions)

	return result, nil
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// analyzeResource applies optimization rules to a single resource.
func analyzeResource(res Resource, category string) []bookworm.OptimizeSuggestion {
	var suggestions []bookworm.OptimizeSuggestion

	for _, rule := range getRulesForType(res.Def.Type) {
		if category != "all" && rule.Category != category {
			continue
		}
		if s := rule.Check(res); s != nil {
			s.Stack = res.Stack
			s.Resource = res.Name
			s.Rule = rule.ID
			s.Category = rule.Category
			if s.Title == "" {
				s.Title = rule.Title
			}
			suggestions = append(suggestions, *s)
		}
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []bookworm.OptimizeSuggestion) bookworm.OptimizeSummary {
	summary := bookworm.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case "security":
			summary.Security++
		case "cost":
			summary.Cost++
		case "performance":
			summary.Performance++
		case "reliability":
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

// Rule represents an optimization rule.
type Rule struct {
	ID          string
	Category    string
	Title       string
	Description string
	Check       func(res Resource) *bookworm.OptimizeSuggestion
}

// getRulesForType returns the rules for a CloudFormation resource type.
func getRulesForType(resourceType string) []Rule {
	return rulesByType[resourceType]
}
