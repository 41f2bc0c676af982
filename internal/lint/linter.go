// Package lint checks synthesized templates against the security rules of
// the bookworm stacks.
package lint

import (
	"fmt"
	"sort"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

// Severity of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding.
type Issue struct {
	Rule     string
	Severity Severity
	Stack    string
	Resource string
	Message  string
}

func (i Issue) String() string {
	if i.Resource == "" {
		return fmt.Sprintf("%s: [%s] %s", i.Stack, i.Rule, i.Message)
	}
	return fmt.Sprintf("%s/%s: [%s] %s", i.Stack, i.Resource, i.Rule, i.Message)
}

// Rule checks one template.
type Rule interface {
	ID() string
	Description() string
	Check(stack string, t *bookworm.Template) []Issue
}

// Result contains the outcome of linting. Success is false only when an
// error-severity issue was found.
type Result struct {
	Success bool
	Issues  []Issue
}

// Errors counts the error-severity issues.
func (r Result) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Contract converts the result to its JSON output form.
func (r Result) Contract() bookworm.LintResult {
	out := bookworm.LintResult{Success: r.Success}
	for _, i := range r.Issues {
		out.Issues = append(out.Issues, bookworm.LintIssue{
			Stack:    i.Stack,
			Resource: i.Resource,
			Severity: string(i.Severity),
			Message:  i.Message,
			Rule:     i.Rule,
		})
	}
	return out
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// Rules to skip.
	DisabledRules []string
}

// Lint checks every template, keyed by stack name. Issues are ordered by
// stack, then by rule.
func Lint(templates map[string]*bookworm.Template, opts Options) Result {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := getRules(opts)
	var issues []Issue
	for _, name := range names {
		for _, rule := range rules {
			issues = append(issues, rule.Check(name, templates[name])...)
		}
	}

	result := Result{Issues: issues}
	result.Success = result.Errors() == 0
	return result
}

// LintFile lints a single template file.
func LintFile(path string, opts Options) (Result, error) {
	t, err := template.Load(path)
	if err != nil {
		return Result{}, err
	}
	return Lint(map[string]*bookworm.Template{path: t}, opts), nil
}

// LintAssembly lints every template of a synthesized assembly directory.
func LintAssembly(dir string, opts Options) (Result, error) {
	_, templates, err := template.LoadAssembly(dir)
	if err != nil {
		return Result{}, err
	}
	return Lint(templates, opts), nil
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}
	disabled := make(map[string]bool)
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if len(enabled) > 0 && !enabled[r.ID()] {
			continue
		}
		if disabled[r.ID()] {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
