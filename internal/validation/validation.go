// Package validation checks synthesized templates.
//
// Three checks run over every template of an assembly:
//   - cfn-lint-go: CloudFormation schema and best-practice rules
//   - internal/schema: required properties and enumerated values
//   - internal/lint: the bookworm security rules (BKW001-BKW006)
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	bookworm "github.com/lex00/bookworm-infra-go"
	bkwlint "github.com/lex00/bookworm-infra-go/internal/lint"
	"github.com/lex00/bookworm-infra-go/internal/schema"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// StackResult is the validation outcome of one stack's template.
type StackResult struct {
	Stack        string         `json:"stack"`
	TemplatePath string         `json:"template_path"`
	Resources    int            `json:"resources"`
	CfnLint      *CfnLintResult `json:"cfn_lint"`
	Schema       *schema.Result `json:"schema"`
}

// ValidationResult contains all validation results for an assembly.
type ValidationResult struct {
	Stacks []StackResult  `json:"stacks"`
	Rules  bkwlint.Result `json:"rules"`
}

// Passed reports whether no check found an error.
func (r *ValidationResult) Passed() bool {
	for _, s := range r.Stacks {
		if !s.CfnLint.Passed || !s.Schema.Valid {
			return false
		}
	}
	return r.Rules.Success
}

// Contract converts the result to its JSON output form. Messages are
// prefixed with their stack.
func (r *ValidationResult) Contract() bookworm.ValidateResult {
	out := bookworm.ValidateResult{Success: r.Passed()}
	for _, s := range r.Stacks {
		out.Resources += s.Resources
		for _, e := range s.CfnLint.Errors {
			out.Errors = append(out.Errors, s.Stack+": "+e)
		}
		for _, w := range s.CfnLint.Warnings {
			out.Warnings = append(out.Warnings, s.Stack+": "+w)
		}
		for _, e := range s.Schema.Errors {
			out.Errors = append(out.Errors, schemaMessage(s.Stack, e))
		}
		for _, w := range s.Schema.Warnings {
			out.Warnings = append(out.Warnings, schemaMessage(s.Stack, w))
		}
	}
	for _, i := range r.Rules.Issues {
		if i.Severity == bkwlint.SeverityError {
			out.Errors = append(out.Errors, i.String())
		} else {
			out.Warnings = append(out.Warnings, i.String())
		}
	}
	return out
}

func schemaMessage(stack string, e bookworm.SchemaError) string {
	return fmt.Sprintf("%s: %s.%s: %s", stack, e.Resource, e.Property, e.Message)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// ValidateAssembly runs cfn-lint, the schema check and the bookworm
// rules over every template of the assembly synthesized in dir.
func ValidateAssembly(dir string, opts bkwlint.Options) (*ValidationResult, error) {
	manifest, templates, err := template.LoadAssembly(dir)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{}
	for _, s := range manifest.Stacks {
		path := filepath.Join(dir, s.Template)
		cfn, err := RunCfnLint(path)
		if err != nil {
			return nil, fmt.Errorf("running cfn-lint on %s: %w", s.Name, err)
		}
		sch, err := schema.ValidateTemplate(templates[s.Name], schema.Options{})
		if err != nil {
			return nil, fmt.Errorf("checking schema of %s: %w", s.Name, err)
		}
		result.Stacks = append(result.Stacks, StackResult{
			Stack:        s.Name,
			TemplatePath: path,
			Resources:    len(templates[s.Name].Resources),
			CfnLint:      cfn,
			Schema:       sch,
		})
	}
	result.Rules = bkwlint.Lint(templates, opts)

	return result, nil
}
