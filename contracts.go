// Package bookworm provides the shared contracts of the bookworm
// infrastructure tool.
//
// Infrastructure is declared as typed CloudFormation resources in Go:
//
//	covers := stack.Add("BookCoversBucket", &s3.Bucket{
//	    BucketName: "bookworm-covers-eu-west-1",
//	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))
//
//	fn := stack.Add("UploadCoverFunction", &lambda.Function{
//	    Environment: &lambda.Function_Environment{
//	        Variables: map[string]any{"COVERS_STORAGE_BUCKET_NAME": covers.Ref()},
//	    },
//	})
//
// The bookworm-infra CLI assembles the Shared, IDE and App stacks and
// synthesises them into CloudFormation templates.
package bookworm

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// Every type under resources/ (s3.Bucket, iam.Role, etc.) implements this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::S3::Bucket")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["MyRole", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "QueueName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any     `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names an output so other stacks can Fn::ImportValue it.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `bookworm-infra synth --json`.
type BuildResult struct {
	Success bool                `json:"success"`
	Stacks  map[string]Template `json:"stacks,omitempty"`
	Errors  []string            `json:"errors,omitempty"`
}

// LintResult is the JSON output from `bookworm-infra lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single finding against a synthesized template.
type LintIssue struct {
	Stack    string `json:"stack"`
	Resource string `json:"resource,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// ValidateResult is the JSON output from `bookworm-infra validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `bookworm-infra list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Stack string `json:"stack"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// DiffEntry describes one added, removed or modified resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff groups the resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// OptimizeSuggestion is a single improvement suggested for a resource.
type OptimizeSuggestion struct {
	Stack       string `json:"stack"`
	Resource    string `json:"resource"`
	Rule        string `json:"rule"`
	Category    string `json:"category"` // "security", "cost", "performance", "reliability"
	Severity    string `json:"severity"` // "high", "medium", "low"
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary counts suggestions by category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Performance int `json:"performance"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}

// OptimizeResult is the JSON output from `bookworm-infra optimize`.
type OptimizeResult struct {
	Suggestions []OptimizeSuggestion `json:"suggestions"`
	Summary     OptimizeSummary      `json:"summary"`
}

// SchemaError is a template property that does not match its resource schema.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}
