// Package intrinsics provides CloudFormation intrinsic functions.
// This file contains IAM policy document types and helpers.
package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects like Condition blocks.
//
// Example:
//
//	Condition: Json{
//	    StringEquals: Json{"aws:SourceAccount": "123456789012"},
//	}
type Json = map[string]any

// PolicyVersion is the IAM policy language version used by every document.
const PolicyVersion = "2012-10-17"

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...PolicyStatement) PolicyDocument {
	doc := PolicyDocument{Version: PolicyVersion}
	for _, s := range statements {
		doc.Statement = append(doc.Statement, s)
	}
	return doc
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Allow starts an Allow statement for the given actions.
// Chain On or OnAllResources to scope it:
//
//	Allow("s3:GetObject", "s3:PutObject").On(Sub{String: "${Bucket.Arn}/raw/*"})
//	Allow("ecr:GetAuthorizationToken").OnAllResources()
//
// A single action is emitted as a string, several as a list.
func Allow(actions ...string) PolicyStatement {
	return PolicyStatement{Effect: "Allow", Action: stringOrList(actions)}
}

// On scopes the statement to the given resources.
func (s PolicyStatement) On(resources ...any) PolicyStatement {
	if len(resources) == 1 {
		s.Resource = resources[0]
	} else {
		s.Resource = resources
	}
	return s
}

// OnAllResources scopes the statement to "*".
func (s PolicyStatement) OnAllResources() PolicyStatement {
	s.Resource = "*"
	return s
}

// When attaches a condition block.
func (s PolicyStatement) When(condition Json) PolicyStatement {
	s.Condition = condition
	return s
}

// By sets the principal; used for resource-based policies.
func (s PolicyStatement) By(principal any) PolicyStatement {
	s.Principal = principal
	return s
}

// Actions returns the statement's actions as a flat list.
func (s PolicyStatement) Actions() []string {
	switch a := s.Action.(type) {
	case string:
		return []string{a}
	case []string:
		return a
	case []any:
		out := make([]string, 0, len(a))
		for _, v := range a {
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func stringOrList(items []string) any {
	if len(items) == 1 {
		return items[0]
	}
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

// --- Principal Helpers ---

// ServicePrincipal represents a service principal (e.g., lambda.amazonaws.com).
// Serializes to {"Service": ...} format.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// AWSPrincipal represents an AWS account/role/user principal.
// Serializes to {"AWS": ...} format.
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"AWS": p[0]})
	}
	return json.Marshal(map[string]any{"AWS": []any(p)})
}

// FederatedPrincipal represents a federated identity principal such as
// an IAM OIDC provider ARN. Serializes to {"Federated": ...} format.
type FederatedPrincipal []any

// MarshalJSON serializes to {"Federated": ...} format.
func (p FederatedPrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Federated": p[0]})
	}
	return json.Marshal(map[string]any{"Federated": []any(p)})
}

// --- Trust policies ---

// ServiceTrust is the assume-role policy letting an AWS service assume a role.
func ServiceTrust(service string) PolicyDocument {
	return NewPolicyDocument(
		Allow("sts:AssumeRole").By(ServicePrincipal{service}),
	)
}

// GitHub Actions OIDC token claims.
const (
	GitHubTokenHost     = "token.actions.githubusercontent.com"
	GitHubSubjectClaim  = GitHubTokenHost + ":sub"
	GitHubAudienceClaim = GitHubTokenHost + ":aud"
	STSAudience         = "sts.amazonaws.com"
)

// GitHubRepositorySubject is the sub claim pattern matching any branch,
// tag, environment or workflow of one repository.
func GitHubRepositorySubject(org, repo string) string {
	return "repo:" + org + "/" + repo + ":*"
}

// GitHubOIDCTrust is the assume-role policy for roles assumed by GitHub
// Actions through the given OIDC provider (its ARN or a Ref to it).
// Only workflows of org/repo presenting an STS audience match.
func GitHubOIDCTrust(provider any, org, repo string) PolicyDocument {
	return NewPolicyDocument(
		Allow("sts:AssumeRoleWithWebIdentity").
			By(FederatedPrincipal{provider}).
			When(Json{
				StringLike:   Json{GitHubSubjectClaim: GitHubRepositorySubject(org, repo)},
				StringEquals: Json{GitHubAudienceClaim: STSAudience},
			}),
	)
}

// --- IAM Condition Operator Constants ---

const (
	StringEquals  = "StringEquals"
	StringLike    = "StringLike"
	ArnLike       = "ArnLike"
	ArnEquals     = "ArnEquals"
	Bool          = "Bool"
	NumericEquals = "NumericEquals"
)
