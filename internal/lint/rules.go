package lint

// Rules:
//
//	BKW001: IAM permissions without wildcards
//	BKW002: Stateful resources are deleted with their stack
//	BKW003: Buckets block all public access
//	BKW004: GitHub OIDC trust is pinned to one repository and audience
//	BKW005: Queue redrive targets a dead-letter queue
//	BKW006: CORS preflight allowing any origin with credentials

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/intrinsics"
)

// AllRules returns every rule.
func AllRules() []Rule {
	return []Rule{
		WildcardPermission{},
		RetainedState{},
		PublicBucket{},
		OIDCTrustScope{},
		Redrive{},
		PermissiveCORS{},
	}
}

// WildcardPermission flags `*` and `service:*` actions in permission
// policies, and `*` resources on anything but the actions that only
// accept `*`.
type WildcardPermission struct{}

func (r WildcardPermission) ID() string { return "BKW001" }
func (r WildcardPermission) Description() string {
	return "IAM permissions must name actions and resources explicitly"
}

// accountWideActions cannot be scoped to a resource.
var accountWideActions = map[string]bool{
	"s3:ListAllMyBuckets":       true,
	"ecr:GetAuthorizationToken": true,
}

func (r WildcardPermission) Check(stack string, t *bookworm.Template) []Issue {
	var issues []Issue
	for _, p := range permissionPolicies(t) {
		for _, s := range statements(p.document) {
			if s["Effect"] != "Allow" {
				continue
			}
			actions := stringList(s["Action"])
			for _, a := range actions {
				if a == "*" || strings.HasSuffix(a, ":*") {
					issues = append(issues, Issue{
						Rule:     r.ID(),
						Severity: SeverityError,
						Stack:    stack,
						Resource: p.resource,
						Message:  fmt.Sprintf("wildcard action %q", a),
					})
				}
			}
			if !contains(stringList(s["Resource"]), "*") {
				continue
			}
			for _, a := range actions {
				if !accountWideActions[a] {
					issues = append(issues, Issue{
						Rule:     r.ID(),
						Severity: SeverityError,
						Stack:    stack,
						Resource: p.resource,
						Message:  fmt.Sprintf("action %q granted on all resources", a),
					})
				}
			}
		}
	}
	return issues
}

// RetainedState flags buckets, queues, repositories and log groups that
// would outlive their stack.
type RetainedState struct{}

func (r RetainedState) ID() string { return "BKW002" }
func (r RetainedState) Description() string {
	return "Stateful resources must have DeletionPolicy Delete"
}

var statefulTypes = map[string]bool{
	"AWS::S3::Bucket":      true,
	"AWS::SQS::Queue":      true,
	"AWS::ECR::Repository": true,
	"AWS::Logs::LogGroup":  true,
}

func (r RetainedState) Check(stack string, t *bookworm.Template) []Issue {
	var issues []Issue
	for _, id := range resourceIDs(t) {
		def := t.Resources[id]
		if !statefulTypes[def.Type] || def.DeletionPolicy == "Delete" {
			continue
		}
		policy := def.DeletionPolicy
		if policy == "" {
			policy = "unset"
		}
		issues = append(issues, Issue{
			Rule:     r.ID(),
			Severity: SeverityError,
			Stack:    stack,
			Resource: id,
			Message:  fmt.Sprintf("%s has DeletionPolicy %s, want Delete", def.Type, policy),
		})
	}
	return issues
}

// PublicBucket flags buckets that do not set every public access block.
type PublicBucket struct{}

func (r PublicBucket) ID() string { return "BKW003" }
func (r PublicBucket) Description() string {
	return "Buckets must block all public access"
}

var publicAccessFlags = []string{
	"BlockPublicAcls",
	"BlockPublicPolicy",
	"IgnorePublicAcls",
	"RestrictPublicBuckets",
}

func (r PublicBucket) Check(stack string, t *bookworm.Template) []Issue {
	var issues []Issue
	for _, id := range resourceIDs(t) {
		def := t.Resources[id]
		if def.Type != "AWS::S3::Bucket" {
			continue
		}
		block, _ := def.Properties["PublicAccessBlockConfiguration"].(map[string]any)
		var open []string
		for _, flag := range publicAccessFlags {
			if !isTrue(block[flag]) {
				open = append(open, flag)
			}
		}
		if len(open) > 0 {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Severity: SeverityError,
				Stack:    stack,
				Resource: id,
				Message:  "public access not blocked: " + strings.Join(open, ", "),
			})
		}
	}
	return issues
}

// OIDCTrustScope flags GitHub web identity trust that any repository or
// audience could satisfy.
type OIDCTrustScope struct{}

func (r OIDCTrustScope) ID() string { return "BKW004" }
func (r OIDCTrustScope) Description() string {
	return "GitHub OIDC trust must pin the repository and the STS audience"
}

var repositorySubject = regexp.MustCompile(`^repo:[^/*:]+/[^/*:]+:`)

func (r OIDCTrustScope) Check(stack string, t *bookworm.Template) []Issue {
	var issues []Issue
	for _, id := range resourceIDs(t) {
		def := t.Resources[id]
		if def.Type != "AWS::IAM::Role" {
			continue
		}
		for _, s := range statements(def.Properties["AssumeRolePolicyDocument"]) {
			if !contains(stringList(s["Action"]), "sts:AssumeRoleWithWebIdentity") {
				continue
			}
			condition, _ := s["Condition"].(map[string]any)
			report := func(msg string) {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Severity: SeverityError,
					Stack:    stack,
					Resource: id,
					Message:  msg,
				})
			}

			sub := conditionValues(condition, intrinsics.StringLike, intrinsics.GitHubSubjectClaim)
			sub = append(sub, conditionValues(condition, intrinsics.StringEquals, intrinsics.GitHubSubjectClaim)...)
			if len(sub) == 0 {
				report("web identity trust does not restrict the token subject")
			}
			for _, v := range sub {
				if !repositorySubject.MatchString(v) {
					report(fmt.Sprintf("subject %q does not name a single repository", v))
				}
			}

			aud := conditionValues(condition, intrinsics.StringEquals, intrinsics.GitHubAudienceClaim)
			if len(aud) != 1 || aud[0] != intrinsics.STSAudience {
				report(fmt.Sprintf("audience must be exactly %s", intrinsics.STSAudience))
			}
		}
	}
	return issues
}

// Redrive flags queues whose redrive policy lacks a dead-letter target or
// a positive receive count.
type Redrive struct{}

func (r Redrive) ID() string { return "BKW005" }
func (r Redrive) Description() string {
	return "Queue redrive must target a dead-letter queue with maxReceiveCount >= 1"
}

func (r Redrive) Check(stack string, t *bookworm.Template) []Issue {
	var issues []Issue
	for _, id := range resourceIDs(t) {
		def := t.Resources[id]
		if def.Type != "AWS::SQS::Queue" {
			continue
		}
		raw, ok := def.Properties["RedrivePolicy"]
		if !ok {
			continue
		}
		policy, _ := raw.(map[string]any)
		if target, ok := policy["deadLetterTargetArn"]; !ok || target == nil || target == "" {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Severity: SeverityError,
				Stack:    stack,
				Resource: id,
				Message:  "redrive policy has no deadLetterTargetArn",
			})
		}
		if n, ok := asInt(policy["maxReceiveCount"]); !ok || n < 1 {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Severity: SeverityError,
				Stack:    stack,
				Resource: id,
				Message:  fmt.Sprintf("maxReceiveCount %v, want at least 1", policy["maxReceiveCount"]),
			})
		}
	}
	return issues
}

// PermissiveCORS warns about preflight responses that allow any origin
// and credentials together.
type PermissiveCORS struct{}

func (r PermissiveCORS) ID() string { return "BKW006" }
func (r PermissiveCORS) Description() string {
	return "CORS preflight should not allow any origin with credentials"
}

const (
	allowOriginHeader      = "method.response.header.Access-Control-Allow-Origin"
	allowCredentialsHeader = "method.response.header.Access-Control-Allow-Credentials"
)

func (r PermissiveCORS) Check(stack string, t *bookworm.Template) []Issue {
	var issues []Issue
	for _, id := range resourceIDs(t) {
		def := t.Resources[id]
		if def.Type != "AWS::ApiGateway::Method" || def.Properties["HttpMethod"] != "OPTIONS" {
			continue
		}
		integration, _ := def.Properties["Integration"].(map[string]any)
		responses, _ := integration["IntegrationResponses"].([]any)
		for _, resp := range responses {
			m, _ := resp.(map[string]any)
			params, _ := m["ResponseParameters"].(map[string]any)
			if params[allowOriginHeader] == "'*'" && params[allowCredentialsHeader] == "'true'" {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Severity: SeverityWarning,
					Stack:    stack,
					Resource: id,
					Message:  "preflight allows any origin with credentials",
				})
				break
			}
		}
	}
	return issues
}

// policyRef is a permission policy document and the resource holding it.
type policyRef struct {
	resource string
	document any
}

// permissionPolicies returns the identity and resource policies of a
// template. Trust policies are not included.
func permissionPolicies(t *bookworm.Template) []policyRef {
	var out []policyRef
	for _, id := range resourceIDs(t) {
		def := t.Resources[id]
		switch def.Type {
		case "AWS::IAM::Policy", "AWS::IAM::ManagedPolicy", "AWS::SQS::QueuePolicy", "AWS::S3::BucketPolicy":
			out = append(out, policyRef{resource: id, document: def.Properties["PolicyDocument"]})
		case "AWS::IAM::Role":
			policies, _ := def.Properties["Policies"].([]any)
			for _, p := range policies {
				if m, ok := p.(map[string]any); ok {
					out = append(out, policyRef{resource: id, document: m["PolicyDocument"]})
				}
			}
		}
	}
	return out
}

func statements(document any) []map[string]any {
	doc, ok := document.(map[string]any)
	if !ok {
		return nil
	}
	switch s := doc["Statement"].(type) {
	case map[string]any:
		return []map[string]any{s}
	case []any:
		out := make([]map[string]any, 0, len(s))
		for _, item := range s {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// conditionValues returns the string values of a condition key under an
// operator.
func conditionValues(condition map[string]any, operator, key string) []string {
	block, _ := condition[operator].(map[string]any)
	if block == nil {
		return nil
	}
	return stringList(block[key])
}

// stringList returns the literal strings of a string or list value.
// Intrinsic functions are skipped.
func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []string:
		return x
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func isTrue(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true")
	}
	return false
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return int64(x), x == float64(int64(x))
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func resourceIDs(t *bookworm.Template) []string {
	ids := make([]string, 0, len(t.Resources))
	for id := range t.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
