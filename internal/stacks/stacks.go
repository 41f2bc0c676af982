// Package stacks declares the three bookworm stacks.
//
// Shared holds the image repository, the CodeGuru artifacts bucket, the
// Lambda assets bucket and the GitHub OIDC roles. IDE holds the
// developer's Cloud9 environment. App holds the cover upload API and the
// thumbnail generation pipeline, and imports the image repository and
// assets bucket from Shared.
package stacks

import (
	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/iam"
	"github.com/lex00/bookworm-infra-go/resources/s3"
)

// Stack names.
const (
	SharedStackName = "Infrastructure-Shared"
	IDEStackName    = "Infrastructure-IDE"
	AppStackName    = "Infrastructure-App"
)

func blockAllPublicAccess() *s3.Bucket_PublicAccessBlockConfiguration {
	return &s3.Bucket_PublicAccessBlockConfiguration{
		BlockPublicAcls:       true,
		BlockPublicPolicy:     true,
		IgnorePublicAcls:      true,
		RestrictPublicBuckets: true,
	}
}

// addDefaultPolicy attaches statements to role as a separate
// AWS::IAM::Policy named <role>DefaultPolicy, and returns its handle so
// consumers of the role can depend on it.
func addDefaultPolicy(stack *template.Stack, role template.Handle, statements ...intrinsics.PolicyStatement) template.Handle {
	id := role.LogicalID() + "DefaultPolicy"
	return stack.Add(id, &iam.Policy{
		PolicyName:     id,
		PolicyDocument: intrinsics.NewPolicyDocument(statements...),
		Roles:          []any{role},
	})
}

// subArn builds an ARN below a resource's ARN, e.g. objects under a
// bucket prefix: subArn(bucket, "/raw/*").
func subArn(h template.Handle, suffix string) intrinsics.Sub {
	return intrinsics.Sub{String: "${" + h.LogicalID() + ".Arn}" + suffix}
}
