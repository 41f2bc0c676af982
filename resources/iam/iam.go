// Package iam provides AWS::IAM resource types.
package iam

import (
	"github.com/lex00/bookworm-infra-go/intrinsics"
)

// Role represents an AWS::IAM::Role.
type Role struct {
	RoleName                 any   `json:"RoleName,omitempty"`
	Description              any   `json:"Description,omitempty"`
	AssumeRolePolicyDocument any   `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any `json:"ManagedPolicyArns,omitempty"`
	MaxSessionDuration       any   `json:"MaxSessionDuration,omitempty"`
	Path                     any   `json:"Path,omitempty"`
	Policies                 []any `json:"Policies,omitempty"`
	Tags                     []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Role) ResourceType() string { return "AWS::IAM::Role" }

// Role_Policy is AWS::IAM::Role.Policy.
type Role_Policy struct {
	PolicyName     any `json:"PolicyName,omitempty"`
	PolicyDocument any `json:"PolicyDocument,omitempty"`
}

// Policy represents an AWS::IAM::Policy.
type Policy struct {
	PolicyName     any   `json:"PolicyName,omitempty"`
	PolicyDocument any   `json:"PolicyDocument,omitempty"`
	Roles          []any `json:"Roles,omitempty"`
	Groups         []any `json:"Groups,omitempty"`
	Users          []any `json:"Users,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Policy) ResourceType() string { return "AWS::IAM::Policy" }

// OIDCProvider represents an AWS::IAM::OIDCProvider.
type OIDCProvider struct {
	Url            any   `json:"Url,omitempty"`
	ClientIdList   []any `json:"ClientIdList,omitempty"`
	ThumbprintList []any `json:"ThumbprintList,omitempty"`
	Tags           []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r OIDCProvider) ResourceType() string { return "AWS::IAM::OIDCProvider" }

// AWSManagedPolicy returns the ARN of an AWS managed policy in the
// current partition, e.g. AWSManagedPolicy("AmazonCodeGuruReviewerFullAccess").
func AWSManagedPolicy(name string) intrinsics.Sub {
	return intrinsics.Sub{String: "arn:${AWS::Partition}:iam::aws:policy/" + name}
}
