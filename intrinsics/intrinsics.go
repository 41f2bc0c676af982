// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds IAM policy-specific types.
//
// Core intrinsic functions:
//
//	Ref{LogicalName: "BookCoversBucket"} → {"Ref": "BookCoversBucket"}
//	Sub{String: "arn:${AWS::Partition}:s3:::bookworm-covers-${AWS::Region}"}
//	Join{Delimiter: "", Values: []any{"https://", Api, ".execute-api."}}
//	ImportValue{ExportName: "Infrastructure-Shared:RepositoryArn"}
//
// Pseudo-parameters:
//
//	AWS_REGION, AWS_ACCOUNT_ID, AWS_PARTITION, AWS_URL_SUFFIX, etc.
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Re-export core intrinsic types from shared package.
type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// GetAZs represents a CloudFormation Fn::GetAZs intrinsic function.
	GetAZs = intrinsics.GetAZs

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)
