package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Pseudo-parameters resolve to values of the stack being deployed.
//
//	AWS_REGION     → {"Ref": "AWS::Region"}
//	AWS_ACCOUNT_ID → {"Ref": "AWS::AccountId"}
var (
	// AWS_ACCOUNT_ID is the account the stack is deployed into.
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID

	// AWS_PARTITION is aws, aws-cn or aws-us-gov.
	AWS_PARTITION = intrinsics.AWS_PARTITION

	// AWS_REGION is the region the stack is deployed into.
	AWS_REGION = intrinsics.AWS_REGION

	// AWS_STACK_NAME is the name of the stack.
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME

	// AWS_URL_SUFFIX is the domain suffix, usually amazonaws.com.
	AWS_URL_SUFFIX = intrinsics.AWS_URL_SUFFIX

	// AWS_NO_VALUE removes a property when returned from Fn::If.
	AWS_NO_VALUE = intrinsics.AWS_NO_VALUE
)
