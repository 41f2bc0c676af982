// Package lambda provides AWS::Lambda resource types.
package lambda

// Function represents an AWS::Lambda::Function.
type Function struct {
	FunctionName  any                     `json:"FunctionName,omitempty"`
	Description   any                     `json:"Description,omitempty"`
	Role          any                     `json:"Role,omitempty"`
	Runtime       any                     `json:"Runtime,omitempty"`
	Handler       any                     `json:"Handler,omitempty"`
	Code          *Function_Code          `json:"Code,omitempty"`
	MemorySize    any                     `json:"MemorySize,omitempty"`
	Timeout       any                     `json:"Timeout,omitempty"`
	Architectures []any                   `json:"Architectures,omitempty"`
	Environment   *Function_Environment   `json:"Environment,omitempty"`
	LoggingConfig *Function_LoggingConfig `json:"LoggingConfig,omitempty"`
	Tags          []any                   `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code is AWS::Lambda::Function.Code.
type Function_Code struct {
	S3Bucket any `json:"S3Bucket,omitempty"`
	S3Key    any `json:"S3Key,omitempty"`
	ZipFile  any `json:"ZipFile,omitempty"`
}

// Function_Environment is AWS::Lambda::Function.Environment.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Function_LoggingConfig is AWS::Lambda::Function.LoggingConfig.
type Function_LoggingConfig struct {
	LogFormat any `json:"LogFormat,omitempty"`
	LogGroup  any `json:"LogGroup,omitempty"`
}

// Permission represents an AWS::Lambda::Permission.
type Permission struct {
	Action        any `json:"Action,omitempty"`
	FunctionName  any `json:"FunctionName,omitempty"`
	Principal     any `json:"Principal,omitempty"`
	SourceAccount any `json:"SourceAccount,omitempty"`
	SourceArn     any `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Permission) ResourceType() string { return "AWS::Lambda::Permission" }
