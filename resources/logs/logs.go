// Package logs provides AWS::Logs resource types.
package logs

// LogGroup represents an AWS::Logs::LogGroup.
type LogGroup struct {
	LogGroupName    any   `json:"LogGroupName,omitempty"`
	RetentionInDays any   `json:"RetentionInDays,omitempty"`
	KmsKeyId        any   `json:"KmsKeyId,omitempty"`
	Tags            []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r LogGroup) ResourceType() string { return "AWS::Logs::LogGroup" }
