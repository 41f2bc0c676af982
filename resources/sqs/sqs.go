// Package sqs provides AWS::SQS resource types.
package sqs

// Queue represents an AWS::SQS::Queue.
type Queue struct {
	QueueName                     any   `json:"QueueName,omitempty"`
	VisibilityTimeout             any   `json:"VisibilityTimeout,omitempty"`
	MessageRetentionPeriod        any   `json:"MessageRetentionPeriod,omitempty"`
	ReceiveMessageWaitTimeSeconds any   `json:"ReceiveMessageWaitTimeSeconds,omitempty"`
	RedrivePolicy                 any   `json:"RedrivePolicy,omitempty"`
	SqsManagedSseEnabled          any   `json:"SqsManagedSseEnabled,omitempty"`
	Tags                          []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Queue) ResourceType() string { return "AWS::SQS::Queue" }

// RedrivePolicy is the JSON object carried by Queue.RedrivePolicy.
type RedrivePolicy struct {
	DeadLetterTargetArn any `json:"deadLetterTargetArn"`
	MaxReceiveCount     any `json:"maxReceiveCount"`
}

// QueuePolicy represents an AWS::SQS::QueuePolicy.
type QueuePolicy struct {
	PolicyDocument any   `json:"PolicyDocument,omitempty"`
	Queues         []any `json:"Queues,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r QueuePolicy) ResourceType() string { return "AWS::SQS::QueuePolicy" }
