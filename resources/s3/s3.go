// Package s3 provides AWS::S3 resource types.
package s3

// Bucket represents an AWS::S3::Bucket.
type Bucket struct {
	BucketName                     any                                    `json:"BucketName,omitempty"`
	BucketEncryption               *Bucket_BucketEncryption               `json:"BucketEncryption,omitempty"`
	NotificationConfiguration      *Bucket_NotificationConfiguration      `json:"NotificationConfiguration,omitempty"`
	PublicAccessBlockConfiguration *Bucket_PublicAccessBlockConfiguration `json:"PublicAccessBlockConfiguration,omitempty"`
	VersioningConfiguration        *Bucket_VersioningConfiguration        `json:"VersioningConfiguration,omitempty"`
	Tags                           []any                                  `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Bucket) ResourceType() string { return "AWS::S3::Bucket" }

// Bucket_BucketEncryption is AWS::S3::Bucket.BucketEncryption.
type Bucket_BucketEncryption struct {
	ServerSideEncryptionConfiguration []any `json:"ServerSideEncryptionConfiguration,omitempty"`
}

// Bucket_ServerSideEncryptionRule is AWS::S3::Bucket.ServerSideEncryptionRule.
type Bucket_ServerSideEncryptionRule struct {
	BucketKeyEnabled              any                                   `json:"BucketKeyEnabled,omitempty"`
	ServerSideEncryptionByDefault *Bucket_ServerSideEncryptionByDefault `json:"ServerSideEncryptionByDefault,omitempty"`
}

// Bucket_ServerSideEncryptionByDefault is AWS::S3::Bucket.ServerSideEncryptionByDefault.
type Bucket_ServerSideEncryptionByDefault struct {
	SSEAlgorithm   any `json:"SSEAlgorithm,omitempty"`
	KMSMasterKeyID any `json:"KMSMasterKeyID,omitempty"`
}

// Bucket_PublicAccessBlockConfiguration is AWS::S3::Bucket.PublicAccessBlockConfiguration.
type Bucket_PublicAccessBlockConfiguration struct {
	BlockPublicAcls       any `json:"BlockPublicAcls,omitempty"`
	BlockPublicPolicy     any `json:"BlockPublicPolicy,omitempty"`
	IgnorePublicAcls      any `json:"IgnorePublicAcls,omitempty"`
	RestrictPublicBuckets any `json:"RestrictPublicBuckets,omitempty"`
}

// Bucket_VersioningConfiguration is AWS::S3::Bucket.VersioningConfiguration.
type Bucket_VersioningConfiguration struct {
	Status any `json:"Status,omitempty"`
}

// Bucket_NotificationConfiguration is AWS::S3::Bucket.NotificationConfiguration.
type Bucket_NotificationConfiguration struct {
	QueueConfigurations []any `json:"QueueConfigurations,omitempty"`
}

// Bucket_QueueConfiguration is AWS::S3::Bucket.QueueConfiguration.
type Bucket_QueueConfiguration struct {
	Event  any                        `json:"Event,omitempty"`
	Filter *Bucket_NotificationFilter `json:"Filter,omitempty"`
	Queue  any                        `json:"Queue,omitempty"`
}

// Bucket_NotificationFilter is AWS::S3::Bucket.NotificationFilter.
type Bucket_NotificationFilter struct {
	S3Key *Bucket_S3KeyFilter `json:"S3Key,omitempty"`
}

// Bucket_S3KeyFilter is AWS::S3::Bucket.S3KeyFilter.
type Bucket_S3KeyFilter struct {
	Rules []any `json:"Rules,omitempty"`
}

// Bucket_FilterRule is AWS::S3::Bucket.FilterRule.
type Bucket_FilterRule struct {
	Name  any `json:"Name,omitempty"`
	Value any `json:"Value,omitempty"`
}

// BucketPolicy represents an AWS::S3::BucketPolicy.
type BucketPolicy struct {
	Bucket         any `json:"Bucket,omitempty"`
	PolicyDocument any `json:"PolicyDocument,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r BucketPolicy) ResourceType() string { return "AWS::S3::BucketPolicy" }
