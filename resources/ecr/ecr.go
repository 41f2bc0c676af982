// Package ecr provides AWS::ECR resource types.
package ecr

// Repository represents an AWS::ECR::Repository.
type Repository struct {
	RepositoryName             any                                    `json:"RepositoryName,omitempty"`
	EmptyOnDelete              any                                    `json:"EmptyOnDelete,omitempty"`
	ImageScanningConfiguration *Repository_ImageScanningConfiguration `json:"ImageScanningConfiguration,omitempty"`
	ImageTagMutability         any                                    `json:"ImageTagMutability,omitempty"`
	LifecyclePolicy            *Repository_LifecyclePolicy            `json:"LifecyclePolicy,omitempty"`
	Tags                       []any                                  `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Repository) ResourceType() string { return "AWS::ECR::Repository" }

// Repository_LifecyclePolicy is AWS::ECR::Repository.LifecyclePolicy.
type Repository_LifecyclePolicy struct {
	LifecyclePolicyText any `json:"LifecyclePolicyText,omitempty"`
	RegistryId          any `json:"RegistryId,omitempty"`
}

// Repository_ImageScanningConfiguration is AWS::ECR::Repository.ImageScanningConfiguration.
type Repository_ImageScanningConfiguration struct {
	ScanOnPush any `json:"ScanOnPush,omitempty"`
}
