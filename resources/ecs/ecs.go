// Package ecs provides AWS::ECS resource types.
package ecs

// Cluster represents an AWS::ECS::Cluster.
type Cluster struct {
	ClusterName     any   `json:"ClusterName,omitempty"`
	ClusterSettings []any `json:"ClusterSettings,omitempty"`
	Tags            []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Cluster) ResourceType() string { return "AWS::ECS::Cluster" }

// Cluster_ClusterSettings is AWS::ECS::Cluster.ClusterSettings.
type Cluster_ClusterSettings struct {
	Name  any `json:"Name,omitempty"`
	Value any `json:"Value,omitempty"`
}

// ClusterCapacityProviderAssociations represents an AWS::ECS::ClusterCapacityProviderAssociations.
type ClusterCapacityProviderAssociations struct {
	Cluster                         any   `json:"Cluster,omitempty"`
	CapacityProviders               []any `json:"CapacityProviders,omitempty"`
	DefaultCapacityProviderStrategy []any `json:"DefaultCapacityProviderStrategy"`
}

// ResourceType returns the CloudFormation type.
func (r ClusterCapacityProviderAssociations) ResourceType() string {
	return "AWS::ECS::ClusterCapacityProviderAssociations"
}

// ClusterCapacityProviderAssociations_CapacityProviderStrategy is
// AWS::ECS::ClusterCapacityProviderAssociations.CapacityProviderStrategy.
type ClusterCapacityProviderAssociations_CapacityProviderStrategy struct {
	CapacityProvider any `json:"CapacityProvider,omitempty"`
	Base             any `json:"Base,omitempty"`
	Weight           any `json:"Weight,omitempty"`
}

// TaskDefinition represents an AWS::ECS::TaskDefinition.
type TaskDefinition struct {
	Family                  any   `json:"Family,omitempty"`
	Cpu                     any   `json:"Cpu,omitempty"`
	Memory                  any   `json:"Memory,omitempty"`
	NetworkMode             any   `json:"NetworkMode,omitempty"`
	RequiresCompatibilities []any `json:"RequiresCompatibilities,omitempty"`
	ExecutionRoleArn        any   `json:"ExecutionRoleArn,omitempty"`
	TaskRoleArn             any   `json:"TaskRoleArn,omitempty"`
	ContainerDefinitions    []any `json:"ContainerDefinitions,omitempty"`
	Tags                    []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r TaskDefinition) ResourceType() string { return "AWS::ECS::TaskDefinition" }

// TaskDefinition_ContainerDefinition is AWS::ECS::TaskDefinition.ContainerDefinition.
type TaskDefinition_ContainerDefinition struct {
	Name             any                              `json:"Name,omitempty"`
	Image            any                              `json:"Image,omitempty"`
	Essential        any                              `json:"Essential,omitempty"`
	Cpu              any                              `json:"Cpu,omitempty"`
	Memory           any                              `json:"Memory,omitempty"`
	Environment      []any                            `json:"Environment,omitempty"`
	LogConfiguration *TaskDefinition_LogConfiguration `json:"LogConfiguration,omitempty"`
}

// TaskDefinition_KeyValuePair is AWS::ECS::TaskDefinition.KeyValuePair.
type TaskDefinition_KeyValuePair struct {
	Name  any `json:"Name,omitempty"`
	Value any `json:"Value,omitempty"`
}

// TaskDefinition_LogConfiguration is AWS::ECS::TaskDefinition.LogConfiguration.
type TaskDefinition_LogConfiguration struct {
	LogDriver any            `json:"LogDriver,omitempty"`
	Options   map[string]any `json:"Options,omitempty"`
}

// Service represents an AWS::ECS::Service.
type Service struct {
	ServiceName              any                              `json:"ServiceName,omitempty"`
	Cluster                  any                              `json:"Cluster,omitempty"`
	TaskDefinition           any                              `json:"TaskDefinition,omitempty"`
	DesiredCount             any                              `json:"DesiredCount,omitempty"`
	LaunchType               any                              `json:"LaunchType,omitempty"`
	CapacityProviderStrategy []any                            `json:"CapacityProviderStrategy,omitempty"`
	NetworkConfiguration     *Service_NetworkConfiguration    `json:"NetworkConfiguration,omitempty"`
	DeploymentConfiguration  *Service_DeploymentConfiguration `json:"DeploymentConfiguration,omitempty"`
	EnableECSManagedTags     any                              `json:"EnableECSManagedTags,omitempty"`
	PropagateTags            any                              `json:"PropagateTags,omitempty"`
	Tags                     []any                            `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Service) ResourceType() string { return "AWS::ECS::Service" }

// Service_CapacityProviderStrategyItem is AWS::ECS::Service.CapacityProviderStrategyItem.
type Service_CapacityProviderStrategyItem struct {
	CapacityProvider any `json:"CapacityProvider,omitempty"`
	Base             any `json:"Base,omitempty"`
	Weight           any `json:"Weight,omitempty"`
}

// Service_NetworkConfiguration is AWS::ECS::Service.NetworkConfiguration.
type Service_NetworkConfiguration struct {
	AwsvpcConfiguration *Service_AwsVpcConfiguration `json:"AwsvpcConfiguration,omitempty"`
}

// Service_AwsVpcConfiguration is AWS::ECS::Service.AwsVpcConfiguration.
type Service_AwsVpcConfiguration struct {
	AssignPublicIp any   `json:"AssignPublicIp,omitempty"`
	SecurityGroups []any `json:"SecurityGroups,omitempty"`
	Subnets        []any `json:"Subnets,omitempty"`
}

// Service_DeploymentConfiguration is AWS::ECS::Service.DeploymentConfiguration.
type Service_DeploymentConfiguration struct {
	MaximumPercent           any                               `json:"MaximumPercent,omitempty"`
	MinimumHealthyPercent    any                               `json:"MinimumHealthyPercent,omitempty"`
	DeploymentCircuitBreaker *Service_DeploymentCircuitBreaker `json:"DeploymentCircuitBreaker,omitempty"`
}

// Service_DeploymentCircuitBreaker is AWS::ECS::Service.DeploymentCircuitBreaker.
type Service_DeploymentCircuitBreaker struct {
	Enable   any `json:"Enable,omitempty"`
	Rollback any `json:"Rollback,omitempty"`
}
