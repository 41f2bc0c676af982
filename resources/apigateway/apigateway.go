// Package apigateway provides AWS::ApiGateway resource types.
package apigateway

// RestApi represents an AWS::ApiGateway::RestApi.
type RestApi struct {
	Name                  any                            `json:"Name,omitempty"`
	Description           any                            `json:"Description,omitempty"`
	EndpointConfiguration *RestApi_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
	Tags                  []any                          `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r RestApi) ResourceType() string { return "AWS::ApiGateway::RestApi" }

// RestApi_EndpointConfiguration is AWS::ApiGateway::RestApi.EndpointConfiguration.
type RestApi_EndpointConfiguration struct {
	Types []any `json:"Types,omitempty"`
}

// Resource represents an AWS::ApiGateway::Resource.
type Resource struct {
	RestApiId any `json:"RestApiId,omitempty"`
	ParentId  any `json:"ParentId,omitempty"`
	PathPart  any `json:"PathPart,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Resource) ResourceType() string { return "AWS::ApiGateway::Resource" }

// Method represents an AWS::ApiGateway::Method.
type Method struct {
	RestApiId         any                 `json:"RestApiId,omitempty"`
	ResourceId        any                 `json:"ResourceId,omitempty"`
	HttpMethod        any                 `json:"HttpMethod,omitempty"`
	AuthorizationType any                 `json:"AuthorizationType,omitempty"`
	Integration       *Method_Integration `json:"Integration,omitempty"`
	MethodResponses   []any               `json:"MethodResponses,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Method) ResourceType() string { return "AWS::ApiGateway::Method" }

// Method_Integration is AWS::ApiGateway::Method.Integration.
type Method_Integration struct {
	Type_                 any            `json:"Type,omitempty"`
	IntegrationHttpMethod any            `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any            `json:"Uri,omitempty"`
	RequestTemplates      map[string]any `json:"RequestTemplates,omitempty"`
	IntegrationResponses  []any          `json:"IntegrationResponses,omitempty"`
}

// Method_IntegrationResponse is AWS::ApiGateway::Method.IntegrationResponse.
type Method_IntegrationResponse struct {
	StatusCode         any            `json:"StatusCode,omitempty"`
	ResponseParameters map[string]any `json:"ResponseParameters,omitempty"`
	ResponseTemplates  map[string]any `json:"ResponseTemplates,omitempty"`
}

// Method_MethodResponse is AWS::ApiGateway::Method.MethodResponse.
type Method_MethodResponse struct {
	StatusCode         any            `json:"StatusCode,omitempty"`
	ResponseParameters map[string]any `json:"ResponseParameters,omitempty"`
}

// Deployment represents an AWS::ApiGateway::Deployment.
type Deployment struct {
	RestApiId   any `json:"RestApiId,omitempty"`
	Description any `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Deployment) ResourceType() string { return "AWS::ApiGateway::Deployment" }

// Stage represents an AWS::ApiGateway::Stage.
type Stage struct {
	RestApiId    any `json:"RestApiId,omitempty"`
	DeploymentId any `json:"DeploymentId,omitempty"`
	StageName    any `json:"StageName,omitempty"`
	Description  any `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Stage) ResourceType() string { return "AWS::ApiGateway::Stage" }
