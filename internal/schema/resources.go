package schema

import "strconv"

var (
	str     = PropertySchema{Type: "String"}
	integer = PropertySchema{Type: "Integer"}
	boolean = PropertySchema{Type: "Boolean"}
	list    = PropertySchema{Type: "List"}
	object  = PropertySchema{Type: "Map"}
	jsonDoc = PropertySchema{Type: "Json"}
)

func oneOf(values ...string) PropertySchema {
	return PropertySchema{Type: "String", AllowedValues: values}
}

// enum resolves the enum from the property name within service.
func enum(service string) PropertySchema {
	return PropertySchema{Type: "String", Enum: &EnumRef{Service: service}}
}

// resourceSchemas covers the resource types declared by the bookworm stacks.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::S3::Bucket": {
		Properties: map[string]PropertySchema{
			"BucketName":                     str,
			"BucketEncryption":               object,
			"NotificationConfiguration":      object,
			"PublicAccessBlockConfiguration": object,
			"VersioningConfiguration":        object,
			"Tags":                           list,
		},
	},
	"AWS::SQS::Queue": {
		Properties: map[string]PropertySchema{
			"QueueName":              str,
			"VisibilityTimeout":      integer,
			"MessageRetentionPeriod": integer,
			"RedrivePolicy":          jsonDoc,
			"SqsManagedSseEnabled":   boolean,
		},
	},
	"AWS::SQS::QueuePolicy": {
		Required: []string{"PolicyDocument", "Queues"},
		Properties: map[string]PropertySchema{
			"PolicyDocument": jsonDoc,
			"Queues":         list,
		},
	},
	"AWS::ECR::Repository": {
		Properties: map[string]PropertySchema{
			"RepositoryName":             str,
			"EmptyOnDelete":              boolean,
			"ImageScanningConfiguration": object,
			"ImageTagMutability":         oneOf("MUTABLE", "IMMUTABLE"),
			"LifecyclePolicy":            object,
		},
	},
	"AWS::IAM::OIDCProvider": {
		Required: []string{"ClientIdList"},
		Properties: map[string]PropertySchema{
			"Url":            str,
			"ClientIdList":   list,
			"ThumbprintList": list,
		},
	},
	"AWS::IAM::Role": {
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": jsonDoc,
			"RoleName":                 str,
			"Description":              str,
			"ManagedPolicyArns":        list,
			"MaxSessionDuration":       integer,
		},
	},
	"AWS::IAM::Policy": {
		Required: []string{"PolicyDocument", "PolicyName"},
		Properties: map[string]PropertySchema{
			"PolicyDocument": jsonDoc,
			"PolicyName":     str,
			"Roles":          list,
		},
	},
	"AWS::Cloud9::EnvironmentEC2": {
		Required: []string{"ImageId", "InstanceType"},
		Properties: map[string]PropertySchema{
			"Name":                     str,
			"Description":              str,
			"InstanceType":             str,
			"AutomaticStopTimeMinutes": integer,
			"ConnectionType":           oneOf("CONNECT_SSH", "CONNECT_SSM"),
			"ImageId": oneOf(
				"amazonlinux-2-x86_64",
				"amazonlinux-2023-x86_64",
				"ubuntu-18.04-x86_64",
				"ubuntu-22.04-x86_64",
				"resolve:ssm:/aws/service/cloud9/amis/amazonlinux-2-x86_64",
				"resolve:ssm:/aws/service/cloud9/amis/amazonlinux-2023-x86_64",
				"resolve:ssm:/aws/service/cloud9/amis/ubuntu-18.04-x86_64",
				"resolve:ssm:/aws/service/cloud9/amis/ubuntu-22.04-x86_64",
			),
			"OwnerArn": str,
			"SubnetId": str,
		},
	},
	"AWS::CodeGuruProfiler::ProfilingGroup": {
		Required: []string{"ProfilingGroupName"},
		Properties: map[string]PropertySchema{
			"ProfilingGroupName": str,
			"ComputePlatform":    oneOf("Default", "AWSLambda"),
		},
	},
	"AWS::Logs::LogGroup": {
		Properties: map[string]PropertySchema{
			"LogGroupName": str,
			"RetentionInDays": oneOfInts(1, 3, 5, 7, 14, 30, 60, 90, 120, 150, 180, 365, 400,
				545, 731, 1096, 1827, 2192, 2557, 2922, 3288, 3653),
		},
	},
	"AWS::Lambda::Function": {
		Required: []string{"Code", "Role"},
		Properties: map[string]PropertySchema{
			"FunctionName":  str,
			"Code":          object,
			"Role":          str,
			"Handler":       str,
			"Runtime":       enum("lambda"),
			"MemorySize":    integer,
			"Timeout":       integer,
			"Environment":   object,
			"LoggingConfig": object,
			"Architectures": list,
		},
	},
	"AWS::Lambda::Permission": {
		Required: []string{"Action", "FunctionName", "Principal"},
		Properties: map[string]PropertySchema{
			"Action":       str,
			"FunctionName": str,
			"Principal":    str,
			"SourceArn":    str,
		},
	},
	"AWS::ApiGateway::RestApi": {
		Properties: map[string]PropertySchema{
			"Name":        str,
			"Description": str,
		},
	},
	"AWS::ApiGateway::Resource": {
		Required: []string{"ParentId", "PathPart", "RestApiId"},
		Properties: map[string]PropertySchema{
			"ParentId":  str,
			"PathPart":  str,
			"RestApiId": str,
		},
	},
	"AWS::ApiGateway::Method": {
		Required: []string{"HttpMethod", "ResourceId", "RestApiId"},
		Properties: map[string]PropertySchema{
			"HttpMethod":        oneOf("ANY", "DELETE", "GET", "HEAD", "OPTIONS", "PATCH", "POST", "PUT"),
			"AuthorizationType": oneOf("NONE", "AWS_IAM", "CUSTOM", "COGNITO_USER_POOLS"),
			"ResourceId":        str,
			"RestApiId":         str,
			"Integration":       object,
			"MethodResponses":   list,
		},
	},
	"AWS::ApiGateway::Deployment": {
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":   str,
			"Description": str,
		},
	},
	"AWS::ApiGateway::Stage": {
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":    str,
			"DeploymentId": str,
			"StageName":    str,
		},
	},
	"AWS::EC2::VPC": {
		Properties: map[string]PropertySchema{
			"CidrBlock":          str,
			"EnableDnsHostnames": boolean,
			"EnableDnsSupport":   boolean,
			"Tags":               list,
		},
	},
	"AWS::EC2::InternetGateway": {
		Properties: map[string]PropertySchema{"Tags": list},
	},
	"AWS::EC2::VPCGatewayAttachment": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"VpcId":             str,
			"InternetGatewayId": str,
		},
	},
	"AWS::EC2::RouteTable": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{"VpcId": str, "Tags": list},
	},
	"AWS::EC2::Route": {
		Required: []string{"RouteTableId"},
		Properties: map[string]PropertySchema{
			"RouteTableId":         str,
			"DestinationCidrBlock": str,
			"GatewayId":            str,
		},
	},
	"AWS::EC2::Subnet": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"VpcId":               str,
			"CidrBlock":           str,
			"AvailabilityZone":    str,
			"MapPublicIpOnLaunch": boolean,
			"Tags":                list,
		},
	},
	"AWS::EC2::SubnetRouteTableAssociation": {
		Required: []string{"RouteTableId", "SubnetId"},
		Properties: map[string]PropertySchema{
			"RouteTableId": str,
			"SubnetId":     str,
		},
	},
	"AWS::EC2::SecurityGroup": {
		Required: []string{"GroupDescription"},
		Properties: map[string]PropertySchema{
			"GroupDescription":     str,
			"VpcId":                str,
			"SecurityGroupEgress":  list,
			"SecurityGroupIngress": list,
		},
	},
	"AWS::ECS::Cluster": {
		Properties: map[string]PropertySchema{
			"ClusterName":     str,
			"ClusterSettings": list,
		},
	},
	"AWS::ECS::ClusterCapacityProviderAssociations": {
		Required: []string{"CapacityProviders", "Cluster", "DefaultCapacityProviderStrategy"},
		Properties: map[string]PropertySchema{
			"CapacityProviders":               list,
			"Cluster":                         str,
			"DefaultCapacityProviderStrategy": list,
		},
	},
	"AWS::ECS::TaskDefinition": {
		Properties: map[string]PropertySchema{
			"Family":                  str,
			"NetworkMode":             enum("ecs"),
			"RequiresCompatibilities": list,
			"ContainerDefinitions":    list,
			"ExecutionRoleArn":        str,
			"TaskRoleArn":             str,
		},
	},
	"AWS::ECS::Service": {
		Properties: map[string]PropertySchema{
			"Cluster":                  str,
			"ServiceName":              str,
			"TaskDefinition":           str,
			"DesiredCount":             integer,
			"CapacityProviderStrategy": list,
			"NetworkConfiguration":     object,
			"DeploymentConfiguration":  object,
		},
	},
	"AWS::ApplicationAutoScaling::ScalableTarget": {
		Required: []string{"MaxCapacity", "MinCapacity", "ResourceId", "ScalableDimension", "ServiceNamespace"},
		Properties: map[string]PropertySchema{
			"MaxCapacity":       integer,
			"MinCapacity":       integer,
			"ResourceId":        str,
			"ScalableDimension": str,
			"ServiceNamespace":  str,
		},
	},
	"AWS::ApplicationAutoScaling::ScalingPolicy": {
		Required: []string{"PolicyName", "PolicyType"},
		Properties: map[string]PropertySchema{
			"PolicyName":                               str,
			"PolicyType":                               oneOf("StepScaling", "TargetTrackingScaling", "PredictiveScaling"),
			"ScalingTargetId":                          str,
			"StepScalingPolicyConfiguration":           object,
			"TargetTrackingScalingPolicyConfiguration": object,
		},
	},
	"AWS::CloudWatch::Alarm": {
		Required: []string{"ComparisonOperator", "EvaluationPeriods"},
		Properties: map[string]PropertySchema{
			"ComparisonOperator": oneOf(
				"GreaterThanOrEqualToThreshold",
				"GreaterThanThreshold",
				"LessThanThreshold",
				"LessThanOrEqualToThreshold",
				"LessThanLowerOrGreaterThanUpperThreshold",
				"LessThanLowerThreshold",
				"GreaterThanUpperThreshold",
			),
			"EvaluationPeriods": integer,
			"Period":            integer,
			"AlarmActions":      list,
			"Dimensions":        list,
		},
	},
}

// oneOfInts accepts the listed integers, as numbers or numeric strings.
func oneOfInts(values ...int) PropertySchema {
	allowed := make([]string, len(values))
	for i, v := range values {
		allowed[i] = strconv.Itoa(v)
	}
	return PropertySchema{Type: "Integer", AllowedValues: allowed}
}
