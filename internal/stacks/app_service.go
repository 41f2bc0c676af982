package stacks

import (
	"fmt"

	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/applicationautoscaling"
	"github.com/lex00/bookworm-infra-go/resources/cloudwatch"
	"github.com/lex00/bookworm-infra-go/resources/codeguruprofiler"
	"github.com/lex00/bookworm-infra-go/resources/ec2"
	"github.com/lex00/bookworm-infra-go/resources/ecs"
	"github.com/lex00/bookworm-infra-go/resources/iam"
	"github.com/lex00/bookworm-infra-go/resources/logs"
)

const (
	ClusterName                 = "bookworm-cluster"
	ThumbnailGeneratorService   = "bookworm-thumbnail-generator-service"
	ThumbnailGeneratorContainer = "QueueProcessingContainer"
	ThumbnailGeneratorImageTag  = "latest"

	// ThumbnailProfilingGroupName is the CodeGuru profiling group the
	// worker reports to.
	ThumbnailProfilingGroupName = "BookwormThumbnailGeneratorService"

	thumbnailTaskCPU    = "512"
	thumbnailTaskMemory = "1024"
	thumbnailLogDays    = 14

	vpcCidr = "10.0.0.0/16"
)

// Capacity providers and their weights; spot is preferred two to one.
const (
	FargateSpot = "FARGATE_SPOT"
	Fargate     = "FARGATE"

	fargateSpotWeight = 2
	fargateWeight     = 1
)

// Scaling bounds and thresholds of the thumbnail generator.
const (
	minTasks             = 1
	maxTasks             = 2
	cpuTargetUtilization = 50

	// A backlog at or above scaleUpThreshold adds a task, a backlog
	// scaleUpSteep messages above it adds five. An empty queue removes one.
	scaleDownThreshold = 0
	scaleUpThreshold   = 100
	scaleUpSteep       = 400

	scalingPeriodSecs = 300
)

var publicSubnetCidrs = []string{"10.0.0.0/24", "10.0.1.0/24"}

// queueConsumeActions are the SQS actions a queue worker needs.
var queueConsumeActions = []string{
	"sqs:ReceiveMessage",
	"sqs:ChangeMessageVisibility",
	"sqs:GetQueueUrl",
	"sqs:DeleteMessage",
	"sqs:GetQueueAttributes",
}

// network is the VPC the Fargate tasks run in.
type network struct {
	subnets       []any
	securityGroup template.Handle
	defaultRoute  template.Handle
}

// addNetwork declares a VPC with one public subnet per availability zone
// and an internet gateway. Tasks get public IPs so they can reach ECR, S3
// and SQS without NAT gateways.
func (a *App) addNetwork() network {
	stack := a.Stack

	vpc := stack.Add("BookwormVpc", &ec2.VPC{
		CidrBlock:          vpcCidr,
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		Tags:               []any{intrinsics.Tag{Key: "Name", Value: "bookworm-vpc"}},
	})

	igw := stack.Add("BookwormVpcIGW", &ec2.InternetGateway{})
	attachment := stack.Add("BookwormVpcVPCGW", &ec2.VPCGatewayAttachment{
		VpcId:             vpc,
		InternetGatewayId: igw,
	})

	routeTable := stack.Add("BookwormVpcPublicRouteTable", &ec2.RouteTable{VpcId: vpc})
	route := stack.Add("BookwormVpcPublicDefaultRoute", &ec2.Route{
		RouteTableId:         routeTable,
		DestinationCidrBlock: "0.0.0.0/0",
		GatewayId:            igw,
	}, template.DependsOn(attachment))

	var subnets []any
	for i, cidr := range publicSubnetCidrs {
		id := fmt.Sprintf("BookwormVpcPublicSubnet%d", i+1)
		subnet := stack.Add(id, &ec2.Subnet{
			VpcId:               vpc,
			CidrBlock:           cidr,
			AvailabilityZone:    intrinsics.Select{Index: i, List: intrinsics.GetAZs{}},
			MapPublicIpOnLaunch: true,
		})
		stack.Add(id+"RouteTableAssociation", &ec2.SubnetRouteTableAssociation{
			SubnetId:     subnet,
			RouteTableId: routeTable,
		})
		subnets = append(subnets, subnet)
	}

	sg := stack.Add("ThumbnailGeneratorServiceSecurityGroup", &ec2.SecurityGroup{
		GroupDescription: "Thumbnail generator tasks, outbound only.",
		VpcId:            vpc,
		SecurityGroupEgress: []any{
			ec2.SecurityGroup_Egress{
				IpProtocol:  "-1",
				CidrIp:      "0.0.0.0/0",
				Description: "Allow all outbound traffic",
			},
		},
	})

	return network{subnets: subnets, securityGroup: sg, defaultRoute: route}
}

// addThumbnailGenerator declares the queue-processing Fargate service
// that turns raw covers into thumbnails, and its scaling.
func (a *App) addThumbnailGenerator(props AppProps) {
	stack := a.Stack
	net := a.addNetwork()

	cluster := stack.Add("BookwormCluster", &ecs.Cluster{
		ClusterName: ClusterName,
		ClusterSettings: []any{
			ecs.Cluster_ClusterSettings{Name: "containerInsights", Value: "enabled"},
		},
	})
	capacity := stack.Add("BookwormClusterCapacityProviders", &ecs.ClusterCapacityProviderAssociations{
		Cluster:           cluster,
		CapacityProviders: []any{Fargate, FargateSpot},
		DefaultCapacityProviderStrategy: []any{
			ecs.ClusterCapacityProviderAssociations_CapacityProviderStrategy{CapacityProvider: FargateSpot, Weight: fargateSpotWeight},
			ecs.ClusterCapacityProviderAssociations_CapacityProviderStrategy{CapacityProvider: Fargate, Weight: fargateWeight},
		},
	})

	stack.Add("BookwormThumbnailGeneratorServiceProfilingGroup", &codeguruprofiler.ProfilingGroup{
		ProfilingGroupName: ThumbnailProfilingGroupName,
	})

	logGroup := stack.Add("ThumbnailGeneratorLogGroup", &logs.LogGroup{
		LogGroupName:    "/ecs/" + ThumbnailGeneratorService,
		RetentionInDays: thumbnailLogDays,
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	repoArn := stack.Import(props.Repository.Arn)
	repoName := stack.Import(props.Repository.Name)

	// Execution role: pulls the image and ships logs.
	executionRole := stack.Add("ThumbnailGeneratorTaskExecutionRole", &iam.Role{
		AssumeRolePolicyDocument: intrinsics.ServiceTrust("ecs-tasks.amazonaws.com"),
	})
	executionPolicy := addDefaultPolicy(stack, executionRole,
		intrinsics.Allow(
			"ecr:BatchCheckLayerAvailability",
			"ecr:GetDownloadUrlForLayer",
			"ecr:BatchGetImage",
		).On(repoArn),
		intrinsics.Allow("ecr:GetAuthorizationToken").OnAllResources(),
		intrinsics.Allow("logs:CreateLogStream", "logs:PutLogEvents").On(logGroup.Arn()),
	)

	// Task role: what the worker itself may do.
	taskRole := stack.Add("ThumbnailGeneratorTaskRole", &iam.Role{
		AssumeRolePolicyDocument: intrinsics.ServiceTrust("ecs-tasks.amazonaws.com"),
		ManagedPolicyArns:        []any{iam.AWSManagedPolicy("AmazonCodeGuruProfilerAgentAccess")},
	})
	taskPolicy := addDefaultPolicy(stack, taskRole,
		intrinsics.Allow(queueConsumeActions...).On(a.Queue.Arn()),
	)
	s3Policy := stack.Add("ThumbnailGeneratorServiceAdditionalIAMPolicy", &iam.Policy{
		PolicyName: "bookworm-thumbnail-generator-service-s3-access-iam-policy",
		PolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.Allow("s3:GetObject").On(subArn(a.CoversBucket, "/"+RawCoversPrefix+"*")),
			intrinsics.Allow("s3:PutObject").On(subArn(a.CoversBucket, "/"+ThumbnailPrefix+"*")),
		),
		Roles: []any{taskRole},
	})

	taskDefinition := stack.Add("ThumbnailGeneratorTaskDefinition", &ecs.TaskDefinition{
		Family:                  "bookworm-thumbnail-generator",
		Cpu:                     thumbnailTaskCPU,
		Memory:                  thumbnailTaskMemory,
		NetworkMode:             "awsvpc",
		RequiresCompatibilities: []any{"FARGATE"},
		ExecutionRoleArn:        executionRole.Arn(),
		TaskRoleArn:             taskRole.Arn(),
		ContainerDefinitions: []any{
			ecs.TaskDefinition_ContainerDefinition{
				Name:      ThumbnailGeneratorContainer,
				Image:     imageURI(repoName, ThumbnailGeneratorImageTag),
				Essential: true,
				Environment: []any{
					ecs.TaskDefinition_KeyValuePair{Name: "QUEUE_NAME", Value: a.Queue.GetAtt("QueueName")},
					ecs.TaskDefinition_KeyValuePair{Name: "COVERS_STORAGE_BUCKET_NAME", Value: a.CoversBucket},
					ecs.TaskDefinition_KeyValuePair{Name: "COVERS_STORAGE_PREFIX", Value: ThumbnailPrefix},
					ecs.TaskDefinition_KeyValuePair{Name: "AWS_CODEGURU_PROFILER_GROUP_NAME", Value: ThumbnailProfilingGroupName},
				},
				LogConfiguration: &ecs.TaskDefinition_LogConfiguration{
					LogDriver: "awslogs",
					Options: map[string]any{
						"awslogs-group":         logGroup,
						"awslogs-stream-prefix": "BookwormThumbnailGenerator",
						"awslogs-region":        intrinsics.AWS_REGION,
					},
				},
			},
		},
	})

	a.Service = stack.Add("BookwormThumbnailGenerator", &ecs.Service{
		ServiceName:    ThumbnailGeneratorService,
		Cluster:        cluster,
		TaskDefinition: taskDefinition,
		DesiredCount:   minTasks,
		CapacityProviderStrategy: []any{
			ecs.Service_CapacityProviderStrategyItem{CapacityProvider: FargateSpot, Weight: fargateSpotWeight},
			ecs.Service_CapacityProviderStrategyItem{CapacityProvider: Fargate, Weight: fargateWeight},
		},
		NetworkConfiguration: &ecs.Service_NetworkConfiguration{
			AwsvpcConfiguration: &ecs.Service_AwsVpcConfiguration{
				AssignPublicIp: "ENABLED",
				SecurityGroups: []any{net.securityGroup.GetAtt("GroupId")},
				Subnets:        net.subnets,
			},
		},
		DeploymentConfiguration: &ecs.Service_DeploymentConfiguration{
			MaximumPercent:        200,
			MinimumHealthyPercent: 50,
			DeploymentCircuitBreaker: &ecs.Service_DeploymentCircuitBreaker{
				Enable:   true,
				Rollback: true,
			},
		},
		EnableECSManagedTags: true,
		PropagateTags:        "SERVICE",
	}, template.DependsOn(capacity, net.defaultRoute, executionPolicy, taskPolicy, s3Policy))

	a.addScaling(cluster)
}

// imageURI is the ECR image URI of tag in the named repository of the
// deploying account.
func imageURI(repositoryName any, tag string) intrinsics.Join {
	return intrinsics.Join{Delimiter: "", Values: []any{
		intrinsics.AWS_ACCOUNT_ID, ".dkr.ecr.", intrinsics.AWS_REGION, ".", intrinsics.AWS_URL_SUFFIX,
		"/", repositoryName, ":" + tag,
	}}
}

// addScaling scales the service on CPU and on the visible backlog of the
// thumbnail queue.
func (a *App) addScaling(cluster template.Handle) {
	stack := a.Stack

	target := stack.Add("BookwormThumbnailGeneratorScalableTarget", &applicationautoscaling.ScalableTarget{
		MinCapacity: minTasks,
		MaxCapacity: maxTasks,
		ResourceId: intrinsics.Join{Delimiter: "/", Values: []any{
			"service", cluster, a.Service.GetAtt("Name"),
		}},
		RoleARN: intrinsics.Sub{
			String: "arn:${AWS::Partition}:iam::${AWS::AccountId}:role/aws-service-role/ecs.application-autoscaling.amazonaws.com/AWSServiceRoleForApplicationAutoScaling_ECSService",
		},
		ScalableDimension: "ecs:service:DesiredCount",
		ServiceNamespace:  "ecs",
	})

	stack.Add("BookwormThumbnailGeneratorCpuScaling", &applicationautoscaling.ScalingPolicy{
		PolicyName:      "bookworm-thumbnail-generator-cpu-scaling",
		PolicyType:      "TargetTrackingScaling",
		ScalingTargetId: target,
		TargetTrackingScalingPolicyConfiguration: &applicationautoscaling.ScalingPolicy_TargetTrackingScalingPolicyConfiguration{
			TargetValue: cpuTargetUtilization,
			PredefinedMetricSpecification: &applicationautoscaling.ScalingPolicy_PredefinedMetricSpecification{
				PredefinedMetricType: "ECSServiceAverageCPUUtilization",
			},
		},
	})

	lower := stack.Add("BookwormThumbnailGeneratorQueueScalingLowerPolicy", &applicationautoscaling.ScalingPolicy{
		PolicyName:      "bookworm-thumbnail-generator-queue-scaling-lower",
		PolicyType:      "StepScaling",
		ScalingTargetId: target,
		StepScalingPolicyConfiguration: &applicationautoscaling.ScalingPolicy_StepScalingPolicyConfiguration{
			AdjustmentType:        "ChangeInCapacity",
			MetricAggregationType: "Maximum",
			StepAdjustments: []any{
				applicationautoscaling.ScalingPolicy_StepAdjustment{MetricIntervalUpperBound: 0, ScalingAdjustment: -1},
			},
		},
	})
	stack.Add("BookwormThumbnailGeneratorQueueScalingLowerAlarm", a.backlogAlarm(
		"Scale in when the thumbnail queue is empty.",
		scaleDownThreshold, "LessThanOrEqualToThreshold", lower,
	))

	upper := stack.Add("BookwormThumbnailGeneratorQueueScalingUpperPolicy", &applicationautoscaling.ScalingPolicy{
		PolicyName:      "bookworm-thumbnail-generator-queue-scaling-upper",
		PolicyType:      "StepScaling",
		ScalingTargetId: target,
		StepScalingPolicyConfiguration: &applicationautoscaling.ScalingPolicy_StepScalingPolicyConfiguration{
			AdjustmentType:        "ChangeInCapacity",
			MetricAggregationType: "Maximum",
			StepAdjustments: []any{
				applicationautoscaling.ScalingPolicy_StepAdjustment{
					MetricIntervalLowerBound: 0,
					MetricIntervalUpperBound: scaleUpSteep,
					ScalingAdjustment:        1,
				},
				applicationautoscaling.ScalingPolicy_StepAdjustment{
					MetricIntervalLowerBound: scaleUpSteep,
					ScalingAdjustment:        5,
				},
			},
		},
	})
	stack.Add("BookwormThumbnailGeneratorQueueScalingUpperAlarm", a.backlogAlarm(
		"Scale out when covers are waiting for thumbnails.",
		scaleUpThreshold, "GreaterThanOrEqualToThreshold", upper,
	))
}

func (a *App) backlogAlarm(description string, threshold int, comparison string, action template.Handle) *cloudwatch.Alarm {
	return &cloudwatch.Alarm{
		AlarmDescription: description,
		Namespace:        "AWS/SQS",
		MetricName:       "ApproximateNumberOfMessagesVisible",
		Dimensions: []any{
			cloudwatch.Alarm_Dimension{Name: "QueueName", Value: a.Queue.GetAtt("QueueName")},
		},
		Statistic:          "Maximum",
		Period:             scalingPeriodSecs,
		EvaluationPeriods:  1,
		Threshold:          threshold,
		ComparisonOperator: comparison,
		AlarmActions:       []any{action},
	}
}
