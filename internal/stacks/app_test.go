package stacks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/resources/apigateway"
)

func TestNewApp_RequiresSharedReferences(t *testing.T) {
	shared := newTestShared(t)

	_, err := NewApp(AppProps{Env: testEnv, AssetsBucket: shared.AssetsBucket, UploadCoverKey: testAssetKey})
	assert.ErrorContains(t, err, "image repository reference is required")

	_, err = NewApp(AppProps{Env: testEnv, Repository: &shared.Repository, AssetsBucket: shared.AssetsBucket})
	assert.ErrorContains(t, err, "upload-cover code asset is required")
}

func TestApp_CoversBucket(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	bucket := d.resource(t, "BookCoversBucket")
	assert.Equal(t, "Delete", bucket["DeletionPolicy"])
	assert.Equal(t, []any{"ThumbnailGenerationQueuePolicy"}, bucket["DependsOn"])

	props := d.props(t, "BookCoversBucket")
	assert.Equal(t, "bookworm-covers-eu-west-1", props["BucketName"])
	assert.Equal(t, map[string]any{
		"BlockPublicAcls":       true,
		"BlockPublicPolicy":     true,
		"IgnorePublicAcls":      true,
		"RestrictPublicBuckets": true,
	}, props["PublicAccessBlockConfiguration"])

	assert.JSONEq(t, `{
		"QueueConfigurations": [{
			"Event": "s3:ObjectCreated:*",
			"Filter": {"S3Key": {"Rules": [{"Name": "prefix", "Value": "raw/"}]}},
			"Queue": {"Fn::GetAtt": ["ThumbnailGenerationQueue", "Arn"]}
		}]
	}`, jsonOf(t, props["NotificationConfiguration"]))
}

func TestApp_QueuePolicyAllowsOnlyTheCoversBucket(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	stmts := statements(t, d, "ThumbnailGenerationQueuePolicy")
	require.Len(t, stmts, 1)
	assert.Contains(t, actions(stmts[0]), "sqs:SendMessage")
	assert.JSONEq(t, `{"Service": "s3.amazonaws.com"}`, jsonOf(t, stmts[0]["Principal"]))
	assert.JSONEq(t, `{
		"ArnLike": {"aws:SourceArn": {"Fn::Sub": "arn:${AWS::Partition}:s3:::bookworm-covers-eu-west-1"}},
		"StringEquals": {"aws:SourceAccount": {"Ref": "AWS::AccountId"}}
	}`, jsonOf(t, stmts[0]["Condition"]))
}

func TestApp_Queues(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	for _, id := range []string{"ThumbnailGenerationQueue", "ThumbnailGenerationDLQ"} {
		assert.Equal(t, "Delete", d.resource(t, id)["DeletionPolicy"], id)
	}

	dlq := d.props(t, "ThumbnailGenerationDLQ")
	assert.Equal(t, ThumbnailDLQName, dlq["QueueName"])
	assert.EqualValues(t, 1209600, dlq["MessageRetentionPeriod"])

	queue := d.props(t, "ThumbnailGenerationQueue")
	assert.Equal(t, ThumbnailQueueName, queue["QueueName"])
	assert.EqualValues(t, 120, queue["VisibilityTimeout"])
	assert.EqualValues(t, 604800, queue["MessageRetentionPeriod"])
	assert.JSONEq(t, `{
		"deadLetterTargetArn": {"Fn::GetAtt": ["ThumbnailGenerationDLQ", "Arn"]},
		"maxReceiveCount": 1
	}`, jsonOf(t, queue["RedrivePolicy"]))
}

func TestApp_UploadFunction(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	fn := d.resource(t, "UploadCoverAPIImplementation")
	assert.Equal(t, []any{"UploadCoverAPIImplementationExecutionRoleDefaultPolicy"}, fn["DependsOn"])

	props := d.props(t, "UploadCoverAPIImplementation")
	assert.Equal(t, UploadCoverFunctionName, props["FunctionName"])
	assert.Equal(t, "python3.12", props["Runtime"])
	assert.Equal(t, "main.request_handler", props["Handler"])
	assert.EqualValues(t, 512, props["MemorySize"])
	assert.EqualValues(t, 25, props["Timeout"])
	assert.JSONEq(t, `{
		"S3Bucket": {"Fn::ImportValue": "Infrastructure-Shared:AssetsBucketName"},
		"S3Key": "assets/0123abcd.zip"
	}`, jsonOf(t, props["Code"]))

	vars := props["Environment"].(map[string]any)["Variables"].(map[string]any)
	assert.Equal(t, "300", vars["PRESIGNED_LINK_VALIDNESS_DURATION_IN_S"])
	assert.Equal(t, "raw/", vars["COVERS_STORAGE_PREFIX"])
	assert.JSONEq(t, `{"Ref": "BookCoversBucket"}`, jsonOf(t, vars["COVERS_STORAGE_BUCKET_NAME"]))

	logGroup := d.props(t, "UploadCoverAPIImplementationLogGroup")
	assert.EqualValues(t, 5, logGroup["RetentionInDays"])
}

func TestApp_UploadFunctionRoleIsScopedToRawPrefix(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	stmts := statements(t, d, "UploadCoverAPIImplementationExecutionRoleDefaultPolicy")
	var objectStatement map[string]any
	for _, s := range stmts {
		for _, action := range actions(s) {
			assert.NotEqual(t, "s3:*", action)
			assert.NotEqual(t, "*", action)
			if action == "s3:PutObject" {
				objectStatement = s
			}
		}
	}

	require.NotNil(t, objectStatement)
	assert.ElementsMatch(t,
		[]string{"s3:GetObject", "s3:GetObjectAcl", "s3:PutObject", "s3:PutObjectAcl", "s3:DeleteObject"},
		actions(objectStatement))
	assert.JSONEq(t, `{"Fn::Sub": "${BookCoversBucket.Arn}/raw/*"}`, jsonOf(t, objectStatement["Resource"]))
}

func TestApp_API(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	api := d.props(t, "SharedAPI")
	assert.Equal(t, "bookworm-api", api["Name"])
	assert.Equal(t, "Shared Amazon API Gateway that handles book cover uploads.", api["Description"])

	assert.Equal(t, "upload-cover", d.props(t, "SharedAPIUploadCover")["PathPart"])

	post := d.props(t, "SharedAPIUploadCoverPOST")
	assert.Equal(t, "POST", post["HttpMethod"])
	integration := post["Integration"].(map[string]any)
	assert.Equal(t, "AWS_PROXY", integration["Type"])
	assert.Contains(t, jsonOf(t, integration["Uri"]), `{"Fn::GetAtt":["UploadCoverAPIImplementation","Arn"]}`)

	options := d.props(t, "SharedAPIUploadCoverOPTIONS")
	assert.Equal(t, "OPTIONS", options["HttpMethod"])
	assert.Contains(t, jsonOf(t, options), `"method.response.header.Access-Control-Allow-Origin":"'*'"`)

	deployments := d.ofType("AWS::ApiGateway::Deployment")
	require.Len(t, deployments, 1)
	assert.Regexp(t, `^SharedAPIDeployment[0-9a-f]{8}$`, deployments[0])
	deployment := d.resource(t, deployments[0])
	assert.Contains(t, deployment["DependsOn"], "SharedAPIUploadCoverPOST")
	assert.JSONEq(t, `{"Ref":"`+deployments[0]+`"}`,
		jsonOf(t, d.props(t, "SharedAPIDeploymentStageprod")["DeploymentId"]))
	assert.Equal(t, "prod", d.props(t, "SharedAPIDeploymentStageprod")["StageName"])

	permission := d.props(t, "SharedAPIUploadCoverPOSTPermission")
	assert.Equal(t, "apigateway.amazonaws.com", permission["Principal"])
	assert.Contains(t, jsonOf(t, permission["SourceArn"]), `"/","POST","/","upload-cover"`)

	url := d["Outputs"].(map[string]any)[OutputAPIURL].(map[string]any)
	assert.Contains(t, jsonOf(t, url["Value"]), `"https://"`)
}

func TestApp_ImportsRepositoryFromShared(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	task := d.props(t, "ThumbnailGeneratorTaskDefinition")
	container := task["ContainerDefinitions"].([]any)[0].(map[string]any)
	assert.Contains(t, jsonOf(t, container["Image"]),
		`{"Fn::ImportValue":"Infrastructure-Shared:ThumbnailGeneratorRepositoryName"}`)

	stmts := statements(t, d, "ThumbnailGeneratorTaskExecutionRoleDefaultPolicy")
	assert.JSONEq(t,
		`{"Fn::ImportValue": "Infrastructure-Shared:ThumbnailGeneratorRepositoryArn"}`,
		jsonOf(t, stmts[0]["Resource"]))
}

func TestApp_ThumbnailGeneratorService(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	assert.Equal(t, ClusterName, d.props(t, "BookwormCluster")["ClusterName"])

	task := d.props(t, "ThumbnailGeneratorTaskDefinition")
	assert.Equal(t, "512", task["Cpu"])
	assert.Equal(t, "1024", task["Memory"])

	service := d.props(t, "BookwormThumbnailGenerator")
	assert.Equal(t, ThumbnailGeneratorService, service["ServiceName"])
	assert.JSONEq(t, `[
		{"CapacityProvider": "FARGATE_SPOT", "Weight": 2},
		{"CapacityProvider": "FARGATE", "Weight": 1}
	]`, jsonOf(t, service["CapacityProviderStrategy"]))

	network := service["NetworkConfiguration"].(map[string]any)["AwsvpcConfiguration"].(map[string]any)
	assert.Equal(t, "ENABLED", network["AssignPublicIp"])
	assert.Len(t, network["Subnets"], 2)

	s3Access := d.props(t, "ThumbnailGeneratorServiceAdditionalIAMPolicy")
	assert.Equal(t, "bookworm-thumbnail-generator-service-s3-access-iam-policy", s3Access["PolicyName"])
	stmts := statements(t, d, "ThumbnailGeneratorServiceAdditionalIAMPolicy")
	require.Len(t, stmts, 2)
	assert.Equal(t, []string{"s3:GetObject"}, actions(stmts[0]))
	assert.JSONEq(t, `{"Fn::Sub": "${BookCoversBucket.Arn}/raw/*"}`, jsonOf(t, stmts[0]["Resource"]))
	assert.Equal(t, []string{"s3:PutObject"}, actions(stmts[1]))
	assert.JSONEq(t, `{"Fn::Sub": "${BookCoversBucket.Arn}/thumbnails/*"}`, jsonOf(t, stmts[1]["Resource"]))

	taskRole := d.props(t, "ThumbnailGeneratorTaskRole")
	assert.Contains(t, jsonOf(t, taskRole["ManagedPolicyArns"]), "AmazonCodeGuruProfilerAgentAccess")

	assert.Equal(t, ThumbnailProfilingGroupName,
		d.props(t, "BookwormThumbnailGeneratorServiceProfilingGroup")["ProfilingGroupName"])
}

func TestApp_Scaling(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	target := d.props(t, "BookwormThumbnailGeneratorScalableTarget")
	assert.EqualValues(t, 1, target["MinCapacity"])
	assert.EqualValues(t, 2, target["MaxCapacity"])

	lower := d.props(t, "BookwormThumbnailGeneratorQueueScalingLowerPolicy")
	assert.JSONEq(t, `[{"MetricIntervalUpperBound": 0, "ScalingAdjustment": -1}]`,
		jsonOf(t, lower["StepScalingPolicyConfiguration"].(map[string]any)["StepAdjustments"]))

	upper := d.props(t, "BookwormThumbnailGeneratorQueueScalingUpperPolicy")
	assert.JSONEq(t, `[
		{"MetricIntervalLowerBound": 0, "MetricIntervalUpperBound": 400, "ScalingAdjustment": 1},
		{"MetricIntervalLowerBound": 400, "ScalingAdjustment": 5}
	]`, jsonOf(t, upper["StepScalingPolicyConfiguration"].(map[string]any)["StepAdjustments"]))

	upperAlarm := d.props(t, "BookwormThumbnailGeneratorQueueScalingUpperAlarm")
	assert.EqualValues(t, 100, upperAlarm["Threshold"])
	assert.Equal(t, "ApproximateNumberOfMessagesVisible", upperAlarm["MetricName"])
	assert.JSONEq(t, `[{"Ref": "BookwormThumbnailGeneratorQueueScalingUpperPolicy"}]`, jsonOf(t, upperAlarm["AlarmActions"]))

	cpu := d.props(t, "BookwormThumbnailGeneratorCpuScaling")
	assert.EqualValues(t, 50, cpu["TargetTrackingScalingPolicyConfiguration"].(map[string]any)["TargetValue"])
}

func TestApp_DestroyedOnTeardown(t *testing.T) {
	shared := newTestShared(t)
	app := newTestApp(t, shared)

	for _, stack := range []*template.Stack{shared.Stack, app.Stack} {
		d := decode(t, stack)
		for _, id := range d.ofType("AWS::S3::Bucket") {
			assert.Equal(t, "Delete", d.resource(t, id)["DeletionPolicy"], id)
		}
		for _, id := range d.ofType("AWS::SQS::Queue") {
			assert.Equal(t, "Delete", d.resource(t, id)["DeletionPolicy"], id)
		}
		for _, id := range d.ofType("AWS::ECR::Repository") {
			assert.Equal(t, "Delete", d.resource(t, id)["DeletionPolicy"], id)
		}
	}
}

func TestApp_NoWildcardActions(t *testing.T) {
	d := decode(t, newTestApp(t, newTestShared(t)).Stack)

	for _, id := range d.ofType("AWS::IAM::Policy") {
		for _, s := range statements(t, d, id) {
			for _, action := range actions(s) {
				assert.False(t, strings.HasSuffix(action, ":*"), "%s allows %s", id, action)
			}
		}
	}
}

func TestApp_APIDeploymentFollowsAPIChanges(t *testing.T) {
	first := decode(t, newTestApp(t, newTestShared(t)).Stack).ofType("AWS::ApiGateway::Deployment")
	second := decode(t, newTestApp(t, newTestShared(t)).Stack).ofType("AWS::ApiGateway::Deployment")
	assert.Equal(t, first, second)

	api := template.NewStack("Test", template.Environment{}, "").Add("SharedAPI", &apigateway.RestApi{Name: "bookworm-api"})
	method := corsPreflight(api, "root")
	before, err := apiRevision(method)
	require.NoError(t, err)
	again, err := apiRevision(corsPreflight(api, "root"))
	require.NoError(t, err)
	assert.Equal(t, before, again)

	method.HttpMethod = "GET"
	after, err := apiRevision(method)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Len(t, after, 8)
}
