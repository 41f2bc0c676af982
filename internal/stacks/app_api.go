package stacks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/apigateway"
	"github.com/lex00/bookworm-infra-go/resources/codeguruprofiler"
	"github.com/lex00/bookworm-infra-go/resources/iam"
	"github.com/lex00/bookworm-infra-go/resources/lambda"
	"github.com/lex00/bookworm-infra-go/resources/logs"
)

const (
	UploadCoverFunctionName = "bookworm-upload-cover-presigned-link-generation"
	UploadCoverPath         = "upload-cover"
	APIStageName            = "prod"

	// APIDeploymentPrefix starts the deployment logical ID; a revision hash
	// of the API methods and resources follows it.
	APIDeploymentPrefix = "SharedAPIDeployment"

	// OutputAPIURL is the App stack output holding the API base URL.
	OutputAPIURL = "URLForSharedAPI"

	uploadCoverRuntime     = "python3.12"
	uploadCoverHandler     = "main.request_handler"
	uploadCoverMemoryMB    = 512
	uploadCoverTimeoutSecs = 25
	uploadCoverLogDays     = 5

	presignedLinkValiditySecs = 300
)

// corsHeaders are the preflight response headers of every API resource.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Headers":     "'Content-Type,X-Amz-Date,Authorization,X-Api-Key'",
	"Access-Control-Allow-Origin":      "'*'",
	"Access-Control-Allow-Credentials": "'true'",
	"Access-Control-Allow-Methods":     "'OPTIONS,GET,POST,PUT,PATCH,DELETE'",
}

// addUploadAPI declares the REST API whose POST /upload-cover is served by
// a Lambda function returning presigned upload URLs for raw/.
func (a *App) addUploadAPI(props AppProps) error {
	stack := a.Stack

	profilingGroup := stack.Add("UploadCoverAPIImplementationProfilingGroup", &codeguruprofiler.ProfilingGroup{
		ProfilingGroupName: "BookwormUploadCoverPresignedLinkGeneration",
		ComputePlatform:    "AWSLambda",
	})

	role := stack.Add("UploadCoverAPIImplementationExecutionRole", &iam.Role{
		RoleName:                 "bookworm-upload-cover-presigned-link-generation-role",
		AssumeRolePolicyDocument: intrinsics.ServiceTrust("lambda.amazonaws.com"),
		ManagedPolicyArns:        []any{iam.AWSManagedPolicy("service-role/AWSLambdaBasicExecutionRole")},
	})
	rolePolicy := addDefaultPolicy(stack, role,
		intrinsics.Allow("s3:ListAllMyBuckets").OnAllResources(),
		intrinsics.Allow("s3:ListBucket").On(a.CoversBucket.Arn()),
		intrinsics.Allow(
			"s3:GetObject",
			"s3:GetObjectAcl",
			"s3:PutObject",
			"s3:PutObjectAcl",
			"s3:DeleteObject",
		).On(subArn(a.CoversBucket, "/"+RawCoversPrefix+"*")),
		intrinsics.Allow("codeguru-profiler:ConfigureAgent", "codeguru-profiler:PostAgentProfile").
			On(profilingGroup.Arn()),
	)

	logGroup := stack.Add("UploadCoverAPIImplementationLogGroup", &logs.LogGroup{
		LogGroupName:    "/aws/lambda/" + UploadCoverFunctionName,
		RetentionInDays: uploadCoverLogDays,
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	a.Function = stack.Add("UploadCoverAPIImplementation", &lambda.Function{
		FunctionName: UploadCoverFunctionName,
		Description:  "Generates presigned URLs for uploading book covers.",
		Role:         role.Arn(),
		Runtime:      uploadCoverRuntime,
		Handler:      uploadCoverHandler,
		Code: &lambda.Function_Code{
			S3Bucket: stack.Import(props.AssetsBucket),
			S3Key:    props.UploadCoverKey,
		},
		MemorySize: uploadCoverMemoryMB,
		Timeout:    uploadCoverTimeoutSecs,
		Environment: &lambda.Function_Environment{
			Variables: map[string]any{
				"COVERS_STORAGE_BUCKET_NAME":             a.CoversBucket,
				"COVERS_STORAGE_PREFIX":                  RawCoversPrefix,
				"PRESIGNED_LINK_VALIDNESS_DURATION_IN_S": strconv.Itoa(presignedLinkValiditySecs),
				"AWS_CODEGURU_PROFILER_GROUP_ARN":        profilingGroup.Arn(),
				"AWS_CODEGURU_PROFILER_ENABLED":          "TRUE",
			},
		},
		LoggingConfig: &lambda.Function_LoggingConfig{
			LogFormat: "Text",
			LogGroup:  logGroup,
		},
	}, template.DependsOn(rolePolicy))

	// REST API.
	a.API = stack.Add("SharedAPI", &apigateway.RestApi{
		Name:        "bookworm-api",
		Description: "Shared Amazon API Gateway that handles book cover uploads.",
	})
	root := a.API.GetAtt("RootResourceId")

	rootOptionsDef := corsPreflight(a.API, root)
	rootOptions := stack.Add("SharedAPIOPTIONS", rootOptionsDef)

	uploadCoverDef := &apigateway.Resource{
		RestApiId: a.API,
		ParentId:  root,
		PathPart:  UploadCoverPath,
	}
	uploadCover := stack.Add("SharedAPIUploadCover", uploadCoverDef)
	uploadCoverOptionsDef := corsPreflight(a.API, uploadCover)
	uploadCoverOptions := stack.Add("SharedAPIUploadCoverOPTIONS", uploadCoverOptionsDef)

	uploadCoverPostDef := &apigateway.Method{
		RestApiId:         a.API,
		ResourceId:        uploadCover,
		HttpMethod:        "POST",
		AuthorizationType: "NONE",
		Integration: &apigateway.Method_Integration{
			Type_:                 "AWS_PROXY",
			IntegrationHttpMethod: "POST",
			Uri: intrinsics.Join{Delimiter: "", Values: []any{
				"arn:", intrinsics.AWS_PARTITION,
				":apigateway:", intrinsics.AWS_REGION,
				":lambda:path/2015-03-31/functions/", a.Function.Arn(),
				"/invocations",
			}},
		},
	}
	uploadCoverPost := stack.Add("SharedAPIUploadCoverPOST", uploadCoverPostDef)

	// A new logical ID per API revision makes CloudFormation create a
	// fresh deployment and repoint the stage.
	revision, err := apiRevision(rootOptionsDef, uploadCoverDef, uploadCoverOptionsDef, uploadCoverPostDef)
	if err != nil {
		return fmt.Errorf("app stack: %w", err)
	}
	deployment := stack.Add(APIDeploymentPrefix+revision, &apigateway.Deployment{
		RestApiId:   a.API,
		Description: "Shared Amazon API Gateway that handles book cover uploads.",
	}, template.DependsOn(rootOptions, uploadCover, uploadCoverOptions, uploadCoverPost))

	stage := stack.Add("SharedAPIDeploymentStageprod", &apigateway.Stage{
		RestApiId:    a.API,
		DeploymentId: deployment,
		StageName:    APIStageName,
	})

	// Invocation permissions for the deployed stage and the console's
	// test-invoke stage.
	stack.Add("SharedAPIUploadCoverPOSTPermission", &lambda.Permission{
		Action:       "lambda:InvokeFunction",
		FunctionName: a.Function.Arn(),
		Principal:    "apigateway.amazonaws.com",
		SourceArn:    executeAPIArn(a.API, stage, "POST", UploadCoverPath),
	})
	stack.Add("SharedAPIUploadCoverPOSTTestPermission", &lambda.Permission{
		Action:       "lambda:InvokeFunction",
		FunctionName: a.Function.Arn(),
		Principal:    "apigateway.amazonaws.com",
		SourceArn:    executeAPIArn(a.API, "test-invoke-stage", "POST", UploadCoverPath),
	})

	stack.AddOutput(OutputAPIURL, bookworm.Output{
		Description: "Base URL of the bookworm API.",
		Value: intrinsics.Join{Delimiter: "", Values: []any{
			"https://", a.API,
			".execute-api.", intrinsics.AWS_REGION,
			".", intrinsics.AWS_URL_SUFFIX,
			"/", stage, "/",
		}},
	})
	return nil
}

// apiRevision hashes the rendered API methods and resources so that any
// change to them yields a new deployment.
func apiRevision(defs ...any) (string, error) {
	h := sha256.New()
	for _, def := range defs {
		data, err := json.Marshal(def)
		if err != nil {
			return "", fmt.Errorf("hashing API definition: %w", err)
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))[:8], nil
}

// corsPreflight is a mock OPTIONS method answering CORS preflight requests
// on resource.
func corsPreflight(api template.Handle, resource any) *apigateway.Method {
	integration := map[string]any{}
	method := map[string]any{}
	for header, value := range corsHeaders {
		integration["method.response.header."+header] = value
		method["method.response.header."+header] = true
	}

	return &apigateway.Method{
		RestApiId:         api,
		ResourceId:        resource,
		HttpMethod:        "OPTIONS",
		AuthorizationType: "NONE",
		Integration: &apigateway.Method_Integration{
			Type_:            "MOCK",
			RequestTemplates: map[string]any{"application/json": "{ statusCode: 200 }"},
			IntegrationResponses: []any{
				apigateway.Method_IntegrationResponse{
					StatusCode:         "204",
					ResponseParameters: integration,
				},
			},
		},
		MethodResponses: []any{
			apigateway.Method_MethodResponse{
				StatusCode:         "204",
				ResponseParameters: method,
			},
		},
	}
}

// executeAPIArn is the execute-api ARN of one method and path on a stage.
func executeAPIArn(api template.Handle, stage any, method, path string) intrinsics.Join {
	return intrinsics.Join{Delimiter: "", Values: []any{
		"arn:", intrinsics.AWS_PARTITION,
		":execute-api:", intrinsics.AWS_REGION,
		":", intrinsics.AWS_ACCOUNT_ID,
		":", api,
		"/", stage,
		"/", method,
		"/", path,
	}}
}
