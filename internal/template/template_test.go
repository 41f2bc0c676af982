package template

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/iam"
	"github.com/lex00/bookworm-infra-go/resources/s3"
	"github.com/lex00/bookworm-infra-go/resources/sqs"
)

var testEnv = Environment{Account: "123456789012", Region: "eu-west-1"}

func TestStack_Build_SimpleResource(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "test stack")
	stack.Add("BookCoversBucket", &s3.Bucket{BucketName: "bookworm-covers-eu-west-1"})

	tmpl, err := stack.Build()
	require.NoError(t, err)

	assert.Equal(t, "2010-09-09", tmpl.AWSTemplateFormatVersion)
	assert.Equal(t, "test stack", tmpl.Description)
	require.Len(t, tmpl.Resources, 1)

	bucket := tmpl.Resources["BookCoversBucket"]
	assert.Equal(t, "AWS::S3::Bucket", bucket.Type)
	assert.Equal(t, "bookworm-covers-eu-west-1", bucket.Properties["BucketName"])
	assert.Empty(t, bucket.DeletionPolicy)
}

func TestStack_Build_HandlesSerializeAsRefs(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	dlq := stack.Add("DLQ", &sqs.Queue{QueueName: "dlq"})
	queue := stack.Add("Queue", &sqs.Queue{
		RedrivePolicy: sqs.RedrivePolicy{DeadLetterTargetArn: dlq.Arn(), MaxReceiveCount: 1},
	})
	stack.Add("QueuePolicy", &sqs.QueuePolicy{Queues: []any{queue}})

	tmpl, err := stack.Build()
	require.NoError(t, err)

	policy := tmpl.Resources["QueuePolicy"]
	assert.Equal(t, []any{map[string]any{"Ref": "Queue"}}, policy.Properties["Queues"])

	redrive := tmpl.Resources["Queue"].Properties["RedrivePolicy"].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"DLQ", "Arn"}}, redrive["deadLetterTargetArn"])

	order, err := Order(tmpl)
	require.NoError(t, err)
	assert.Equal(t, []string{"DLQ", "Queue", "QueuePolicy"}, order)
}

func TestStack_Build_RemovalPolicyAndDependsOn(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	policy := stack.Add("QueuePolicy", &sqs.QueuePolicy{})
	stack.Add("Bucket", &s3.Bucket{},
		WithRemovalPolicy(RemovalPolicyDestroy),
		DependsOn(policy, policy),
	)

	tmpl, err := stack.Build()
	require.NoError(t, err)

	bucket := tmpl.Resources["Bucket"]
	assert.Equal(t, "Delete", bucket.DeletionPolicy)
	assert.Equal(t, "Delete", bucket.UpdateReplacePolicy)
	assert.Equal(t, []string{"QueuePolicy"}, bucket.DependsOn)
}

func TestStack_Build_InvalidLogicalIDs(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	stack.Add("Bucket", &s3.Bucket{})
	stack.Add("Bucket", &s3.Bucket{})
	stack.Add("my-bucket", &s3.Bucket{})

	_, err := stack.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate logical ID "Bucket"`)
	assert.Contains(t, err.Error(), `invalid logical ID "my-bucket"`)
}

func TestStack_Build_DanglingReference(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	stack.Add("QueuePolicy", &sqs.QueuePolicy{Queues: []any{intrinsics.Ref{LogicalName: "Missing"}}})
	stack.AddOutput("QueueArn", bookworm.Output{Value: intrinsics.GetAtt{LogicalName: "AlsoMissing", Attribute: "Arn"}})

	_, err := stack.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueuePolicy references undefined resource Missing")
	assert.Contains(t, err.Error(), "output QueueArn references undefined resource AlsoMissing")
}

func TestStack_Build_PseudoParametersAreNotReferences(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	stack.Add("Bucket", &s3.Bucket{
		BucketName: intrinsics.Sub{String: "bookworm-covers-${AWS::Region}"},
	})

	_, err := stack.Build()
	assert.NoError(t, err)
}

func TestStack_Build_CircularDependency(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	stack.Add("A", &sqs.QueuePolicy{Queues: []any{intrinsics.Ref{LogicalName: "B"}}})
	stack.Add("B", &sqs.QueuePolicy{Queues: []any{intrinsics.Ref{LogicalName: "C"}}})
	stack.Add("C", &sqs.QueuePolicy{Queues: []any{intrinsics.Ref{LogicalName: "A"}}})

	_, err := stack.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency detected: A → B → C → A")
}

func TestStack_ExportAndImport(t *testing.T) {
	shared := NewStack("Infrastructure-Shared", testEnv, "")
	repo := shared.Add("Repository", &iam.OIDCProvider{Url: "https://example.com"})
	exp := shared.Export("RepositoryArn", repo.Arn())

	assert.Equal(t, "Infrastructure-Shared", exp.Stack)
	assert.Equal(t, "Infrastructure-Shared:RepositoryArn", exp.Name)

	app := NewStack("Infrastructure-App", testEnv, "")
	imported := app.Import(exp)
	app.Import(exp)

	assert.Equal(t, []string{"Infrastructure-Shared"}, app.Dependencies())
	data, err := json.Marshal(imported)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::ImportValue": "Infrastructure-Shared:RepositoryArn"}`, string(data))

	tmpl, err := shared.Build()
	require.NoError(t, err)
	out := tmpl.Outputs["RepositoryArn"]
	assert.Equal(t, "Infrastructure-Shared:RepositoryArn", out.Export.Name)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"Repository", "Arn"}}, out.Value)
}

func TestStack_DuplicateOutput(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	stack.AddOutput("Url", bookworm.Output{Value: "a"})
	stack.AddOutput("Url", bookworm.Output{Value: "b"})

	_, err := stack.Build()
	assert.ErrorContains(t, err, `duplicate output "Url"`)
}

func TestHandle(t *testing.T) {
	h := Handle{logicalID: "Role"}

	assert.Equal(t, "Role", h.LogicalID())
	assert.Equal(t, intrinsics.Ref{LogicalName: "Role"}, h.Ref())
	assert.Equal(t, intrinsics.GetAtt{LogicalName: "Role", Attribute: "Arn"}, h.Arn())

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "Role"}`, string(data))
}

func TestToYAML(t *testing.T) {
	stack := NewStack("Infrastructure-Test", testEnv, "")
	stack.Add("Bucket", &s3.Bucket{BucketName: "b"}, WithRemovalPolicy(RemovalPolicyDestroy))

	tmpl, err := stack.Build()
	require.NoError(t, err)

	data, err := ToYAML(tmpl)
	require.NoError(t, err)

	var parsed bookworm.Template
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, "AWS::S3::Bucket", parsed.Resources["Bucket"].Type)
	assert.Equal(t, "Delete", parsed.Resources["Bucket"].DeletionPolicy)
}

func TestEnvironment_String(t *testing.T) {
	assert.Equal(t, "aws://123456789012/eu-west-1", testEnv.String())
}
