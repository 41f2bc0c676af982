package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_MarshalJSON(t *testing.T) {
	ref := Ref{LogicalName: "BookCoversBucket"}
	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "BookCoversBucket"}`, string(data))
}

func TestSub_MarshalJSON(t *testing.T) {
	sub := Sub{String: "arn:${AWS::Partition}:s3:::bookworm-covers-${AWS::Region}"}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "arn:${AWS::Partition}:s3:::bookworm-covers-${AWS::Region}"}`, string(data))
}

func TestJoin_MarshalJSON(t *testing.T) {
	join := Join{Delimiter: "", Values: []any{"https://", Ref{LogicalName: "Api"}, ".execute-api."}}
	data, err := json.Marshal(join)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", ["https://", {"Ref": "Api"}, ".execute-api."]]}`, string(data))
}

func TestImportValue_MarshalJSON(t *testing.T) {
	imp := ImportValue{ExportName: "Infrastructure-Shared:ThumbnailGeneratorRepositoryArn"}
	data, err := json.Marshal(imp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::ImportValue": "Infrastructure-Shared:ThumbnailGeneratorRepositoryArn"}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAllow_SingleAndMultipleActions(t *testing.T) {
	single := Allow("ecr:GetAuthorizationToken").OnAllResources()
	data, err := json.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Effect":"Allow","Action":"ecr:GetAuthorizationToken","Resource":"*"}`, string(data))

	multi := Allow("s3:GetObject", "s3:PutObject").On("arn:aws:s3:::b/raw/*")
	data, err = json.Marshal(multi)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Effect":"Allow","Action":["s3:GetObject","s3:PutObject"],"Resource":"arn:aws:s3:::b/raw/*"}`, string(data))

	assert.Equal(t, []string{"s3:GetObject", "s3:PutObject"}, multi.Actions())
	assert.Equal(t, []string{"ecr:GetAuthorizationToken"}, single.Actions())
}

func TestPolicyStatement_OnSeveralResources(t *testing.T) {
	stmt := Allow("s3:ListBucket").On("arn:a", "arn:b")
	assert.Equal(t, []any{"arn:a", "arn:b"}, stmt.Resource)
}

func TestServiceTrust(t *testing.T) {
	doc := ServiceTrust("lambda.amazonaws.com")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "lambda.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, string(data))
}

func TestGitHubOIDCTrust(t *testing.T) {
	doc := GitHubOIDCTrust(Ref{LogicalName: "GitHubOIDCProvider"}, "bookworm-org", "bookworm")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Federated": {"Ref": "GitHubOIDCProvider"}},
			"Action": "sts:AssumeRoleWithWebIdentity",
			"Condition": {
				"StringLike": {"token.actions.githubusercontent.com:sub": "repo:bookworm-org/bookworm:*"},
				"StringEquals": {"token.actions.githubusercontent.com:aud": "sts.amazonaws.com"}
			}
		}]
	}`, string(data))
}

func TestPrincipals_MultipleValues(t *testing.T) {
	data, err := json.Marshal(ServicePrincipal{"ecs-tasks.amazonaws.com", "lambda.amazonaws.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Service": ["ecs-tasks.amazonaws.com", "lambda.amazonaws.com"]}`, string(data))

	data, err = json.Marshal(AWSPrincipal{"*"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"AWS": "*"}`, string(data))
}
