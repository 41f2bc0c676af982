package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/stacks"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

func templateOf(resources map[string]bookworm.ResourceDef) *bookworm.Template {
	return &bookworm.Template{AWSTemplateFormatVersion: "2010-09-09", Resources: resources}
}

func TestValidateTemplate_Nil(t *testing.T) {
	_, err := ValidateTemplate(nil, Options{})
	assert.Error(t, err)
}

func TestValidateTemplate_MissingRequired(t *testing.T) {
	result, err := ValidateTemplate(templateOf(map[string]bookworm.ResourceDef{
		"Permission": {
			Type:       "AWS::Lambda::Permission",
			Properties: map[string]any{"Action": "lambda:InvokeFunction"},
		},
	}), Options{})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "FunctionName", result.Errors[0].Property)
	assert.Equal(t, "missing required property: Principal", result.Errors[1].Message)
}

func TestValidateTemplate_PropertyTypes(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		valid bool
	}{
		{
			name:  "numbers",
			props: map[string]any{"Code": map[string]any{}, "Role": "r", "MemorySize": 512.0, "Timeout": 30},
			valid: true,
		},
		{
			name:  "numeric string",
			props: map[string]any{"Code": map[string]any{}, "Role": "r", "MemorySize": "512"},
			valid: true,
		},
		{
			name:  "word for number",
			props: map[string]any{"Code": map[string]any{}, "Role": "r", "MemorySize": "large"},
			valid: false,
		},
		{
			name:  "intrinsic",
			props: map[string]any{"Code": map[string]any{}, "Role": map[string]any{"Fn::GetAtt": []any{"Role", "Arn"}}},
			valid: true,
		},
		{
			name:  "list where string expected",
			props: map[string]any{"Code": map[string]any{}, "Role": []any{"r"}},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateTemplate(templateOf(map[string]bookworm.ResourceDef{
				"Fn": {Type: "AWS::Lambda::Function", Properties: tt.props},
			}), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
		})
	}
}

func TestValidateTemplate_AllowedValues(t *testing.T) {
	result, err := ValidateTemplate(templateOf(map[string]bookworm.ResourceDef{
		"Logs": {Type: "AWS::Logs::LogGroup", Properties: map[string]any{"RetentionInDays": 10.0}},
		"Env": {Type: "AWS::Cloud9::EnvironmentEC2", Properties: map[string]any{
			"InstanceType":   "m5.large",
			"ImageId":        "amazonlinux-2023-x86_64",
			"ConnectionType": "CONNECT_TELNET",
		}},
	}), Options{})
	require.NoError(t, err)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Env", result.Errors[0].Resource)
	assert.Equal(t, "ConnectionType", result.Errors[0].Property)
	assert.Equal(t, "Logs", result.Errors[1].Resource)
	assert.Contains(t, result.Errors[1].Message, `value "10" not in allowed values`)
}

func TestValidateTemplate_UnknownTypes(t *testing.T) {
	result, err := ValidateTemplate(templateOf(map[string]bookworm.ResourceDef{
		"Table": {Type: "AWS::DynamoDB::Table"},
		"Bad":   {Type: "DynamoDBTable"},
	}), Options{})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "invalid resource type format")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "schema not available")
}

func TestValidateTemplate_StrictUnknownProperty(t *testing.T) {
	tmpl := templateOf(map[string]bookworm.ResourceDef{
		"Queue": {Type: "AWS::SQS::Queue", Properties: map[string]any{"FifoQueue": true}},
	})

	result, err := ValidateTemplate(tmpl, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	result, err = ValidateTemplate(tmpl, Options{Strict: true})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "unknown property: FifoQueue", result.Warnings[0].Message)
}

func TestIsValidEnumValue_UnknownPropertyAccepted(t *testing.T) {
	assert.True(t, isValidEnumValue(EnumRef{Service: "lambda"}, "NotAnEnumProperty", "anything"))
}

func TestValidateTemplate_BookwormStacks(t *testing.T) {
	env := template.Environment{Account: "123456789012", Region: "eu-west-1"}
	shared, err := stacks.NewShared(stacks.SharedProps{Env: env, GitHubOrg: "acme", GitHubRepo: "bookworm"})
	require.NoError(t, err)
	ide, err := stacks.NewIDE(stacks.IDEProps{Env: env, Username: "alice"})
	require.NoError(t, err)
	app, err := stacks.NewApp(stacks.AppProps{
		Env:            env,
		Repository:     &shared.Repository,
		AssetsBucket:   shared.AssetsBucket,
		UploadCoverKey: "assets/abc.zip",
	})
	require.NoError(t, err)

	templates, err := template.NewAssembly(shared.Stack, ide.Stack, app.Stack).Templates()
	require.NoError(t, err)

	for name, tmpl := range templates {
		result, err := ValidateTemplate(tmpl, Options{})
		require.NoError(t, err)
		assert.True(t, result.Valid, "%s: %v", name, result.Errors)
		assert.Empty(t, result.Warnings, name)
	}
}
