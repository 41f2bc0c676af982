package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/bookworm-infra-go/intrinsics"
)

type testQueue struct {
	QueueName         any               `json:"QueueName,omitempty"`
	VisibilityTimeout any               `json:"VisibilityTimeout,omitempty"`
	DelaySeconds      int               `json:"DelaySeconds,omitempty"`
	Redrive           *testRedrive      `json:"RedrivePolicy,omitempty"`
	Tags              []any             `json:"Tags,omitempty"`
	Labels            map[string]string `json:"Labels,omitempty"`
	Type_             any               `json:"Type,omitempty"`
}

func (testQueue) ResourceType() string { return "AWS::SQS::Queue" }

type testRedrive struct {
	DeadLetterTargetArn any `json:"deadLetterTargetArn"`
	MaxReceiveCount     any `json:"maxReceiveCount"`
}

func TestProperties_SimpleStruct(t *testing.T) {
	props, err := Properties(testQueue{QueueName: "bookworm-cover-thumbnail-generation-queue"})
	require.NoError(t, err)

	assert.Equal(t, "bookworm-cover-thumbnail-generation-queue", props["QueueName"])
	assert.NotContains(t, props, "Tags")
	assert.NotContains(t, props, "RedrivePolicy")
	assert.NotContains(t, props, "DelaySeconds")
}

func TestProperties_ExplicitZeroInAny(t *testing.T) {
	props, err := Properties(testQueue{VisibilityTimeout: 0, Type_: "standard"})
	require.NoError(t, err)

	assert.Contains(t, props, "VisibilityTimeout")
	assert.Equal(t, "standard", props["Type"])
}

func TestProperties_NestedStructAndIntrinsics(t *testing.T) {
	queue := testQueue{
		Redrive: &testRedrive{
			DeadLetterTargetArn: intrinsics.GetAtt{LogicalName: "ThumbnailGenerationDLQ", Attribute: "Arn"},
			MaxReceiveCount:     1,
		},
		Labels: map[string]string{"app": "bookworm"},
	}

	props, err := Properties(&queue)
	require.NoError(t, err)

	redrive := props["RedrivePolicy"].(map[string]any)
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"ThumbnailGenerationDLQ", "Arn"}}, redrive["deadLetterTargetArn"])
	assert.EqualValues(t, 1, redrive["maxReceiveCount"])
	assert.Equal(t, map[string]any{"app": "bookworm"}, props["Labels"])
}

func TestProperties_Nil(t *testing.T) {
	_, err := Properties(nil)
	assert.Error(t, err)
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{
			name:     "ref",
			input:    map[string]any{"Bucket": map[string]any{"Ref": "BookCoversBucket"}},
			expected: []string{"BookCoversBucket"},
		},
		{
			name:     "pseudo parameter ignored",
			input:    map[string]any{"Region": map[string]any{"Ref": "AWS::Region"}},
			expected: []string{},
		},
		{
			name:     "getatt",
			input:    []any{map[string]any{"Fn::GetAtt": []any{"Queue", "Arn"}}},
			expected: []string{"Queue"},
		},
		{
			name: "sub placeholders",
			input: map[string]any{
				"Fn::Sub": "arn:${AWS::Partition}:s3:::${BookCoversBucket}/raw/* ${Role.Arn} ${!Literal}",
			},
			expected: []string{"BookCoversBucket", "Role"},
		},
		{
			name: "sub with variable map",
			input: map[string]any{
				"Fn::Sub": []any{
					"${Prefix}-${Queue.QueueName}",
					map[string]any{"Prefix": map[string]any{"Ref": "Api"}},
				},
			},
			expected: []string{"Api", "Queue"},
		},
		{
			name: "sorted and deduplicated",
			input: map[string]any{
				"A": map[string]any{"Ref": "Zeta"},
				"B": map[string]any{"Ref": "Alpha"},
				"C": map[string]any{"Fn::GetAtt": []any{"Zeta", "Arn"}},
			},
			expected: []string{"Alpha", "Zeta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, References(tt.input))
		})
	}
}
