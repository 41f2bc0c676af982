package s3

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookworm "github.com/lex00/bookworm-infra-go"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		resource bookworm.Resource
		expected string
	}{
		{"Bucket", Bucket{}, "AWS::S3::Bucket"},
		{"BucketPolicy", BucketPolicy{}, "AWS::S3::BucketPolicy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestBucket_PublicAccessFlagsSerializeFalse(t *testing.T) {
	bucket := Bucket{
		BucketName: "bookworm-covers-eu-west-1",
		PublicAccessBlockConfiguration: &Bucket_PublicAccessBlockConfiguration{
			BlockPublicAcls:       true,
			BlockPublicPolicy:     false,
			IgnorePublicAcls:      true,
			RestrictPublicBuckets: true,
		},
	}

	data, err := json.Marshal(bucket)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	pab := parsed["PublicAccessBlockConfiguration"].(map[string]any)
	assert.Equal(t, false, pab["BlockPublicPolicy"])
	assert.Equal(t, true, pab["BlockPublicAcls"])
	assert.NotContains(t, parsed, "NotificationConfiguration")
}

func TestBucket_QueueNotification(t *testing.T) {
	bucket := Bucket{
		NotificationConfiguration: &Bucket_NotificationConfiguration{
			QueueConfigurations: []any{
				Bucket_QueueConfiguration{
					Event: "s3:ObjectCreated:*",
					Queue: "arn:aws:sqs:eu-west-1:123456789012:queue",
					Filter: &Bucket_NotificationFilter{
						S3Key: &Bucket_S3KeyFilter{
							Rules: []any{Bucket_FilterRule{Name: "prefix", Value: "raw/"}},
						},
					},
				},
			},
		},
	}

	data, err := json.Marshal(bucket)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"NotificationConfiguration": {
			"QueueConfigurations": [{
				"Event": "s3:ObjectCreated:*",
				"Queue": "arn:aws:sqs:eu-west-1:123456789012:queue",
				"Filter": {"S3Key": {"Rules": [{"Name": "prefix", "Value": "raw/"}]}}
			}]
		}
	}`, string(data))
}
