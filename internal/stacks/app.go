package stacks

import (
	"errors"
	"fmt"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/s3"
	"github.com/lex00/bookworm-infra-go/resources/sqs"
)

// Object key prefixes in the covers bucket.
const (
	RawCoversPrefix = "raw/"
	ThumbnailPrefix = "thumbnails/"
)

const (
	ThumbnailQueueName = "bookworm-cover-thumbnail-generation-queue"
	ThumbnailDLQName   = "bookworm-cover-thumbnail-generation-dlq"

	queueVisibilityTimeout = 120
	queueRetention         = 7 * 24 * 60 * 60
	dlqRetention           = 14 * 24 * 60 * 60
	maxReceiveCount        = 1
)

// AppProps configures the App stack.
type AppProps struct {
	Env template.Environment

	// Repository and AssetsBucket are exported by the Shared stack.
	Repository   *RepositoryReference
	AssetsBucket template.Export

	// UploadCoverKey is the assets bucket key of the upload-cover Lambda
	// package.
	UploadCoverKey string
}

// App is the synthesized App stack.
type App struct {
	Stack *template.Stack

	CoversBucket    template.Handle
	Queue           template.Handle
	DeadLetterQueue template.Handle
	API             template.Handle
	Function        template.Handle
	Service         template.Handle
}

// CoversBucketName returns the covers bucket name in env.
func CoversBucketName(env template.Environment) string {
	return "bookworm-covers-" + env.Region
}

// NewApp declares the App stack.
func NewApp(props AppProps) (*App, error) {
	if props.Repository == nil {
		return nil, errors.New("app stack: image repository reference is required")
	}
	if props.AssetsBucket.Name == "" || props.UploadCoverKey == "" {
		return nil, errors.New("app stack: upload-cover code asset is required")
	}

	app := &App{
		Stack: template.NewStack(AppStackName, props.Env,
			"Bookworm application: cover upload API and thumbnail generation."),
	}

	app.addStorage(props.Env)
	if err := app.addUploadAPI(props); err != nil {
		return nil, err
	}
	app.addThumbnailGenerator(props)

	return app, nil
}

// addStorage declares the covers bucket, the thumbnail queue and its
// dead-letter queue. Uploads under raw/ are announced on the queue.
func (a *App) addStorage(env template.Environment) {
	stack := a.Stack

	a.DeadLetterQueue = stack.Add("ThumbnailGenerationDLQ", &sqs.Queue{
		QueueName:              ThumbnailDLQName,
		VisibilityTimeout:      queueVisibilityTimeout,
		MessageRetentionPeriod: dlqRetention,
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	a.Queue = stack.Add("ThumbnailGenerationQueue", &sqs.Queue{
		QueueName:              ThumbnailQueueName,
		VisibilityTimeout:      queueVisibilityTimeout,
		MessageRetentionPeriod: queueRetention,
		RedrivePolicy: sqs.RedrivePolicy{
			DeadLetterTargetArn: a.DeadLetterQueue.Arn(),
			MaxReceiveCount:     maxReceiveCount,
		},
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	// The bucket ARN is spelled out rather than referenced: the bucket
	// already depends on this policy.
	bucketName := CoversBucketName(env)
	queuePolicy := stack.Add("ThumbnailGenerationQueuePolicy", &sqs.QueuePolicy{
		Queues: []any{a.Queue},
		PolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.Allow("sqs:SendMessage", "sqs:GetQueueAttributes", "sqs:GetQueueUrl").
				By(intrinsics.ServicePrincipal{"s3.amazonaws.com"}).
				On(a.Queue.Arn()).
				When(intrinsics.Json{
					intrinsics.ArnLike: intrinsics.Json{
						"aws:SourceArn": intrinsics.Sub{String: fmt.Sprintf("arn:${AWS::Partition}:s3:::%s", bucketName)},
					},
					intrinsics.StringEquals: intrinsics.Json{
						"aws:SourceAccount": intrinsics.AWS_ACCOUNT_ID,
					},
				}),
		),
	})

	a.CoversBucket = stack.Add("BookCoversBucket", &s3.Bucket{
		BucketName:                     bucketName,
		PublicAccessBlockConfiguration: blockAllPublicAccess(),
		NotificationConfiguration: &s3.Bucket_NotificationConfiguration{
			QueueConfigurations: []any{
				s3.Bucket_QueueConfiguration{
					Event: "s3:ObjectCreated:*",
					Filter: &s3.Bucket_NotificationFilter{
						S3Key: &s3.Bucket_S3KeyFilter{
							Rules: []any{s3.Bucket_FilterRule{Name: "prefix", Value: RawCoversPrefix}},
						},
					},
					Queue: a.Queue.Arn(),
				},
			},
		},
	},
		template.WithRemovalPolicy(template.RemovalPolicyDestroy),
		template.DependsOn(queuePolicy),
	)

	stack.AddOutput("CoversBucketName", bookworm.Output{Value: a.CoversBucket})
	stack.AddOutput("ThumbnailGenerationQueueUrl", bookworm.Output{Value: a.Queue})
}
