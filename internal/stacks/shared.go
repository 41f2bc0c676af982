package stacks

import (
	"errors"
	"fmt"
	"strings"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/ecr"
	"github.com/lex00/bookworm-infra-go/resources/iam"
	"github.com/lex00/bookworm-infra-go/resources/s3"
)

const (
	// ThumbnailGeneratorRepositoryName is the ECR repository holding the
	// thumbnail generator worker image.
	ThumbnailGeneratorRepositoryName = "bookworm/thumbnail-generator"

	// GitHubOIDCProviderURL is the issuer of GitHub Actions tokens.
	GitHubOIDCProviderURL = "https://" + intrinsics.GitHubTokenHost

	// GitHubOIDCThumbprint is the certificate thumbprint of the GitHub
	// Actions token issuer.
	GitHubOIDCThumbprint = "6938fd4d98bab03faadb97b34396831e3780aea1"

	untaggedImageExpiryDays = 14
)

// Shared stack outputs.
const (
	OutputCodeGuruBucketName = "BucketNameForIntegratingGithubWithAmazonCodeGuruReviewer"
	OutputCodeGuruRoleArn    = "RoleARNForIntegratingGitHubWithAmazonCodeGuruReviewer"
	OutputECRRoleArn         = "RoleARNForIntegratingGitHubWithAmazonECR"
)

// SharedProps configures the Shared stack.
type SharedProps struct {
	Env template.Environment

	// GitHubOrg and GitHubRepo name the only repository whose workflows
	// may assume the OIDC roles.
	GitHubOrg  string
	GitHubRepo string
}

// RepositoryReference locates the thumbnail generator image repository
// from another stack.
type RepositoryReference struct {
	Name template.Export
	Arn  template.Export
}

// Shared is the synthesized Shared stack and the references it exposes.
type Shared struct {
	Stack *template.Stack

	Repository   RepositoryReference
	AssetsBucket template.Export

	// AssetsBucketName is the literal name of the assets bucket, used to
	// upload assets before the App stack is deployed.
	AssetsBucketName string
}

// AssetsBucketName returns the name of the bucket holding Lambda code
// assets in env.
func AssetsBucketName(env template.Environment) string {
	return fmt.Sprintf("bookworm-assets-%s-%s", env.Account, env.Region)
}

// CodeGuruBucketName returns the CodeGuru Reviewer artifacts bucket name.
// CodeGuru Reviewer requires the codeguru-reviewer- prefix and S3 requires
// lower case.
func CodeGuruBucketName(org, repo string) string {
	return strings.ToLower(fmt.Sprintf("codeguru-reviewer-%s-%s", org, repo))
}

// ecrLifecyclePolicy expires untagged images some days after push.
func ecrLifecyclePolicy(days int) string {
	return fmt.Sprintf(`{"rules":[{"rulePriority":1,"selection":{"tagStatus":"untagged","countType":"sinceImagePushed","countNumber":%d,"countUnit":"days"},"action":{"type":"expire"}}]}`, days)
}

// NewShared declares the Shared stack.
func NewShared(props SharedProps) (*Shared, error) {
	if props.GitHubOrg == "" || props.GitHubRepo == "" {
		return nil, errors.New("shared stack: GitHub organization and repository are required")
	}

	stack := template.NewStack(SharedStackName, props.Env,
		"Shared bookworm resources: image repository, CodeGuru Reviewer bucket and GitHub OIDC roles.")

	// Image repository for the thumbnail generator.
	repo := stack.Add("ThumbnailGeneratorRepository", &ecr.Repository{
		RepositoryName: ThumbnailGeneratorRepositoryName,
		EmptyOnDelete:  true,
		LifecyclePolicy: &ecr.Repository_LifecyclePolicy{
			LifecyclePolicyText: ecrLifecyclePolicy(untaggedImageExpiryDays),
		},
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	// Bucket for code artifacts uploaded by CodeGuru Reviewer.
	codeGuruBucket := stack.Add("AmazonCodeGuruArtifactsBucket", &s3.Bucket{
		BucketName:                     CodeGuruBucketName(props.GitHubOrg, props.GitHubRepo),
		PublicAccessBlockConfiguration: blockAllPublicAccess(),
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	stack.AddOutput(OutputCodeGuruBucketName, bookworm.Output{Value: codeGuruBucket})

	assetsBucketName := AssetsBucketName(props.Env)
	assetsBucket := stack.Add("AssetsBucket", &s3.Bucket{
		BucketName: assetsBucketName,
		BucketEncryption: &s3.Bucket_BucketEncryption{
			ServerSideEncryptionConfiguration: []any{
				s3.Bucket_ServerSideEncryptionRule{
					ServerSideEncryptionByDefault: &s3.Bucket_ServerSideEncryptionByDefault{SSEAlgorithm: "AES256"},
				},
			},
		},
		PublicAccessBlockConfiguration: blockAllPublicAccess(),
	}, template.WithRemovalPolicy(template.RemovalPolicyDestroy))

	provider := stack.Add("GitHubOIDCProvider", &iam.OIDCProvider{
		Url:            GitHubOIDCProviderURL,
		ClientIdList:   []any{intrinsics.STSAudience},
		ThumbprintList: []any{GitHubOIDCThumbprint},
	})
	trust := intrinsics.GitHubOIDCTrust(provider.Ref(), props.GitHubOrg, props.GitHubRepo)

	// CodeGuru Reviewer role.
	codeGuruRole := stack.Add("GitHubOIDCRoleForAmazonCodeGuruReviewer", &iam.Role{
		RoleName:                 "amazon-codeguru-reviewer-oidc-web-identity-role",
		AssumeRolePolicyDocument: trust,
		ManagedPolicyArns:        []any{iam.AWSManagedPolicy("AmazonCodeGuruReviewerFullAccess")},
	})
	addDefaultPolicy(stack, codeGuruRole,
		intrinsics.Allow("s3:ListAllMyBuckets").OnAllResources(),
		intrinsics.Allow("s3:ListBucket").On(codeGuruBucket.Arn()),
		intrinsics.Allow(
			"s3:GetObject",
			"s3:GetObjectAcl",
			"s3:PutObject",
			"s3:PutObjectAcl",
			"s3:DeleteObject",
		).On(subArn(codeGuruBucket, "/*")),
	)

	stack.AddOutput(OutputCodeGuruRoleArn, bookworm.Output{Value: codeGuruRole.Arn()})

	// ECR push role.
	ecrRole := stack.Add("GitHubOIDCRoleForAmazonECR", &iam.Role{
		RoleName:                 "amazon-ecr-oidc-web-identity-role",
		AssumeRolePolicyDocument: trust,
	})
	addDefaultPolicy(stack, ecrRole,
		intrinsics.Allow("ecr:GetAuthorizationToken").OnAllResources(),
		intrinsics.Allow(
			"ecr:CompleteLayerUpload",
			"ecr:UploadLayerPart",
			"ecr:InitiateLayerUpload",
			"ecr:BatchCheckLayerAvailability",
			"ecr:PutImage",
		).On(repo.Arn()),
	)

	stack.AddOutput(OutputECRRoleArn, bookworm.Output{Value: ecrRole.Arn()})

	return &Shared{
		Stack: stack,
		Repository: RepositoryReference{
			Name: stack.Export("ThumbnailGeneratorRepositoryName", repo),
			Arn:  stack.Export("ThumbnailGeneratorRepositoryArn", repo.Arn()),
		},
		AssetsBucket:     stack.Export("AssetsBucketName", assetsBucket),
		AssetsBucketName: assetsBucketName,
	}, nil
}
