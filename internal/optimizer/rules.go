package optimizer

import (
	"fmt"
	"strings"

	bookworm "github.com/lex00/bookworm-infra-go"
)

var rulesByType = map[string][]Rule{
	"AWS::S3::Bucket":             s3BucketRules,
	"AWS::Lambda::Function":       lambdaFunctionRules,
	"AWS::Logs::LogGroup":         logGroupRules,
	"AWS::ECR::Repository":        ecrRepositoryRules,
	"AWS::SQS::Queue":             sqsQueueRules,
	"AWS::ECS::Cluster":           ecsClusterRules,
	"AWS::ECS::Service":           ecsServiceRules,
	"AWS::Cloud9::EnvironmentEC2": cloud9Rules,
	"AWS::ApiGateway::Stage":      apiStageRules,
}

// s3BucketRules contains optimization rules for S3 buckets.
var s3BucketRules = []Rule{
	{
		ID:          "OPT-S3-001",
		Category:    "security",
		Title:       "S3 bucket should have encryption enabled",
		Description: "Server-side encryption protects data at rest",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if prop(res, "BucketEncryption") != nil {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "high",
				Title:       "Consider enabling S3 bucket encryption",
				Description: "The bucket has no explicit server-side encryption configuration.",
				Suggestion:  "Add BucketEncryption with SSE-S3 or SSE-KMS configuration.",
			}
		},
	},
	{
		ID:          "OPT-S3-002",
		Category:    "cost",
		Title:       "S3 bucket should have lifecycle rules",
		Description: "Lifecycle rules expire objects that are no longer needed",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if prop(res, "LifecycleConfiguration") != nil {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Consider adding lifecycle rules",
				Description: "Objects are kept until they are deleted explicitly.",
				Suggestion:  "Add LifecycleConfiguration to expire or transition old objects.",
			}
		},
	},
}

// lambdaFunctionRules contains optimization rules for Lambda functions.
var lambdaFunctionRules = []Rule{
	{
		ID:          "OPT-LAMBDA-001",
		Category:    "performance",
		Title:       "Lambda function memory should be optimized",
		Description: "Memory also scales the CPU available to the function",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			memory, ok := number(prop(res, "MemorySize"))
			switch {
			case !ok:
				return &bookworm.OptimizeSuggestion{
					Severity:    "medium",
					Title:       "Set Lambda memory explicitly",
					Description: "The function runs with the default 128 MB of memory.",
					Suggestion:  "Set MemorySize based on profiling results.",
				}
			case memory >= 3008:
				return &bookworm.OptimizeSuggestion{
					Severity:    "low",
					Title:       "Review Lambda memory configuration",
					Description: fmt.Sprintf("The function is configured with %d MB of memory.", memory),
					Suggestion:  "Verify with profiling that the function needs this much memory.",
				}
			}
			return nil
		},
	},
	{
		ID:          "OPT-LAMBDA-002",
		Category:    "cost",
		Title:       "Lambda function timeout should be appropriate",
		Description: "Long timeouts keep failing invocations billed",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			timeout, ok := number(prop(res, "Timeout"))
			if ok && timeout <= 300 {
				return nil
			}
			desc := "The function uses the default 3 second timeout."
			if ok {
				desc = fmt.Sprintf("The function may run for %d seconds.", timeout)
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Review Lambda timeout setting",
				Description: desc,
				Suggestion:  "Set Timeout slightly above the expected p99 duration.",
			}
		},
	},
	{
		ID:          "OPT-LAMBDA-003",
		Category:    "cost",
		Title:       "Lambda function should run on Graviton",
		Description: "arm64 functions are billed at a lower rate",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			for _, arch := range stringList(prop(res, "Architectures")) {
				if arch == "arm64" {
					return nil
				}
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Consider the arm64 architecture",
				Description: "The function runs on x86_64.",
				Suggestion:  `Set Architectures to ["arm64"] if the code package has no native x86 dependencies.`,
			}
		},
	},
}

// logGroupRules contains optimization rules for CloudWatch log groups.
var logGroupRules = []Rule{
	{
		ID:          "OPT-LOGS-001",
		Category:    "cost",
		Title:       "Log group should have a retention period",
		Description: "Log events are kept forever by default",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if _, ok := number(prop(res, "RetentionInDays")); ok {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Set a log retention period",
				Description: "Log events never expire.",
				Suggestion:  "Set RetentionInDays.",
			}
		},
	},
}

// ecrRepositoryRules contains optimization rules for image repositories.
var ecrRepositoryRules = []Rule{
	{
		ID:          "OPT-ECR-001",
		Category:    "cost",
		Title:       "Repository should expire old images",
		Description: "Untagged images accumulate with every push",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if prop(res, "LifecyclePolicy") != nil {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Add an image lifecycle policy",
				Description: "Images are never expired.",
				Suggestion:  "Add a LifecyclePolicy that expires untagged images.",
			}
		},
	},
	{
		ID:          "OPT-ECR-002",
		Category:    "security",
		Title:       "Repository should scan images on push",
		Description: "Scanning finds known vulnerabilities in pushed images",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if isTrue(path(prop(res, "ImageScanningConfiguration"), "ScanOnPush")) {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Enable scan on push",
				Description: "Pushed images are not scanned.",
				Suggestion:  "Set ImageScanningConfiguration.ScanOnPush to true.",
			}
		},
	},
}

// sqsQueueRules contains optimization rules for queues.
var sqsQueueRules = []Rule{
	{
		ID:          "OPT-SQS-001",
		Category:    "security",
		Title:       "Queue should encrypt messages at rest",
		Description: "Messages may carry object keys and user data",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if prop(res, "KmsMasterKeyId") != nil || prop(res, "SqsManagedSseEnabled") != nil {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Configure queue encryption explicitly",
				Description: "The queue relies on the account default for server-side encryption.",
				Suggestion:  "Set SqsManagedSseEnabled to true or KmsMasterKeyId to a key.",
			}
		},
	},
}

// ecsClusterRules contains optimization rules for ECS clusters.
var ecsClusterRules = []Rule{
	{
		ID:          "OPT-ECS-001",
		Category:    "performance",
		Title:       "Cluster should have Container Insights enabled",
		Description: "Container Insights collects task level metrics",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if settings, ok := prop(res, "ClusterSettings").([]any); ok {
				for _, s := range settings {
					if path(s, "Name") == "containerInsights" && path(s, "Value") != "disabled" {
						return nil
					}
				}
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Enable Container Insights",
				Description: "Task level CPU and memory metrics are not collected.",
				Suggestion:  `Add ClusterSettings [{Name: containerInsights, Value: enabled}].`,
			}
		},
	},
}

// ecsServiceRules contains optimization rules for ECS services.
var ecsServiceRules = []Rule{
	{
		ID:          "OPT-ECS-002",
		Category:    "reliability",
		Title:       "Service should roll back failed deployments",
		Description: "The circuit breaker stops deployments whose tasks keep failing",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			breaker := path(prop(res, "DeploymentConfiguration"), "DeploymentCircuitBreaker")
			if isTrue(path(breaker, "Enable")) && isTrue(path(breaker, "Rollback")) {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Enable the deployment circuit breaker with rollback",
				Description: "A failing deployment is not rolled back automatically.",
				Suggestion:  "Set DeploymentConfiguration.DeploymentCircuitBreaker Enable and Rollback to true.",
			}
		},
	},
	{
		ID:          "OPT-ECS-003",
		Category:    "cost",
		Title:       "Service should use Fargate Spot capacity",
		Description: "Interruptible workers can run on Spot at a discount",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if strategy, ok := prop(res, "CapacityProviderStrategy").([]any); ok {
				for _, item := range strategy {
					if path(item, "CapacityProvider") == "FARGATE_SPOT" {
						return nil
					}
				}
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Consider Fargate Spot",
				Description: "The service runs on on-demand capacity only.",
				Suggestion:  "Add FARGATE_SPOT to the capacity provider strategy.",
			}
		},
	},
}

// cloud9Rules contains optimization rules for Cloud9 environments.
var cloud9Rules = []Rule{
	{
		ID:          "OPT-C9-001",
		Category:    "cost",
		Title:       "Environment should stop when idle",
		Description: "An idle environment keeps its instance billed",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if minutes, ok := number(prop(res, "AutomaticStopTimeMinutes")); ok && minutes > 0 {
				return nil
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "high",
				Title:       "Set an automatic stop time",
				Description: "The environment instance is never stopped.",
				Suggestion:  "Set AutomaticStopTimeMinutes, e.g. 30.",
			}
		},
	},
}

// apiStageRules contains optimization rules for API Gateway stages.
var apiStageRules = []Rule{
	{
		ID:          "OPT-APIGW-001",
		Category:    "reliability",
		Title:       "Stage should throttle requests",
		Description: "Throttling protects the backend from bursts",
		Check: func(res Resource) *bookworm.OptimizeSuggestion {
			if settings, ok := prop(res, "MethodSettings").([]any); ok {
				for _, s := range settings {
					if _, ok := number(path(s, "ThrottlingRateLimit")); ok {
						return nil
					}
				}
			}
			return &bookworm.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Configure stage throttling",
				Description: "The stage uses the account level throttling limits.",
				Suggestion:  "Add MethodSettings with ThrottlingRateLimit and ThrottlingBurstLimit.",
			}
		},
	},
}

func prop(res Resource, name string) any {
	if res.Def.Properties == nil {
		return nil
	}
	return res.Def.Properties[name]
}

// path returns the named field of v when v is an object.
func path(v any, name string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[name]
}

func number(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		var i int64
		if _, err := fmt.Sscan(n, &i); err == nil {
			return i, true
		}
	}
	return 0, false
}

func isTrue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
