// Package applicationautoscaling provides AWS::ApplicationAutoScaling resource types.
package applicationautoscaling

// ScalableTarget represents an AWS::ApplicationAutoScaling::ScalableTarget.
type ScalableTarget struct {
	MinCapacity       any `json:"MinCapacity,omitempty"`
	MaxCapacity       any `json:"MaxCapacity,omitempty"`
	ResourceId        any `json:"ResourceId,omitempty"`
	RoleARN           any `json:"RoleARN,omitempty"`
	ScalableDimension any `json:"ScalableDimension,omitempty"`
	ServiceNamespace  any `json:"ServiceNamespace,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r ScalableTarget) ResourceType() string {
	return "AWS::ApplicationAutoScaling::ScalableTarget"
}

// ScalingPolicy represents an AWS::ApplicationAutoScaling::ScalingPolicy.
type ScalingPolicy struct {
	PolicyName                               any                                                     `json:"PolicyName,omitempty"`
	PolicyType                               any                                                     `json:"PolicyType,omitempty"`
	ScalingTargetId                          any                                                     `json:"ScalingTargetId,omitempty"`
	StepScalingPolicyConfiguration           *ScalingPolicy_StepScalingPolicyConfiguration           `json:"StepScalingPolicyConfiguration,omitempty"`
	TargetTrackingScalingPolicyConfiguration *ScalingPolicy_TargetTrackingScalingPolicyConfiguration `json:"TargetTrackingScalingPolicyConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r ScalingPolicy) ResourceType() string {
	return "AWS::ApplicationAutoScaling::ScalingPolicy"
}

// ScalingPolicy_StepScalingPolicyConfiguration is
// AWS::ApplicationAutoScaling::ScalingPolicy.StepScalingPolicyConfiguration.
type ScalingPolicy_StepScalingPolicyConfiguration struct {
	AdjustmentType        any   `json:"AdjustmentType,omitempty"`
	Cooldown              any   `json:"Cooldown,omitempty"`
	MetricAggregationType any   `json:"MetricAggregationType,omitempty"`
	StepAdjustments       []any `json:"StepAdjustments,omitempty"`
}

// ScalingPolicy_StepAdjustment is AWS::ApplicationAutoScaling::ScalingPolicy.StepAdjustment.
//
// The interval bounds are relative to the alarm threshold; a nil bound
// is open-ended.
type ScalingPolicy_StepAdjustment struct {
	MetricIntervalLowerBound any `json:"MetricIntervalLowerBound,omitempty"`
	MetricIntervalUpperBound any `json:"MetricIntervalUpperBound,omitempty"`
	ScalingAdjustment        any `json:"ScalingAdjustment,omitempty"`
}

// ScalingPolicy_TargetTrackingScalingPolicyConfiguration is
// AWS::ApplicationAutoScaling::ScalingPolicy.TargetTrackingScalingPolicyConfiguration.
type ScalingPolicy_TargetTrackingScalingPolicyConfiguration struct {
	TargetValue                   any                                          `json:"TargetValue,omitempty"`
	PredefinedMetricSpecification *ScalingPolicy_PredefinedMetricSpecification `json:"PredefinedMetricSpecification,omitempty"`
	ScaleInCooldown               any                                          `json:"ScaleInCooldown,omitempty"`
	ScaleOutCooldown              any                                          `json:"ScaleOutCooldown,omitempty"`
}

// ScalingPolicy_PredefinedMetricSpecification is
// AWS::ApplicationAutoScaling::ScalingPolicy.PredefinedMetricSpecification.
type ScalingPolicy_PredefinedMetricSpecification struct {
	PredefinedMetricType any `json:"PredefinedMetricType,omitempty"`
}
