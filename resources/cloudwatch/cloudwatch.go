// Package cloudwatch provides AWS::CloudWatch resource types.
package cloudwatch

// Alarm represents an AWS::CloudWatch::Alarm.
type Alarm struct {
	AlarmName          any   `json:"AlarmName,omitempty"`
	AlarmDescription   any   `json:"AlarmDescription,omitempty"`
	Namespace          any   `json:"Namespace,omitempty"`
	MetricName         any   `json:"MetricName,omitempty"`
	Dimensions         []any `json:"Dimensions,omitempty"`
	Statistic          any   `json:"Statistic,omitempty"`
	Period             any   `json:"Period,omitempty"`
	EvaluationPeriods  any   `json:"EvaluationPeriods,omitempty"`
	Threshold          any   `json:"Threshold,omitempty"`
	ComparisonOperator any   `json:"ComparisonOperator,omitempty"`
	TreatMissingData   any   `json:"TreatMissingData,omitempty"`
	AlarmActions       []any `json:"AlarmActions,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Alarm) ResourceType() string { return "AWS::CloudWatch::Alarm" }

// Alarm_Dimension is AWS::CloudWatch::Alarm.Dimension.
type Alarm_Dimension struct {
	Name  any `json:"Name,omitempty"`
	Value any `json:"Value,omitempty"`
}
