// Package codeguruprofiler provides AWS::CodeGuruProfiler resource types.
package codeguruprofiler

// ProfilingGroup represents an AWS::CodeGuruProfiler::ProfilingGroup.
type ProfilingGroup struct {
	ProfilingGroupName any   `json:"ProfilingGroupName,omitempty"`
	ComputePlatform    any   `json:"ComputePlatform,omitempty"`
	Tags               []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r ProfilingGroup) ResourceType() string { return "AWS::CodeGuruProfiler::ProfilingGroup" }
