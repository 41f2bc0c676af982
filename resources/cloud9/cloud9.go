// Package cloud9 provides AWS::Cloud9 resource types.
package cloud9

// EnvironmentEC2 represents an AWS::Cloud9::EnvironmentEC2.
type EnvironmentEC2 struct {
	Name                     any   `json:"Name,omitempty"`
	Description              any   `json:"Description,omitempty"`
	InstanceType             any   `json:"InstanceType,omitempty"`
	ImageId                  any   `json:"ImageId,omitempty"`
	AutomaticStopTimeMinutes any   `json:"AutomaticStopTimeMinutes,omitempty"`
	ConnectionType           any   `json:"ConnectionType,omitempty"`
	OwnerArn                 any   `json:"OwnerArn,omitempty"`
	SubnetId                 any   `json:"SubnetId,omitempty"`
	Tags                     []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r EnvironmentEC2) ResourceType() string { return "AWS::Cloud9::EnvironmentEC2" }
