// Package ec2 provides AWS::EC2 resource types.
package ec2

// VPC represents an AWS::EC2::VPC.
type VPC struct {
	CidrBlock          any   `json:"CidrBlock,omitempty"`
	EnableDnsHostnames any   `json:"EnableDnsHostnames,omitempty"`
	EnableDnsSupport   any   `json:"EnableDnsSupport,omitempty"`
	Tags               []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r VPC) ResourceType() string { return "AWS::EC2::VPC" }

// Subnet represents an AWS::EC2::Subnet.
type Subnet struct {
	VpcId               any   `json:"VpcId,omitempty"`
	CidrBlock           any   `json:"CidrBlock,omitempty"`
	AvailabilityZone    any   `json:"AvailabilityZone,omitempty"`
	MapPublicIpOnLaunch any   `json:"MapPublicIpOnLaunch,omitempty"`
	Tags                []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Subnet) ResourceType() string { return "AWS::EC2::Subnet" }

// InternetGateway represents an AWS::EC2::InternetGateway.
type InternetGateway struct {
	Tags []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r InternetGateway) ResourceType() string { return "AWS::EC2::InternetGateway" }

// VPCGatewayAttachment represents an AWS::EC2::VPCGatewayAttachment.
type VPCGatewayAttachment struct {
	VpcId             any `json:"VpcId,omitempty"`
	InternetGatewayId any `json:"InternetGatewayId,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r VPCGatewayAttachment) ResourceType() string { return "AWS::EC2::VPCGatewayAttachment" }

// RouteTable represents an AWS::EC2::RouteTable.
type RouteTable struct {
	VpcId any   `json:"VpcId,omitempty"`
	Tags  []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r RouteTable) ResourceType() string { return "AWS::EC2::RouteTable" }

// Route represents an AWS::EC2::Route.
type Route struct {
	RouteTableId         any `json:"RouteTableId,omitempty"`
	DestinationCidrBlock any `json:"DestinationCidrBlock,omitempty"`
	GatewayId            any `json:"GatewayId,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r Route) ResourceType() string { return "AWS::EC2::Route" }

// SubnetRouteTableAssociation represents an AWS::EC2::SubnetRouteTableAssociation.
type SubnetRouteTableAssociation struct {
	SubnetId     any `json:"SubnetId,omitempty"`
	RouteTableId any `json:"RouteTableId,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r SubnetRouteTableAssociation) ResourceType() string {
	return "AWS::EC2::SubnetRouteTableAssociation"
}

// SecurityGroup represents an AWS::EC2::SecurityGroup.
type SecurityGroup struct {
	GroupName            any   `json:"GroupName,omitempty"`
	GroupDescription     any   `json:"GroupDescription,omitempty"`
	VpcId                any   `json:"VpcId,omitempty"`
	SecurityGroupEgress  []any `json:"SecurityGroupEgress,omitempty"`
	SecurityGroupIngress []any `json:"SecurityGroupIngress,omitempty"`
	Tags                 []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (r SecurityGroup) ResourceType() string { return "AWS::EC2::SecurityGroup" }

// SecurityGroup_Egress is AWS::EC2::SecurityGroup.Egress.
type SecurityGroup_Egress struct {
	IpProtocol  any `json:"IpProtocol,omitempty"`
	CidrIp      any `json:"CidrIp,omitempty"`
	FromPort    any `json:"FromPort,omitempty"`
	ToPort      any `json:"ToPort,omitempty"`
	Description any `json:"Description,omitempty"`
}
