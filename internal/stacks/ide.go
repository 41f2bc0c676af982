package stacks

import (
	"errors"
	"fmt"
	"regexp"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/template"
	"github.com/lex00/bookworm-infra-go/intrinsics"
	"github.com/lex00/bookworm-infra-go/resources/cloud9"
)

// InstanceClass is an EC2 instance family such as m5.
type InstanceClass string

// InstanceSize is an EC2 instance size within a family.
type InstanceSize string

const (
	T3 InstanceClass = "t3"
	M5 InstanceClass = "m5"
	M6 InstanceClass = "m6i"
	C5 InstanceClass = "c5"
)

const (
	Medium  InstanceSize = "medium"
	Large   InstanceSize = "large"
	XLarge  InstanceSize = "xlarge"
	XLarge2 InstanceSize = "2xlarge"
)

// InstanceType is a class and size pair.
type InstanceType struct {
	Class InstanceClass
	Size  InstanceSize
}

// InstanceTypeOf combines a class and a size.
func InstanceTypeOf(class InstanceClass, size InstanceSize) InstanceType {
	return InstanceType{Class: class, Size: size}
}

func (t InstanceType) String() string {
	return string(t.Class) + "." + string(t.Size)
}

var (
	instanceClassPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	instanceSizePattern  = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ParseInstanceType validates a configured class and size.
func ParseInstanceType(class, size string) (InstanceType, error) {
	if !instanceClassPattern.MatchString(class) {
		return InstanceType{}, fmt.Errorf("invalid instance class %q", class)
	}
	if !instanceSizePattern.MatchString(size) {
		return InstanceType{}, fmt.Errorf("invalid instance size %q", size)
	}
	return InstanceTypeOf(InstanceClass(class), InstanceSize(size)), nil
}

const (
	// IDEImageID is the Cloud9 image alias used for the environment.
	IDEImageID = "amazonlinux-2023-x86_64"

	ideAutomaticStopMinutes = 30
)

// IDE stack outputs.
const (
	OutputIDEEnvironmentID  = "IDEEnvironmentId"
	OutputIDEEnvironmentArn = "IDEEnvironmentArn"
)

// IDEProps configures the IDE stack.
type IDEProps struct {
	Env template.Environment

	// Username is the IAM user that owns the environment.
	Username string

	// InstanceType defaults to m5.large.
	InstanceType InstanceType
}

// IDE is the synthesized IDE stack.
type IDE struct {
	Stack       *template.Stack
	Environment template.Handle
}

// NewIDE declares the IDE stack.
func NewIDE(props IDEProps) (*IDE, error) {
	if props.Username == "" {
		return nil, errors.New("ide stack: username is required")
	}
	instanceType := props.InstanceType
	if instanceType == (InstanceType{}) {
		instanceType = InstanceTypeOf(M5, Large)
	}

	stack := template.NewStack(IDEStackName, props.Env,
		"Bookworm developer environment.")

	env := stack.Add("BookwormIDE", &cloud9.EnvironmentEC2{
		Name:                     "bookworm-ide-" + props.Username,
		Description:              "Cloud-based development environment for the bookworm project.",
		InstanceType:             instanceType.String(),
		ImageId:                  IDEImageID,
		AutomaticStopTimeMinutes: ideAutomaticStopMinutes,
		OwnerArn: intrinsics.Sub{
			String: "arn:${AWS::Partition}:iam::${AWS::AccountId}:user/" + props.Username,
		},
	})

	stack.AddOutput(OutputIDEEnvironmentID, bookworm.Output{Value: env})
	stack.AddOutput(OutputIDEEnvironmentArn, bookworm.Output{Value: env.Arn()})

	return &IDE{Stack: stack, Environment: env}, nil
}
