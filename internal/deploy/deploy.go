// Package deploy hands synthesized stacks to CloudFormation.
//
// Stacks are deployed wave by wave in the order computed by the assembly.
// Stacks of one wave go out concurrently; a failing stack cancels the rest
// of its wave and no later wave starts. Nothing is retried.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	bookworm "github.com/lex00/bookworm-infra-go"
	"github.com/lex00/bookworm-infra-go/internal/assets"
	"github.com/lex00/bookworm-infra-go/internal/logging"
	"github.com/lex00/bookworm-infra-go/internal/template"
)

// DefaultTimeout bounds the wait for a single stack operation.
const DefaultTimeout = 30 * time.Minute

// ErrNotDeployed is returned by DeployedTemplate for unknown stacks.
var ErrNotDeployed = errors.New("stack is not deployed")

// CloudFormationAPI is the subset of the CloudFormation client used by
// Deployer. It also satisfies the SDK waiters.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, in *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, in *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, in *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	GetTemplate(ctx context.Context, in *cloudformation.GetTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error)
}

// Upload is an asset that must be in Bucket before Stack is deployed.
type Upload struct {
	Asset  assets.Asset
	Bucket string
	Stack  string
}

// Purge is a bucket emptied of assets before Stack is deleted.
type Purge struct {
	Bucket string
	Stack  string
}

// Status is the outcome of deploying one stack.
type Status string

const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusDeleted   Status = "deleted"
)

// StackResult reports one deployed stack.
type StackResult struct {
	Name    string
	Status  Status
	Outputs map[string]string
}

// Result reports a deploy or destroy run, in the order stacks finished
// within each wave.
type Result struct {
	Stacks []StackResult
}

// Deployer provisions an assembly through CloudFormation.
type Deployer struct {
	cfn      CloudFormationAPI
	uploader *assets.Uploader
	log      logging.Logger

	// Timeout bounds each stack's waiter. Zero means DefaultTimeout.
	Timeout time.Duration
	// waiterDelay overrides the waiters' minimum polling delay in tests.
	waiterDelay time.Duration
}

// New creates a Deployer.
func New(cfn CloudFormationAPI, uploader *assets.Uploader, log logging.Logger) *Deployer {
	if log == nil {
		log = logging.Discard()
	}
	return &Deployer{cfn: cfn, uploader: uploader, log: log, Timeout: DefaultTimeout}
}

func (d *Deployer) timeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultTimeout
	}
	return d.Timeout
}

// Deploy creates or updates every stack of a. Uploads are put in their
// bucket right before the wave containing their stack.
func (d *Deployer) Deploy(ctx context.Context, a *template.Assembly, uploads []Upload) (*Result, error) {
	waves, err := a.DeployOrder()
	if err != nil {
		return nil, err
	}
	templates, err := a.Templates()
	if err != nil {
		return nil, err
	}

	uploadsByStack := make(map[string][]Upload)
	for _, u := range uploads {
		if _, ok := a.Stack(u.Stack); !ok {
			return nil, fmt.Errorf("asset %s is uploaded for unknown stack %s", u.Asset.Path, u.Stack)
		}
		uploadsByStack[u.Stack] = append(uploadsByStack[u.Stack], u)
	}

	result := &Result{}
	var mu sync.Mutex

	for i, wave := range waves {
		names := stackNames(wave)
		d.log.Info(ctx, "deploying wave", "wave", i+1, "stacks", strings.Join(names, ","))

		for _, name := range names {
			for _, u := range uploadsByStack[name] {
				if d.uploader == nil {
					return result, fmt.Errorf("%s: no uploader for asset %s", name, u.Asset.Path)
				}
				if _, err := d.uploader.Upload(ctx, u.Bucket, u.Asset); err != nil {
					return result, fmt.Errorf("%s: %w", name, err)
				}
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, stack := range wave {
			name := stack.Name()
			tmpl := templates[name]
			g.Go(func() error {
				res, err := d.deployStack(gctx, name, tmpl)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				mu.Lock()
				result.Stacks = append(result.Stacks, res)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (d *Deployer) deployStack(ctx context.Context, name string, tmpl *bookworm.Template) (StackResult, error) {
	body, err := template.ToJSON(tmpl)
	if err != nil {
		return StackResult{}, err
	}
	log := d.log.With("stack", name)

	existing, err := d.describe(ctx, name)
	if err != nil {
		return StackResult{}, err
	}

	if existing != nil && existing.StackStatus == cfntypes.StackStatusRollbackComplete {
		// A stack whose creation rolled back cannot be updated.
		log.Warn(ctx, "deleting stack left in ROLLBACK_COMPLETE")
		if err := d.deleteStack(ctx, name); err != nil {
			return StackResult{}, err
		}
		existing = nil
	}

	var status Status
	if existing == nil {
		log.Info(ctx, "creating stack")
		_, err = d.cfn.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:          aws.String(name),
			TemplateBody:       aws.String(string(body)),
			Capabilities:       []cfntypes.Capability{cfntypes.CapabilityCapabilityNamedIam},
			ClientRequestToken: aws.String(uuid.NewString()),
			OnFailure:          cfntypes.OnFailureRollback,
		})
		if err != nil {
			return StackResult{}, fmt.Errorf("creating stack: %w", err)
		}
		waiter := cloudformation.NewStackCreateCompleteWaiter(d.cfn, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
			if d.waiterDelay > 0 {
				o.MinDelay, o.MaxDelay = d.waiterDelay, d.waiterDelay
			}
		})
		if err := waiter.Wait(ctx, describeInput(name), d.timeout()); err != nil {
			return StackResult{}, fmt.Errorf("waiting for create: %w", err)
		}
		status = StatusCreated
	} else {
		log.Info(ctx, "updating stack", "status", string(existing.StackStatus))
		_, err = d.cfn.UpdateStack(ctx, &cloudformation.UpdateStackInput{
			StackName:          aws.String(name),
			TemplateBody:       aws.String(string(body)),
			Capabilities:       []cfntypes.Capability{cfntypes.CapabilityCapabilityNamedIam},
			ClientRequestToken: aws.String(uuid.NewString()),
		})
		switch {
		case isNoUpdates(err):
			log.Info(ctx, "stack is up to date")
			status = StatusUnchanged
		case err != nil:
			return StackResult{}, fmt.Errorf("updating stack: %w", err)
		default:
			waiter := cloudformation.NewStackUpdateCompleteWaiter(d.cfn, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
				if d.waiterDelay > 0 {
					o.MinDelay, o.MaxDelay = d.waiterDelay, d.waiterDelay
				}
			})
			if err := waiter.Wait(ctx, describeInput(name), d.timeout()); err != nil {
				return StackResult{}, fmt.Errorf("waiting for update: %w", err)
			}
			status = StatusUpdated
		}
	}

	deployed, err := d.describe(ctx, name)
	if err != nil {
		return StackResult{}, err
	}
	res := StackResult{Name: name, Status: status, Outputs: map[string]string{}}
	if deployed != nil {
		for _, out := range deployed.Outputs {
			res.Outputs[aws.ToString(out.OutputKey)] = aws.ToString(out.OutputValue)
		}
	}
	log.Info(ctx, "stack deployed", "status", string(status))
	return res, nil
}

// Destroy deletes every stack of a, dependents first. Purged buckets
// are emptied right before their stack is deleted.
func (d *Deployer) Destroy(ctx context.Context, a *template.Assembly, purges []Purge) (*Result, error) {
	waves, err := a.DeployOrder()
	if err != nil {
		return nil, err
	}

	purgesByStack := make(map[string][]Purge)
	for _, p := range purges {
		if _, ok := a.Stack(p.Stack); !ok {
			return nil, fmt.Errorf("bucket %s is purged for unknown stack %s", p.Bucket, p.Stack)
		}
		if d.uploader == nil {
			return nil, fmt.Errorf("%s: no uploader to purge bucket %s", p.Stack, p.Bucket)
		}
		purgesByStack[p.Stack] = append(purgesByStack[p.Stack], p)
	}

	result := &Result{}
	var mu sync.Mutex

	for i := len(waves) - 1; i >= 0; i-- {
		g, gctx := errgroup.WithContext(ctx)
		for _, stack := range waves[i] {
			name := stack.Name()
			g.Go(func() error {
				existing, err := d.describe(gctx, name)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				if existing == nil {
					d.log.Info(gctx, "stack not deployed, skipping", "stack", name)
					return nil
				}
				for _, p := range purgesByStack[name] {
					if _, err := d.uploader.Purge(gctx, p.Bucket); err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
				}
				d.log.Info(gctx, "deleting stack", "stack", name)
				if err := d.deleteStack(gctx, name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				mu.Lock()
				result.Stacks = append(result.Stacks, StackResult{Name: name, Status: StatusDeleted})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (d *Deployer) deleteStack(ctx context.Context, name string) error {
	_, err := d.cfn.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName:          aws.String(name),
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		return fmt.Errorf("deleting stack: %w", err)
	}
	waiter := cloudformation.NewStackDeleteCompleteWaiter(d.cfn, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		if d.waiterDelay > 0 {
			o.MinDelay, o.MaxDelay = d.waiterDelay, d.waiterDelay
		}
	})
	if err := waiter.Wait(ctx, describeInput(name), d.timeout()); err != nil {
		return fmt.Errorf("waiting for delete: %w", err)
	}
	return nil
}

// DeployedTemplate returns the template CloudFormation holds for a stack.
func (d *Deployer) DeployedTemplate(ctx context.Context, stack string) (*bookworm.Template, error) {
	out, err := d.cfn.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName:     aws.String(stack),
		TemplateStage: cfntypes.TemplateStageOriginal,
	})
	if err != nil {
		if isNotExist(err) {
			return nil, ErrNotDeployed
		}
		return nil, fmt.Errorf("%s: getting template: %w", stack, err)
	}

	body := strings.TrimSpace(aws.ToString(out.TemplateBody))
	format := template.FormatJSON
	if !strings.HasPrefix(body, "{") {
		format = template.FormatYAML
	}
	tmpl, err := template.Parse([]byte(body), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stack, err)
	}
	return tmpl, nil
}

// describe returns nil when the stack does not exist.
func (d *Deployer) describe(ctx context.Context, name string) (*cfntypes.Stack, error) {
	out, err := d.cfn.DescribeStacks(ctx, describeInput(name))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("describing stack: %w", err)
	}
	for i := range out.Stacks {
		s := out.Stacks[i]
		if aws.ToString(s.StackName) == name && s.StackStatus != cfntypes.StackStatusDeleteComplete {
			return &s, nil
		}
	}
	return nil, nil
}

func describeInput(name string) *cloudformation.DescribeStacksInput {
	return &cloudformation.DescribeStacksInput{StackName: aws.String(name)}
}

func stackNames(wave []*template.Stack) []string {
	names := make([]string, len(wave))
	for i, s := range wave {
		names[i] = s.Name()
	}
	return names
}

// SortedOutputs returns output keys in lexical order.
func (r StackResult) SortedOutputs() []string {
	keys := make([]string, 0, len(r.Outputs))
	for k := range r.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isNotExist(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}

func isNoUpdates(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
}
