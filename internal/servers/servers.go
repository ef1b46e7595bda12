// Package servers starts, stops and inspects discovered namespace instances.
// Batch operations are best effort: each instance gets its own Result and
// one failure never stops the others.
package servers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/discovery"
	"github.com/yairfalse/ec2mc/internal/iphandler"
	"github.com/yairfalse/ec2mc/internal/prober"
)

var (
	// CheckActions are needed by Check.
	CheckActions = []string{"ec2:DescribeInstances"}
	// StartActions are needed by Start.
	StartActions = []string{"ec2:DescribeInstances", "ec2:StartInstances"}
	// UserDataActions are needed by Start when StartOptions.UserData is set.
	UserDataActions = []string{"ec2:ModifyInstanceAttribute"}
	// StopActions are needed by Stop.
	StopActions = []string{"ec2:DescribeInstances", "ec2:StopInstances"}
)

var errNotYet = errors.New("state not reached")

// Result is the outcome for one instance. Err is set when the operation
// failed; Warning when it was issued but could not be confirmed.
type Result struct {
	Instance discovery.Instance
	State    string
	Err      error
	Warning  string
}

// StartOptions tune Start.
type StartOptions struct {
	// UserData replaces the instance user data of stopped instances when
	// set. It is passed through unchanged.
	UserData string
}

// Controller runs batch instance operations.
type Controller struct {
	clients  awsapi.ClientFactory
	handlers *iphandler.Registry

	// Wait bounds instance state waits. Exhaustion is a warning.
	Wait awsapi.Policy
}

// NewController returns a controller. A nil registry disables IP handlers.
func NewController(clients awsapi.ClientFactory, handlers *iphandler.Registry) *Controller {
	return &Controller{clients: clients, handlers: handlers, Wait: awsapi.StatePolicy}
}

// Check refreshes the state and address of every instance.
func (c *Controller) Check(ctx context.Context, instances []discovery.Instance) []Result {
	return c.each(ctx, instances, func(ctx context.Context, i discovery.Instance) Result {
		cur, err := c.describe(ctx, i)
		if err != nil {
			return Result{Instance: i, State: i.State, Err: err}
		}
		return Result{Instance: cur, State: cur.State}
	})
}

// Start starts every instance, waits until it is running and runs its IP
// handler.
func (c *Controller) Start(ctx context.Context, instances []discovery.Instance, opts StartOptions) []Result {
	return c.each(ctx, instances, func(ctx context.Context, i discovery.Instance) Result {
		return c.start(ctx, i, opts)
	})
}

// Stop stops every instance and waits until it is stopped.
func (c *Controller) Stop(ctx context.Context, instances []discovery.Instance) []Result {
	return c.each(ctx, instances, func(ctx context.Context, i discovery.Instance) Result {
		client := c.clients.EC2(i.Region)
		if _, err := client.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{i.ID}}); err != nil {
			return Result{Instance: i, State: i.State, Err: fmt.Errorf("stop: %w", err)}
		}
		return c.await(ctx, i, string(ec2types.InstanceStateNameStopped), false)
	})
}

func (c *Controller) start(ctx context.Context, i discovery.Instance, opts StartOptions) Result {
	client := c.clients.EC2(i.Region)

	if opts.UserData != "" && i.State == string(ec2types.InstanceStateNameStopped) {
		if _, err := client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
			InstanceId: aws.String(i.ID),
			UserData:   &ec2types.BlobAttributeValue{Value: []byte(opts.UserData)},
		}); err != nil {
			return Result{Instance: i, State: i.State, Err: fmt.Errorf("set user data: %w", err)}
		}
	}

	if _, err := client.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{i.ID}}); err != nil {
		return Result{Instance: i, State: i.State, Err: fmt.Errorf("start: %w", err)}
	}

	res := c.await(ctx, i, string(ec2types.InstanceStateNameRunning), true)
	if res.Err != nil || res.Warning != "" {
		return res
	}

	if w := c.runHandler(ctx, res.Instance); w != "" {
		res.Warning = w
	}
	return res
}

// await polls until i reaches want (and has a public address when needIP).
// Running out of attempts is reported as a warning.
func (c *Controller) await(ctx context.Context, i discovery.Instance, want string, needIP bool) Result {
	last := i
	err := awsapi.Retry(ctx, c.Wait, "instance "+i.ID+" "+want, isPending, func(ctx context.Context) error {
		cur, err := c.describe(ctx, i)
		if err != nil {
			return err
		}
		last = cur
		if cur.State != want || (needIP && cur.PublicIP == "") {
			return errNotYet
		}
		return nil
	})

	var exhausted *awsapi.RetryExhaustedError
	switch {
	case err == nil:
		return Result{Instance: last, State: last.State}
	case errors.As(err, &exhausted):
		w := fmt.Sprintf("still %s after %s, not confirmed %s", last.State, exhausted.Wait, want)
		log.Warn().Ctx(ctx).Str("region", i.Region).Str("instance", i.ID).Msg(w)
		return Result{Instance: last, State: last.State, Warning: w}
	default:
		return Result{Instance: last, State: last.State, Err: err}
	}
}

func isPending(err error) bool {
	return errors.Is(err, errNotYet) || awsapi.IsNotFound(err)
}

func (c *Controller) runHandler(ctx context.Context, i discovery.Instance) string {
	name := i.Tags[awsapi.IPHandlerTag]
	if c.handlers == nil || name == "" {
		return ""
	}

	h, err := c.handlers.Lookup(name)
	if err == nil {
		err = h.Handle(ctx, iphandler.Target{Region: i.Region, Name: i.Name, ID: i.ID, IP: i.PublicIP})
	}
	if err != nil {
		w := fmt.Sprintf("ip handler %s: %v", name, err)
		log.Warn().Ctx(ctx).Str("instance", i.ID).Err(err).Str("handler", name).Msg("ip handler failed")
		return w
	}
	return ""
}

func (c *Controller) describe(ctx context.Context, i discovery.Instance) (discovery.Instance, error) {
	output, err := c.clients.EC2(i.Region).DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{i.ID}})
	if err != nil {
		return i, fmt.Errorf("describe: %w", err)
	}
	for _, res := range output.Reservations {
		for _, inst := range res.Instances {
			if aws.ToString(inst.InstanceId) != i.ID {
				continue
			}
			cur := i
			if inst.State != nil {
				cur.State = string(inst.State.Name)
			}
			cur.PublicIP = aws.ToString(inst.PublicIpAddress)
			cur.PrivateIP = aws.ToString(inst.PrivateIpAddress)
			return cur, nil
		}
	}
	return i, fmt.Errorf("describe: instance %s not returned", i.ID)
}

// each runs fn for every instance concurrently and returns one result per
// instance in input order. An instance the prober refuses gets an error
// result instead.
func (c *Controller) each(ctx context.Context, instances []discovery.Instance, fn func(context.Context, discovery.Instance) Result) []Result {
	results := make([]Result, len(instances))
	p := prober.New[Result](ctx)
	var started []int
	for idx, i := range instances {
		err := p.Add(i.ID, func(ctx context.Context, _ string) (Result, error) {
			return fn(ctx, i), nil
		})
		if err != nil {
			results[idx] = Result{Instance: i, State: i.State, Err: fmt.Errorf("instance %q: %w", i.ID, err)}
			continue
		}
		started = append(started, idx)
	}

	// Units never fail, so Collect returns every started result.
	done, _ := p.Collect()
	for n, idx := range started {
		results[idx] = done[n]
	}
	return results
}

// Failed counts results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Summary joins per-instance errors into one error, or nil.
func Summary(results []Result) error {
	var msgs []string
	for _, r := range results {
		if r.Err != nil {
			msgs = append(msgs, fmt.Sprintf("%s (%s): %s", r.Instance.Name, r.Instance.ID, awsapi.Describe(r.Err)))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d instances failed:\n  %s", len(msgs), len(results), strings.Join(msgs, "\n  "))
}
