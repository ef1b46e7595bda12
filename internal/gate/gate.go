// Package gate answers "which of these actions is the caller not allowed to
// perform" with a single policy simulation, before anything is mutated.
package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/telemetry"
)

// maxItems is the largest page SimulatePrincipalPolicy accepts.
const maxItems = 1000

// Gate simulates the principal's policies.
type Gate struct {
	iam       awsapi.IAMAPI
	principal string
}

// New returns a gate for principalARN.
func New(client awsapi.IAMAPI, principalARN string) *Gate {
	return &Gate{iam: client, principal: principalARN}
}

// FromCaller builds a gate for the identity behind the current credentials.
func FromCaller(ctx context.Context, stsClient awsapi.STSAPI, iamClient awsapi.IAMAPI) (*Gate, error) {
	arn, err := CallerARN(ctx, stsClient)
	if err != nil {
		return nil, err
	}
	return New(iamClient, arn), nil
}

// CallerARN returns the simulatable ARN of the active identity. Assumed-role
// session ARNs are mapped to the role they were assumed from.
func CallerARN(ctx context.Context, client awsapi.STSAPI) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return PrincipalARN(aws.ToString(out.Arn)), nil
}

// PrincipalARN converts arn:aws:sts::<acct>:assumed-role/<role>/<session>
// into arn:aws:iam::<acct>:role/<role>. Other ARNs are returned unchanged.
func PrincipalARN(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[2] != "sts" || !strings.HasPrefix(parts[5], "assumed-role/") {
		return arn
	}
	resource := strings.Split(strings.TrimPrefix(parts[5], "assumed-role/"), "/")
	return fmt.Sprintf("%s:%s:iam::%s:role/%s", parts[0], parts[1], parts[4], resource[0])
}

// Principal returns the simulated principal ARN.
func (g *Gate) Principal() string { return g.principal }

// Account returns the account ID embedded in the principal ARN.
func (g *Gate) Account() string {
	parts := strings.SplitN(g.principal, ":", 6)
	if len(parts) < 5 {
		return ""
	}
	return parts[4]
}

type options struct {
	resources []string
	context   []iamtypes.ContextEntry
}

// Option narrows a simulation.
type Option func(*options)

// WithResources simulates against specific resource ARNs instead of "*".
func WithResources(arns ...string) Option {
	return func(o *options) {
		o.resources = append(o.resources, arns...)
	}
}

// WithContext adds a string condition context entry.
func WithContext(key string, values ...string) Option {
	return func(o *options) {
		o.context = append(o.context, iamtypes.ContextEntry{
			ContextKeyName:   aws.String(key),
			ContextKeyType:   iamtypes.ContextKeyTypeEnumString,
			ContextKeyValues: values,
		})
	}
}

// Denied returns the sorted, de-duplicated subset of actions the principal
// may not perform. Anything other than an "allowed" decision is a denial.
func (g *Gate) Denied(ctx context.Context, actions []string, opts ...Option) ([]string, error) {
	if len(actions) == 0 {
		return []string{}, nil
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.resources) == 0 {
		o.resources = []string{"*"}
	}

	ctx, span := telemetry.StartSpan(ctx, "gate.denied",
		attribute.String("principal", g.principal),
		attribute.Int("actions", len(actions)),
	)
	defer span.End()

	items := len(actions) * len(o.resources)
	if items > maxItems {
		items = maxItems
	}

	input := &iam.SimulatePrincipalPolicyInput{
		PolicySourceArn: aws.String(g.principal),
		ActionNames:     actions,
		ResourceArns:    o.resources,
		ContextEntries:  o.context,
		MaxItems:        aws.Int32(int32(items)),
	}

	seen := make(map[string]struct{})
	for {
		output, err := g.iam.SimulatePrincipalPolicy(ctx, input)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("simulate principal policy: %w", err)
		}

		for _, r := range output.EvaluationResults {
			if r.EvalDecision != iamtypes.PolicyEvaluationDecisionTypeAllowed {
				seen[aws.ToString(r.EvalActionName)] = struct{}{}
			}
		}

		if !output.IsTruncated || output.Marker == nil {
			break
		}
		input.Marker = output.Marker
	}

	denied := make([]string, 0, len(seen))
	for a := range seen {
		denied = append(denied, a)
	}
	sort.Strings(denied)

	telemetry.RecordDenied(ctx, len(denied))
	log.Debug().Ctx(ctx).Str("principal", g.principal).Strs("denied", denied).Msg("permission simulation")
	return denied, nil
}

// Require fails with *DeniedError when any action is denied.
func (g *Gate) Require(ctx context.Context, actions []string, opts ...Option) error {
	denied, err := g.Denied(ctx, actions, opts...)
	if err != nil {
		return err
	}
	if len(denied) > 0 {
		return &DeniedError{Principal: g.principal, Actions: denied}
	}
	return nil
}

// DeniedError lists the actions the principal is missing.
type DeniedError struct {
	Principal string
	Actions   []string
}

func (e *DeniedError) Error() string {
	var b strings.Builder
	if e.Principal != "" {
		fmt.Fprintf(&b, "%s is missing the following permissions:", e.Principal)
	} else {
		b.WriteString("missing the following permissions:")
	}
	for _, a := range e.Actions {
		b.WriteString("\n  ")
		b.WriteString(a)
	}
	return b.String()
}
