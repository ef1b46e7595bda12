package access

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/localdefs"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

// RemoteGroup is an IAM group under the namespace path.
type RemoteGroup struct {
	Name string
	ARN  string
	// Attached maps attached managed policy names to ARNs.
	Attached map[string]string
}

// Policies returns the sorted attached policy names.
func (g RemoteGroup) Policies() []string {
	return sortedKeys(g.Attached)
}

// GroupKind reconciles IAM groups and their attached namespace policies.
type GroupKind struct {
	iam       awsapi.IAMAPI
	namespace string
	policies  *PolicyKind
}

var _ reconcile.Kind[localdefs.Group, RemoteGroup] = (*GroupKind)(nil)

// NewGroupKind returns the group kind for namespace.
func NewGroupKind(client awsapi.IAMAPI, namespace string) *GroupKind {
	return &GroupKind{iam: client, namespace: namespace, policies: NewPolicyKind(client, namespace)}
}

// Name implements reconcile.Kind.
func (k *GroupKind) Name() string { return "iam_group" }

// ListRemote lists namespace groups with their attached policies.
func (k *GroupKind) ListRemote(ctx context.Context) (map[string]RemoteGroup, error) {
	out := make(map[string]RemoteGroup)
	var marker *string

	for {
		output, err := k.iam.ListGroups(ctx, &iam.ListGroupsInput{
			PathPrefix: aws.String(Path(k.namespace)),
			Marker:     marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}

		for _, g := range output.Groups {
			name := aws.ToString(g.GroupName)
			attached, err := k.attached(ctx, name)
			if err != nil {
				return nil, err
			}
			out[name] = RemoteGroup{Name: name, ARN: aws.ToString(g.Arn), Attached: attached}
		}

		if !output.IsTruncated || output.Marker == nil {
			break
		}
		marker = output.Marker
	}

	return out, nil
}

func (k *GroupKind) attached(ctx context.Context, group string) (map[string]string, error) {
	out := make(map[string]string)
	var marker *string
	for {
		output, err := k.iam.ListAttachedGroupPolicies(ctx, &iam.ListAttachedGroupPoliciesInput{
			GroupName: aws.String(group),
			Marker:    marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list attached policies of group %s: %w", group, err)
		}
		for _, p := range output.AttachedPolicies {
			out[aws.ToString(p.PolicyName)] = aws.ToString(p.PolicyArn)
		}
		if !output.IsTruncated || output.Marker == nil {
			return out, nil
		}
		marker = output.Marker
	}
}

// Equal compares attached policy names as sets.
func (k *GroupKind) Equal(_ context.Context, _ string, local localdefs.Group, remote RemoteGroup) (bool, error) {
	return samePolicySet(local.Policies, remote.Policies()), nil
}

// Create creates the group and attaches its policies.
func (k *GroupKind) Create(ctx context.Context, name string, local localdefs.Group) error {
	if _, err := k.iam.CreateGroup(ctx, &iam.CreateGroupInput{
		GroupName: aws.String(name),
		Path:      aws.String(Path(k.namespace)),
	}); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return k.sync(ctx, name, local.Policies, nil)
}

// Update attaches missing and detaches surplus policies.
func (k *GroupKind) Update(ctx context.Context, name string, local localdefs.Group, remote RemoteGroup) error {
	return k.sync(ctx, name, local.Policies, remote.Attached)
}

func (k *GroupKind) sync(ctx context.Context, name string, want []string, have map[string]string) error {
	attach, detach := policyDelta(want, have)
	if len(attach) > 0 {
		arns, err := k.policies.policyARNs(ctx)
		if err != nil {
			return err
		}
		for _, p := range attach {
			arn, ok := arns[p]
			if !ok {
				return fmt.Errorf("policy %s is not in namespace %s", p, k.namespace)
			}
			if _, err := k.iam.AttachGroupPolicy(ctx, &iam.AttachGroupPolicyInput{GroupName: aws.String(name), PolicyArn: aws.String(arn)}); err != nil {
				return fmt.Errorf("attach policy %s: %w", p, err)
			}
		}
	}
	for _, p := range detach {
		if _, err := k.iam.DetachGroupPolicy(ctx, &iam.DetachGroupPolicyInput{GroupName: aws.String(name), PolicyArn: aws.String(have[p])}); err != nil {
			return fmt.Errorf("detach policy %s: %w", p, err)
		}
	}
	return nil
}

// Delete removes members, managed and inline policies, then the group.
func (k *GroupKind) Delete(ctx context.Context, name string, remote RemoteGroup) error {
	var marker *string
	for {
		output, err := k.iam.GetGroup(ctx, &iam.GetGroupInput{GroupName: aws.String(name), Marker: marker})
		if err != nil {
			return fmt.Errorf("get group: %w", err)
		}
		for _, u := range output.Users {
			if _, err := k.iam.RemoveUserFromGroup(ctx, &iam.RemoveUserFromGroupInput{GroupName: aws.String(name), UserName: u.UserName}); err != nil {
				return fmt.Errorf("remove user %s: %w", aws.ToString(u.UserName), err)
			}
		}
		if !output.IsTruncated || output.Marker == nil {
			break
		}
		marker = output.Marker
	}

	for p, arn := range remote.Attached {
		if _, err := k.iam.DetachGroupPolicy(ctx, &iam.DetachGroupPolicyInput{GroupName: aws.String(name), PolicyArn: aws.String(arn)}); err != nil {
			return fmt.Errorf("detach policy %s: %w", p, err)
		}
	}

	inline, err := k.iam.ListGroupPolicies(ctx, &iam.ListGroupPoliciesInput{GroupName: aws.String(name)})
	if err != nil {
		return fmt.Errorf("list inline policies: %w", err)
	}
	for _, p := range inline.PolicyNames {
		if _, err := k.iam.DeleteGroupPolicy(ctx, &iam.DeleteGroupPolicyInput{GroupName: aws.String(name), PolicyName: aws.String(p)}); err != nil {
			return fmt.Errorf("delete inline policy %s: %w", p, err)
		}
	}

	if _, err := k.iam.DeleteGroup(ctx, &iam.DeleteGroupInput{GroupName: aws.String(name)}); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func samePolicySet(a, b []string) bool {
	return cmp.Equal(a, b,
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(x, y string) bool { return x < y }),
	)
}

// policyDelta returns names in want but not have, and names in have but not
// want, both sorted.
func policyDelta(want []string, have map[string]string) (attach, detach []string) {
	wantSet := make(map[string]struct{}, len(want))
	for _, p := range want {
		wantSet[p] = struct{}{}
		if _, ok := have[p]; !ok {
			attach = append(attach, p)
		}
	}
	for p := range have {
		if _, ok := wantSet[p]; !ok {
			detach = append(detach, p)
		}
	}
	sort.Strings(attach)
	sort.Strings(detach)
	return attach, detach
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
