package access

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/localdefs"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

// assumeRoleDocument lets EC2 instances assume the profile role.
var assumeRoleDocument = localdefs.Document{
	Version: localdefs.DefaultPolicyVersion,
	Statement: []localdefs.Statement{{
		Effect:    "Allow",
		Principal: map[string]localdefs.StringList{"Service": {"ec2.amazonaws.com"}},
		Action:    localdefs.StringList{"sts:AssumeRole"},
	}},
}

// RemoteProfile is an instance profile under the namespace path together
// with the policies attached to its same-named role.
type RemoteProfile struct {
	Name  string
	ARN   string
	Roles []string
	// Attached maps role policy names to ARNs.
	Attached map[string]string
}

// Policies returns the sorted attached policy names.
func (p RemoteProfile) Policies() []string {
	return sortedKeys(p.Attached)
}

// ProfileKind reconciles instance profiles and their backing roles.
type ProfileKind struct {
	iam       awsapi.IAMAPI
	namespace string
	policies  *PolicyKind
}

var _ reconcile.Kind[localdefs.Profile, RemoteProfile] = (*ProfileKind)(nil)

// NewProfileKind returns the instance profile kind for namespace.
func NewProfileKind(client awsapi.IAMAPI, namespace string) *ProfileKind {
	return &ProfileKind{iam: client, namespace: namespace, policies: NewPolicyKind(client, namespace)}
}

// Name implements reconcile.Kind.
func (k *ProfileKind) Name() string { return "instance_profile" }

// ListRemote lists namespace instance profiles.
func (k *ProfileKind) ListRemote(ctx context.Context) (map[string]RemoteProfile, error) {
	out := make(map[string]RemoteProfile)
	var marker *string

	for {
		output, err := k.iam.ListInstanceProfiles(ctx, &iam.ListInstanceProfilesInput{
			PathPrefix: aws.String(Path(k.namespace)),
			Marker:     marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list instance profiles: %w", err)
		}

		for _, ip := range output.InstanceProfiles {
			name := aws.ToString(ip.InstanceProfileName)
			rp := RemoteProfile{Name: name, ARN: aws.ToString(ip.Arn), Attached: map[string]string{}}
			for _, r := range ip.Roles {
				role := aws.ToString(r.RoleName)
				rp.Roles = append(rp.Roles, role)
				if role != name {
					continue
				}
				attached, err := k.attached(ctx, role)
				if err != nil {
					return nil, err
				}
				rp.Attached = attached
			}
			out[name] = rp
		}

		if !output.IsTruncated || output.Marker == nil {
			break
		}
		marker = output.Marker
	}

	return out, nil
}

func (k *ProfileKind) attached(ctx context.Context, role string) (map[string]string, error) {
	out := make(map[string]string)
	var marker *string
	for {
		output, err := k.iam.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(role),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list attached policies of role %s: %w", role, err)
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

// Equal requires exactly the same-named role in the profile and the same
// attached policy set.
func (k *ProfileKind) Equal(_ context.Context, name string, local localdefs.Profile, remote RemoteProfile) (bool, error) {
	if len(remote.Roles) != 1 || remote.Roles[0] != name {
		return false, nil
	}
	return samePolicySet(local.Policies, remote.Policies()), nil
}

// Create creates the role, attaches its policies, creates the profile and
// adds the role to it. A role left over from an interrupted run is reused.
func (k *ProfileKind) Create(ctx context.Context, name string, local localdefs.Profile) error {
	if err := k.ensureRole(ctx, name); err != nil {
		return err
	}
	if err := k.sync(ctx, name, local.Policies, nil); err != nil {
		return err
	}

	if _, err := k.iam.CreateInstanceProfile(ctx, &iam.CreateInstanceProfileInput{
		InstanceProfileName: aws.String(name),
		Path:                aws.String(Path(k.namespace)),
	}); err != nil {
		return fmt.Errorf("create instance profile: %w", err)
	}

	if _, err := k.iam.AddRoleToInstanceProfile(ctx, &iam.AddRoleToInstanceProfileInput{
		InstanceProfileName: aws.String(name),
		RoleName:            aws.String(name),
	}); err != nil {
		return fmt.Errorf("add role to instance profile: %w", err)
	}
	return nil
}

func (k *ProfileKind) ensureRole(ctx context.Context, name string) error {
	doc, err := assumeRoleDocument.JSON()
	if err != nil {
		return err
	}
	_, err = k.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		Path:                     aws.String(Path(k.namespace)),
		AssumeRolePolicyDocument: aws.String(doc),
	})
	if awsapi.IsCode(err, "EntityAlreadyExists") {
		log.Debug().Ctx(ctx).Str("role", name).Msg("role already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// Update puts the role back in the profile when needed and syncs the
// attached policies.
func (k *ProfileKind) Update(ctx context.Context, name string, local localdefs.Profile, remote RemoteProfile) error {
	hasRole := false
	for _, r := range remote.Roles {
		if r == name {
			hasRole = true
			continue
		}
		if _, err := k.iam.RemoveRoleFromInstanceProfile(ctx, &iam.RemoveRoleFromInstanceProfileInput{
			InstanceProfileName: aws.String(name),
			RoleName:            aws.String(r),
		}); err != nil {
			return fmt.Errorf("remove role %s: %w", r, err)
		}
	}

	if !hasRole {
		if err := k.ensureRole(ctx, name); err != nil {
			return err
		}
		if _, err := k.iam.AddRoleToInstanceProfile(ctx, &iam.AddRoleToInstanceProfileInput{
			InstanceProfileName: aws.String(name),
			RoleName:            aws.String(name),
		}); err != nil {
			return fmt.Errorf("add role to instance profile: %w", err)
		}
	}

	return k.sync(ctx, name, local.Policies, remote.Attached)
}

func (k *ProfileKind) sync(ctx context.Context, role string, want []string, have map[string]string) error {
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
			if _, err := k.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{RoleName: aws.String(role), PolicyArn: aws.String(arn)}); err != nil {
				return fmt.Errorf("attach policy %s: %w", p, err)
			}
		}
	}
	for _, p := range detach {
		if _, err := k.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{RoleName: aws.String(role), PolicyArn: aws.String(have[p])}); err != nil {
			return fmt.Errorf("detach policy %s: %w", p, err)
		}
	}
	return nil
}

// Delete removes roles from the profile, deletes the backing role and then
// the profile.
func (k *ProfileKind) Delete(ctx context.Context, name string, remote RemoteProfile) error {
	for _, r := range remote.Roles {
		if _, err := k.iam.RemoveRoleFromInstanceProfile(ctx, &iam.RemoveRoleFromInstanceProfileInput{
			InstanceProfileName: aws.String(name),
			RoleName:            aws.String(r),
		}); err != nil {
			return fmt.Errorf("remove role %s: %w", r, err)
		}
	}

	if err := k.deleteRole(ctx, name); err != nil {
		return err
	}

	if _, err := k.iam.DeleteInstanceProfile(ctx, &iam.DeleteInstanceProfileInput{InstanceProfileName: aws.String(name)}); err != nil {
		return fmt.Errorf("delete instance profile: %w", err)
	}
	return nil
}

// SweepRoles deletes namespace roles that no instance profile holds, such
// as the role of an interrupted Create. It returns the deleted role names.
func (k *ProfileKind) SweepRoles(ctx context.Context) ([]string, error) {
	profiles, err := k.ListRemote(ctx)
	if err != nil {
		return nil, err
	}
	held := make(map[string]struct{})
	for _, p := range profiles {
		for _, r := range p.Roles {
			held[r] = struct{}{}
		}
	}

	var orphans []string
	var marker *string
	for {
		output, err := k.iam.ListRoles(ctx, &iam.ListRolesInput{
			PathPrefix: aws.String(Path(k.namespace)),
			Marker:     marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list roles: %w", err)
		}
		for _, r := range output.Roles {
			name := aws.ToString(r.RoleName)
			if _, ok := held[name]; !ok {
				orphans = append(orphans, name)
			}
		}
		if !output.IsTruncated || output.Marker == nil {
			break
		}
		marker = output.Marker
	}
	sort.Strings(orphans)

	deleted := []string{}
	for _, name := range orphans {
		if err := k.deleteRole(ctx, name); err != nil {
			return deleted, fmt.Errorf("role %s: %w", name, err)
		}
		deleted = append(deleted, name)
		log.Info().Ctx(ctx).Str("role", name).Msg("deleted role without instance profile")
	}
	return deleted, nil
}

// deleteRole detaches managed policies, deletes inline policies and removes
// the role. A missing role is not an error.
func (k *ProfileKind) deleteRole(ctx context.Context, role string) error {
	attached, err := k.attached(ctx, role)
	if awsapi.IsCode(err, "NoSuchEntity") {
		return nil
	}
	if err != nil {
		return err
	}
	for p, arn := range attached {
		if _, err := k.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{RoleName: aws.String(role), PolicyArn: aws.String(arn)}); err != nil {
			return fmt.Errorf("detach policy %s: %w", p, err)
		}
	}

	inline, err := k.iam.ListRolePolicies(ctx, &iam.ListRolePoliciesInput{RoleName: aws.String(role)})
	if err != nil {
		return fmt.Errorf("list inline role policies: %w", err)
	}
	for _, p := range inline.PolicyNames {
		if _, err := k.iam.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{RoleName: aws.String(role), PolicyName: aws.String(p)}); err != nil {
			return fmt.Errorf("delete inline policy %s: %w", p, err)
		}
	}

	if _, err := k.iam.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(role)}); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
