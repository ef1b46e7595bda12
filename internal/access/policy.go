// Package access reconciles the namespace's IAM resources: customer managed
// policies, groups and EC2 instance profiles.
package access

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/localdefs"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

// Path is the IAM path every namespace resource lives under.
func Path(namespace string) string {
	return "/" + namespace + "/"
}

// RemotePolicy is a customer managed policy under the namespace path.
type RemotePolicy struct {
	Name           string
	ARN            string
	DefaultVersion string
}

// PolicyKind reconciles IAM policies.
type PolicyKind struct {
	iam       awsapi.IAMAPI
	namespace string
}

var _ reconcile.Kind[localdefs.Policy, RemotePolicy] = (*PolicyKind)(nil)

// NewPolicyKind returns the policy kind for namespace.
func NewPolicyKind(client awsapi.IAMAPI, namespace string) *PolicyKind {
	return &PolicyKind{iam: client, namespace: namespace}
}

// Name implements reconcile.Kind.
func (k *PolicyKind) Name() string { return "iam_policy" }

// ListRemote lists local-scope policies under the namespace path.
func (k *PolicyKind) ListRemote(ctx context.Context) (map[string]RemotePolicy, error) {
	out := make(map[string]RemotePolicy)
	var marker *string

	for {
		output, err := k.iam.ListPolicies(ctx, &iam.ListPoliciesInput{
			Scope:      iamtypes.PolicyScopeTypeLocal,
			PathPrefix: aws.String(Path(k.namespace)),
			Marker:     marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list policies: %w", err)
		}

		for _, p := range output.Policies {
			name := aws.ToString(p.PolicyName)
			out[name] = RemotePolicy{
				Name:           name,
				ARN:            aws.ToString(p.Arn),
				DefaultVersion: aws.ToString(p.DefaultVersionId),
			}
		}

		if !output.IsTruncated || output.Marker == nil {
			break
		}
		marker = output.Marker
	}

	return out, nil
}

// Equal compares the default version's document with the local one,
// ignoring statement and list order.
func (k *PolicyKind) Equal(ctx context.Context, _ string, local localdefs.Policy, remote RemotePolicy) (bool, error) {
	output, err := k.iam.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
		PolicyArn: aws.String(remote.ARN),
		VersionId: aws.String(remote.DefaultVersion),
	})
	if err != nil {
		return false, fmt.Errorf("get policy version: %w", err)
	}
	if output.PolicyVersion == nil {
		return false, nil
	}

	doc, err := localdefs.ParseRemoteDocument(aws.ToString(output.PolicyVersion.Document))
	if err != nil {
		return false, err
	}
	return localdefs.EqualDocuments(local.Document, doc), nil
}

// Create creates the policy under the namespace path.
func (k *PolicyKind) Create(ctx context.Context, name string, local localdefs.Policy) error {
	doc, err := local.Document.JSON()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	input := &iam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		Path:           aws.String(Path(k.namespace)),
		PolicyDocument: aws.String(doc),
	}
	if local.Description != "" {
		input.Description = aws.String(local.Description)
	}

	if _, err := k.iam.CreatePolicy(ctx, input); err != nil {
		return fmt.Errorf("create policy: %w", err)
	}
	return nil
}

// Update replaces the default version. Non-default versions are deleted
// first so the five version limit is never hit.
func (k *PolicyKind) Update(ctx context.Context, name string, local localdefs.Policy, remote RemotePolicy) error {
	doc, err := local.Document.JSON()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := k.deleteOldVersions(ctx, remote.ARN); err != nil {
		return err
	}

	if _, err := k.iam.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(remote.ARN),
		PolicyDocument: aws.String(doc),
		SetAsDefault:   true,
	}); err != nil {
		return fmt.Errorf("create policy version: %w", err)
	}

	log.Debug().Ctx(ctx).Str("policy", name).Msg("policy version replaced")
	return nil
}

// Delete detaches the policy from every group, role and user, removes old
// versions and deletes it.
func (k *PolicyKind) Delete(ctx context.Context, name string, remote RemotePolicy) error {
	if err := k.detachAll(ctx, remote.ARN); err != nil {
		return err
	}
	if err := k.deleteOldVersions(ctx, remote.ARN); err != nil {
		return err
	}
	if _, err := k.iam.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: aws.String(remote.ARN)}); err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	return nil
}

func (k *PolicyKind) deleteOldVersions(ctx context.Context, arn string) error {
	var marker *string
	for {
		output, err := k.iam.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{
			PolicyArn: aws.String(arn),
			Marker:    marker,
		})
		if err != nil {
			return fmt.Errorf("list policy versions: %w", err)
		}

		for _, v := range output.Versions {
			if v.IsDefaultVersion {
				continue
			}
			if _, err := k.iam.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
				PolicyArn: aws.String(arn),
				VersionId: v.VersionId,
			}); err != nil {
				return fmt.Errorf("delete policy version %s: %w", aws.ToString(v.VersionId), err)
			}
		}

		if !output.IsTruncated || output.Marker == nil {
			return nil
		}
		marker = output.Marker
	}
}

func (k *PolicyKind) detachAll(ctx context.Context, arn string) error {
	var marker *string
	for {
		output, err := k.iam.ListEntitiesForPolicy(ctx, &iam.ListEntitiesForPolicyInput{
			PolicyArn: aws.String(arn),
			Marker:    marker,
		})
		if err != nil {
			return fmt.Errorf("list entities for policy: %w", err)
		}

		for _, g := range output.PolicyGroups {
			if _, err := k.iam.DetachGroupPolicy(ctx, &iam.DetachGroupPolicyInput{GroupName: g.GroupName, PolicyArn: aws.String(arn)}); err != nil {
				return fmt.Errorf("detach from group %s: %w", aws.ToString(g.GroupName), err)
			}
		}
		for _, r := range output.PolicyRoles {
			if _, err := k.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{RoleName: r.RoleName, PolicyArn: aws.String(arn)}); err != nil {
				return fmt.Errorf("detach from role %s: %w", aws.ToString(r.RoleName), err)
			}
		}
		for _, u := range output.PolicyUsers {
			if _, err := k.iam.DetachUserPolicy(ctx, &iam.DetachUserPolicyInput{UserName: u.UserName, PolicyArn: aws.String(arn)}); err != nil {
				return fmt.Errorf("detach from user %s: %w", aws.ToString(u.UserName), err)
			}
		}

		if !output.IsTruncated || output.Marker == nil {
			return nil
		}
		marker = output.Marker
	}
}

// policyARNs maps namespace policy names to their ARNs.
func (k *PolicyKind) policyARNs(ctx context.Context) (map[string]string, error) {
	remote, err := k.ListRemote(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(remote))
	for name, p := range remote {
		out[name] = p.ARN
	}
	return out, nil
}
