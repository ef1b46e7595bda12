package access

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/ec2mc/internal/awsapi/awsapitest"
	"github.com/yairfalse/ec2mc/internal/localdefs"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

const ns = "mc"

func doc(action string) localdefs.Document {
	return localdefs.Document{
		Version: localdefs.DefaultPolicyVersion,
		Statement: []localdefs.Statement{{
			Effect:   "Allow",
			Action:   localdefs.StringList{action},
			Resource: localdefs.StringList{"*"},
		}},
	}
}

func encoded(t *testing.T, d localdefs.Document) *string {
	t.Helper()
	raw, err := d.JSON()
	require.NoError(t, err)
	return aws.String(url.QueryEscape(raw))
}

func arn(name string) string {
	return "arn:aws:iam::123456789012:policy/mc/" + name
}

// calls records fake invocations in order.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

// ══════════════════════════════════════════════════════════════════════════════
// Policies
// ══════════════════════════════════════════════════════════════════════════════

func policyFake(t *testing.T, c *calls, remote map[string]localdefs.Document) *awsapitest.IAM {
	return &awsapitest.IAM{
		ListPoliciesFunc: func(_ context.Context, in *iam.ListPoliciesInput, _ ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
			assert.Equal(t, iamtypes.PolicyScopeTypeLocal, in.Scope)
			assert.Equal(t, "/mc/", aws.ToString(in.PathPrefix))
			var out []iamtypes.Policy
			for name := range remote {
				out = append(out, iamtypes.Policy{PolicyName: aws.String(name), Arn: aws.String(arn(name)), DefaultVersionId: aws.String("v3")})
			}
			return &iam.ListPoliciesOutput{Policies: out}, nil
		},
		GetPolicyVersionFunc: func(_ context.Context, in *iam.GetPolicyVersionInput, _ ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
			for name, d := range remote {
				if arn(name) == aws.ToString(in.PolicyArn) {
					return &iam.GetPolicyVersionOutput{PolicyVersion: &iamtypes.PolicyVersion{
						Document: encoded(t, d), VersionId: in.VersionId, IsDefaultVersion: true,
					}}, nil
				}
			}
			return nil, &smithy.GenericAPIError{Code: "NoSuchEntity"}
		},
		CreatePolicyFunc: func(_ context.Context, in *iam.CreatePolicyInput, _ ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
			assert.Equal(t, "/mc/", aws.ToString(in.Path))
			c.add("create " + aws.ToString(in.PolicyName))
			return &iam.CreatePolicyOutput{}, nil
		},
		ListPolicyVersionsFunc: func(_ context.Context, in *iam.ListPolicyVersionsInput, _ ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
			return &iam.ListPolicyVersionsOutput{Versions: []iamtypes.PolicyVersion{
				{VersionId: aws.String("v1")},
				{VersionId: aws.String("v2")},
				{VersionId: aws.String("v3"), IsDefaultVersion: true},
			}}, nil
		},
		DeletePolicyVersionFunc: func(_ context.Context, in *iam.DeletePolicyVersionInput, _ ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
			c.add("delete version " + aws.ToString(in.VersionId))
			return &iam.DeletePolicyVersionOutput{}, nil
		},
		CreatePolicyVersionFunc: func(_ context.Context, in *iam.CreatePolicyVersionInput, _ ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
			assert.True(t, in.SetAsDefault)
			c.add("create version " + aws.ToString(in.PolicyArn))
			return &iam.CreatePolicyVersionOutput{}, nil
		},
	}
}

func TestPolicyKind_CheckAndUpload(t *testing.T) {
	c := &calls{}
	remote := map[string]localdefs.Document{
		"B": doc("ec2:StartInstances"),
		"C": doc("ec2:StopInstances"),
	}
	r := reconcile.New[localdefs.Policy, RemotePolicy](NewPolicyKind(policyFake(t, c, remote), ns))

	locals := map[string]localdefs.Policy{
		"A": {Name: "A", Document: doc("ec2:DescribeInstances")},
		"B": {Name: "B", Document: doc("ec2:RebootInstances")},
	}

	plan, err := r.Check(context.Background(), locals)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, plan.Report.ToCreate)
	assert.Equal(t, []string{"B"}, plan.Report.ToUpdate)
	assert.Empty(t, plan.Report.UpToDate)
	assert.Equal(t, []string{"C"}, plan.Report.AWSExtra)
	assert.Empty(t, c.log, "check must not mutate")

	done, err := r.Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, done.ToCreate)
	assert.Equal(t, []string{"B"}, done.ToUpdate)
	assert.Equal(t, []string{
		"create A",
		"delete version v1",
		"delete version v2",
		"create version " + arn("B"),
	}, c.log)
}

func TestPolicyKind_EqualIgnoresStatementOrder(t *testing.T) {
	two := localdefs.Document{Statement: []localdefs.Statement{
		{Effect: "Allow", Action: localdefs.StringList{"a", "b"}, Resource: localdefs.StringList{"*"}},
		{Effect: "Deny", Action: localdefs.StringList{"c"}, Resource: localdefs.StringList{"*"}},
	}}
	reversed := localdefs.Document{Version: localdefs.DefaultPolicyVersion, Statement: []localdefs.Statement{
		{Effect: "Deny", Action: localdefs.StringList{"c"}, Resource: localdefs.StringList{"*"}},
		{Effect: "Allow", Action: localdefs.StringList{"b", "a"}, Resource: localdefs.StringList{"*"}},
	}}

	r := reconcile.New[localdefs.Policy, RemotePolicy](NewPolicyKind(policyFake(t, &calls{}, map[string]localdefs.Document{"P": reversed}), ns))

	plan, err := r.Check(context.Background(), map[string]localdefs.Policy{"P": {Name: "P", Document: two}})
	require.NoError(t, err)
	assert.Equal(t, []string{"P"}, plan.Report.UpToDate)
}

func TestPolicyKind_ListRemoteFollowsMarker(t *testing.T) {
	var markers []string
	client := &awsapitest.IAM{
		ListPoliciesFunc: func(_ context.Context, in *iam.ListPoliciesInput, _ ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
			markers = append(markers, aws.ToString(in.Marker))
			if in.Marker == nil {
				return &iam.ListPoliciesOutput{
					Policies:    []iamtypes.Policy{{PolicyName: aws.String("one"), Arn: aws.String(arn("one"))}},
					IsTruncated: true,
					Marker:      aws.String("next"),
				}, nil
			}
			return &iam.ListPoliciesOutput{Policies: []iamtypes.Policy{{PolicyName: aws.String("two"), Arn: aws.String(arn("two"))}}}, nil
		},
	}

	remote, err := NewPolicyKind(client, ns).ListRemote(context.Background())
	require.NoError(t, err)
	assert.Len(t, remote, 2)
	assert.Equal(t, []string{"", "next"}, markers)
}

func TestPolicyKind_DeleteDetachesEverything(t *testing.T) {
	c := &calls{}
	client := &awsapitest.IAM{
		ListEntitiesForPolicyFunc: func(_ context.Context, _ *iam.ListEntitiesForPolicyInput, _ ...func(*iam.Options)) (*iam.ListEntitiesForPolicyOutput, error) {
			return &iam.ListEntitiesForPolicyOutput{
				PolicyGroups: []iamtypes.PolicyGroup{{GroupName: aws.String("players")}},
				PolicyRoles:  []iamtypes.PolicyRole{{RoleName: aws.String("server")}},
				PolicyUsers:  []iamtypes.PolicyUser{{UserName: aws.String("alice")}},
			}, nil
		},
		DetachGroupPolicyFunc: func(_ context.Context, in *iam.DetachGroupPolicyInput, _ ...func(*iam.Options)) (*iam.DetachGroupPolicyOutput, error) {
			c.add("detach group " + aws.ToString(in.GroupName))
			return &iam.DetachGroupPolicyOutput{}, nil
		},
		DetachRolePolicyFunc: func(_ context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
			c.add("detach role " + aws.ToString(in.RoleName))
			return &iam.DetachRolePolicyOutput{}, nil
		},
		DetachUserPolicyFunc: func(_ context.Context, in *iam.DetachUserPolicyInput, _ ...func(*iam.Options)) (*iam.DetachUserPolicyOutput, error) {
			c.add("detach user " + aws.ToString(in.UserName))
			return &iam.DetachUserPolicyOutput{}, nil
		},
		ListPolicyVersionsFunc: func(_ context.Context, _ *iam.ListPolicyVersionsInput, _ ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
			return &iam.ListPolicyVersionsOutput{Versions: []iamtypes.PolicyVersion{
				{VersionId: aws.String("v1")},
				{VersionId: aws.String("v2"), IsDefaultVersion: true},
			}}, nil
		},
		DeletePolicyVersionFunc: func(_ context.Context, in *iam.DeletePolicyVersionInput, _ ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
			c.add("delete version " + aws.ToString(in.VersionId))
			return &iam.DeletePolicyVersionOutput{}, nil
		},
		DeletePolicyFunc: func(_ context.Context, in *iam.DeletePolicyInput, _ ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
			c.add("delete policy")
			return &iam.DeletePolicyOutput{}, nil
		},
	}

	err := NewPolicyKind(client, ns).Delete(context.Background(), "basic", RemotePolicy{Name: "basic", ARN: arn("basic")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"detach group players",
		"detach role server",
		"detach user alice",
		"delete version v1",
		"delete policy",
	}, c.log)
}

func TestPolicyKind_CreateErrorIsWrapped(t *testing.T) {
	client := &awsapitest.IAM{
		CreatePolicyFunc: func(context.Context, *iam.CreatePolicyInput, ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "MalformedPolicyDocument", Message: "bad"}
		},
	}
	err := NewPolicyKind(client, ns).Create(context.Background(), "x", localdefs.Policy{Document: doc("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create policy")

	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "MalformedPolicyDocument", apiErr.ErrorCode())
}

// ══════════════════════════════════════════════════════════════════════════════
// Groups
// ══════════════════════════════════════════════════════════════════════════════

func groupFake(c *calls, attached map[string][]string, policies ...string) *awsapitest.IAM {
	return &awsapitest.IAM{
		ListGroupsFunc: func(context.Context, *iam.ListGroupsInput, ...func(*iam.Options)) (*iam.ListGroupsOutput, error) {
			var out []iamtypes.Group
			for name := range attached {
				out = append(out, iamtypes.Group{GroupName: aws.String(name)})
			}
			return &iam.ListGroupsOutput{Groups: out}, nil
		},
		ListAttachedGroupPoliciesFunc: func(_ context.Context, in *iam.ListAttachedGroupPoliciesInput, _ ...func(*iam.Options)) (*iam.ListAttachedGroupPoliciesOutput, error) {
			var out []iamtypes.AttachedPolicy
			for _, p := range attached[aws.ToString(in.GroupName)] {
				out = append(out, iamtypes.AttachedPolicy{PolicyName: aws.String(p), PolicyArn: aws.String(arn(p))})
			}
			return &iam.ListAttachedGroupPoliciesOutput{AttachedPolicies: out}, nil
		},
		ListPoliciesFunc: func(context.Context, *iam.ListPoliciesInput, ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
			var out []iamtypes.Policy
			for _, p := range policies {
				out = append(out, iamtypes.Policy{PolicyName: aws.String(p), Arn: aws.String(arn(p))})
			}
			return &iam.ListPoliciesOutput{Policies: out}, nil
		},
		CreateGroupFunc: func(_ context.Context, in *iam.CreateGroupInput, _ ...func(*iam.Options)) (*iam.CreateGroupOutput, error) {
			c.add("create group " + aws.ToString(in.GroupName))
			return &iam.CreateGroupOutput{}, nil
		},
		AttachGroupPolicyFunc: func(_ context.Context, in *iam.AttachGroupPolicyInput, _ ...func(*iam.Options)) (*iam.AttachGroupPolicyOutput, error) {
			c.add("attach " + aws.ToString(in.PolicyArn))
			return &iam.AttachGroupPolicyOutput{}, nil
		},
		DetachGroupPolicyFunc: func(_ context.Context, in *iam.DetachGroupPolicyInput, _ ...func(*iam.Options)) (*iam.DetachGroupPolicyOutput, error) {
			c.add("detach " + aws.ToString(in.PolicyArn))
			return &iam.DetachGroupPolicyOutput{}, nil
		},
	}
}

func TestGroupKind_Check(t *testing.T) {
	client := groupFake(&calls{}, map[string][]string{
		"players": {"basic"},
		"admins":  {"admin", "basic"},
		"old":     nil,
	}, "admin", "basic")
	r := reconcile.New[localdefs.Group, RemoteGroup](NewGroupKind(client, ns))

	plan, err := r.Check(context.Background(), map[string]localdefs.Group{
		"players": {Name: "players", Policies: []string{"basic"}},
		"admins":  {Name: "admins", Policies: []string{"basic"}},
		"mods":    {Name: "mods"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mods"}, plan.Report.ToCreate)
	assert.Equal(t, []string{"admins"}, plan.Report.ToUpdate)
	assert.Equal(t, []string{"players"}, plan.Report.UpToDate)
	assert.Equal(t, []string{"old"}, plan.Report.AWSExtra)
}

func TestGroupKind_CreateAndUpdate(t *testing.T) {
	c := &calls{}
	k := NewGroupKind(groupFake(c, nil, "admin", "basic"), ns)

	require.NoError(t, k.Create(context.Background(), "mods", localdefs.Group{Policies: []string{"basic", "admin"}}))
	require.NoError(t, k.Update(context.Background(), "admins", localdefs.Group{Policies: []string{"admin"}},
		RemoteGroup{Name: "admins", Attached: map[string]string{"basic": arn("basic")}}))

	assert.Equal(t, []string{
		"create group mods",
		"attach " + arn("admin"),
		"attach " + arn("basic"),
		"attach " + arn("admin"),
		"detach " + arn("basic"),
	}, c.log)
}

func TestGroupKind_AttachUnknownPolicy(t *testing.T) {
	k := NewGroupKind(groupFake(&calls{}, nil, "basic"), ns)
	err := k.Create(context.Background(), "mods", localdefs.Group{Policies: []string{"ghost"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy ghost is not in namespace mc")
}

func TestGroupKind_Delete(t *testing.T) {
	c := &calls{}
	client := groupFake(c, nil)
	client.GetGroupFunc = func(context.Context, *iam.GetGroupInput, ...func(*iam.Options)) (*iam.GetGroupOutput, error) {
		return &iam.GetGroupOutput{Users: []iamtypes.User{{UserName: aws.String("alice")}}}, nil
	}
	client.RemoveUserFromGroupFunc = func(_ context.Context, in *iam.RemoveUserFromGroupInput, _ ...func(*iam.Options)) (*iam.RemoveUserFromGroupOutput, error) {
		c.add("remove " + aws.ToString(in.UserName))
		return &iam.RemoveUserFromGroupOutput{}, nil
	}
	client.ListGroupPoliciesFunc = func(context.Context, *iam.ListGroupPoliciesInput, ...func(*iam.Options)) (*iam.ListGroupPoliciesOutput, error) {
		return &iam.ListGroupPoliciesOutput{PolicyNames: []string{"inline"}}, nil
	}
	client.DeleteGroupPolicyFunc = func(_ context.Context, in *iam.DeleteGroupPolicyInput, _ ...func(*iam.Options)) (*iam.DeleteGroupPolicyOutput, error) {
		c.add("delete inline " + aws.ToString(in.PolicyName))
		return &iam.DeleteGroupPolicyOutput{}, nil
	}
	client.DeleteGroupFunc = func(_ context.Context, in *iam.DeleteGroupInput, _ ...func(*iam.Options)) (*iam.DeleteGroupOutput, error) {
		c.add("delete group " + aws.ToString(in.GroupName))
		return &iam.DeleteGroupOutput{}, nil
	}

	err := NewGroupKind(client, ns).Delete(context.Background(), "players",
		RemoteGroup{Name: "players", Attached: map[string]string{"basic": arn("basic")}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"remove alice",
		"detach " + arn("basic"),
		"delete inline inline",
		"delete group players",
	}, c.log)
}

func TestPolicyDelta(t *testing.T) {
	attach, detach := policyDelta([]string{"c", "a", "b"}, map[string]string{"b": "", "d": "", "e": ""})
	assert.Equal(t, []string{"a", "c"}, attach)
	assert.Equal(t, []string{"d", "e"}, detach)
}

// ══════════════════════════════════════════════════════════════════════════════
// Instance profiles
// ══════════════════════════════════════════════════════════════════════════════

func TestProfileKind_Equal(t *testing.T) {
	k := NewProfileKind(&awsapitest.IAM{}, ns)
	local := localdefs.Profile{Name: "server", Policies: []string{"basic"}}

	tests := []struct {
		name   string
		remote RemoteProfile
		want   bool
	}{
		{"same", RemoteProfile{Roles: []string{"server"}, Attached: map[string]string{"basic": ""}}, true},
		{"no role", RemoteProfile{Attached: map[string]string{"basic": ""}}, false},
		{"other role", RemoteProfile{Roles: []string{"other"}}, false},
		{"policy drift", RemoteProfile{Roles: []string{"server"}, Attached: map[string]string{"admin": ""}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.Equal(context.Background(), "server", local, tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileKind_CreateReusesExistingRole(t *testing.T) {
	c := &calls{}
	client := &awsapitest.IAM{
		CreateRoleFunc: func(_ context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
			assert.Contains(t, aws.ToString(in.AssumeRolePolicyDocument), "ec2.amazonaws.com")
			c.add("create role")
			return nil, &smithy.GenericAPIError{Code: "EntityAlreadyExists"}
		},
		ListPoliciesFunc: func(context.Context, *iam.ListPoliciesInput, ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
			return &iam.ListPoliciesOutput{Policies: []iamtypes.Policy{{PolicyName: aws.String("basic"), Arn: aws.String(arn("basic"))}}}, nil
		},
		AttachRolePolicyFunc: func(_ context.Context, in *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
			c.add("attach " + aws.ToString(in.PolicyArn))
			return &iam.AttachRolePolicyOutput{}, nil
		},
		CreateInstanceProfileFunc: func(_ context.Context, in *iam.CreateInstanceProfileInput, _ ...func(*iam.Options)) (*iam.CreateInstanceProfileOutput, error) {
			assert.Equal(t, "/mc/", aws.ToString(in.Path))
			c.add("create profile")
			return &iam.CreateInstanceProfileOutput{}, nil
		},
		AddRoleToInstanceProfileFunc: func(_ context.Context, in *iam.AddRoleToInstanceProfileInput, _ ...func(*iam.Options)) (*iam.AddRoleToInstanceProfileOutput, error) {
			c.add("add role " + aws.ToString(in.RoleName))
			return &iam.AddRoleToInstanceProfileOutput{}, nil
		},
	}

	err := NewProfileKind(client, ns).Create(context.Background(), "server", localdefs.Profile{Policies: []string{"basic"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"create role", "attach " + arn("basic"), "create profile", "add role server"}, c.log)
}

func TestProfileKind_DeleteToleratesMissingRole(t *testing.T) {
	c := &calls{}
	client := &awsapitest.IAM{
		RemoveRoleFromInstanceProfileFunc: func(_ context.Context, in *iam.RemoveRoleFromInstanceProfileInput, _ ...func(*iam.Options)) (*iam.RemoveRoleFromInstanceProfileOutput, error) {
			c.add("remove " + aws.ToString(in.RoleName))
			return &iam.RemoveRoleFromInstanceProfileOutput{}, nil
		},
		ListAttachedRolePoliciesFunc: func(context.Context, *iam.ListAttachedRolePoliciesInput, ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NoSuchEntity"}
		},
		DeleteInstanceProfileFunc: func(context.Context, *iam.DeleteInstanceProfileInput, ...func(*iam.Options)) (*iam.DeleteInstanceProfileOutput, error) {
			c.add("delete profile")
			return &iam.DeleteInstanceProfileOutput{}, nil
		},
	}

	err := NewProfileKind(client, ns).Delete(context.Background(), "server", RemoteProfile{Name: "server", Roles: []string{"server"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"remove server", "delete profile"}, c.log)
}

func TestProfileKind_SweepRolesDeletesOrphans(t *testing.T) {
	c := &calls{}
	client := &awsapitest.IAM{
		ListInstanceProfilesFunc: func(context.Context, *iam.ListInstanceProfilesInput, ...func(*iam.Options)) (*iam.ListInstanceProfilesOutput, error) {
			return &iam.ListInstanceProfilesOutput{InstanceProfiles: []iamtypes.InstanceProfile{{
				InstanceProfileName: aws.String("server"),
				Roles:               []iamtypes.Role{{RoleName: aws.String("server")}},
			}}}, nil
		},
		ListRolesFunc: func(_ context.Context, in *iam.ListRolesInput, _ ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
			assert.Equal(t, "/mc/", aws.ToString(in.PathPrefix))
			if in.Marker == nil {
				return &iam.ListRolesOutput{
					Roles:       []iamtypes.Role{{RoleName: aws.String("server")}, {RoleName: aws.String("proxy")}},
					IsTruncated: true,
					Marker:      aws.String("page2"),
				}, nil
			}
			return &iam.ListRolesOutput{Roles: []iamtypes.Role{{RoleName: aws.String("lobby")}}}, nil
		},
		ListAttachedRolePoliciesFunc: func(_ context.Context, in *iam.ListAttachedRolePoliciesInput, _ ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
			if aws.ToString(in.RoleName) == "proxy" {
				return &iam.ListAttachedRolePoliciesOutput{AttachedPolicies: []iamtypes.AttachedPolicy{{PolicyName: aws.String("basic"), PolicyArn: aws.String(arn("basic"))}}}, nil
			}
			return &iam.ListAttachedRolePoliciesOutput{}, nil
		},
		DetachRolePolicyFunc: func(_ context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
			c.add("detach " + aws.ToString(in.RoleName))
			return &iam.DetachRolePolicyOutput{}, nil
		},
		ListRolePoliciesFunc: func(context.Context, *iam.ListRolePoliciesInput, ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error) {
			return &iam.ListRolePoliciesOutput{}, nil
		},
		DeleteRoleFunc: func(_ context.Context, in *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
			c.add("delete " + aws.ToString(in.RoleName))
			return &iam.DeleteRoleOutput{}, nil
		},
	}

	deleted, err := NewProfileKind(client, ns).SweepRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"lobby", "proxy"}, deleted)
	assert.Equal(t, []string{"delete lobby", "detach proxy", "delete proxy"}, c.log)
}

// ══════════════════════════════════════════════════════════════════════════════
// Users
// ══════════════════════════════════════════════════════════════════════════════

func TestListUsers(t *testing.T) {
	client := &awsapitest.IAM{
		ListUsersFunc: func(_ context.Context, in *iam.ListUsersInput, _ ...func(*iam.Options)) (*iam.ListUsersOutput, error) {
			assert.Equal(t, "/mc/", aws.ToString(in.PathPrefix))
			return &iam.ListUsersOutput{Users: []iamtypes.User{
				{UserName: aws.String("zed")},
				{UserName: aws.String("alice")},
			}}, nil
		},
	}

	users, err := ListUsers(context.Background(), client, ns)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, "zed", users[1].Name)
}
