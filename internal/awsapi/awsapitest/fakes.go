// Package awsapitest provides func-field fakes of the awsapi client
// interfaces. Calling a method whose func is unset returns an error.
package awsapitest

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/yairfalse/ec2mc/internal/awsapi"
)

func notMocked(method string) error {
	return fmt.Errorf("awsapitest: %s not mocked", method)
}

var _ awsapi.EC2API = (*EC2)(nil)

// EC2 fakes awsapi.EC2API.
type EC2 struct {
	DescribeRegionsFunc               func(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeAvailabilityZonesFunc     func(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)
	CreateTagsFunc                    func(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	DescribeInstancesFunc             func(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StartInstancesFunc                func(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstancesFunc                 func(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	ModifyInstanceAttributeFunc       func(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error)
	DescribeKeyPairsFunc              func(ctx context.Context, params *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
	ImportKeyPairFunc                 func(ctx context.Context, params *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DeleteKeyPairFunc                 func(ctx context.Context, params *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error)
	DescribeAddressesFunc             func(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
	AllocateAddressFunc               func(ctx context.Context, params *ec2.AllocateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AllocateAddressOutput, error)
	AssociateAddressFunc              func(ctx context.Context, params *ec2.AssociateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AssociateAddressOutput, error)
	DisassociateAddressFunc           func(ctx context.Context, params *ec2.DisassociateAddressInput, optFns ...func(*ec2.Options)) (*ec2.DisassociateAddressOutput, error)
	ReleaseAddressFunc                func(ctx context.Context, params *ec2.ReleaseAddressInput, optFns ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error)
	DescribeVpcsFunc                  func(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	CreateVpcFunc                     func(ctx context.Context, params *ec2.CreateVpcInput, optFns ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error)
	ModifyVpcAttributeFunc            func(ctx context.Context, params *ec2.ModifyVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVpcAttributeOutput, error)
	DeleteVpcFunc                     func(ctx context.Context, params *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
	DescribeInternetGatewaysFunc      func(ctx context.Context, params *ec2.DescribeInternetGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error)
	CreateInternetGatewayFunc         func(ctx context.Context, params *ec2.CreateInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error)
	AttachInternetGatewayFunc         func(ctx context.Context, params *ec2.AttachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.AttachInternetGatewayOutput, error)
	DetachInternetGatewayFunc         func(ctx context.Context, params *ec2.DetachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error)
	DeleteInternetGatewayFunc         func(ctx context.Context, params *ec2.DeleteInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error)
	DescribeRouteTablesFunc           func(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
	CreateRouteFunc                   func(ctx context.Context, params *ec2.CreateRouteInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error)
	DescribeSubnetsFunc               func(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	CreateSubnetFunc                  func(ctx context.Context, params *ec2.CreateSubnetInput, optFns ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error)
	ModifySubnetAttributeFunc         func(ctx context.Context, params *ec2.ModifySubnetAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifySubnetAttributeOutput, error)
	DeleteSubnetFunc                  func(ctx context.Context, params *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
	DescribeSecurityGroupsFunc        func(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	CreateSecurityGroupFunc           func(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngressFunc func(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	RevokeSecurityGroupIngressFunc    func(ctx context.Context, params *ec2.RevokeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error)
	DeleteSecurityGroupFunc           func(ctx context.Context, params *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error)
}

func (m *EC2) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	if m.DescribeRegionsFunc == nil {
		return nil, notMocked("DescribeRegions")
	}
	return m.DescribeRegionsFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	if m.DescribeAvailabilityZonesFunc == nil {
		return nil, notMocked("DescribeAvailabilityZones")
	}
	return m.DescribeAvailabilityZonesFunc(ctx, params, optFns...)
}

func (m *EC2) CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	if m.CreateTagsFunc == nil {
		return nil, notMocked("CreateTags")
	}
	return m.CreateTagsFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if m.DescribeInstancesFunc == nil {
		return nil, notMocked("DescribeInstances")
	}
	return m.DescribeInstancesFunc(ctx, params, optFns...)
}

func (m *EC2) StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	if m.StartInstancesFunc == nil {
		return nil, notMocked("StartInstances")
	}
	return m.StartInstancesFunc(ctx, params, optFns...)
}

func (m *EC2) StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	if m.StopInstancesFunc == nil {
		return nil, notMocked("StopInstances")
	}
	return m.StopInstancesFunc(ctx, params, optFns...)
}

func (m *EC2) ModifyInstanceAttribute(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error) {
	if m.ModifyInstanceAttributeFunc == nil {
		return nil, notMocked("ModifyInstanceAttribute")
	}
	return m.ModifyInstanceAttributeFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeKeyPairs(ctx context.Context, params *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if m.DescribeKeyPairsFunc == nil {
		return nil, notMocked("DescribeKeyPairs")
	}
	return m.DescribeKeyPairsFunc(ctx, params, optFns...)
}

func (m *EC2) ImportKeyPair(ctx context.Context, params *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
	if m.ImportKeyPairFunc == nil {
		return nil, notMocked("ImportKeyPair")
	}
	return m.ImportKeyPairFunc(ctx, params, optFns...)
}

func (m *EC2) DeleteKeyPair(ctx context.Context, params *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error) {
	if m.DeleteKeyPairFunc == nil {
		return nil, notMocked("DeleteKeyPair")
	}
	return m.DeleteKeyPairFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeAddresses(ctx context.Context, params *ec2.DescribeAddressesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error) {
	if m.DescribeAddressesFunc == nil {
		return nil, notMocked("DescribeAddresses")
	}
	return m.DescribeAddressesFunc(ctx, params, optFns...)
}

func (m *EC2) AllocateAddress(ctx context.Context, params *ec2.AllocateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AllocateAddressOutput, error) {
	if m.AllocateAddressFunc == nil {
		return nil, notMocked("AllocateAddress")
	}
	return m.AllocateAddressFunc(ctx, params, optFns...)
}

func (m *EC2) AssociateAddress(ctx context.Context, params *ec2.AssociateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AssociateAddressOutput, error) {
	if m.AssociateAddressFunc == nil {
		return nil, notMocked("AssociateAddress")
	}
	return m.AssociateAddressFunc(ctx, params, optFns...)
}

func (m *EC2) DisassociateAddress(ctx context.Context, params *ec2.DisassociateAddressInput, optFns ...func(*ec2.Options)) (*ec2.DisassociateAddressOutput, error) {
	if m.DisassociateAddressFunc == nil {
		return nil, notMocked("DisassociateAddress")
	}
	return m.DisassociateAddressFunc(ctx, params, optFns...)
}

func (m *EC2) ReleaseAddress(ctx context.Context, params *ec2.ReleaseAddressInput, optFns ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error) {
	if m.ReleaseAddressFunc == nil {
		return nil, notMocked("ReleaseAddress")
	}
	return m.ReleaseAddressFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	if m.DescribeVpcsFunc == nil {
		return nil, notMocked("DescribeVpcs")
	}
	return m.DescribeVpcsFunc(ctx, params, optFns...)
}

func (m *EC2) CreateVpc(ctx context.Context, params *ec2.CreateVpcInput, optFns ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error) {
	if m.CreateVpcFunc == nil {
		return nil, notMocked("CreateVpc")
	}
	return m.CreateVpcFunc(ctx, params, optFns...)
}

func (m *EC2) ModifyVpcAttribute(ctx context.Context, params *ec2.ModifyVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVpcAttributeOutput, error) {
	if m.ModifyVpcAttributeFunc == nil {
		return nil, notMocked("ModifyVpcAttribute")
	}
	return m.ModifyVpcAttributeFunc(ctx, params, optFns...)
}

func (m *EC2) DeleteVpc(ctx context.Context, params *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
	if m.DeleteVpcFunc == nil {
		return nil, notMocked("DeleteVpc")
	}
	return m.DeleteVpcFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeInternetGateways(ctx context.Context, params *ec2.DescribeInternetGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error) {
	if m.DescribeInternetGatewaysFunc == nil {
		return nil, notMocked("DescribeInternetGateways")
	}
	return m.DescribeInternetGatewaysFunc(ctx, params, optFns...)
}

func (m *EC2) CreateInternetGateway(ctx context.Context, params *ec2.CreateInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error) {
	if m.CreateInternetGatewayFunc == nil {
		return nil, notMocked("CreateInternetGateway")
	}
	return m.CreateInternetGatewayFunc(ctx, params, optFns...)
}

func (m *EC2) AttachInternetGateway(ctx context.Context, params *ec2.AttachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.AttachInternetGatewayOutput, error) {
	if m.AttachInternetGatewayFunc == nil {
		return nil, notMocked("AttachInternetGateway")
	}
	return m.AttachInternetGatewayFunc(ctx, params, optFns...)
}

func (m *EC2) DetachInternetGateway(ctx context.Context, params *ec2.DetachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error) {
	if m.DetachInternetGatewayFunc == nil {
		return nil, notMocked("DetachInternetGateway")
	}
	return m.DetachInternetGatewayFunc(ctx, params, optFns...)
}

func (m *EC2) DeleteInternetGateway(ctx context.Context, params *ec2.DeleteInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error) {
	if m.DeleteInternetGatewayFunc == nil {
		return nil, notMocked("DeleteInternetGateway")
	}
	return m.DeleteInternetGatewayFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeRouteTables(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	if m.DescribeRouteTablesFunc == nil {
		return nil, notMocked("DescribeRouteTables")
	}
	return m.DescribeRouteTablesFunc(ctx, params, optFns...)
}

func (m *EC2) CreateRoute(ctx context.Context, params *ec2.CreateRouteInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
	if m.CreateRouteFunc == nil {
		return nil, notMocked("CreateRoute")
	}
	return m.CreateRouteFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	if m.DescribeSubnetsFunc == nil {
		return nil, notMocked("DescribeSubnets")
	}
	return m.DescribeSubnetsFunc(ctx, params, optFns...)
}

func (m *EC2) CreateSubnet(ctx context.Context, params *ec2.CreateSubnetInput, optFns ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error) {
	if m.CreateSubnetFunc == nil {
		return nil, notMocked("CreateSubnet")
	}
	return m.CreateSubnetFunc(ctx, params, optFns...)
}

func (m *EC2) ModifySubnetAttribute(ctx context.Context, params *ec2.ModifySubnetAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifySubnetAttributeOutput, error) {
	if m.ModifySubnetAttributeFunc == nil {
		return nil, notMocked("ModifySubnetAttribute")
	}
	return m.ModifySubnetAttributeFunc(ctx, params, optFns...)
}

func (m *EC2) DeleteSubnet(ctx context.Context, params *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
	if m.DeleteSubnetFunc == nil {
		return nil, notMocked("DeleteSubnet")
	}
	return m.DeleteSubnetFunc(ctx, params, optFns...)
}

func (m *EC2) DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if m.DescribeSecurityGroupsFunc == nil {
		return nil, notMocked("DescribeSecurityGroups")
	}
	return m.DescribeSecurityGroupsFunc(ctx, params, optFns...)
}

func (m *EC2) CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	if m.CreateSecurityGroupFunc == nil {
		return nil, notMocked("CreateSecurityGroup")
	}
	return m.CreateSecurityGroupFunc(ctx, params, optFns...)
}

func (m *EC2) AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	if m.AuthorizeSecurityGroupIngressFunc == nil {
		return nil, notMocked("AuthorizeSecurityGroupIngress")
	}
	return m.AuthorizeSecurityGroupIngressFunc(ctx, params, optFns...)
}

func (m *EC2) RevokeSecurityGroupIngress(ctx context.Context, params *ec2.RevokeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error) {
	if m.RevokeSecurityGroupIngressFunc == nil {
		return nil, notMocked("RevokeSecurityGroupIngress")
	}
	return m.RevokeSecurityGroupIngressFunc(ctx, params, optFns...)
}

func (m *EC2) DeleteSecurityGroup(ctx context.Context, params *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	if m.DeleteSecurityGroupFunc == nil {
		return nil, notMocked("DeleteSecurityGroup")
	}
	return m.DeleteSecurityGroupFunc(ctx, params, optFns...)
}

var _ awsapi.IAMAPI = (*IAM)(nil)

// IAM fakes awsapi.IAMAPI.
type IAM struct {
	SimulatePrincipalPolicyFunc       func(ctx context.Context, params *iam.SimulatePrincipalPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulatePrincipalPolicyOutput, error)
	ListPoliciesFunc                  func(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error)
	GetPolicyVersionFunc              func(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error)
	ListPolicyVersionsFunc            func(ctx context.Context, params *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error)
	CreatePolicyFunc                  func(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error)
	CreatePolicyVersionFunc           func(ctx context.Context, params *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error)
	DeletePolicyVersionFunc           func(ctx context.Context, params *iam.DeletePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error)
	DeletePolicyFunc                  func(ctx context.Context, params *iam.DeletePolicyInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyOutput, error)
	ListEntitiesForPolicyFunc         func(ctx context.Context, params *iam.ListEntitiesForPolicyInput, optFns ...func(*iam.Options)) (*iam.ListEntitiesForPolicyOutput, error)
	ListGroupsFunc                    func(ctx context.Context, params *iam.ListGroupsInput, optFns ...func(*iam.Options)) (*iam.ListGroupsOutput, error)
	GetGroupFunc                      func(ctx context.Context, params *iam.GetGroupInput, optFns ...func(*iam.Options)) (*iam.GetGroupOutput, error)
	CreateGroupFunc                   func(ctx context.Context, params *iam.CreateGroupInput, optFns ...func(*iam.Options)) (*iam.CreateGroupOutput, error)
	DeleteGroupFunc                   func(ctx context.Context, params *iam.DeleteGroupInput, optFns ...func(*iam.Options)) (*iam.DeleteGroupOutput, error)
	RemoveUserFromGroupFunc           func(ctx context.Context, params *iam.RemoveUserFromGroupInput, optFns ...func(*iam.Options)) (*iam.RemoveUserFromGroupOutput, error)
	ListAttachedGroupPoliciesFunc     func(ctx context.Context, params *iam.ListAttachedGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedGroupPoliciesOutput, error)
	AttachGroupPolicyFunc             func(ctx context.Context, params *iam.AttachGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachGroupPolicyOutput, error)
	DetachGroupPolicyFunc             func(ctx context.Context, params *iam.DetachGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachGroupPolicyOutput, error)
	ListGroupPoliciesFunc             func(ctx context.Context, params *iam.ListGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListGroupPoliciesOutput, error)
	DeleteGroupPolicyFunc             func(ctx context.Context, params *iam.DeleteGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteGroupPolicyOutput, error)
	ListInstanceProfilesFunc          func(ctx context.Context, params *iam.ListInstanceProfilesInput, optFns ...func(*iam.Options)) (*iam.ListInstanceProfilesOutput, error)
	CreateInstanceProfileFunc         func(ctx context.Context, params *iam.CreateInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.CreateInstanceProfileOutput, error)
	DeleteInstanceProfileFunc         func(ctx context.Context, params *iam.DeleteInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteInstanceProfileOutput, error)
	AddRoleToInstanceProfileFunc      func(ctx context.Context, params *iam.AddRoleToInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.AddRoleToInstanceProfileOutput, error)
	RemoveRoleFromInstanceProfileFunc func(ctx context.Context, params *iam.RemoveRoleFromInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.RemoveRoleFromInstanceProfileOutput, error)
	ListRolesFunc                     func(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
	CreateRoleFunc                    func(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	DeleteRoleFunc                    func(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
	ListAttachedRolePoliciesFunc      func(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
	AttachRolePolicyFunc              func(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	DetachRolePolicyFunc              func(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error)
	ListRolePoliciesFunc              func(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error)
	DeleteRolePolicyFunc              func(ctx context.Context, params *iam.DeleteRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteRolePolicyOutput, error)
	ListUsersFunc                     func(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error)
	DetachUserPolicyFunc              func(ctx context.Context, params *iam.DetachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachUserPolicyOutput, error)
}

func (m *IAM) SimulatePrincipalPolicy(ctx context.Context, params *iam.SimulatePrincipalPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulatePrincipalPolicyOutput, error) {
	if m.SimulatePrincipalPolicyFunc == nil {
		return nil, notMocked("SimulatePrincipalPolicy")
	}
	return m.SimulatePrincipalPolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	if m.ListPoliciesFunc == nil {
		return nil, notMocked("ListPolicies")
	}
	return m.ListPoliciesFunc(ctx, params, optFns...)
}

func (m *IAM) GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error) {
	if m.GetPolicyVersionFunc == nil {
		return nil, notMocked("GetPolicyVersion")
	}
	return m.GetPolicyVersionFunc(ctx, params, optFns...)
}

func (m *IAM) ListPolicyVersions(ctx context.Context, params *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
	if m.ListPolicyVersionsFunc == nil {
		return nil, notMocked("ListPolicyVersions")
	}
	return m.ListPolicyVersionsFunc(ctx, params, optFns...)
}

func (m *IAM) CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	if m.CreatePolicyFunc == nil {
		return nil, notMocked("CreatePolicy")
	}
	return m.CreatePolicyFunc(ctx, params, optFns...)
}

func (m *IAM) CreatePolicyVersion(ctx context.Context, params *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
	if m.CreatePolicyVersionFunc == nil {
		return nil, notMocked("CreatePolicyVersion")
	}
	return m.CreatePolicyVersionFunc(ctx, params, optFns...)
}

func (m *IAM) DeletePolicyVersion(ctx context.Context, params *iam.DeletePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
	if m.DeletePolicyVersionFunc == nil {
		return nil, notMocked("DeletePolicyVersion")
	}
	return m.DeletePolicyVersionFunc(ctx, params, optFns...)
}

func (m *IAM) DeletePolicy(ctx context.Context, params *iam.DeletePolicyInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	if m.DeletePolicyFunc == nil {
		return nil, notMocked("DeletePolicy")
	}
	return m.DeletePolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListEntitiesForPolicy(ctx context.Context, params *iam.ListEntitiesForPolicyInput, optFns ...func(*iam.Options)) (*iam.ListEntitiesForPolicyOutput, error) {
	if m.ListEntitiesForPolicyFunc == nil {
		return nil, notMocked("ListEntitiesForPolicy")
	}
	return m.ListEntitiesForPolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListGroups(ctx context.Context, params *iam.ListGroupsInput, optFns ...func(*iam.Options)) (*iam.ListGroupsOutput, error) {
	if m.ListGroupsFunc == nil {
		return nil, notMocked("ListGroups")
	}
	return m.ListGroupsFunc(ctx, params, optFns...)
}

func (m *IAM) GetGroup(ctx context.Context, params *iam.GetGroupInput, optFns ...func(*iam.Options)) (*iam.GetGroupOutput, error) {
	if m.GetGroupFunc == nil {
		return nil, notMocked("GetGroup")
	}
	return m.GetGroupFunc(ctx, params, optFns...)
}

func (m *IAM) CreateGroup(ctx context.Context, params *iam.CreateGroupInput, optFns ...func(*iam.Options)) (*iam.CreateGroupOutput, error) {
	if m.CreateGroupFunc == nil {
		return nil, notMocked("CreateGroup")
	}
	return m.CreateGroupFunc(ctx, params, optFns...)
}

func (m *IAM) DeleteGroup(ctx context.Context, params *iam.DeleteGroupInput, optFns ...func(*iam.Options)) (*iam.DeleteGroupOutput, error) {
	if m.DeleteGroupFunc == nil {
		return nil, notMocked("DeleteGroup")
	}
	return m.DeleteGroupFunc(ctx, params, optFns...)
}

func (m *IAM) RemoveUserFromGroup(ctx context.Context, params *iam.RemoveUserFromGroupInput, optFns ...func(*iam.Options)) (*iam.RemoveUserFromGroupOutput, error) {
	if m.RemoveUserFromGroupFunc == nil {
		return nil, notMocked("RemoveUserFromGroup")
	}
	return m.RemoveUserFromGroupFunc(ctx, params, optFns...)
}

func (m *IAM) ListAttachedGroupPolicies(ctx context.Context, params *iam.ListAttachedGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedGroupPoliciesOutput, error) {
	if m.ListAttachedGroupPoliciesFunc == nil {
		return nil, notMocked("ListAttachedGroupPolicies")
	}
	return m.ListAttachedGroupPoliciesFunc(ctx, params, optFns...)
}

func (m *IAM) AttachGroupPolicy(ctx context.Context, params *iam.AttachGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachGroupPolicyOutput, error) {
	if m.AttachGroupPolicyFunc == nil {
		return nil, notMocked("AttachGroupPolicy")
	}
	return m.AttachGroupPolicyFunc(ctx, params, optFns...)
}

func (m *IAM) DetachGroupPolicy(ctx context.Context, params *iam.DetachGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachGroupPolicyOutput, error) {
	if m.DetachGroupPolicyFunc == nil {
		return nil, notMocked("DetachGroupPolicy")
	}
	return m.DetachGroupPolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListGroupPolicies(ctx context.Context, params *iam.ListGroupPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListGroupPoliciesOutput, error) {
	if m.ListGroupPoliciesFunc == nil {
		return nil, notMocked("ListGroupPolicies")
	}
	return m.ListGroupPoliciesFunc(ctx, params, optFns...)
}

func (m *IAM) DeleteGroupPolicy(ctx context.Context, params *iam.DeleteGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteGroupPolicyOutput, error) {
	if m.DeleteGroupPolicyFunc == nil {
		return nil, notMocked("DeleteGroupPolicy")
	}
	return m.DeleteGroupPolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListInstanceProfiles(ctx context.Context, params *iam.ListInstanceProfilesInput, optFns ...func(*iam.Options)) (*iam.ListInstanceProfilesOutput, error) {
	if m.ListInstanceProfilesFunc == nil {
		return nil, notMocked("ListInstanceProfiles")
	}
	return m.ListInstanceProfilesFunc(ctx, params, optFns...)
}

func (m *IAM) CreateInstanceProfile(ctx context.Context, params *iam.CreateInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.CreateInstanceProfileOutput, error) {
	if m.CreateInstanceProfileFunc == nil {
		return nil, notMocked("CreateInstanceProfile")
	}
	return m.CreateInstanceProfileFunc(ctx, params, optFns...)
}

func (m *IAM) DeleteInstanceProfile(ctx context.Context, params *iam.DeleteInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteInstanceProfileOutput, error) {
	if m.DeleteInstanceProfileFunc == nil {
		return nil, notMocked("DeleteInstanceProfile")
	}
	return m.DeleteInstanceProfileFunc(ctx, params, optFns...)
}

func (m *IAM) AddRoleToInstanceProfile(ctx context.Context, params *iam.AddRoleToInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.AddRoleToInstanceProfileOutput, error) {
	if m.AddRoleToInstanceProfileFunc == nil {
		return nil, notMocked("AddRoleToInstanceProfile")
	}
	return m.AddRoleToInstanceProfileFunc(ctx, params, optFns...)
}

func (m *IAM) RemoveRoleFromInstanceProfile(ctx context.Context, params *iam.RemoveRoleFromInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.RemoveRoleFromInstanceProfileOutput, error) {
	if m.RemoveRoleFromInstanceProfileFunc == nil {
		return nil, notMocked("RemoveRoleFromInstanceProfile")
	}
	return m.RemoveRoleFromInstanceProfileFunc(ctx, params, optFns...)
}

func (m *IAM) CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	if m.CreateRoleFunc == nil {
		return nil, notMocked("CreateRole")
	}
	return m.CreateRoleFunc(ctx, params, optFns...)
}

func (m *IAM) ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	if m.ListRolesFunc == nil {
		return nil, notMocked("ListRoles")
	}
	return m.ListRolesFunc(ctx, params, optFns...)
}

func (m *IAM) DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	if m.DeleteRoleFunc == nil {
		return nil, notMocked("DeleteRole")
	}
	return m.DeleteRoleFunc(ctx, params, optFns...)
}

func (m *IAM) ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	if m.ListAttachedRolePoliciesFunc == nil {
		return nil, notMocked("ListAttachedRolePolicies")
	}
	return m.ListAttachedRolePoliciesFunc(ctx, params, optFns...)
}

func (m *IAM) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	if m.AttachRolePolicyFunc == nil {
		return nil, notMocked("AttachRolePolicy")
	}
	return m.AttachRolePolicyFunc(ctx, params, optFns...)
}

func (m *IAM) DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	if m.DetachRolePolicyFunc == nil {
		return nil, notMocked("DetachRolePolicy")
	}
	return m.DetachRolePolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListRolePolicies(ctx context.Context, params *iam.ListRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListRolePoliciesOutput, error) {
	if m.ListRolePoliciesFunc == nil {
		return nil, notMocked("ListRolePolicies")
	}
	return m.ListRolePoliciesFunc(ctx, params, optFns...)
}

func (m *IAM) DeleteRolePolicy(ctx context.Context, params *iam.DeleteRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteRolePolicyOutput, error) {
	if m.DeleteRolePolicyFunc == nil {
		return nil, notMocked("DeleteRolePolicy")
	}
	return m.DeleteRolePolicyFunc(ctx, params, optFns...)
}

func (m *IAM) ListUsers(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error) {
	if m.ListUsersFunc == nil {
		return nil, notMocked("ListUsers")
	}
	return m.ListUsersFunc(ctx, params, optFns...)
}

func (m *IAM) DetachUserPolicy(ctx context.Context, params *iam.DetachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachUserPolicyOutput, error) {
	if m.DetachUserPolicyFunc == nil {
		return nil, notMocked("DetachUserPolicy")
	}
	return m.DetachUserPolicyFunc(ctx, params, optFns...)
}

var _ awsapi.STSAPI = (*STS)(nil)

// STS fakes awsapi.STSAPI.
type STS struct {
	GetCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func (m *STS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if m.GetCallerIdentityFunc == nil {
		return nil, notMocked("GetCallerIdentity")
	}
	return m.GetCallerIdentityFunc(ctx, params, optFns...)
}

// Factory fakes awsapi.ClientFactory. EC2ByRegion takes precedence over the
// shared EC2 fake.
type Factory struct {
	EC2Client   *EC2
	EC2ByRegion map[string]*EC2
	IAMClient   *IAM
	STSClient   *STS
}

var _ awsapi.ClientFactory = (*Factory)(nil)

// EC2 returns the fake for region.
func (f *Factory) EC2(region string) awsapi.EC2API {
	if c, ok := f.EC2ByRegion[region]; ok {
		return c
	}
	if f.EC2Client == nil {
		return &EC2{}
	}
	return f.EC2Client
}

// IAM returns the IAM fake.
func (f *Factory) IAM() awsapi.IAMAPI {
	if f.IAMClient == nil {
		return &IAM{}
	}
	return f.IAMClient
}

// STS returns the STS fake.
func (f *Factory) STS() awsapi.STSAPI {
	if f.STSClient == nil {
		return &STS{}
	}
	return f.STSClient
}
