// Package network reconciles the namespace VPC and security groups in every
// allowed region.
package network

import (
	"context"
	"fmt"
	"net/netip"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/prober"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

const (
	// VPCCIDR is the address block of every namespace VPC.
	VPCCIDR = "10.0.0.0/16"
	// MaxSubnets caps the /20 subnets carved from the VPC block.
	MaxSubnets = 16
)

// Actions are needed to check, upload and delete namespace networking.
var Actions = []string{
	"ec2:AttachInternetGateway",
	"ec2:AuthorizeSecurityGroupIngress",
	"ec2:CreateInternetGateway",
	"ec2:CreateRoute",
	"ec2:CreateSecurityGroup",
	"ec2:CreateSubnet",
	"ec2:CreateTags",
	"ec2:CreateVpc",
	"ec2:DeleteInternetGateway",
	"ec2:DeleteSecurityGroup",
	"ec2:DeleteSubnet",
	"ec2:DeleteVpc",
	"ec2:DescribeAvailabilityZones",
	"ec2:DescribeInternetGateways",
	"ec2:DescribeRouteTables",
	"ec2:DescribeSecurityGroups",
	"ec2:DescribeSubnets",
	"ec2:DescribeVpcs",
	"ec2:DetachInternetGateway",
	"ec2:ModifySubnetAttribute",
	"ec2:ModifyVpcAttribute",
	"ec2:RevokeSecurityGroupIngress",
}

// VPC is the desired namespace VPC of a region.
type VPC struct {
	CIDR string
}

// RemoteVPC is the namespace VPC found in a region.
type RemoteVPC struct {
	Region           string
	ID               string
	CIDR             string
	Subnets          []string
	InternetGateways []string
}

// VPCKind reconciles one namespace VPC per region. Names are regions.
type VPCKind struct {
	clients   awsapi.ClientFactory
	namespace string
	regions   []string

	// Tagging bounds the wait for new resources to become taggable.
	Tagging awsapi.Policy
}

var _ reconcile.Kind[VPC, RemoteVPC] = (*VPCKind)(nil)

// NewVPCKind returns the VPC kind for namespace over regions.
func NewVPCKind(clients awsapi.ClientFactory, namespace string, regions []string) *VPCKind {
	return &VPCKind{clients: clients, namespace: namespace, regions: regions, Tagging: awsapi.TagPolicy}
}

// Name implements reconcile.Kind.
func (k *VPCKind) Name() string { return "vpc" }

// Locals declares a VPC in every region.
func (k *VPCKind) Locals() map[string]VPC {
	out := make(map[string]VPC, len(k.regions))
	for _, r := range k.regions {
		out[r] = VPC{CIDR: VPCCIDR}
	}
	return out
}

// ListRemote finds the namespace VPC of every region concurrently.
func (k *VPCKind) ListRemote(ctx context.Context) (map[string]RemoteVPC, error) {
	found, err := prober.Regions(ctx, k.regions, func(ctx context.Context, region string) (*RemoteVPC, error) {
		return k.find(ctx, region)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]RemoteVPC)
	for region, v := range found {
		if v != nil {
			out[region] = *v
		}
	}
	return out, nil
}

func (k *VPCKind) find(ctx context.Context, region string) (*RemoteVPC, error) {
	client := k.clients.EC2(region)

	vpcID, cidr, err := namespaceVPC(ctx, client, k.namespace)
	if err != nil || vpcID == "" {
		return nil, err
	}

	v := &RemoteVPC{Region: region, ID: vpcID, CIDR: cidr}
	if v.Subnets, err = subnetIDs(ctx, client, vpcID); err != nil {
		return nil, err
	}
	if v.InternetGateways, err = gatewayIDs(ctx, client, vpcID); err != nil {
		return nil, err
	}
	return v, nil
}

// Equal requires the expected block, an internet gateway and at least one
// subnet.
func (k *VPCKind) Equal(_ context.Context, _ string, local VPC, remote RemoteVPC) (bool, error) {
	return remote.CIDR == local.CIDR && len(remote.InternetGateways) > 0 && len(remote.Subnets) > 0, nil
}

// Create builds the VPC, internet gateway, default route and one public
// subnet per available zone. Every piece is tagged with the namespace.
func (k *VPCKind) Create(ctx context.Context, region string, local VPC) error {
	client := k.clients.EC2(region)
	tags := awsapi.NamespaceTags(k.namespace, awsapi.NameTagValue(k.namespace))
	logger := log.With().Str("region", region).Logger()

	created, err := client.CreateVpc(ctx, &ec2.CreateVpcInput{CidrBlock: aws.String(local.CIDR)})
	if err != nil {
		return fmt.Errorf("create vpc: %w", err)
	}
	vpcID := aws.ToString(created.Vpc.VpcId)
	if err := awsapi.TagWithRetry(ctx, client, k.Tagging, "vpc "+vpcID, []string{vpcID}, tags); err != nil {
		return err
	}
	if _, err := client.ModifyVpcAttribute(ctx, &ec2.ModifyVpcAttributeInput{
		VpcId:              aws.String(vpcID),
		EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
	}); err != nil {
		return fmt.Errorf("enable dns hostnames: %w", err)
	}
	logger.Debug().Ctx(ctx).Str("vpc", vpcID).Msg("vpc created")

	igw, err := client.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{})
	if err != nil {
		return fmt.Errorf("create internet gateway: %w", err)
	}
	igwID := aws.ToString(igw.InternetGateway.InternetGatewayId)
	if err := awsapi.TagWithRetry(ctx, client, k.Tagging, "internet gateway "+igwID, []string{igwID}, tags); err != nil {
		return err
	}
	if _, err := client.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(igwID),
		VpcId:             aws.String(vpcID),
	}); err != nil {
		return fmt.Errorf("attach internet gateway: %w", err)
	}

	tables, err := client.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		Filters: []ec2types.Filter{
			awsapi.Filter("vpc-id", vpcID),
			awsapi.Filter("association.main", "true"),
		},
	})
	if err != nil {
		return fmt.Errorf("describe route tables: %w", err)
	}
	if len(tables.RouteTables) == 0 {
		return fmt.Errorf("vpc %s has no main route table", vpcID)
	}
	rtID := aws.ToString(tables.RouteTables[0].RouteTableId)
	if err := awsapi.TagWithRetry(ctx, client, k.Tagging, "route table "+rtID, []string{rtID}, tags); err != nil {
		return err
	}
	if _, err := client.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         aws.String(rtID),
		DestinationCidrBlock: aws.String("0.0.0.0/0"),
		GatewayId:            aws.String(igwID),
	}); err != nil {
		return fmt.Errorf("create default route: %w", err)
	}

	zones, err := availableZones(ctx, client)
	if err != nil {
		return err
	}
	blocks, err := SubnetBlocks(local.CIDR, len(zones))
	if err != nil {
		return err
	}
	for i, zone := range zones[:len(blocks)] {
		subnet, err := client.CreateSubnet(ctx, &ec2.CreateSubnetInput{
			VpcId:            aws.String(vpcID),
			CidrBlock:        aws.String(blocks[i]),
			AvailabilityZone: aws.String(zone),
		})
		if err != nil {
			return fmt.Errorf("create subnet in %s: %w", zone, err)
		}
		subnetID := aws.ToString(subnet.Subnet.SubnetId)
		if err := awsapi.TagWithRetry(ctx, client, k.Tagging, "subnet "+subnetID, []string{subnetID}, tags); err != nil {
			return err
		}
		if _, err := client.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
			SubnetId:            aws.String(subnetID),
			MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
		}); err != nil {
			return fmt.Errorf("enable public ip on %s: %w", subnetID, err)
		}
	}

	logger.Info().Ctx(ctx).Str("vpc", vpcID).Int("subnets", len(blocks)).Msg("vpc ready")
	return nil
}

// Update rebuilds an incomplete VPC.
func (k *VPCKind) Update(ctx context.Context, region string, local VPC, remote RemoteVPC) error {
	if err := k.Delete(ctx, region, remote); err != nil {
		return err
	}
	return k.Create(ctx, region, local)
}

// Delete removes namespace security groups, subnets and internet gateways,
// then the VPC.
func (k *VPCKind) Delete(ctx context.Context, region string, remote RemoteVPC) error {
	client := k.clients.EC2(region)

	groups, err := describeGroups(ctx, client, awsapi.Filter("vpc-id", remote.ID), awsapi.NamespaceFilter(k.namespace))
	if err != nil {
		return err
	}
	for _, g := range groups {
		if aws.ToString(g.GroupName) == "default" {
			continue
		}
		if _, err := client.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: g.GroupId}); err != nil {
			return fmt.Errorf("delete security group %s: %w", aws.ToString(g.GroupName), err)
		}
	}

	for _, id := range remote.Subnets {
		if _, err := client.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: aws.String(id)}); err != nil {
			return fmt.Errorf("delete subnet %s: %w", id, err)
		}
	}

	for _, id := range remote.InternetGateways {
		if _, err := client.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
			InternetGatewayId: aws.String(id),
			VpcId:             aws.String(remote.ID),
		}); err != nil {
			return fmt.Errorf("detach internet gateway %s: %w", id, err)
		}
		if _, err := client.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{InternetGatewayId: aws.String(id)}); err != nil {
			return fmt.Errorf("delete internet gateway %s: %w", id, err)
		}
	}

	if _, err := client.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(remote.ID)}); err != nil {
		return fmt.Errorf("delete vpc %s: %w", remote.ID, err)
	}
	return nil
}

// SubnetBlocks carves up to n /20 blocks out of a /16, capped at MaxSubnets.
func SubnetBlocks(cidr string, n int) ([]string, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cidr, err)
	}
	if !prefix.Addr().Is4() || prefix.Bits() != 16 {
		return nil, fmt.Errorf("%s is not an IPv4 /16", cidr)
	}
	n = min(n, MaxSubnets)

	base := prefix.Masked().Addr().As4()
	out := make([]string, 0, n)
	for i := range n {
		b := base
		b[2] = byte(i << 4)
		out = append(out, netip.PrefixFrom(netip.AddrFrom4(b), 20).String())
	}
	return out, nil
}

func namespaceVPC(ctx context.Context, client awsapi.EC2API, namespace string) (id, cidr string, err error) {
	output, err := client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []ec2types.Filter{awsapi.NamespaceFilter(namespace)},
	})
	if err != nil {
		return "", "", fmt.Errorf("describe vpcs: %w", err)
	}
	if len(output.Vpcs) == 0 {
		return "", "", nil
	}
	if len(output.Vpcs) > 1 {
		log.Warn().Ctx(ctx).Str("namespace", namespace).Int("count", len(output.Vpcs)).Msg("more than one namespace vpc, using the first")
	}
	vpc := output.Vpcs[0]
	return aws.ToString(vpc.VpcId), aws.ToString(vpc.CidrBlock), nil
}

func subnetIDs(ctx context.Context, client awsapi.EC2API, vpcID string) ([]string, error) {
	var ids []string
	paginator := ec2.NewDescribeSubnetsPaginator(client, &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{awsapi.Filter("vpc-id", vpcID)},
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe subnets: %w", err)
		}
		for _, s := range output.Subnets {
			ids = append(ids, aws.ToString(s.SubnetId))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func gatewayIDs(ctx context.Context, client awsapi.EC2API, vpcID string) ([]string, error) {
	output, err := client.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		Filters: []ec2types.Filter{awsapi.Filter("attachment.vpc-id", vpcID)},
	})
	if err != nil {
		return nil, fmt.Errorf("describe internet gateways: %w", err)
	}
	ids := make([]string, 0, len(output.InternetGateways))
	for _, g := range output.InternetGateways {
		ids = append(ids, aws.ToString(g.InternetGatewayId))
	}
	sort.Strings(ids)
	return ids, nil
}

func availableZones(ctx context.Context, client awsapi.EC2API) ([]string, error) {
	output, err := client.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{awsapi.Filter("state", "available")},
	})
	if err != nil {
		return nil, fmt.Errorf("describe availability zones: %w", err)
	}
	zones := make([]string, 0, len(output.AvailabilityZones))
	for _, z := range output.AvailabilityZones {
		zones = append(zones, aws.ToString(z.ZoneName))
	}
	sort.Strings(zones)
	return zones, nil
}
