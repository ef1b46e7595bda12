package network

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/localdefs"
	"github.com/yairfalse/ec2mc/internal/prober"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

// GroupName joins a region and a security group name into a kind name.
func GroupName(region, group string) string {
	return region + "/" + group
}

// SplitGroupName is the inverse of GroupName.
func SplitGroupName(name string) (region, group string, err error) {
	region, group, ok := strings.Cut(name, "/")
	if !ok || region == "" || group == "" {
		return "", "", fmt.Errorf("invalid security group name %q, want region/group", name)
	}
	return region, group, nil
}

// RemoteGroup is a namespace security group in one region.
type RemoteGroup struct {
	Region      string
	Name        string
	ID          string
	VpcID       string
	Description string
	Ingress     []Permission

	raw []ec2types.IpPermission
}

// Permission is one protocol, port range and address block. Security group
// rules are compared as sets of permissions so AWS merging or splitting
// rules does not show up as drift.
type Permission struct {
	Protocol    string
	FromPort    int32
	ToPort      int32
	CIDR        string
	Description string
}

func (p Permission) less(o Permission) bool {
	if p.Protocol != o.Protocol {
		return p.Protocol < o.Protocol
	}
	if p.FromPort != o.FromPort {
		return p.FromPort < o.FromPort
	}
	if p.ToPort != o.ToPort {
		return p.ToPort < o.ToPort
	}
	if p.CIDR != o.CIDR {
		return p.CIDR < o.CIDR
	}
	return p.Description < o.Description
}

// Permissions flattens local rules.
func Permissions(rules []localdefs.Rule) []Permission {
	var out []Permission
	for _, r := range rules {
		base := permission(r.Protocol, r.FromPort, r.ToPort)
		base.Description = r.Description
		for _, c := range r.IPv4 {
			p := base
			p.CIDR = c
			out = append(out, p)
		}
		for _, c := range r.IPv6 {
			p := base
			p.CIDR = c
			out = append(out, p)
		}
	}
	return out
}

func permission(protocol string, from, to int32) Permission {
	if protocol == "-1" {
		from, to = 0, 0
	}
	return Permission{Protocol: protocol, FromPort: from, ToPort: to}
}

func fromIPPermissions(perms []ec2types.IpPermission) []Permission {
	var out []Permission
	for _, ip := range perms {
		base := permission(aws.ToString(ip.IpProtocol), aws.ToInt32(ip.FromPort), aws.ToInt32(ip.ToPort))
		for _, r := range ip.IpRanges {
			p := base
			p.CIDR = aws.ToString(r.CidrIp)
			p.Description = aws.ToString(r.Description)
			out = append(out, p)
		}
		for _, r := range ip.Ipv6Ranges {
			p := base
			p.CIDR = aws.ToString(r.CidrIpv6)
			p.Description = aws.ToString(r.Description)
			out = append(out, p)
		}
	}
	return out
}

func toIPPermissions(rules []localdefs.Rule) []ec2types.IpPermission {
	out := make([]ec2types.IpPermission, 0, len(rules))
	for _, r := range rules {
		ip := ec2types.IpPermission{IpProtocol: aws.String(r.Protocol)}
		if r.Protocol != "-1" {
			ip.FromPort = aws.Int32(r.FromPort)
			ip.ToPort = aws.Int32(r.ToPort)
		}
		var desc *string
		if r.Description != "" {
			desc = aws.String(r.Description)
		}
		for _, c := range r.IPv4 {
			ip.IpRanges = append(ip.IpRanges, ec2types.IpRange{CidrIp: aws.String(c), Description: desc})
		}
		for _, c := range r.IPv6 {
			ip.Ipv6Ranges = append(ip.Ipv6Ranges, ec2types.Ipv6Range{CidrIpv6: aws.String(c), Description: desc})
		}
		out = append(out, ip)
	}
	return out
}

// EqualPermissions compares permission sets ignoring order.
func EqualPermissions(a, b []Permission) bool {
	return cmp.Equal(a, b,
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(x, y Permission) bool { return x.less(y) }),
	)
}

// GroupKind reconciles namespace security groups in every region. Names are
// region/group.
type GroupKind struct {
	clients   awsapi.ClientFactory
	namespace string
	regions   []string

	// Tagging bounds the wait for new groups to become taggable.
	Tagging awsapi.Policy
}

var _ reconcile.Kind[localdefs.SecurityGroup, RemoteGroup] = (*GroupKind)(nil)

// NewGroupKind returns the security group kind for namespace over regions.
func NewGroupKind(clients awsapi.ClientFactory, namespace string, regions []string) *GroupKind {
	return &GroupKind{clients: clients, namespace: namespace, regions: regions, Tagging: awsapi.TagPolicy}
}

// Name implements reconcile.Kind.
func (k *GroupKind) Name() string { return "security_group" }

// Locals declares every group in every region.
func (k *GroupKind) Locals(groups map[string]localdefs.SecurityGroup) map[string]localdefs.SecurityGroup {
	out := make(map[string]localdefs.SecurityGroup, len(groups)*len(k.regions))
	for _, r := range k.regions {
		for name, g := range groups {
			out[GroupName(r, name)] = g
		}
	}
	return out
}

// ListRemote lists namespace tagged security groups of every region
// concurrently.
func (k *GroupKind) ListRemote(ctx context.Context) (map[string]RemoteGroup, error) {
	found, err := prober.Regions(ctx, k.regions, func(ctx context.Context, region string) ([]RemoteGroup, error) {
		groups, err := describeGroups(ctx, k.clients.EC2(region), awsapi.NamespaceFilter(k.namespace))
		if err != nil {
			return nil, err
		}
		out := make([]RemoteGroup, 0, len(groups))
		for _, g := range groups {
			out = append(out, RemoteGroup{
				Region:      region,
				Name:        aws.ToString(g.GroupName),
				ID:          aws.ToString(g.GroupId),
				VpcID:       aws.ToString(g.VpcId),
				Description: aws.ToString(g.Description),
				Ingress:     fromIPPermissions(g.IpPermissions),
				raw:         g.IpPermissions,
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]RemoteGroup)
	for region, groups := range found {
		for _, g := range groups {
			out[GroupName(region, g.Name)] = g
		}
	}
	return out, nil
}

// Equal compares ingress permission sets.
func (k *GroupKind) Equal(_ context.Context, _ string, local localdefs.SecurityGroup, remote RemoteGroup) (bool, error) {
	return EqualPermissions(Permissions(local.Ingress), remote.Ingress), nil
}

// Create creates the group inside the region's namespace VPC and authorizes
// its ingress rules. The VPC must already exist.
func (k *GroupKind) Create(ctx context.Context, name string, local localdefs.SecurityGroup) error {
	region, group, err := SplitGroupName(name)
	if err != nil {
		return err
	}
	client := k.clients.EC2(region)

	vpcID, _, err := namespaceVPC(ctx, client, k.namespace)
	if err != nil {
		return err
	}
	if vpcID == "" {
		return fmt.Errorf("no %s vpc in %s", k.namespace, region)
	}

	created, err := client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(group),
		Description: aws.String(local.Description),
		VpcId:       aws.String(vpcID),
	})
	if err != nil {
		return fmt.Errorf("create security group: %w", err)
	}
	id := aws.ToString(created.GroupId)

	tags := awsapi.NamespaceTags(k.namespace, awsapi.NameTagValue(group))
	if err := awsapi.TagWithRetry(ctx, client, k.Tagging, "security group "+id, []string{id}, tags); err != nil {
		return err
	}
	return authorize(ctx, client, id, local.Ingress)
}

// Update revokes every ingress rule and authorizes the local ones.
func (k *GroupKind) Update(ctx context.Context, _ string, local localdefs.SecurityGroup, remote RemoteGroup) error {
	client := k.clients.EC2(remote.Region)
	if err := revoke(ctx, client, remote.ID, remote.raw); err != nil {
		return err
	}
	return authorize(ctx, client, remote.ID, local.Ingress)
}

// Delete revokes ingress and deletes the group.
func (k *GroupKind) Delete(ctx context.Context, _ string, remote RemoteGroup) error {
	client := k.clients.EC2(remote.Region)
	if err := revoke(ctx, client, remote.ID, remote.raw); err != nil {
		return err
	}
	if _, err := client.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: aws.String(remote.ID)}); err != nil {
		return fmt.Errorf("delete security group: %w", err)
	}
	return nil
}

func authorize(ctx context.Context, client awsapi.EC2API, id string, rules []localdefs.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	if _, err := client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(id),
		IpPermissions: toIPPermissions(rules),
	}); err != nil {
		return fmt.Errorf("authorize ingress: %w", err)
	}
	return nil
}

func revoke(ctx context.Context, client awsapi.EC2API, id string, perms []ec2types.IpPermission) error {
	if len(perms) == 0 {
		return nil
	}
	if _, err := client.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
		GroupId:       aws.String(id),
		IpPermissions: perms,
	}); err != nil {
		return fmt.Errorf("revoke ingress: %w", err)
	}
	return nil
}

func describeGroups(ctx context.Context, client awsapi.EC2API, filters ...ec2types.Filter) ([]ec2types.SecurityGroup, error) {
	var out []ec2types.SecurityGroup
	paginator := ec2.NewDescribeSecurityGroupsPaginator(client, &ec2.DescribeSecurityGroupsInput{Filters: filters})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe security groups: %w", err)
		}
		out = append(out, output.SecurityGroups...)
	}
	return out, nil
}
