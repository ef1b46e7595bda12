// Package address manages namespace elastic IP addresses.
package address

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/prober"
)

var (
	// ListActions are needed by List.
	ListActions = []string{"ec2:DescribeAddresses"}
	// AllocateActions are needed by Allocate.
	AllocateActions = []string{"ec2:AllocateAddress", "ec2:CreateTags"}
	// AssociateActions are needed by Associate.
	AssociateActions = []string{"ec2:AssociateAddress", "ec2:DescribeAddresses"}
	// ReleaseActions are needed by Release.
	ReleaseActions = []string{"ec2:DescribeAddresses", "ec2:DisassociateAddress", "ec2:ReleaseAddress"}
)

// ErrNotOwned is returned for an allocation ID that is not a namespace
// address in the region.
var ErrNotOwned = errors.New("not a namespace address")

// Address is a namespace elastic IP.
type Address struct {
	Region        string
	AllocationID  string
	PublicIP      string
	AssociationID string
	InstanceID    string
}

// Manager manages the namespace's elastic IPs.
type Manager struct {
	clients   awsapi.ClientFactory
	namespace string

	// Wait bounds the association retry while an instance is not ready.
	Wait awsapi.Policy
}

// NewManager returns a manager for namespace.
func NewManager(clients awsapi.ClientFactory, namespace string) *Manager {
	return &Manager{clients: clients, namespace: namespace, Wait: awsapi.StatePolicy}
}

// List returns the namespace addresses of regions sorted by region and IP.
func (m *Manager) List(ctx context.Context, regions []string) ([]Address, error) {
	found, err := prober.Regions(ctx, regions, func(ctx context.Context, region string) ([]Address, error) {
		return m.describe(ctx, region, &ec2.DescribeAddressesInput{
			Filters: []ec2types.Filter{awsapi.NamespaceFilter(m.namespace)},
		})
	})
	if err != nil {
		return nil, err
	}

	var out []Address
	for _, addrs := range found {
		out = append(out, addrs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].PublicIP < out[j].PublicIP
	})
	return out, nil
}

// Allocate allocates a namespace tagged address in region.
func (m *Manager) Allocate(ctx context.Context, region string) (Address, error) {
	output, err := m.clients.EC2(region).AllocateAddress(ctx, &ec2.AllocateAddressInput{
		Domain:            ec2types.DomainTypeVpc,
		TagSpecifications: awsapi.TagSpec(ec2types.ResourceTypeElasticIp, awsapi.NamespaceTags(m.namespace)),
	})
	if err != nil {
		return Address{}, fmt.Errorf("allocate address: %w", err)
	}
	a := Address{
		Region:       region,
		AllocationID: aws.ToString(output.AllocationId),
		PublicIP:     aws.ToString(output.PublicIp),
	}
	log.Info().Ctx(ctx).Str("region", region).Str("ip", a.PublicIP).Msg("address allocated")
	return a, nil
}

// Associate attaches an address to an instance, retrying while the
// instance is not in a state that accepts it.
func (m *Manager) Associate(ctx context.Context, region, allocationID, instanceID string) (string, error) {
	if _, err := m.owned(ctx, region, allocationID); err != nil {
		return "", err
	}

	client := m.clients.EC2(region)
	var associationID string

	err := awsapi.Retry(ctx, m.Wait, "instance "+instanceID+" for address "+allocationID, notReady, func(ctx context.Context) error {
		output, err := client.AssociateAddress(ctx, &ec2.AssociateAddressInput{
			AllocationId:       aws.String(allocationID),
			InstanceId:         aws.String(instanceID),
			AllowReassociation: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		associationID = aws.ToString(output.AssociationId)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("associate address: %w", err)
	}
	return associationID, nil
}

// Release disassociates the address when needed and releases it.
func (m *Manager) Release(ctx context.Context, region, allocationID string) error {
	client := m.clients.EC2(region)

	addr, err := m.owned(ctx, region, allocationID)
	if err != nil {
		return err
	}

	if id := addr.AssociationID; id != "" {
		if _, err := client.DisassociateAddress(ctx, &ec2.DisassociateAddressInput{AssociationId: aws.String(id)}); err != nil {
			return fmt.Errorf("disassociate address: %w", err)
		}
	}
	if _, err := client.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{AllocationId: aws.String(allocationID)}); err != nil {
		return fmt.Errorf("release address: %w", err)
	}
	return nil
}

// owned looks up allocationID among the namespace addresses of region. The
// tag is checked on the response as well as in the filter.
func (m *Manager) owned(ctx context.Context, region, allocationID string) (Address, error) {
	output, err := m.clients.EC2(region).DescribeAddresses(ctx, &ec2.DescribeAddressesInput{
		AllocationIds: []string{allocationID},
		Filters:       []ec2types.Filter{awsapi.NamespaceFilter(m.namespace)},
	})
	if awsapi.IsNotFound(err) {
		return Address{}, fmt.Errorf("%s in %s is %w of %s", allocationID, region, ErrNotOwned, m.namespace)
	}
	if err != nil {
		return Address{}, fmt.Errorf("describe addresses: %w", err)
	}

	for _, a := range output.Addresses {
		if aws.ToString(a.AllocationId) != allocationID || awsapi.TagMap(a.Tags)[awsapi.NamespaceTag] != m.namespace {
			continue
		}
		return convert(region, a), nil
	}
	return Address{}, fmt.Errorf("%s in %s is %w of %s", allocationID, region, ErrNotOwned, m.namespace)
}

func (m *Manager) describe(ctx context.Context, region string, input *ec2.DescribeAddressesInput) ([]Address, error) {
	output, err := m.clients.EC2(region).DescribeAddresses(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("describe addresses: %w", err)
	}
	out := make([]Address, 0, len(output.Addresses))
	for _, a := range output.Addresses {
		out = append(out, convert(region, a))
	}
	return out, nil
}

func convert(region string, a ec2types.Address) Address {
	return Address{
		Region:        region,
		AllocationID:  aws.ToString(a.AllocationId),
		PublicIP:      aws.ToString(a.PublicIp),
		AssociationID: aws.ToString(a.AssociationId),
		InstanceID:    aws.ToString(a.InstanceId),
	}
}

func notReady(err error) bool {
	return awsapi.IsCode(err, "IncorrectInstanceState") || awsapi.IsNotFound(err)
}
