package awsapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	// NamespaceTag marks every EC2 resource owned by a namespace.
	NamespaceTag = "Namespace"
	// NameTag is the display name of an EC2 resource.
	NameTag = "Name"
	// IPHandlerTag names the IP handler run after an instance starts.
	IPHandlerTag = "IpHandler"
)

// NamespaceTags returns the tag set written on created EC2 resources.
func NamespaceTags(namespace string, extra ...ec2types.Tag) []ec2types.Tag {
	tags := []ec2types.Tag{{Key: aws.String(NamespaceTag), Value: aws.String(namespace)}}
	return append(tags, extra...)
}

// NameTagValue builds a Name tag.
func NameTagValue(name string) ec2types.Tag {
	return ec2types.Tag{Key: aws.String(NameTag), Value: aws.String(name)}
}

// NamespaceFilter selects resources tagged with namespace.
func NamespaceFilter(namespace string) ec2types.Filter {
	return ec2types.Filter{
		Name:   aws.String("tag:" + NamespaceTag),
		Values: []string{namespace},
	}
}

// Filter builds an EC2 describe filter.
func Filter(name string, values ...string) ec2types.Filter {
	return ec2types.Filter{Name: aws.String(name), Values: values}
}

// TagMap flattens EC2 tags.
func TagMap(tags []ec2types.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return m
}

// TagSpec builds a TagSpecification for create calls that accept one.
func TagSpec(rt ec2types.ResourceType, tags []ec2types.Tag) []ec2types.TagSpecification {
	return []ec2types.TagSpecification{{ResourceType: rt, Tags: tags}}
}

// TagWithRetry tags ids, retrying while EC2 still reports them as missing.
// Exhaustion returns a *RetryExhaustedError naming resource.
func TagWithRetry(ctx context.Context, client EC2API, p Policy, resource string, ids []string, tags []ec2types.Tag) error {
	err := Retry(ctx, p, resource, IsNotFound, func(ctx context.Context) error {
		_, err := client.CreateTags(ctx, &ec2.CreateTagsInput{Resources: ids, Tags: tags})
		return err
	})
	if err != nil {
		return fmt.Errorf("tag %s: %w", resource, err)
	}
	return nil
}
