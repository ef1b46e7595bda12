package access

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/yairfalse/ec2mc/internal/awsapi"
)

// User is an IAM user under the namespace path.
type User struct {
	Name string
	ARN  string
}

// ListUsers returns the namespace users sorted by name.
func ListUsers(ctx context.Context, client awsapi.IAMAPI, namespace string) ([]User, error) {
	var out []User
	var marker *string

	for {
		output, err := client.ListUsers(ctx, &iam.ListUsersInput{
			PathPrefix: aws.String(Path(namespace)),
			Marker:     marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, u := range output.Users {
			out = append(out, User{Name: aws.ToString(u.UserName), ARN: aws.ToString(u.Arn)})
		}
		if !output.IsTruncated || output.Marker == nil {
			break
		}
		marker = output.Marker
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
