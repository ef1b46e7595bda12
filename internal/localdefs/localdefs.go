// Package localdefs loads and validates the locally declared resources under
// the setup directory.
package localdefs

import (
	"fmt"
	"sort"
	"strings"
)

// File names under the setup directory.
const (
	PoliciesManifest       = "iam_policies.yaml"
	PoliciesDir            = "iam_policies"
	GroupsManifest         = "iam_groups.yaml"
	ProfilesManifest       = "instance_profiles.yaml"
	SecurityGroupsManifest = "security_groups.yaml"
	SecurityGroupsDir      = "security_groups"
)

// Policy is a customer managed IAM policy.
type Policy struct {
	Name        string   `yaml:"-" validate:"required,iamname"`
	Description string   `yaml:"description" validate:"max=1000"`
	Document    Document `yaml:"-"`
}

// Group is an IAM group with namespace policies attached.
type Group struct {
	Name     string   `yaml:"-" validate:"required,iamname"`
	Policies []string `yaml:"policies" validate:"dive,required,iamname"`
}

// Profile is an EC2 instance profile backed by a role of the same name.
type Profile struct {
	Name     string   `yaml:"-" validate:"required,iamname"`
	Policies []string `yaml:"policies" validate:"dive,required,iamname"`
}

// SecurityGroup is a namespace security group created in every region.
type SecurityGroup struct {
	Name        string `yaml:"-" validate:"required,max=255"`
	Description string `yaml:"description" validate:"required,max=255"`
	Ingress     []Rule `yaml:"ingress" validate:"dive"`
}

// Rule is one ingress permission. Protocol "-1" means every protocol, in
// which case the port range is ignored.
type Rule struct {
	Protocol    string   `yaml:"protocol" json:"protocol" validate:"required,oneof=tcp udp icmp -1"`
	FromPort    int32    `yaml:"from_port" json:"from_port" validate:"min=-1,max=65535"`
	ToPort      int32    `yaml:"to_port" json:"to_port" validate:"min=-1,max=65535"`
	IPv4        []string `yaml:"ipv4" json:"ipv4" validate:"unique,dive,cidrv4"`
	IPv6        []string `yaml:"ipv6" json:"ipv6" validate:"unique,dive,cidrv6"`
	Description string   `yaml:"description" json:"description" validate:"max=255"`
}

// Definitions is everything declared under a setup directory.
type Definitions struct {
	Dir            string
	Policies       map[string]Policy
	Groups         map[string]Group
	Profiles       map[string]Profile
	SecurityGroups map[string]SecurityGroup
}

// ValidationError is a fatal problem with a local definition file.
type ValidationError struct {
	File   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	lines := make([]string, len(es))
	for i, e := range es {
		lines[i] = e.Error()
	}
	return "invalid local definitions:\n  " + strings.Join(lines, "\n  ")
}

func (es ValidationErrors) sort() {
	sort.Slice(es, func(i, j int) bool {
		if es[i].File != es[j].File {
			return es[i].File < es[j].File
		}
		return es[i].Reason < es[j].Reason
	})
}

// Unwrap exposes each *ValidationError to errors.As.
func (es ValidationErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
