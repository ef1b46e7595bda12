// Package discovery finds namespace instances across regions and narrows
// them with region, tag, name and id filters.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/prober"
	"github.com/yairfalse/ec2mc/internal/telemetry"
)

// Actions are needed to discover instances.
var Actions = []string{
	"ec2:DescribeInstances",
	"ec2:DescribeRegions",
}

// liveStates excludes instances that are going away.
var liveStates = []string{
	string(ec2types.InstanceStateNamePending),
	string(ec2types.InstanceStateNameRunning),
	string(ec2types.InstanceStateNameStopping),
	string(ec2types.InstanceStateNameStopped),
}

// Instance is a named namespace instance.
type Instance struct {
	Region    string
	ID        string
	Name      string
	State     string
	Type      string
	PublicIP  string
	PrivateIP string
	Tags      map[string]string
}

// TagFilter matches instances carrying Key with one of Values. No values
// matches any value.
type TagFilter struct {
	Key    string
	Values []string
}

func (f TagFilter) String() string {
	if len(f.Values) == 0 {
		return f.Key
	}
	return f.Key + "=" + strings.Join(f.Values, ",")
}

// ParseTagFilter parses "key" or "key=v1,v2".
func ParseTagFilter(s string) (TagFilter, error) {
	key, values, hasValues := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return TagFilter{}, fmt.Errorf("invalid tag filter %q: empty key", s)
	}
	f := TagFilter{Key: key}
	if hasValues {
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.Values = append(f.Values, v)
			}
		}
	}
	return f, nil
}

func (f TagFilter) match(tags map[string]string) bool {
	v, ok := tags[f.Key]
	if !ok {
		return false
	}
	return len(f.Values) == 0 || slices.Contains(f.Values, v)
}

// Query narrows discovery. Every non-empty dimension must match.
type Query struct {
	Regions []string
	Tags    []TagFilter
	Names   []string
	IDs     []string
}

func (q Query) hasAttributeFilter() bool {
	return len(q.Tags)+len(q.Names)+len(q.IDs) > 0
}

func (q Query) matchAttributes(i Instance) bool {
	for _, f := range q.Tags {
		if !f.match(i.Tags) {
			return false
		}
	}
	if len(q.Names) > 0 && !slices.Contains(q.Names, i.Name) {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, i.ID) {
		return false
	}
	return true
}

func (q Query) matchRegion(i Instance) bool {
	return len(q.Regions) == 0 || slices.Contains(q.Regions, i.Region)
}

// Engine discovers instances of one namespace.
type Engine struct {
	clients   awsapi.ClientFactory
	namespace string
	allowed   []string
}

// NewEngine returns an engine searching the allowed regions.
func NewEngine(clients awsapi.ClientFactory, namespace string, allowed []string) *Engine {
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return &Engine{clients: clients, namespace: namespace, allowed: sorted}
}

// Discover returns the instances matching q sorted by region, name and id.
// Every allowed region is searched so that an empty result can be blamed on
// the filter that caused it.
func (e *Engine) Discover(ctx context.Context, q Query) ([]Instance, error) {
	ctx, span := telemetry.StartSpan(ctx, "discovery.discover", attribute.Int("regions", len(q.Regions)))
	defer span.End()

	if err := e.validateRegions(q.Regions); err != nil {
		return nil, err
	}

	found, err := prober.Regions(ctx, e.allowed, e.describe)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var all []Instance
	for _, instances := range found {
		all = append(all, instances...)
	}

	var inRegion, byAttributes, matched int
	var out []Instance
	for _, i := range all {
		r, a := q.matchRegion(i), q.matchAttributes(i)
		if r {
			inRegion++
		}
		if a {
			byAttributes++
		}
		if r && a {
			matched++
			out = append(out, i)
		}
	}

	log.Debug().Ctx(ctx).
		Int("namespace", len(all)).
		Int("in_region", inRegion).
		Int("by_attributes", byAttributes).
		Int("matched", matched).
		Msg("discovery")

	if len(out) == 0 {
		return nil, &NoMatchError{Reason: blame(q, len(all), inRegion, byAttributes), Query: q, Namespace: e.namespace}
	}

	sortInstances(out)
	return out, nil
}

// Single discovers exactly one instance.
func (e *Engine) Single(ctx context.Context, q Query) (Instance, error) {
	found, err := e.Discover(ctx, q)
	if err != nil {
		var nm *NoMatchError
		if errors.As(err, &nm) {
			return Instance{}, &AmbiguousError{Cause: nm}
		}
		return Instance{}, err
	}
	if len(found) > 1 {
		return Instance{}, &AmbiguousError{Candidates: found}
	}
	return found[0], nil
}

func (e *Engine) validateRegions(regions []string) error {
	return ValidateRegions(regions, e.allowed)
}

// ValidateRegions returns an *InvalidRegionError naming every region not in
// allowed, which must be sorted.
func ValidateRegions(regions, allowed []string) error {
	var invalid []string
	for _, r := range regions {
		if !slices.Contains(allowed, r) {
			invalid = append(invalid, r)
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	sort.Strings(invalid)
	suggestions := make(map[string]string)
	for _, r := range invalid {
		if s := suggest(r, allowed); s != "" {
			suggestions[r] = s
		}
	}
	return &InvalidRegionError{Invalid: invalid, Suggestions: suggestions, Allowed: allowed}
}

func (e *Engine) describe(ctx context.Context, region string) ([]Instance, error) {
	var out []Instance
	paginator := ec2.NewDescribeInstancesPaginator(e.clients.EC2(region), &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			awsapi.NamespaceFilter(e.namespace),
			awsapi.Filter("instance-state-name", liveStates...),
		},
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range output.Reservations {
			for _, inst := range res.Instances {
				if i, ok := convert(region, inst); ok {
					out = append(out, i)
				}
			}
		}
	}
	return out, nil
}

func convert(region string, inst ec2types.Instance) (Instance, bool) {
	tags := awsapi.TagMap(inst.Tags)
	name := tags[awsapi.NameTag]
	if name == "" || aws.ToString(inst.InstanceId) == "" {
		return Instance{}, false
	}
	i := Instance{
		Region:    region,
		ID:        aws.ToString(inst.InstanceId),
		Name:      name,
		Type:      string(inst.InstanceType),
		PublicIP:  aws.ToString(inst.PublicIpAddress),
		PrivateIP: aws.ToString(inst.PrivateIpAddress),
		Tags:      tags,
	}
	if inst.State != nil {
		i.State = string(inst.State.Name)
	}
	return i, true
}

func sortInstances(instances []Instance) {
	sort.Slice(instances, func(a, b int) bool {
		x, y := instances[a], instances[b]
		if x.Region != y.Region {
			return x.Region < y.Region
		}
		if x.Name != y.Name {
			return x.Name < y.Name
		}
		return x.ID < y.ID
	})
}

func blame(q Query, total, inRegion, byAttributes int) Reason {
	switch {
	case total == 0:
		return ReasonNoInstances
	case len(q.Regions) > 0 && inRegion == 0 && byAttributes > 0:
		return ReasonRegionFilter
	case q.hasAttributeFilter() && byAttributes == 0 && inRegion > 0:
		return ReasonTagFilter
	default:
		return ReasonCombined
	}
}
