package discovery

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

// Reason explains an empty discovery result.
type Reason string

const (
	// ReasonNoInstances means the namespace has no live named instances.
	ReasonNoInstances Reason = "no_instances"
	// ReasonRegionFilter means matching instances exist, only outside the
	// requested regions.
	ReasonRegionFilter Reason = "region_filter"
	// ReasonTagFilter means instances exist in the requested regions but
	// none match the tag, name or id filters.
	ReasonTagFilter Reason = "tag_filter"
	// ReasonCombined means each filter matches something but not together.
	ReasonCombined Reason = "combined"
)

// NoMatchError is returned when discovery finds nothing.
type NoMatchError struct {
	Reason    Reason
	Query     Query
	Namespace string
}

func (e *NoMatchError) Error() string {
	switch e.Reason {
	case ReasonNoInstances:
		return fmt.Sprintf("namespace %s has no instances", e.Namespace)
	case ReasonRegionFilter:
		return fmt.Sprintf("no matching instances in %s, matching instances exist in other regions", strings.Join(e.Query.Regions, ", "))
	case ReasonTagFilter:
		return fmt.Sprintf("no instances match %s", e.describeFilters())
	}
	if len(e.Query.Regions) == 0 {
		return fmt.Sprintf("no instances match %s", e.describeFilters())
	}
	return fmt.Sprintf("no instances match %s in %s", e.describeFilters(), strings.Join(e.Query.Regions, ", "))
}

func (e *NoMatchError) describeFilters() string {
	var parts []string
	for _, t := range e.Query.Tags {
		parts = append(parts, "tag "+t.String())
	}
	if len(e.Query.Names) > 0 {
		parts = append(parts, "name "+strings.Join(e.Query.Names, ","))
	}
	if len(e.Query.IDs) > 0 {
		parts = append(parts, "id "+strings.Join(e.Query.IDs, ","))
	}
	if len(parts) == 0 {
		return "the filters"
	}
	return strings.Join(parts, " and ")
}

// InvalidRegionError lists requested regions outside the allowed set.
type InvalidRegionError struct {
	Invalid     []string
	Suggestions map[string]string
	Allowed     []string
}

func (e *InvalidRegionError) Error() string {
	var b strings.Builder
	b.WriteString("invalid region(s):")
	for _, r := range e.Invalid {
		b.WriteString("\n  " + r)
		if s, ok := e.Suggestions[r]; ok {
			fmt.Fprintf(&b, " (did you mean %s?)", s)
		}
	}
	fmt.Fprintf(&b, "\nallowed regions: %s", strings.Join(e.Allowed, ", "))
	return b.String()
}

// AmbiguousError is returned by Single when the query does not select
// exactly one instance.
type AmbiguousError struct {
	Candidates []Instance
	Cause      *NoMatchError
}

func (e *AmbiguousError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error() + "\nthis command needs exactly one instance"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d instances match, narrow the query with --region, --name or --id:", len(e.Candidates))
	for _, i := range e.Candidates {
		fmt.Fprintf(&b, "\n  %s %s (%s)", i.Region, i.Name, i.ID)
	}
	return b.String()
}

func (e *AmbiguousError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// suggest returns the candidate closest to want, or "" when none is close.
func suggest(want string, candidates []string) string {
	maxDist := max(len(want)/5, 1)

	best, dist := "", maxDist+1
	for _, c := range candidates {
		if d := levenshtein.Distance(want, c, nil); d < dist {
			best, dist = c, d
		}
	}
	return best
}
