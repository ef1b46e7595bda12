// Package reconcile diffs locally declared resources against what exists in
// the account and applies the difference, for any resource kind that
// implements Kind.
package reconcile

import (
	"context"
)

// Kind is the per-resource-type capability set driven by a Reconciler.
// Names identify resources within a namespace; L is the local definition
// and R the observed remote state.
type Kind[L, R any] interface {
	// Name is a short identifier used in logs, metrics and tables.
	Name() string
	// ListRemote returns every resource of this kind under the namespace.
	ListRemote(ctx context.Context) (map[string]R, error)
	// Equal reports whether remote already matches local.
	Equal(ctx context.Context, name string, local L, remote R) (bool, error)
	Create(ctx context.Context, name string, local L) error
	Update(ctx context.Context, name string, local L, remote R) error
	Delete(ctx context.Context, name string, remote R) error
}

// Bucket names one partition of a Report.
type Bucket string

const (
	BucketToCreate Bucket = "to_create"
	BucketToUpdate Bucket = "to_update"
	BucketUpToDate Bucket = "up_to_date"
	BucketAWSExtra Bucket = "aws_extra"
)

// Report partitions local ∪ remote names. Every slice is sorted.
type Report struct {
	ToCreate []string `json:"to_create"`
	ToUpdate []string `json:"to_update"`
	UpToDate []string `json:"up_to_date"`
	AWSExtra []string `json:"aws_extra"`
}

// Empty reports whether no names were classified.
func (r Report) Empty() bool {
	return len(r.ToCreate)+len(r.ToUpdate)+len(r.UpToDate)+len(r.AWSExtra) == 0
}

// Pending reports whether an upload would change anything.
func (r Report) Pending() bool {
	return len(r.ToCreate)+len(r.ToUpdate) > 0
}

// Buckets returns the report in display order.
func (r Report) Buckets() []BucketNames {
	return []BucketNames{
		{Bucket: BucketToCreate, Names: r.ToCreate},
		{Bucket: BucketToUpdate, Names: r.ToUpdate},
		{Bucket: BucketUpToDate, Names: r.UpToDate},
		{Bucket: BucketAWSExtra, Names: r.AWSExtra},
	}
}

// BucketNames pairs a bucket with its names.
type BucketNames struct {
	Bucket Bucket
	Names  []string
}

// Plan is the result of Check: the report plus the snapshots it was
// computed from. It is consumed by Upload and then discarded.
type Plan[L, R any] struct {
	Kind   string
	Report Report
	Local  map[string]L
	Remote map[string]R
}
