package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yairfalse/ec2mc/internal/telemetry"
)

// Classify partitions local ∪ remote. Names only in local are ToCreate,
// names only in remote are AWSExtra, and names in both are UpToDate when
// same reports true and ToUpdate otherwise. Duplicates are ignored.
func Classify(local, remote []string, same func(name string) bool) Report {
	remoteSet := make(map[string]struct{}, len(remote))
	for _, n := range remote {
		remoteSet[n] = struct{}{}
	}
	localSet := make(map[string]struct{}, len(local))

	r := Report{
		ToCreate: []string{},
		ToUpdate: []string{},
		UpToDate: []string{},
		AWSExtra: []string{},
	}
	for _, n := range local {
		if _, dup := localSet[n]; dup {
			continue
		}
		localSet[n] = struct{}{}

		if _, ok := remoteSet[n]; !ok {
			r.ToCreate = append(r.ToCreate, n)
			continue
		}
		if same(n) {
			r.UpToDate = append(r.UpToDate, n)
		} else {
			r.ToUpdate = append(r.ToUpdate, n)
		}
	}
	for n := range remoteSet {
		if _, ok := localSet[n]; !ok {
			r.AWSExtra = append(r.AWSExtra, n)
		}
	}

	sort.Strings(r.ToCreate)
	sort.Strings(r.ToUpdate)
	sort.Strings(r.UpToDate)
	sort.Strings(r.AWSExtra)
	return r
}

// Reconciler drives a single Kind.
type Reconciler[L, R any] struct {
	kind Kind[L, R]
}

// New returns a reconciler for kind.
func New[L, R any](kind Kind[L, R]) *Reconciler[L, R] {
	return &Reconciler[L, R]{kind: kind}
}

// Kind returns the wrapped kind.
func (r *Reconciler[L, R]) Kind() Kind[L, R] { return r.kind }

// Check lists the remote state once and diffs it against locals. It never
// mutates anything.
func (r *Reconciler[L, R]) Check(ctx context.Context, locals map[string]L) (*Plan[L, R], error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.check", attribute.String("kind", r.kind.Name()))
	defer span.End()

	remote, err := r.kind.ListRemote(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: list: %w", r.kind.Name(), err)
	}

	return r.Diff(ctx, locals, remote)
}

// Diff classifies locals against an already listed remote snapshot.
func (r *Reconciler[L, R]) Diff(ctx context.Context, locals map[string]L, remote map[string]R) (*Plan[L, R], error) {
	equal := make(map[string]bool)
	for name, l := range locals {
		rem, ok := remote[name]
		if !ok {
			continue
		}
		same, err := r.kind.Equal(ctx, name, l, rem)
		if err != nil {
			return nil, fmt.Errorf("%s %s: compare: %w", r.kind.Name(), name, err)
		}
		equal[name] = same
	}

	report := Classify(keys(locals), keys(remote), func(name string) bool { return equal[name] })
	for _, b := range report.Buckets() {
		telemetry.RecordReconciled(ctx, r.kind.Name(), string(b.Bucket), len(b.Names))
	}

	log.Debug().Ctx(ctx).
		Str("kind", r.kind.Name()).
		Int("to_create", len(report.ToCreate)).
		Int("to_update", len(report.ToUpdate)).
		Int("up_to_date", len(report.UpToDate)).
		Int("aws_extra", len(report.AWSExtra)).
		Msg("reconcile check")

	return &Plan[L, R]{
		Kind:   r.kind.Name(),
		Report: report,
		Local:  locals,
		Remote: remote,
	}, nil
}

// Upload creates every ToCreate and updates every ToUpdate name of plan.
// The first failure stops the run; names already processed keep their
// effect and are listed in the returned report.
func (r *Reconciler[L, R]) Upload(ctx context.Context, plan *Plan[L, R]) (Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.upload", attribute.String("kind", r.kind.Name()))
	defer span.End()

	done := Report{ToCreate: []string{}, ToUpdate: []string{}, UpToDate: plan.Report.UpToDate, AWSExtra: plan.Report.AWSExtra}

	for _, name := range plan.Report.ToCreate {
		start := time.Now()
		if err := r.kind.Create(ctx, name, plan.Local[name]); err != nil {
			span.RecordError(err)
			return done, fmt.Errorf("%s %s: create: %w", r.kind.Name(), name, err)
		}
		done.ToCreate = append(done.ToCreate, name)
		log.Info().Ctx(ctx).Str("kind", r.kind.Name()).Str("name", name).Dur("took", time.Since(start)).Msg("created")
	}

	for _, name := range plan.Report.ToUpdate {
		start := time.Now()
		if err := r.kind.Update(ctx, name, plan.Local[name], plan.Remote[name]); err != nil {
			span.RecordError(err)
			return done, fmt.Errorf("%s %s: update: %w", r.kind.Name(), name, err)
		}
		done.ToUpdate = append(done.ToUpdate, name)
		log.Info().Ctx(ctx).Str("kind", r.kind.Name()).Str("name", name).Dur("took", time.Since(start)).Msg("updated")
	}

	return done, nil
}

// Delete removes every remote resource of the kind under the namespace,
// including ones with no local definition. It returns the deleted names.
func (r *Reconciler[L, R]) Delete(ctx context.Context) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.delete", attribute.String("kind", r.kind.Name()))
	defer span.End()

	remote, err := r.kind.ListRemote(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: list: %w", r.kind.Name(), err)
	}

	return r.DeleteRemote(ctx, remote)
}

// DeleteRemote deletes the resources of an already listed snapshot.
func (r *Reconciler[L, R]) DeleteRemote(ctx context.Context, remote map[string]R) ([]string, error) {
	deleted := []string{}
	for _, name := range keys(remote) {
		if err := r.kind.Delete(ctx, name, remote[name]); err != nil {
			return deleted, fmt.Errorf("%s %s: delete: %w", r.kind.Name(), name, err)
		}
		deleted = append(deleted, name)
		log.Info().Ctx(ctx).Str("kind", r.kind.Name()).Str("name", name).Msg("deleted")
	}
	return deleted, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
