// Package prober fans work out across regions (or any keyed set) and
// collects the results in submission order.
package prober

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yairfalse/ec2mc/internal/telemetry"
)

// ErrInvalidWork is returned by Add for a nil function or an empty key.
var ErrInvalidWork = errors.New("prober: work unit needs a key and a function")

// WorkFunc is one unit of work. key is usually a region name.
type WorkFunc[T any] func(ctx context.Context, key string) (T, error)

type result[T any] struct {
	index int
	key   string
	value T
}

// Prober runs units concurrently. Units are not cancelled when a sibling
// fails; the first error is reported once every unit has returned.
type Prober[T any] struct {
	ctx context.Context

	mu      sync.Mutex
	g       *errgroup.Group
	next    int
	results []result[T]
}

// New returns a prober whose units receive ctx.
func New[T any](ctx context.Context) *Prober[T] {
	return &Prober[T]{ctx: ctx, g: &errgroup.Group{}}
}

// Add validates and immediately starts a unit.
func (p *Prober[T]) Add(key string, fn WorkFunc[T]) error {
	if fn == nil || key == "" {
		return ErrInvalidWork
	}

	p.mu.Lock()
	index := p.next
	p.next++
	g := p.g
	p.mu.Unlock()

	g.Go(func() error {
		ctx, span := telemetry.StartSpan(p.ctx, "prober.unit", attribute.String("key", key))
		defer span.End()

		v, err := fn(ctx, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			telemetry.RecordProbeUnit(ctx, "error")
			log.Debug().Ctx(ctx).Err(err).Str("key", key).Msg("probe unit failed")
			return fmt.Errorf("%s: %w", key, err)
		}
		telemetry.RecordProbeUnit(ctx, "ok")

		p.mu.Lock()
		p.results = append(p.results, result[T]{index: index, key: key, value: v})
		p.mu.Unlock()
		return nil
	})
	return nil
}

// drain waits for every started unit and resets the buffer.
func (p *Prober[T]) drain() ([]result[T], error) {
	p.mu.Lock()
	g := p.g
	p.mu.Unlock()

	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	results := p.results
	p.results = nil
	p.next = 0
	p.g = &errgroup.Group{}

	if err != nil {
		return nil, err
	}

	ordered := make([]result[T], len(results))
	for _, r := range results {
		ordered[r.index] = r
	}
	return ordered, nil
}

// Collect joins all units and returns their values in submission order.
// Any failed unit discards every result.
func (p *Prober[T]) Collect() ([]T, error) {
	results, err := p.drain()
	if err != nil {
		return nil, err
	}
	out := make([]T, len(results))
	for i, r := range results {
		out[i] = r.value
	}
	return out, nil
}

// CollectMap is Collect keyed by unit key. Duplicate keys keep the last
// submitted value.
func (p *Prober[T]) CollectMap() (map[string]T, error) {
	results, err := p.drain()
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(results))
	for _, r := range results {
		out[r.key] = r.value
	}
	return out, nil
}

// Regions runs fn once per region and returns the values keyed by region.
func Regions[T any](ctx context.Context, regions []string, fn WorkFunc[T]) (map[string]T, error) {
	p := New[T](ctx)
	for _, r := range regions {
		if err := p.Add(r, fn); err != nil {
			_, _ = p.Collect()
			return nil, err
		}
	}
	return p.CollectMap()
}
