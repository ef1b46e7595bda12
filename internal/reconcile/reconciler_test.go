package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memKind is an in-memory Kind: remote state is a name → value map.
type memKind struct {
	remote  map[string]string
	failOn  string
	creates []string
	updates []string
	deletes []string
	lists   int
}

func newMemKind(remote map[string]string) *memKind {
	if remote == nil {
		remote = map[string]string{}
	}
	return &memKind{remote: remote}
}

func (k *memKind) Name() string { return "mem" }

func (k *memKind) ListRemote(context.Context) (map[string]string, error) {
	k.lists++
	out := make(map[string]string, len(k.remote))
	for n, v := range k.remote {
		out[n] = v
	}
	return out, nil
}

func (k *memKind) Equal(_ context.Context, _ string, local, remote string) (bool, error) {
	return local == remote, nil
}

func (k *memKind) Create(_ context.Context, name, local string) error {
	if name == k.failOn {
		return errors.New("boom")
	}
	k.creates = append(k.creates, name)
	k.remote[name] = local
	return nil
}

func (k *memKind) Update(_ context.Context, name, local, _ string) error {
	if name == k.failOn {
		return errors.New("boom")
	}
	k.updates = append(k.updates, name)
	k.remote[name] = local
	return nil
}

func (k *memKind) Delete(_ context.Context, name, _ string) error {
	if name == k.failOn {
		return errors.New("boom")
	}
	k.deletes = append(k.deletes, name)
	delete(k.remote, name)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// Classify
// ══════════════════════════════════════════════════════════════════════════════

func TestClassify_Buckets(t *testing.T) {
	r := Classify([]string{"A", "B", "D"}, []string{"B", "C", "D"}, func(n string) bool { return n == "D" })

	assert.Equal(t, []string{"A"}, r.ToCreate)
	assert.Equal(t, []string{"B"}, r.ToUpdate)
	assert.Equal(t, []string{"D"}, r.UpToDate)
	assert.Equal(t, []string{"C"}, r.AWSExtra)
}

func TestClassify_Empty(t *testing.T) {
	r := Classify(nil, nil, func(string) bool { return true })
	assert.True(t, r.Empty())
	assert.False(t, r.Pending())
}

func TestClassify_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		universe := rng.Intn(30)
		var local, remote []string
		same := map[string]bool{}
		for i := 0; i < universe; i++ {
			name := fmt.Sprintf("r%02d", i)
			switch rng.Intn(3) {
			case 0:
				local = append(local, name)
			case 1:
				remote = append(remote, name)
			default:
				local = append(local, name)
				remote = append(remote, name)
			}
			same[name] = rng.Intn(2) == 0
		}

		r := Classify(local, remote, func(n string) bool { return same[n] })

		seen := map[string]int{}
		for _, b := range r.Buckets() {
			assert.True(t, sort.StringsAreSorted(b.Names), "%s not sorted", b.Bucket)
			for _, n := range b.Names {
				seen[n]++
			}
		}

		union := map[string]struct{}{}
		for _, n := range append(append([]string{}, local...), remote...) {
			union[n] = struct{}{}
		}
		require.Len(t, seen, len(union))
		for n, c := range seen {
			assert.Equal(t, 1, c, "%s appears in %d buckets", n, c)
			_, ok := union[n]
			assert.True(t, ok)
		}

		localSet := toSet(local)
		remoteSet := toSet(remote)
		for _, n := range r.ToCreate {
			assert.Contains(t, localSet, n)
			assert.NotContains(t, remoteSet, n)
		}
		for _, n := range r.AWSExtra {
			assert.Contains(t, remoteSet, n)
			assert.NotContains(t, localSet, n)
		}
		for _, n := range r.UpToDate {
			assert.True(t, same[n])
		}
		for _, n := range r.ToUpdate {
			assert.False(t, same[n])
		}
	}
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// Reconciler
// ══════════════════════════════════════════════════════════════════════════════

func TestCheck_DoesNotMutate(t *testing.T) {
	kind := newMemKind(map[string]string{"B": "old", "C": "x"})
	r := New[string, string](kind)
	locals := map[string]string{"A": "a", "B": "new"}

	first, err := r.Check(context.Background(), locals)
	require.NoError(t, err)
	second, err := r.Check(context.Background(), locals)
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)
	assert.Empty(t, kind.creates)
	assert.Empty(t, kind.updates)
	assert.Empty(t, kind.deletes)
	assert.Equal(t, 2, kind.lists)
}

func TestUploadThenCheck_RoundTrip(t *testing.T) {
	kind := newMemKind(map[string]string{"B": "old", "C": "x"})
	r := New[string, string](kind)
	locals := map[string]string{"A": "a", "B": "new"}

	plan, err := r.Check(context.Background(), locals)
	require.NoError(t, err)

	done, err := r.Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, done.ToCreate)
	assert.Equal(t, []string{"B"}, done.ToUpdate)

	after, err := r.Check(context.Background(), locals)
	require.NoError(t, err)
	assert.Empty(t, after.Report.ToCreate)
	assert.Empty(t, after.Report.ToUpdate)
	assert.Equal(t, []string{"A", "B"}, after.Report.UpToDate)
	assert.Equal(t, []string{"C"}, after.Report.AWSExtra)
	assert.False(t, after.Report.Pending())
}

func TestUpload_HaltsOnFirstError(t *testing.T) {
	kind := newMemKind(map[string]string{"D": "old"})
	kind.failOn = "B"
	r := New[string, string](kind)

	plan, err := r.Check(context.Background(), map[string]string{"A": "a", "B": "b", "C": "c", "D": "new"})
	require.NoError(t, err)

	done, err := r.Upload(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mem B: create: boom")
	assert.Equal(t, []string{"A"}, done.ToCreate)
	assert.Empty(t, done.ToUpdate)
	assert.Equal(t, []string{"A"}, kind.creates)
	assert.Empty(t, kind.updates, "updates after a failed create must not run")
}

func TestDelete_Idempotent(t *testing.T) {
	kind := newMemKind(map[string]string{"A": "a", "Z": "z"})
	r := New[string, string](kind)

	deleted, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Z"}, deleted)

	again, err := r.Delete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDelete_StopsOnError(t *testing.T) {
	kind := newMemKind(map[string]string{"A": "a", "B": "b", "C": "c"})
	kind.failOn = "B"

	deleted, err := New[string, string](kind).Delete(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"A"}, deleted)
	assert.Contains(t, kind.remote, "C")
}

type listErrKind struct{ memKind }

func (k *listErrKind) ListRemote(context.Context) (map[string]string, error) {
	return nil, errors.New("access denied")
}

func TestCheck_ListError(t *testing.T) {
	_, err := New[string, string](&listErrKind{}).Check(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mem: list: access denied")
}

// ══════════════════════════════════════════════════════════════════════════════
// Print
// ══════════════════════════════════════════════════════════════════════════════

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "IAM policies", Report{ToCreate: []string{"A"}, ToUpdate: []string{"B"}, AWSExtra: []string{"C"}})

	out := buf.String()
	assert.Contains(t, out, "IAM policies:")
	assert.Contains(t, out, "to create")
	assert.Contains(t, out, "to update")
	assert.Contains(t, out, "not in local definitions")
}

func TestPrint_Empty(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "Key pairs", Report{})
	assert.Contains(t, buf.String(), "nothing defined or found")
}
