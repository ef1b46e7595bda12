package keypair

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/awsapi/awsapitest"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

// region fakes one region's key pair store.
type region struct {
	mu          sync.Mutex
	fingerprint string
	imports     int
	deletes     int
	hidden      int // describe by name reports NotFound this many times
}

func (r *region) client(t *testing.T) *awsapitest.EC2 {
	return &awsapitest.EC2{
		DescribeKeyPairsFunc: func(_ context.Context, in *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if len(in.KeyNames) > 0 && r.hidden > 0 {
				r.hidden--
				return nil, &smithy.GenericAPIError{Code: "InvalidKeyPair.NotFound"}
			}
			if r.fingerprint == "" {
				return &ec2.DescribeKeyPairsOutput{}, nil
			}
			return &ec2.DescribeKeyPairsOutput{KeyPairs: []ec2types.KeyPairInfo{{
				KeyName:        aws.String("mc"),
				KeyPairId:      aws.String("key-1"),
				KeyFingerprint: aws.String(r.fingerprint),
			}}}, nil
		},
		ImportKeyPairFunc: func(_ context.Context, in *ec2.ImportKeyPairInput, _ ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			assert.Equal(t, "mc", aws.ToString(in.KeyName))
			assert.Contains(t, string(in.PublicKeyMaterial), "ssh-rsa ")
			r.imports++
			r.fingerprint = fingerprintOf(t, in.PublicKeyMaterial)
			return &ec2.ImportKeyPairOutput{}, nil
		},
		DeleteKeyPairFunc: func(context.Context, *ec2.DeleteKeyPairInput, ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.deletes++
			r.fingerprint = ""
			return &ec2.DeleteKeyPairOutput{}, nil
		},
	}
}

// fingerprints remembers the fingerprint of each imported public key.
var fingerprints sync.Map

func fingerprintOf(t *testing.T, authorized []byte) string {
	v, ok := fingerprints.Load(string(authorized))
	require.True(t, ok, "unknown public key")
	return v.(string)
}

func remember(t *testing.T, key *LocalKey) {
	t.Helper()
	auth, err := key.AuthorizedKey()
	require.NoError(t, err)
	fp, err := key.Fingerprint()
	require.NoError(t, err)
	fingerprints.Store(string(auth), fp)
}

func setup(t *testing.T, regions map[string]*region) *Kind {
	f := &awsapitest.Factory{EC2ByRegion: map[string]*awsapitest.EC2{}}
	var names []string
	for name, r := range regions {
		f.EC2ByRegion[name] = r.client(t)
		names = append(names, name)
	}
	k := NewKind(f, "mc", names)
	k.Propagation = awsapi.Policy{Attempts: 3, Interval: time.Millisecond}
	return k
}

// ══════════════════════════════════════════════════════════════════════════════
// Local key
// ══════════════════════════════════════════════════════════════════════════════

func TestPrepare_GeneratesWhenNothingExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "mc.pem")

	key, err := Prepare(path, false)
	require.NoError(t, err)
	assert.True(t, key.Generated())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "generated key must stay in memory until saved")

	require.NoError(t, key.Save())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Prepare(path, true)
	require.NoError(t, err)
	assert.False(t, loaded.Generated())

	want, err := key.Fingerprint()
	require.NoError(t, err)
	got, err := loaded.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPrepare_RequiresPrivateKeyWhenRemoteExists(t *testing.T) {
	_, err := Prepare(filepath.Join(t.TempDir(), "missing.pem"), true)
	assert.ErrorIs(t, err, ErrPrivateKeyRequired)
}

func TestPrepare_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := Prepare(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse private key")
}

func TestFingerprint_Format(t *testing.T) {
	key, err := Prepare(filepath.Join(t.TempDir(), "k.pem"), false)
	require.NoError(t, err)

	fp, err := key.Fingerprint()
	require.NoError(t, err)
	assert.Regexp(t, `^([0-9a-f]{2}:){15}[0-9a-f]{2}$`, fp)
}

// ══════════════════════════════════════════════════════════════════════════════
// Kind
// ══════════════════════════════════════════════════════════════════════════════

func TestKind_CheckHaltsWithoutPrivateKey(t *testing.T) {
	k := setup(t, map[string]*region{
		"us-east-1": {fingerprint: "aa:bb"},
		"eu-west-1": {},
	})

	_, _, err := k.Check(context.Background(), filepath.Join(t.TempDir(), "mc.pem"))
	assert.ErrorIs(t, err, ErrPrivateKeyRequired)
}

func TestKind_UploadThenCheck(t *testing.T) {
	regions := map[string]*region{
		"us-east-1": {hidden: 2},
		"eu-west-1": {},
	}
	k := setup(t, regions)
	path := filepath.Join(t.TempDir(), "mc.pem")

	plan, key, err := k.Check(context.Background(), path)
	require.NoError(t, err)
	remember(t, key)
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, plan.Report.ToCreate)

	done, err := reconcile.New[*LocalKey, RemoteKey](k).Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, done.ToCreate)
	assert.FileExists(t, path)

	again, _, err := k.Check(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, again.Report.UpToDate)
	assert.False(t, again.Report.Pending())
}

func TestKind_UpdateReplacesKey(t *testing.T) {
	regions := map[string]*region{"us-east-1": {fingerprint: "00:11"}}
	k := setup(t, regions)

	key, err := Prepare(filepath.Join(t.TempDir(), "mc.pem"), false)
	require.NoError(t, err)
	require.NoError(t, key.Save())
	remember(t, key)

	path := key.Path
	plan, _, err := k.Check(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, plan.Report.ToUpdate)

	_, err = reconcile.New[*LocalKey, RemoteKey](k).Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, regions["us-east-1"].deletes)
	assert.Equal(t, 1, regions["us-east-1"].imports)
}

func TestKind_PropagationExhausted(t *testing.T) {
	regions := map[string]*region{"us-east-1": {hidden: 10}}
	k := setup(t, regions)

	key, err := Prepare(filepath.Join(t.TempDir(), "mc.pem"), false)
	require.NoError(t, err)
	remember(t, key)

	err = k.Create(context.Background(), "us-east-1", key)
	var exhausted *awsapi.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2*time.Millisecond, exhausted.Wait)
}

func TestKind_DeleteEveryRegion(t *testing.T) {
	regions := map[string]*region{
		"us-east-1":  {fingerprint: "aa"},
		"eu-west-1":  {fingerprint: "bb"},
		"ap-south-1": {},
	}
	k := setup(t, regions)

	deleted, err := reconcile.New[*LocalKey, RemoteKey](k).Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, deleted)

	deleted, err = reconcile.New[*LocalKey, RemoteKey](k).Delete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
