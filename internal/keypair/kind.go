package keypair

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/prober"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

// Actions are needed to check, upload and delete the namespace key pair.
var Actions = []string{
	"ec2:CreateTags",
	"ec2:DeleteKeyPair",
	"ec2:DescribeKeyPairs",
	"ec2:ImportKeyPair",
}

// RemoteKey is the namespace key pair in one region.
type RemoteKey struct {
	Region      string
	Name        string
	ID          string
	Fingerprint string
}

// Kind reconciles the namespace key pair. Names are regions.
type Kind struct {
	clients   awsapi.ClientFactory
	namespace string
	regions   []string

	// Propagation bounds the wait for an imported key to become visible.
	Propagation awsapi.Policy
}

var _ reconcile.Kind[*LocalKey, RemoteKey] = (*Kind)(nil)

// NewKind returns the key pair kind for namespace over regions.
func NewKind(clients awsapi.ClientFactory, namespace string, regions []string) *Kind {
	return &Kind{clients: clients, namespace: namespace, regions: regions, Propagation: awsapi.StatePolicy}
}

// Name implements reconcile.Kind.
func (k *Kind) Name() string { return "key_pair" }

// Locals maps every region to key.
func (k *Kind) Locals(key *LocalKey) map[string]*LocalKey {
	out := make(map[string]*LocalKey, len(k.regions))
	for _, r := range k.regions {
		out[r] = key
	}
	return out
}

// ListRemote describes the namespace key pair in every region concurrently.
func (k *Kind) ListRemote(ctx context.Context) (map[string]RemoteKey, error) {
	found, err := prober.Regions(ctx, k.regions, func(ctx context.Context, region string) (*RemoteKey, error) {
		return k.describe(ctx, region)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]RemoteKey)
	for region, key := range found {
		if key != nil {
			out[region] = *key
		}
	}
	return out, nil
}

func (k *Kind) describe(ctx context.Context, region string) (*RemoteKey, error) {
	output, err := k.clients.EC2(region).DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		Filters: []ec2types.Filter{awsapi.Filter("key-name", k.namespace)},
	})
	if err != nil {
		return nil, fmt.Errorf("describe key pairs: %w", err)
	}
	if len(output.KeyPairs) == 0 {
		return nil, nil
	}
	kp := output.KeyPairs[0]
	return &RemoteKey{
		Region:      region,
		Name:        aws.ToString(kp.KeyName),
		ID:          aws.ToString(kp.KeyPairId),
		Fingerprint: aws.ToString(kp.KeyFingerprint),
	}, nil
}

// Equal compares fingerprints.
func (k *Kind) Equal(_ context.Context, _ string, local *LocalKey, remote RemoteKey) (bool, error) {
	fp, err := local.Fingerprint()
	if err != nil {
		return false, err
	}
	return fp == remote.Fingerprint, nil
}

// Create writes a generated private key, imports the public key into region
// and waits until EC2 lists it.
func (k *Kind) Create(ctx context.Context, region string, local *LocalKey) error {
	if err := local.Save(); err != nil {
		return err
	}

	material, err := local.AuthorizedKey()
	if err != nil {
		return err
	}

	client := k.clients.EC2(region)
	if _, err := client.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(k.namespace),
		PublicKeyMaterial: material,
		TagSpecifications: awsapi.TagSpec(ec2types.ResourceTypeKeyPair, awsapi.NamespaceTags(k.namespace)),
	}); err != nil {
		return fmt.Errorf("import key pair: %w", err)
	}

	return awsapi.Retry(ctx, k.Propagation, "key pair "+k.namespace+" in "+region, nil, func(ctx context.Context) error {
		_, err := client.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{k.namespace}})
		return err
	})
}

// Update replaces the remote key with the local one.
func (k *Kind) Update(ctx context.Context, region string, local *LocalKey, remote RemoteKey) error {
	log.Warn().Ctx(ctx).Str("region", region).Str("fingerprint", remote.Fingerprint).Msg("replacing key pair with different fingerprint")
	if err := k.Delete(ctx, region, remote); err != nil {
		return err
	}
	return k.Create(ctx, region, local)
}

// Delete removes the key pair from region.
func (k *Kind) Delete(ctx context.Context, region string, remote RemoteKey) error {
	if _, err := k.clients.EC2(region).DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{KeyName: aws.String(remote.Name)}); err != nil {
		return fmt.Errorf("delete key pair: %w", err)
	}
	return nil
}

// Check lists the key pair in every region, loads or generates the local
// key and diffs the two. It fails with ErrPrivateKeyRequired when the local
// key is missing but some region already holds one.
func (k *Kind) Check(ctx context.Context, keyFile string) (*reconcile.Plan[*LocalKey, RemoteKey], *LocalKey, error) {
	r := reconcile.New[*LocalKey, RemoteKey](k)

	remote, err := k.ListRemote(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: list: %w", k.Name(), err)
	}

	key, err := Prepare(keyFile, len(remote) > 0)
	if err != nil {
		return nil, nil, err
	}
	if key.Generated() {
		log.Info().Ctx(ctx).Str("path", keyFile).Msg("generated new key pair")
	}

	plan, err := r.Diff(ctx, k.Locals(key), remote)
	if err != nil {
		return nil, nil, err
	}
	return plan, key, nil
}
