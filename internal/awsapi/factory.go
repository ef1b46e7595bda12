// Package awsapi holds the AWS client surface shared by every ec2mc component:
// narrow client interfaces, a client factory, error classification, region
// listing, namespace tagging and bounded retries.
package awsapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"
)

// Options configures NewFactory.
type Options struct {
	Profile string
	// Region is the home region for calls that are not region specific.
	Region string
}

// Factory creates AWS clients from a single shared configuration. Regional
// EC2 clients are built lazily and cached.
type Factory struct {
	cfg aws.Config

	mu   sync.Mutex
	ec2s map[string]*ec2.Client
	iam  *iam.Client
	sts  *sts.Client
}

// NewFactory loads the shared AWS configuration once.
func NewFactory(ctx context.Context, opts Options) (*Factory, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Profile != "" {
		loaders = append(loaders, config.WithSharedConfigProfile(opts.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Debug().Str("profile", opts.Profile).Str("region", awsCfg.Region).Msg("aws config loaded")

	return &Factory{
		cfg:  awsCfg,
		ec2s: make(map[string]*ec2.Client),
		iam:  iam.NewFromConfig(awsCfg),
		sts:  sts.NewFromConfig(awsCfg),
	}, nil
}

// EC2 returns the client for region. An empty region uses the home region.
func (f *Factory) EC2(region string) EC2API {
	if region == "" {
		region = f.cfg.Region
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.ec2s[region]; ok {
		return c
	}
	c := ec2.NewFromConfig(f.cfg, func(o *ec2.Options) {
		o.Region = region
	})
	f.ec2s[region] = c
	return c
}

// IAM returns the global IAM client.
func (f *Factory) IAM() IAMAPI { return f.iam }

// STS returns the global STS client.
func (f *Factory) STS() STSAPI { return f.sts }

// HomeRegion returns the region used for global calls.
func (f *Factory) HomeRegion() string { return f.cfg.Region }
