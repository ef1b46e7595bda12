package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2mc/internal/awsapi"
	"github.com/yairfalse/ec2mc/internal/config"
	"github.com/yairfalse/ec2mc/internal/gate"
	"github.com/yairfalse/ec2mc/internal/telemetry"
)

var version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config string
	debug  bool
	yes    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "ec2mc",
		Short: "Manage EC2 game servers",
		Long: `ec2mc manages a namespace of EC2 game servers.

It uploads the AWS setup the servers need (IAM policies, groups,
instance profiles, the SSH key pair, a VPC and security groups per
region), and starts, stops and inspects the servers themselves.

Every command first checks the caller is allowed to perform the
actions it needs and fails with the full list of missing permissions.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`ec2mc {{.Version}}
`)

	root.PersistentFlags().StringVar(&flags.config, "config", config.DefaultPath, "Config file path")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, "Answer yes to confirmation prompts")

	root.AddCommand(
		newWhoamiCmd(flags),
		newAWSCmd(flags),
		newServersCmd(flags),
		newAddressCmd(flags),
	)
	return root
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	clients awsapi.ClientFactory
	gate    *gate.Gate
	out     io.Writer

	// confirm asks a yes/no question. It is replaced in tests.
	confirm func(message string) (bool, error)

	regions  []string
	shutdown func(context.Context) error
}

// allowedRegions lists the usable regions once per invocation.
func (a *app) allowedRegions(ctx context.Context) ([]string, error) {
	if a.regions != nil {
		return a.regions, nil
	}
	regions, err := awsapi.AllowedRegions(ctx, a.clients.EC2(""), a.cfg.AWS.Regions)
	if err != nil {
		return nil, err
	}
	a.regions = regions
	return regions, nil
}

func newApp(ctx context.Context, flags *globalFlags, out io.Writer) (*app, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}
	telemetry.SetupLogging(cfg.Log.Level, flags.debug)

	provider, err := telemetry.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	clients, err := awsapi.NewFactory(ctx, awsapi.Options{Profile: cfg.AWS.Profile, Region: cfg.AWS.Region})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	g, err := gate.FromCaller(ctx, clients.STS(), clients.IAM())
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	log.Debug().Str("namespace", cfg.Namespace).Str("principal", g.Principal()).Msg("ready")

	return &app{
		cfg:      cfg,
		clients:  clients,
		gate:     g,
		out:      out,
		confirm:  surveyConfirm(flags.yes),
		shutdown: provider.Shutdown,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("telemetry shutdown")
	}
}

// withApp builds the app, runs fn and records the command outcome.
func withApp(flags *globalFlags, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, flags, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.close(ctx)

		start := time.Now()
		err = fn(ctx, a, args)
		telemetry.RecordCommand(ctx, cmd.CommandPath(), time.Since(start), err)
		return err
	}
}

func surveyConfirm(yes bool) func(string) (bool, error) {
	return func(message string) (bool, error) {
		if yes {
			return true, nil
		}
		ok := false
		if err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok); err != nil {
			return false, fmt.Errorf("confirm: %w", err)
		}
		return ok, nil
	}
}
