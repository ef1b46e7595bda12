package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2mc/internal/address"
	"github.com/yairfalse/ec2mc/internal/discovery"
	"github.com/yairfalse/ec2mc/internal/gate"
	"github.com/yairfalse/ec2mc/internal/iphandler"
	"github.com/yairfalse/ec2mc/internal/servers"
)

// serverFlags select instances and tune start.
type serverFlags struct {
	regions   []string
	tags      []string
	names     []string
	ids       []string
	elasticIP bool
	userData  string
}

func (f *serverFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.regions, "region", nil, "Only instances in region (repeatable)")
	cmd.Flags().StringArrayVar(&f.tags, "tag", nil, "Only instances tagged key or key=v1,v2 (repeatable)")
	cmd.Flags().StringArrayVar(&f.names, "name", nil, "Only instances with this Name tag (repeatable)")
	cmd.Flags().StringArrayVar(&f.ids, "id", nil, "Only this instance ID (repeatable)")
}

func (f *serverFlags) query() (discovery.Query, error) {
	q := discovery.Query{Regions: f.regions, Names: f.names, IDs: f.ids}
	for _, t := range f.tags {
		tf, err := discovery.ParseTagFilter(t)
		if err != nil {
			return discovery.Query{}, err
		}
		q.Tags = append(q.Tags, tf)
	}
	return q, nil
}

func newServersCmd(flags *globalFlags) *cobra.Command {
	serversCmd := &cobra.Command{
		Use:     "servers",
		Aliases: []string{"server"},
		Short:   "Inspect, start and stop namespace instances",
		Long: `Instances are selected from every allowed region. All filters must
match: --region, --tag, --name and --id may each be repeated and match
any of their values.

Examples:
  # Every namespace instance
  ec2mc servers check

  # Start the survival servers in one region
  ec2mc servers start --region eu-west-1 --tag Mode=survival

  # Start one server and give it a stable address
  ec2mc servers start --name lobby --elastic-ip`,
	}

	checkFlags := &serverFlags{}
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Show instance state and address",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runServers(ctx, a, "servers check", checkFlags)
		}),
	}
	checkFlags.bind(checkCmd)

	startFlags := &serverFlags{}
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start instances and wait until they are running",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runServers(ctx, a, "servers start", startFlags)
		}),
	}
	startFlags.bind(startCmd)
	startCmd.Flags().BoolVar(&startFlags.elasticIP, "elastic-ip", false, "Associate a namespace elastic IP (needs exactly one instance)")
	startCmd.Flags().StringVar(&startFlags.userData, "user-data", "", "File whose content replaces the user data of stopped instances")

	stopFlags := &serverFlags{}
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop instances and wait until they are stopped",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runServers(ctx, a, "servers stop", stopFlags)
		}),
	}
	stopFlags.bind(stopCmd)

	serversCmd.AddCommand(checkCmd, startCmd, stopCmd)
	return serversCmd
}

func runServers(ctx context.Context, a *app, command string, f *serverFlags) error {
	q, err := f.query()
	if err != nil {
		return err
	}
	if err := requireCommand(ctx, a, command); err != nil {
		return err
	}

	regions, err := a.allowedRegions(ctx)
	if err != nil {
		return err
	}
	engine := discovery.NewEngine(a.clients, a.cfg.Namespace, regions)

	var instances []discovery.Instance
	if f.elasticIP {
		one, err := engine.Single(ctx, q)
		if err != nil {
			return err
		}
		instances = []discovery.Instance{one}

		// Address actions are only needed with --elastic-ip. They are checked
		// before anything is started.
		if err := requireCommand(ctx, a, "servers start --elastic-ip", gate.WithContext("aws:RequestedRegion", one.Region)); err != nil {
			return err
		}
	} else if instances, err = engine.Discover(ctx, q); err != nil {
		return err
	}

	if f.userData != "" {
		if err := requireCommand(ctx, a, "servers start --user-data"); err != nil {
			return err
		}
	}

	var handlers *iphandler.Registry
	if a.cfg.IPHandlers.Enabled {
		handlers = iphandler.NewRegistry(a.cfg.IPHandlers.Dir)
	}
	ctrl := servers.NewController(a.clients, handlers)

	var results []servers.Result
	switch command {
	case "servers check":
		results = ctrl.Check(ctx, instances)
	case "servers stop":
		results = ctrl.Stop(ctx, instances)
	default:
		opts := servers.StartOptions{}
		if f.userData != "" {
			data, err := os.ReadFile(f.userData) // #nosec G304 -- path is intentional user input
			if err != nil {
				return fmt.Errorf("read user data: %w", err)
			}
			opts.UserData = string(data)
		}
		results = ctrl.Start(ctx, instances, opts)
		if f.elasticIP && len(results) == 1 && results[0].Err == nil {
			results[0] = attachAddress(ctx, a, results[0])
		}
	}

	servers.Print(a.out, results)
	return servers.Summary(results)
}

// attachAddress associates a free namespace address with the started
// instance, allocating one when the region has none to spare.
func attachAddress(ctx context.Context, a *app, res servers.Result) servers.Result {
	i := res.Instance
	m := address.NewManager(a.clients, a.cfg.Namespace)

	addrs, err := m.List(ctx, []string{i.Region})
	if err != nil {
		res.Err = err
		return res
	}

	var chosen *address.Address
	for idx := range addrs {
		if addrs[idx].InstanceID == i.ID {
			res.Instance.PublicIP = addrs[idx].PublicIP
			return res
		}
		if chosen == nil && addrs[idx].AssociationID == "" {
			chosen = &addrs[idx]
		}
	}
	if chosen == nil {
		allocated, err := m.Allocate(ctx, i.Region)
		if err != nil {
			res.Err = err
			return res
		}
		chosen = &allocated
	}

	if _, err := m.Associate(ctx, i.Region, chosen.AllocationID, i.ID); err != nil {
		res.Err = err
		return res
	}
	res.Instance.PublicIP = chosen.PublicIP
	return res
}
