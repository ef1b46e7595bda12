package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2mc/internal/address"
	"github.com/yairfalse/ec2mc/internal/discovery"
)

type addressFlags struct {
	region     string
	allocation string
	instance   string
}

func newAddressCmd(flags *globalFlags) *cobra.Command {
	addressCmd := &cobra.Command{
		Use:     "address",
		Aliases: []string{"addresses"},
		Short:   "Manage namespace elastic IP addresses",
	}

	f := &addressFlags{}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List namespace addresses in every allowed region",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runAddressList(ctx, a)
		}),
	}

	allocateCmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate a namespace address",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runAddressAllocate(ctx, a, f)
		}),
	}
	allocateCmd.Flags().StringVar(&f.region, "region", "", "Region to allocate in")
	_ = allocateCmd.MarkFlagRequired("region")

	associateCmd := &cobra.Command{
		Use:   "associate",
		Short: "Associate an address with an instance",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runAddressAssociate(ctx, a, f)
		}),
	}
	associateCmd.Flags().StringVar(&f.region, "region", "", "Region of the address")
	associateCmd.Flags().StringVar(&f.allocation, "allocation", "", "Allocation ID")
	associateCmd.Flags().StringVar(&f.instance, "instance", "", "Instance ID")
	for _, name := range []string{"region", "allocation", "instance"} {
		_ = associateCmd.MarkFlagRequired(name)
	}

	releaseCmd := &cobra.Command{
		Use:   "release",
		Short: "Disassociate and release an address",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runAddressRelease(ctx, a, f)
		}),
	}
	releaseCmd.Flags().StringVar(&f.region, "region", "", "Region of the address")
	releaseCmd.Flags().StringVar(&f.allocation, "allocation", "", "Allocation ID")
	_ = releaseCmd.MarkFlagRequired("region")
	_ = releaseCmd.MarkFlagRequired("allocation")

	addressCmd.AddCommand(listCmd, allocateCmd, associateCmd, releaseCmd)
	return addressCmd
}

// addressRegion gates command and checks region is allowed.
func addressRegion(ctx context.Context, a *app, command, region string) error {
	if err := requireCommand(ctx, a, command); err != nil {
		return err
	}
	regions, err := a.allowedRegions(ctx)
	if err != nil {
		return err
	}
	return discovery.ValidateRegions([]string{region}, regions)
}

func runAddressList(ctx context.Context, a *app) error {
	if err := requireCommand(ctx, a, "address list"); err != nil {
		return err
	}
	regions, err := a.allowedRegions(ctx)
	if err != nil {
		return err
	}

	addrs, err := address.NewManager(a.clients, a.cfg.Namespace).List(ctx, regions)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		fmt.Fprintf(a.out, "namespace %s has no addresses\n", a.cfg.Namespace)
		return nil
	}
	address.Print(a.out, addrs)
	return nil
}

func runAddressAllocate(ctx context.Context, a *app, f *addressFlags) error {
	if err := addressRegion(ctx, a, "address allocate", f.region); err != nil {
		return err
	}
	addr, err := address.NewManager(a.clients, a.cfg.Namespace).Allocate(ctx, f.region)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "allocated %s (%s) in %s\n", addr.PublicIP, addr.AllocationID, addr.Region)
	return nil
}

func runAddressAssociate(ctx context.Context, a *app, f *addressFlags) error {
	if err := addressRegion(ctx, a, "address associate", f.region); err != nil {
		return err
	}
	id, err := address.NewManager(a.clients, a.cfg.Namespace).Associate(ctx, f.region, f.allocation, f.instance)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "associated %s with %s (%s)\n", f.allocation, f.instance, id)
	return nil
}

func runAddressRelease(ctx context.Context, a *app, f *addressFlags) error {
	if err := addressRegion(ctx, a, "address release", f.region); err != nil {
		return err
	}
	if err := address.NewManager(a.clients, a.cfg.Namespace).Release(ctx, f.region, f.allocation); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "released %s\n", f.allocation)
	return nil
}
