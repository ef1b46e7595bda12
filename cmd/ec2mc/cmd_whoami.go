package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2mc/internal/gate"
)

func newWhoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the caller identity and which commands it may run",
		Long: `Show the IAM principal behind the configured credentials, then
simulate every action ec2mc needs in one call and list, per command,
the actions the principal is missing.`,
		Args: cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			return runWhoami(ctx, a)
		}),
	}
}

func runWhoami(ctx context.Context, a *app) error {
	var all []string
	for _, c := range commandActions {
		all = append(all, c.actions...)
	}

	denied, err := a.gate.Denied(ctx, union(all))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "principal: %s\n", a.gate.Principal())
	fmt.Fprintf(a.out, "account:   %s\n", a.gate.Account())
	fmt.Fprintf(a.out, "namespace: %s\n\n", a.cfg.Namespace)
	printPermissions(a.out, denied)
	return nil
}

// printPermissions lists each command with the denied actions it needs.
func printPermissions(w io.Writer, denied []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Command", "Missing permissions"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, c := range commandActions {
		var missing []string
		for _, action := range c.actions {
			if slices.Contains(denied, action) {
				missing = append(missing, action)
			}
		}
		status := "none"
		if len(missing) > 0 {
			status = strings.Join(missing, ", ")
		}
		table.Append([]string{c.command, status})
	}
	table.Render()
}

// requireCommand gates command's actions.
func requireCommand(ctx context.Context, a *app, command string, opts ...gate.Option) error {
	return a.gate.Require(ctx, actionsFor(command), opts...)
}
